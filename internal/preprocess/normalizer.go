package preprocess

import (
	"context"
	"regexp"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"FakeNewsDetector/internal/corpus"
)

// Normalization order
// 1 lowercase
// 2 strip <...> tags, non-greedy
// 3 strip tokens starting with http, https or www up to their last word character
// 4 strip CDATA and XML comment wrappers left over from multi-line markup
// 5 collapse every run outside [a-z0-9.,?!] to one space
// Tags go before URLs so that href values inside tags disappear with the tag.
var (
	tagExpr      = regexp.MustCompile(`<.*?>`)
	urlExpr      = regexp.MustCompile(`(^|[^a-z0-9])(?:https?|www)\S*\w`)
	wrapperExpr  = regexp.MustCompile(`(?i)<!\[CDATA\[|\]\]>|<!--|-->`)
	disallowExpr = regexp.MustCompile(`[^a-z0-9.,?!]+`)
)

// a Caser keeps state between calls, so each goroutine borrows its own
var caserPool = sync.Pool{
	New: func() any {
		c := cases.Lower(language.Und)
		return &c
	},
}

// Normalize cleans article text for tokenization. It is total and deterministic, and it is
// idempotent: Normalize(Normalize(s)) == Normalize(s). An all-space result is valid output.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	c := caserPool.Get().(*cases.Caser)
	text = c.String(text)
	c.Reset()
	caserPool.Put(c)

	text = tagExpr.ReplaceAllString(text, "")
	text = urlExpr.ReplaceAllString(text, "$1")
	text = wrapperExpr.ReplaceAllString(text, " ")
	return disallowExpr.ReplaceAllString(text, " ")
}

// NormalizeConfig names the text column to clean.
type NormalizeConfig struct {
	Column string `yaml:"column" validate:"required"`
}

// TextNormalizer applies Normalize to every present value of a column. Row count never changes.
type TextNormalizer struct {
	column string
}

// NewTextNormalizer validates cfg and builds the stage.
func NewTextNormalizer(cfg NormalizeConfig) (*TextNormalizer, error) {
	if err := validateConfig(StageNormalize, cfg); err != nil {
		return nil, err
	}
	return &TextNormalizer{column: cfg.Column}, nil
}

// Name implements Stage.
func (n *TextNormalizer) Name() string { return StageNormalize }

// Apply implements Stage.
func (n *TextNormalizer) Apply(_ context.Context, in *corpus.Corpus) (*corpus.Corpus, Metrics, error) {
	out, err := in.MapColumn(n.column, Normalize)
	if err != nil {
		return nil, Metrics{}, missingColumn(n.column)
	}
	return out, measure(n.Name(), in, out), nil
}
