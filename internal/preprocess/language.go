package preprocess

import (
	"context"
	"strings"

	"golang.org/x/text/language"

	"FakeNewsDetector/internal/corpus"
)

// LanguageConfig selects the column to identify and the language to keep.
type LanguageConfig struct {
	Column string `yaml:"column" validate:"required"`
	Code   string `yaml:"code" validate:"required"`
}

// LanguageFilter keeps rows whose text is identified as the target language.
// A row on which detection fails is dropped, as if it were in another language, and counted
// under "detection_failures"; one unreadable article never aborts the corpus.
type LanguageFilter struct {
	column   string
	code     string
	detector LanguageDetector
}

// NewLanguageFilter validates cfg and builds the filter around detector.
func NewLanguageFilter(cfg LanguageConfig, detector LanguageDetector) (*LanguageFilter, error) {
	if err := validateConfig(StageLanguage, cfg); err != nil {
		return nil, err
	}
	if detector == nil {
		return nil, &ConfigurationError{Stage: StageLanguage, Field: "detector", Reason: "detector is required"}
	}

	base, err := language.ParseBase(strings.TrimSpace(cfg.Code))
	if err != nil {
		return nil, &ConfigurationError{Stage: StageLanguage, Field: "code", Reason: err.Error()}
	}

	return &LanguageFilter{column: cfg.Column, code: base.String(), detector: detector}, nil
}

// Name implements Stage.
func (f *LanguageFilter) Name() string { return StageLanguage }

// Apply implements Stage.
func (f *LanguageFilter) Apply(_ context.Context, in *corpus.Corpus) (*corpus.Corpus, Metrics, error) {
	values, err := in.ColumnValues(f.column)
	if err != nil {
		return nil, Metrics{}, missingColumn(f.column)
	}

	var m Metrics
	out := in.Filter(func(row int) bool {
		ok, err := f.matches(row, values[row].Text)
		if err != nil {
			m.count("detection_failures")
			return false
		}
		return ok
	})

	m.finish(f.Name(), in, out)
	return out, m, nil
}

func (f *LanguageFilter) matches(row int, text string) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, &DetectionError{Row: row, Err: panicError{r}}
		}
	}()

	code, derr := f.detector.Detect(text)
	if derr != nil {
		return false, &DetectionError{Row: row, Err: derr}
	}
	return strings.EqualFold(code, f.code), nil
}

type panicError struct{ v any }

func (p panicError) Error() string {
	return "detector panicked: " + strings.TrimSpace(strings.ReplaceAll(stringify(p.v), "\n", " "))
}

func stringify(v any) string {
	switch t := v.(type) {
	case error:
		return t.Error()
	case string:
		return t
	default:
		return "unknown panic"
	}
}
