package preprocess

import (
	"regexp"
	"strings"

	"FakeNewsDetector/internal/corpus"
)

// SentenceSegmenter splits text into sentences. Implementations are expected to know about
// abbreviations, so "Dr. Smith arrived." is one sentence.
type SentenceSegmenter interface {
	Sentences(text string) []string
}

// LanguageDetector identifies the language of a text and returns its ISO 639-1 code.
// It returns an error when the text gives no usable signal.
type LanguageDetector interface {
	Detect(text string) (string, error)
}

var (
	// a line that ends in a word character is a sentence without its terminator
	lineEndExpr  = regexp.MustCompile(`(\w)[ \t]*\r?\n`)
	multiDotExpr = regexp.MustCompile(`\.{2,}`)
)

// IsEmpty reports whether a cell is missing or holds the empty string.
func IsEmpty(c corpus.Cell) bool {
	return c.IsEmpty()
}

// WordCount counts runs of non-whitespace characters.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// WithinExclusive reports lower < v < upper.
func WithinExclusive[T int | float64](v, lower, upper T) bool {
	return lower < v && v < upper
}

// PrepareForSegmentation terminates lines that end in a word and collapses ellipses, so the
// segmenter sees one terminator per sentence.
func PrepareForSegmentation(text string) string {
	text = lineEndExpr.ReplaceAllString(text, "$1.\n")
	return multiDotExpr.ReplaceAllString(text, ".")
}

// SentenceCount returns the number of non-blank sentences found in text.
func SentenceCount(seg SentenceSegmenter, text string) int {
	n := 0
	for _, s := range seg.Sentences(PrepareForSegmentation(text)) {
		if strings.TrimSpace(s) != "" {
			n++
		}
	}
	return n
}

// AverageSentenceLength returns words per sentence. ok is false when no sentence was found,
// in which case the average is undefined.
func AverageSentenceLength(seg SentenceSegmenter, text string) (avg float64, ok bool) {
	sentences := SentenceCount(seg, text)
	if sentences == 0 {
		return 0, false
	}
	return float64(WordCount(text)) / float64(sentences), true
}
