// Package nlp adapts third-party language identification and sentence boundary detection to the
// preprocessing predicates.
package nlp

import (
	"errors"
	"fmt"

	"github.com/abadojack/whatlanggo"

	"FakeNewsDetector/internal/preprocess"
)

// ErrUndetermined is returned when the text carries no usable language signal.
var ErrUndetermined = errors.New("language could not be determined")

// LanguageDetector identifies languages with whatlanggo's trigram model and reports ISO 639-1
// codes.
type LanguageDetector struct {
	minConfidence float64
}

var _ preprocess.LanguageDetector = (*LanguageDetector)(nil)

// NewLanguageDetector returns a detector; results below minConfidence are reported as
// ErrUndetermined. Zero accepts any result.
func NewLanguageDetector(minConfidence float64) *LanguageDetector {
	return &LanguageDetector{minConfidence: minConfidence}
}

// Detect implements preprocess.LanguageDetector.
func (d *LanguageDetector) Detect(text string) (string, error) {
	info := whatlanggo.Detect(text)
	if info.Script == nil {
		return "", ErrUndetermined
	}

	code := info.Lang.Iso6391()
	if code == "" {
		return "", fmt.Errorf("%w: %s has no two-letter code", ErrUndetermined, info.Lang.String())
	}
	if info.Confidence < d.minConfidence {
		return "", fmt.Errorf("%w: %s at confidence %.2f", ErrUndetermined, code, info.Confidence)
	}
	return code, nil
}
