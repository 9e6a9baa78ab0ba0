package nlp

import (
	"fmt"
	"strings"
	"sync"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"

	"FakeNewsDetector/internal/preprocess"
)

// SentenceSegmenter splits text with the English punkt model, which knows common abbreviations
// such as "Mr." and "U.S.".
type SentenceSegmenter struct {
	mu        sync.Mutex
	tokenizer *sentences.DefaultSentenceTokenizer
}

var _ preprocess.SentenceSegmenter = (*SentenceSegmenter)(nil)

// NewSentenceSegmenter loads the bundled English training data.
func NewSentenceSegmenter() (*SentenceSegmenter, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load english sentence model: %w", err)
	}
	return &SentenceSegmenter{tokenizer: tok}, nil
}

// Sentences implements preprocess.SentenceSegmenter. Blank sentences are skipped.
func (s *SentenceSegmenter) Sentences(text string) []string {
	s.mu.Lock()
	tokens := s.tokenizer.Tokenize(text)
	s.mu.Unlock()

	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if sentence := strings.TrimSpace(t.Text); sentence != "" {
			out = append(out, sentence)
		}
	}
	return out
}
