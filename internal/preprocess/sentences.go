package preprocess

import (
	"context"

	"FakeNewsDetector/internal/corpus"
)

// SentenceLengthConfig bounds the average number of words per sentence. Both bounds are exclusive.
type SentenceLengthConfig struct {
	Column string  `yaml:"column" validate:"required"`
	Lower  float64 `yaml:"lower" validate:"gt=0"`
	Upper  float64 `yaml:"upper" validate:"gt=0,gtfield=Lower"`
}

// SentenceLengthFilter keeps rows whose average sentence length lies strictly between the bounds.
// Rows in which no sentence is found are rejected.
type SentenceLengthFilter struct {
	cfg       SentenceLengthConfig
	segmenter SentenceSegmenter
}

// NewSentenceLengthFilter validates cfg and builds the filter around seg.
func NewSentenceLengthFilter(cfg SentenceLengthConfig, seg SentenceSegmenter) (*SentenceLengthFilter, error) {
	if err := validateConfig(StageSentenceLength, cfg); err != nil {
		return nil, err
	}
	if seg == nil {
		return nil, &ConfigurationError{Stage: StageSentenceLength, Field: "segmenter", Reason: "segmenter is required"}
	}
	return &SentenceLengthFilter{cfg: cfg, segmenter: seg}, nil
}

// Name implements Stage.
func (f *SentenceLengthFilter) Name() string { return StageSentenceLength }

// Apply implements Stage.
func (f *SentenceLengthFilter) Apply(_ context.Context, in *corpus.Corpus) (*corpus.Corpus, Metrics, error) {
	values, err := in.ColumnValues(f.cfg.Column)
	if err != nil {
		return nil, Metrics{}, missingColumn(f.cfg.Column)
	}

	var m Metrics
	out := in.Filter(func(row int) bool {
		avg, ok := AverageSentenceLength(f.segmenter, values[row].Text)
		if !ok {
			m.count("no_sentences")
			return false
		}
		return WithinExclusive(avg, f.cfg.Lower, f.cfg.Upper)
	})

	m.finish(f.Name(), in, out)
	return out, m, nil
}
