package preprocess

import (
	"context"

	"FakeNewsDetector/internal/corpus"
)

// SizeConfig bounds the word count of Column. Both bounds are exclusive.
type SizeConfig struct {
	Column string `yaml:"column" validate:"required"`
	Lower  int    `yaml:"lower" validate:"gt=0"`
	Upper  int    `yaml:"upper" validate:"gt=0,gtfield=Lower"`
}

// SizeFilter keeps rows with lower < words < upper. A row with exactly lower words is rejected.
type SizeFilter struct {
	cfg SizeConfig
}

// NewSizeFilter validates cfg and builds the filter.
func NewSizeFilter(cfg SizeConfig) (*SizeFilter, error) {
	if err := validateConfig(StageSize, cfg); err != nil {
		return nil, err
	}
	return &SizeFilter{cfg: cfg}, nil
}

// Name implements Stage.
func (f *SizeFilter) Name() string { return StageSize }

// Apply implements Stage.
func (f *SizeFilter) Apply(_ context.Context, in *corpus.Corpus) (*corpus.Corpus, Metrics, error) {
	values, err := in.ColumnValues(f.cfg.Column)
	if err != nil {
		return nil, Metrics{}, missingColumn(f.cfg.Column)
	}

	var m Metrics
	out := in.Filter(func(row int) bool {
		words := WordCount(values[row].Text)
		switch {
		case words <= f.cfg.Lower:
			m.count("too_short")
			return false
		case words >= f.cfg.Upper:
			m.count("too_long")
			return false
		}
		return true
	})

	m.finish(f.Name(), in, out)
	return out, m, nil
}
