package preprocess

import (
	"context"

	"FakeNewsDetector/internal/corpus"
)

// EmptinessConfig lists the columns that must hold a non-empty value.
type EmptinessConfig struct {
	Columns []string `yaml:"columns" validate:"required,min=1,dive,required"`
}

// EmptinessFilter removes rows where any target column is missing or the empty string.
// Scrapers sometimes produce a field that exists but is blank, so "" counts as missing.
type EmptinessFilter struct {
	columns []string
}

// NewEmptinessFilter validates cfg and builds the filter.
func NewEmptinessFilter(cfg EmptinessConfig) (*EmptinessFilter, error) {
	if err := validateConfig(StageEmpty, cfg); err != nil {
		return nil, err
	}
	cols := make([]string, len(cfg.Columns))
	copy(cols, cfg.Columns)
	return &EmptinessFilter{columns: cols}, nil
}

// Name implements Stage.
func (f *EmptinessFilter) Name() string { return StageEmpty }

// Apply implements Stage.
func (f *EmptinessFilter) Apply(_ context.Context, in *corpus.Corpus) (*corpus.Corpus, Metrics, error) {
	targets := make([][]corpus.Cell, len(f.columns))
	for i, col := range f.columns {
		values, err := in.ColumnValues(col)
		if err != nil {
			return nil, Metrics{}, missingColumn(col)
		}
		targets[i] = values
	}

	out := in.Filter(func(row int) bool {
		for _, values := range targets {
			if IsEmpty(values[row]) {
				return false
			}
		}
		return true
	})
	return out, measure(f.Name(), in, out), nil
}
