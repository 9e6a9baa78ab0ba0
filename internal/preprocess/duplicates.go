package preprocess

import (
	"context"

	"FakeNewsDetector/internal/corpus"
)

// DuplicatesConfig names the column compared for exact duplicates.
type DuplicatesConfig struct {
	Column string `yaml:"column" validate:"required"`
}

// DuplicateFilter keeps the first row for every distinct value of a column.
// Equality is exact string equality; missing values are equal to each other.
type DuplicateFilter struct {
	column string
}

// NewDuplicateFilter validates cfg and builds the filter.
func NewDuplicateFilter(cfg DuplicatesConfig) (*DuplicateFilter, error) {
	if err := validateConfig(StageDuplicates, cfg); err != nil {
		return nil, err
	}
	return &DuplicateFilter{column: cfg.Column}, nil
}

// Name implements Stage.
func (f *DuplicateFilter) Name() string { return StageDuplicates }

// Apply implements Stage. The set of seen values lives only for this call.
func (f *DuplicateFilter) Apply(_ context.Context, in *corpus.Corpus) (*corpus.Corpus, Metrics, error) {
	values, err := in.ColumnValues(f.column)
	if err != nil {
		return nil, Metrics{}, missingColumn(f.column)
	}

	seen := make(map[corpus.Cell]struct{}, len(values))
	out := in.Filter(func(row int) bool {
		key := values[row]
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		return true
	})
	return out, measure(f.Name(), in, out), nil
}
