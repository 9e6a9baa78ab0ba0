package preprocess

import (
	"context"

	"FakeNewsDetector/internal/corpus"
)

// ColumnsConfig selects which columns survive. Drop wins when both lists are set; with neither the
// corpus passes through unchanged.
type ColumnsConfig struct {
	Drop     []string `yaml:"drop" validate:"omitempty,dive,required"`
	KeepOnly []string `yaml:"keepOnly" validate:"omitempty,dive,required"`
}

// ColumnProjector drops columns. Names in the drop list that the corpus does not have are ignored,
// which keeps the projection idempotent.
type ColumnProjector struct {
	drop map[string]struct{}
	keep map[string]struct{}
}

// NewColumnProjector validates cfg and builds the projector.
func NewColumnProjector(cfg ColumnsConfig) (*ColumnProjector, error) {
	if err := validateConfig(StageColumns, cfg); err != nil {
		return nil, err
	}

	p := &ColumnProjector{}
	switch {
	case len(cfg.Drop) > 0:
		p.drop = toSet(cfg.Drop)
	case len(cfg.KeepOnly) > 0:
		p.keep = toSet(cfg.KeepOnly)
	}
	return p, nil
}

// Name implements Stage.
func (p *ColumnProjector) Name() string { return StageColumns }

// Apply implements Stage.
func (p *ColumnProjector) Apply(_ context.Context, in *corpus.Corpus) (*corpus.Corpus, Metrics, error) {
	if p.drop == nil && p.keep == nil {
		out := in.Clone()
		return out, measure(p.Name(), in, out), nil
	}

	var surviving []string
	for _, name := range in.Columns() {
		if p.retains(name) {
			surviving = append(surviving, name)
		}
	}

	out, err := in.Select(surviving...)
	if err != nil {
		return nil, Metrics{}, err
	}
	return out, measure(p.Name(), in, out), nil
}

func (p *ColumnProjector) retains(column string) bool {
	if p.drop != nil {
		_, dropped := p.drop[column]
		return !dropped
	}
	_, kept := p.keep[column]
	return kept
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
