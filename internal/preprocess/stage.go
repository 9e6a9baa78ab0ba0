// Package preprocess turns a raw article corpus into a clean, labeled text corpus through an
// ordered chain of filtering and cleaning stages.
package preprocess

import (
	"context"
	"time"

	"FakeNewsDetector/internal/corpus"
)

// Stage is one named step of the pipeline. Apply must not mutate its input; it returns a new
// corpus and the metrics of this single call.
type Stage interface {
	Name() string
	Apply(ctx context.Context, in *corpus.Corpus) (*corpus.Corpus, Metrics, error)
}

// Metrics describes one stage invocation.
type Metrics struct {
	Stage    string
	RowsIn   int
	RowsOut  int
	Duration time.Duration
	// Counters carries stage specific tallies, e.g. rows dropped for a particular reason.
	Counters map[string]int
}

// Dropped returns the number of rows removed by the stage.
func (m Metrics) Dropped() int {
	return m.RowsIn - m.RowsOut
}

func measure(name string, in, out *corpus.Corpus) Metrics {
	var m Metrics
	m.finish(name, in, out)
	return m
}

func (m *Metrics) finish(name string, in, out *corpus.Corpus) {
	m.Stage = name
	m.RowsIn = in.Len()
	m.RowsOut = out.Len()
}

func (m *Metrics) count(key string) {
	if m.Counters == nil {
		m.Counters = map[string]int{}
	}
	m.Counters[key]++
}
