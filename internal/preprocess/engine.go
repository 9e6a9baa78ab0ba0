package preprocess

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FakeNewsDetector/internal/corpus"
)

// Step pairs a stage with the name it runs under.
type Step struct {
	Name  string
	Stage Stage
}

// Report aggregates the metrics of one engine run.
type Report struct {
	Stages   []Metrics
	RowsIn   int
	RowsOut  int
	Duration time.Duration
}

// Stage returns the metrics of the named stage.
func (r Report) Stage(name string) (Metrics, bool) {
	for _, m := range r.Stages {
		if m.Stage == name {
			return m, true
		}
	}
	return Metrics{}, false
}

// Engine runs a fixed, ordered list of stages once per corpus. Stages run one after another on
// the caller's goroutine; each stage only sees the corpus handed over by its predecessor.
type Engine struct {
	steps []Step
}

// NewEngine builds an engine from stages, each running under its own Name().
func NewEngine(stages ...Stage) (*Engine, error) {
	steps := make([]Step, 0, len(stages))
	for _, s := range stages {
		if s == nil {
			return nil, &ConfigurationError{Stage: "engine", Reason: "nil stage"}
		}
		steps = append(steps, Step{Name: s.Name(), Stage: s})
	}
	return NewEngineSteps(steps...)
}

// NewEngineSteps builds an engine from explicitly named steps. Names must be unique.
func NewEngineSteps(steps ...Step) (*Engine, error) {
	seen := make(map[string]struct{}, len(steps))
	for i, st := range steps {
		if st.Stage == nil {
			return nil, &ConfigurationError{Stage: "engine", Field: st.Name, Reason: fmt.Sprintf("step %d has no stage", i)}
		}
		if st.Name == "" {
			return nil, &ConfigurationError{Stage: "engine", Reason: fmt.Sprintf("step %d has no name", i)}
		}
		if _, dup := seen[st.Name]; dup {
			return nil, &ConfigurationError{Stage: "engine", Field: st.Name, Reason: "duplicate step name"}
		}
		seen[st.Name] = struct{}{}
	}

	out := make([]Step, len(steps))
	copy(out, steps)
	return &Engine{steps: out}, nil
}

// Names returns the step names in execution order.
func (e *Engine) Names() []string {
	names := make([]string, len(e.steps))
	for i, st := range e.steps {
		names[i] = st.Name
	}
	return names
}

// Run feeds the corpus through every stage in order and returns the final corpus.
// Cancellation is honored between stages only. On failure no corpus is returned and the error is
// a *StageExecutionError naming the stage.
func (e *Engine) Run(ctx context.Context, in *corpus.Corpus) (*corpus.Corpus, Report, error) {
	if in == nil {
		return nil, Report{}, errors.New("nil corpus")
	}

	started := time.Now()
	report := Report{RowsIn: in.Len(), Stages: make([]Metrics, 0, len(e.steps))}

	cur := in
	for i, st := range e.steps {
		if err := ctx.Err(); err != nil {
			return nil, report, fmt.Errorf("pipeline cancelled before stage %s: %w", st.Name, err)
		}

		stageStart := time.Now()
		out, m, err := st.Stage.Apply(ctx, cur)
		if err != nil {
			return nil, report, wrapStageError(i, st.Name, err)
		}
		if out == nil {
			return nil, report, wrapStageError(i, st.Name, errors.New("stage returned no corpus"))
		}
		if out.Len() > cur.Len() {
			return nil, report, wrapStageError(i, st.Name, fmt.Errorf("stage grew corpus from %d to %d rows", cur.Len(), out.Len()))
		}

		m.Stage = st.Name
		m.Duration = time.Since(stageStart)
		report.Stages = append(report.Stages, m)
		cur = out
	}

	report.RowsOut = cur.Len()
	report.Duration = time.Since(started)
	return cur, report, nil
}

func wrapStageError(position int, name string, err error) error {
	se := &StageExecutionError{Stage: name, Position: position, Row: -1, Err: err}
	var ce *columnError
	if errors.As(err, &ce) {
		se.Row = ce.row
		se.Column = ce.column
	}
	return se
}
