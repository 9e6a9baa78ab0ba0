package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"FakeNewsDetector/internal/corpus"
	"FakeNewsDetector/internal/domain"
	"FakeNewsDetector/internal/ports"
	"FakeNewsDetector/internal/preprocess"
)

// PreprocessorDeps wires the adapters the preprocessing workflow needs. Writer and Runs are
// optional.
type PreprocessorDeps struct {
	Engine *preprocess.Engine
	Loader ports.CorpusLoader
	Writer ports.CorpusWriter
	Runs   ports.RunRepository
	Logger *slog.Logger
	// Parallel bounds how many corpora PreprocessAll cleans at once. Zero or one cleans them one
	// after another.
	Parallel int
}

// Preprocessor loads datasets, runs them through the cleaning engine and records the outcome.
type Preprocessor struct {
	engine   *preprocess.Engine
	loader   ports.CorpusLoader
	writer   ports.CorpusWriter
	runs     ports.RunRepository
	logger   *slog.Logger
	parallel int
	now      func() time.Time
}

// PreprocessResult describes one cleaned corpus.
type PreprocessResult struct {
	RunID  string
	Input  string
	Output string
	Corpus *corpus.Corpus
	Report preprocess.Report
}

// Job names an input dataset and where to write the cleaned one. An empty Output skips writing.
type Job struct {
	Input  string
	Output string
}

// Outcome is the per-job result of PreprocessAll.
type Outcome struct {
	Job    Job
	Result PreprocessResult
	Err    error
}

// NewPreprocessor constructs the workflow.
func NewPreprocessor(deps PreprocessorDeps) *Preprocessor {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Preprocessor{
		engine:   deps.Engine,
		loader:   deps.Loader,
		writer:   deps.Writer,
		runs:     deps.Runs,
		logger:   logger,
		parallel: deps.Parallel,
		now:      time.Now,
	}
}

// Clean runs the engine on an in-memory corpus and logs its report.
func (p *Preprocessor) Clean(ctx context.Context, in *corpus.Corpus) (*corpus.Corpus, preprocess.Report, error) {
	out, report, err := p.engine.Run(ctx, in)
	if err != nil {
		return nil, report, err
	}
	logReport(p.logger, report)
	return out, report, nil
}

// Preprocess cleans one dataset file.
func (p *Preprocessor) Preprocess(ctx context.Context, job Job) (PreprocessResult, error) {
	started := p.now()
	runID := ulid.Make().String()
	log := p.logger.With("run", runID, "input", job.Input)

	in, err := p.loader.Load(ctx, job.Input)
	if err != nil {
		return PreprocessResult{}, fmt.Errorf("load dataset: %w", err)
	}
	log.Info("dataset loaded", "rows", in.Len(), "columns", in.Columns())

	out, report, err := p.engine.Run(ctx, in)
	if err != nil {
		return PreprocessResult{}, fmt.Errorf("preprocess %s: %w", job.Input, err)
	}
	logReport(log, report)

	written := false
	if job.Output != "" && p.writer != nil {
		if err := p.writer.Write(ctx, job.Output, out); err != nil {
			return PreprocessResult{}, fmt.Errorf("write cleaned dataset: %w", err)
		}
		written = true
		log.Info("cleaned dataset written", "output", job.Output, "rows", out.Len())
	}

	if p.runs != nil {
		run := toRun(runID, job.Input, started, p.now(), report)
		if err := p.runs.SaveRun(ctx, run, out); err != nil {
			// a failed run leaves no cleaned dataset behind
			if written {
				if rmErr := p.writer.Remove(context.WithoutCancel(ctx), job.Output); rmErr != nil {
					log.Warn("cleaned dataset not removed", "output", job.Output, "error", rmErr)
				}
			}
			return PreprocessResult{}, fmt.Errorf("record run: %w", err)
		}
	}

	return PreprocessResult{RunID: runID, Input: job.Input, Output: job.Output, Corpus: out, Report: report}, nil
}

// PreprocessAll cleans independent datasets concurrently. A failing job does not stop the
// others; every failure is reported in its Outcome and joined into the returned error.
func (p *Preprocessor) PreprocessAll(ctx context.Context, jobs []Job) ([]Outcome, error) {
	outcomes := make([]Outcome, len(jobs))

	var g errgroup.Group
	g.SetLimit(max(p.parallel, 1))
	for i, job := range jobs {
		g.Go(func() error {
			res, err := p.Preprocess(ctx, job)
			outcomes[i] = Outcome{Job: job, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return outcomes, errors.Join(errs...)
}

func toRun(id, dataset string, started, finished time.Time, report preprocess.Report) domain.Run {
	run := domain.Run{
		ID:         id,
		Dataset:    dataset,
		StartedAt:  started,
		FinishedAt: finished,
		RowsIn:     report.RowsIn,
		RowsOut:    report.RowsOut,
		Stages:     make([]domain.StageResult, 0, len(report.Stages)),
	}
	for i, m := range report.Stages {
		run.Stages = append(run.Stages, domain.StageResult{
			Position: i,
			Name:     m.Stage,
			RowsIn:   m.RowsIn,
			RowsOut:  m.RowsOut,
			Duration: m.Duration,
			Counters: m.Counters,
		})
	}
	return run
}

func logReport(log *slog.Logger, report preprocess.Report) {
	for _, m := range report.Stages {
		args := []any{"stage", m.Stage, "rows_in", m.RowsIn, "rows_out", m.RowsOut, "duration", m.Duration}
		for k, v := range m.Counters {
			args = append(args, k, v)
		}
		log.Info("stage finished", args...)
	}
	log.Info("preprocessing finished", "rows_in", report.RowsIn, "rows_out", report.RowsOut, "duration", report.Duration)
}
