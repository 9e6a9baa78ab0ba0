package preprocess

import (
	"context"
	"errors"
	"strings"
	"testing"

	"FakeNewsDetector/internal/corpus"
)

type failingStage struct{ err error }

func (failingStage) Name() string { return "explode" }

func (s failingStage) Apply(context.Context, *corpus.Corpus) (*corpus.Corpus, Metrics, error) {
	return nil, Metrics{}, s.err
}

type cancelStage struct{ cancel context.CancelFunc }

func (cancelStage) Name() string { return "cancel" }

func (s cancelStage) Apply(_ context.Context, in *corpus.Corpus) (*corpus.Corpus, Metrics, error) {
	s.cancel()
	return in, measure("cancel", in, in), nil
}

func rawArticles(t *testing.T) *corpus.Corpus {
	t.Helper()

	c := corpus.MustNew("id", "title", "perex", "body", "author", "image", "source", "label")
	articles := []map[string]corpus.Cell{
		{
			"id":     corpus.String("1"),
			"title":  corpus.String("Politik"),
			"body":   corpus.String("Dies ist ein deutscher Artikel über Politik. Er hat mehrere Sätze und Wörter."),
			"source": corpus.String("zeitung"),
			"label":  corpus.String("reliable"),
		},
		{
			"id":     corpus.String("2"),
			"title":  corpus.String("Short"),
			"body":   corpus.String("Too short."),
			"source": corpus.String("blog"),
			"label":  corpus.String("unreliable"),
		},
		{
			"id":     corpus.String("3"),
			"title":  corpus.String("Senate"),
			"perex":  corpus.String("Bill passes"),
			"body":   corpus.String("<p>The Senate passed the bill on Monday.</p> Critics said it was rushed. See https://example.com/x for details."),
			"author": corpus.String("Jane Roe"),
			"image":  corpus.String("https://example.com/a.jpg"),
			"source": corpus.String("wire"),
			"label":  corpus.String("reliable"),
		},
	}
	for _, a := range articles {
		if err := c.AppendRecord(a); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return c
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Size = SizeConfig{Column: ColumnBody, Lower: 2, Upper: 100}
	cfg.SentenceLength = SentenceLengthConfig{Column: ColumnBody, Lower: 1, Upper: 50}
	return cfg
}

func TestDefaultEngineEndToEnd(t *testing.T) {
	t.Parallel()

	engine, err := NewDefaultEngine(testConfig(), stubDetector{
		byKeyword: map[string]string{"deutscher": "de"},
		fallback:  "en",
	}, splitSegmenter{})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	want := []string{StageColumns, StageEmpty, StageSize, StageSentenceLength, StageLanguage, StageNormalize, StageDuplicates}
	if got := strings.Join(engine.Names(), ","); got != strings.Join(want, ",") {
		t.Fatalf("stage order %s", got)
	}

	raw := rawArticles(t)
	out, report, err := engine.Run(context.Background(), raw)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if out.Len() != 1 {
		t.Fatalf("expected one surviving article, got %d", out.Len())
	}
	if got := strings.Join(out.Columns(), ","); got != "body,label" {
		t.Fatalf("unexpected columns %s", got)
	}
	body, _ := out.Cell(0, ColumnBody)
	if body.Text != "the senate passed the bill on monday. critics said it was rushed. see for details." {
		t.Fatalf("unexpected body %q", body.Text)
	}

	if report.RowsIn != 3 || report.RowsOut != 1 || len(report.Stages) != len(want) {
		t.Fatalf("unexpected report %+v", report)
	}
	prev := report.RowsIn
	for _, m := range report.Stages {
		if m.RowsIn != prev || m.RowsOut > m.RowsIn {
			t.Fatalf("row counts not monotonic at %s: %+v", m.Stage, m)
		}
		prev = m.RowsOut
	}
	if size, _ := report.Stage(StageSize); size.Dropped() != 1 {
		t.Fatalf("size filter should drop the short article: %+v", size)
	}
	if lang, _ := report.Stage(StageLanguage); lang.Dropped() != 1 {
		t.Fatalf("language filter should drop the german article: %+v", lang)
	}
	if raw.Len() != 3 || len(raw.Columns()) != 8 {
		t.Fatalf("input corpus was mutated")
	}
}

func TestEngineAbortsOnStageError(t *testing.T) {
	t.Parallel()

	size, err := NewSizeFilter(SizeConfig{Column: "text", Lower: 1, Upper: 5})
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	boom := errors.New("boom")

	tests := []struct {
		name     string
		stages   []Stage
		stage    string
		position int
		column   string
		cause    error
	}{
		{name: "missing column", stages: []Stage{size}, stage: StageSize, position: 0, column: "text", cause: ErrMissingColumn},
		{name: "generic failure", stages: []Stage{&ColumnProjector{}, failingStage{err: boom}}, stage: "explode", position: 1, cause: boom},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			engine, err := NewEngine(tc.stages...)
			if err != nil {
				t.Fatalf("new engine: %v", err)
			}
			out, _, err := engine.Run(context.Background(), bodies(t, "a b c"))
			if out != nil {
				t.Fatal("partial corpus returned on failure")
			}

			var se *StageExecutionError
			if !errors.As(err, &se) {
				t.Fatalf("expected StageExecutionError, got %v", err)
			}
			if se.Stage != tc.stage || se.Position != tc.position || se.Column != tc.column {
				t.Fatalf("unexpected error context: %+v", se)
			}
			if !errors.Is(err, tc.cause) {
				t.Fatalf("cause lost: %v", err)
			}
			if !strings.Contains(err.Error(), tc.stage) {
				t.Fatalf("message does not name the stage: %v", err)
			}
		})
	}
}

func TestEngineStopsBetweenStagesWhenCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine, err := NewEngine(cancelStage{cancel: cancel}, failingStage{err: errors.New("must not run")})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	_, report, err := engine.Run(ctx, bodies(t, "a"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(report.Stages) != 1 {
		t.Fatalf("first stage should have completed, report %+v", report)
	}
}

func TestEngineRejectsBadSteps(t *testing.T) {
	t.Parallel()

	if _, err := NewEngine(nil); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("nil stage accepted: %v", err)
	}
	dup := &ColumnProjector{}
	if _, err := NewEngineSteps(Step{Name: "a", Stage: dup}, Step{Name: "a", Stage: dup}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("duplicate names accepted: %v", err)
	}
	if _, err := NewEngineSteps(Step{Stage: dup}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("unnamed step accepted: %v", err)
	}
}

func TestEngineNamedSteps(t *testing.T) {
	t.Parallel()

	dups, _ := NewDuplicateFilter(DuplicatesConfig{Column: ColumnBody})
	engine, err := NewEngineSteps(Step{Name: "dedupe_bodies", Stage: dups})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	_, report, err := engine.Run(context.Background(), bodies(t, "a", "a"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if m, ok := report.Stage("dedupe_bodies"); !ok || m.Dropped() != 1 {
		t.Fatalf("metrics not reported under step name: %+v", report)
	}
}
