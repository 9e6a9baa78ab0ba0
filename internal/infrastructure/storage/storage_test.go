package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"

	"FakeNewsDetector/internal/corpus"
	"FakeNewsDetector/internal/domain"
)

func newSQLiteRepository(t *testing.T) *SQLRepository {
	t.Helper()

	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := NewSQLRepository(db, DriverSQLite)
	if err := repo.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// migrations are repeatable
	if err := repo.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	return repo
}

func TestSaveRunAndLoadCorpus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newSQLiteRepository(t)

	cleaned := corpus.MustNew("body", "label")
	_ = cleaned.AppendRow(corpus.String("first body"), corpus.String("reliable"))
	_ = cleaned.AppendRow(corpus.String("second body"), corpus.Null)

	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	run := domain.Run{
		ID:         "run-1",
		Dataset:    "data/dataset.json",
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
		RowsIn:     5,
		RowsOut:    2,
		Stages: []domain.StageResult{
			{Position: 0, Name: "columns_filter", RowsIn: 5, RowsOut: 5, Duration: 3 * time.Millisecond, Counters: map[string]int{}},
			{Position: 1, Name: "size_filter", RowsIn: 5, RowsOut: 2, Duration: time.Millisecond, Counters: map[string]int{"too_short": 3}},
		},
	}
	if err := repo.SaveRun(ctx, run, cleaned); err != nil {
		t.Fatalf("save run: %v", err)
	}

	got, err := repo.LoadCorpus(ctx, "run-1")
	if err != nil {
		t.Fatalf("load corpus: %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", got.Len())
	}
	label, _ := got.Cell(1, "label")
	if label.Valid {
		t.Fatalf("missing label came back as %+v", label)
	}
	body, _ := got.Cell(0, "body")
	if body.Text != "first body" {
		t.Fatalf("unexpected body %q", body.Text)
	}

	runs, err := repo.Runs(ctx, 10)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || len(runs[0].Stages) != 2 {
		t.Fatalf("unexpected runs %+v", runs)
	}
	if !runs[0].StartedAt.Equal(started) {
		t.Fatalf("start time changed: %v", runs[0].StartedAt)
	}
	size := runs[0].Stages[1]
	if size.Name != "size_filter" || size.Counters["too_short"] != 3 || size.Duration != time.Millisecond {
		t.Fatalf("unexpected stage metrics %+v", size)
	}
}

func TestRunsNewestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newSQLiteRepository(t)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "new", "middle"} {
		offset := map[string]time.Duration{"old": 0, "middle": time.Minute, "new": 2 * time.Minute}[id]
		run := domain.Run{ID: id, Dataset: "d", StartedAt: base.Add(offset), FinishedAt: base.Add(offset), RowsIn: i}
		if err := repo.SaveRun(ctx, run, corpus.MustNew("body")); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	runs, err := repo.Runs(ctx, 2)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "new" || runs[1].ID != "middle" {
		t.Fatalf("unexpected order %+v", runs)
	}
}

func TestLoadCorpusUnknownRun(t *testing.T) {
	t.Parallel()

	repo := newSQLiteRepository(t)
	if _, err := repo.LoadCorpus(context.Background(), "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestSaveRunIsAtomic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newSQLiteRepository(t)
	run := domain.Run{ID: "dup", Dataset: "d"}

	if err := repo.SaveRun(ctx, run, corpus.MustNew("body")); err != nil {
		t.Fatalf("first save: %v", err)
	}
	c := corpus.MustNew("body")
	_ = c.AppendRow(corpus.String("x"))
	if err := repo.SaveRun(ctx, run, c); err == nil {
		t.Fatal("expected duplicate run id to fail")
	}

	got, err := repo.LoadCorpus(ctx, "dup")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Len() != 0 {
		t.Fatalf("rows of the failed save leaked: %d", got.Len())
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	if _, err := Open("mysql", "dsn"); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	t.Parallel()

	archive, err := NewArchive(t.TempDir())
	if err != nil {
		t.Fatalf("new archive: %v", err)
	}

	var first, second domain.RawArticle
	if err := json.Unmarshal([]byte(`{"id": 12, "title": "b", "source": {"id": 1, "name": "wire"}, "extra": true}`), &first); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"id": 3, "title": "a", "source": {"id": 2, "name": "blog"}}`), &second); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := archive.SaveArticles([]domain.RawArticle{first, second}); err != nil {
		t.Fatalf("save articles: %v", err)
	}
	if err := archive.SaveAnnotations([]domain.Annotation{{EntityID: 1, Value: domain.AnnotationValue{Value: "reliable"}}}); err != nil {
		t.Fatalf("save annotations: %v", err)
	}

	articles, err := archive.Articles()
	if err != nil {
		t.Fatalf("articles: %v", err)
	}
	if len(articles) != 2 || articles[0].ID != 3 || articles[1].ID != 12 {
		t.Fatalf("unexpected articles %+v", articles)
	}
	var raw map[string]any
	_ = json.Unmarshal(articles[1].Raw, &raw)
	if raw["extra"] != true {
		t.Fatalf("raw payload not preserved: %s", articles[1].Raw)
	}

	anns, err := archive.Annotations()
	if err != nil {
		t.Fatalf("annotations: %v", err)
	}
	if len(anns) != 1 || anns[0].EntityID != 1 || anns[0].Value.Value != "reliable" {
		t.Fatalf("unexpected annotations %+v", anns)
	}
}

func TestModelStore(t *testing.T) {
	t.Parallel()

	store := NewModelStore(t.TempDir())
	meta := domain.ModelMeta{Name: "baseline", SequenceLength: 40, VocabularySize: 3}
	index := map[string]int{"<pad>": 0, "senate": 1, "bill": 2}

	if err := store.Save(meta, index); err != nil {
		t.Fatalf("save: %v", err)
	}
	gotMeta, gotIndex, err := store.Load("baseline")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if gotMeta.SequenceLength != 40 || gotIndex["bill"] != 2 || len(gotIndex) != 3 {
		t.Fatalf("unexpected model %+v %v", gotMeta, gotIndex)
	}

	if _, _, err := store.Load("other"); !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
	if err := store.Save(domain.ModelMeta{Name: "../escape"}, index); err == nil {
		t.Fatal("expected error for a name outside the store")
	}
}

func TestPlaceholderFormatFollowsDriver(t *testing.T) {
	t.Parallel()

	cases := []struct {
		driver string
		want   string
	}{
		{driver: DriverSQLite, want: "SELECT id FROM preprocess_runs WHERE id = ?"},
		{driver: DriverPostgres, want: "SELECT id FROM preprocess_runs WHERE id = $1"},
	}
	for _, tc := range cases {
		repo := NewSQLRepository(nil, tc.driver)
		query, args, err := repo.sb.Select("id").From("preprocess_runs").Where(sq.Eq{"id": "run"}).ToSql()
		if err != nil {
			t.Fatalf("%s: build: %v", tc.driver, err)
		}
		if query != tc.want || len(args) != 1 {
			t.Fatalf("%s: got %q %v, want %q", tc.driver, query, args, tc.want)
		}
	}
}

func TestConcurrentSaveRunOnSQLite(t *testing.T) {
	t.Parallel()

	repo := newSQLiteRepository(t)
	ctx := context.Background()

	const writers = 8
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cleaned := corpus.MustNew("body", "label")
			_ = cleaned.AppendRow(corpus.String(fmt.Sprintf("article %d", i)), corpus.String("reliable"))
			now := time.Now()
			run := domain.Run{
				ID:         fmt.Sprintf("run-%d", i),
				Dataset:    "dataset.json",
				StartedAt:  now,
				FinishedAt: now,
				RowsIn:     1,
				RowsOut:    1,
				Stages:     []domain.StageResult{{Position: 0, Name: "size_filter", RowsIn: 1, RowsOut: 1}},
			}
			errs <- repo.SaveRun(ctx, run, cleaned)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent save: %v", err)
		}
	}
	runs, err := repo.Runs(ctx, 0)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != writers {
		t.Fatalf("expected %d runs, got %d", writers, len(runs))
	}
}
