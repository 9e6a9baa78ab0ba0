package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"FakeNewsDetector/internal/config"
	"FakeNewsDetector/internal/logging"
	"FakeNewsDetector/internal/preprocess"
	"FakeNewsDetector/internal/usecase"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = filepath.Join(dir, "db", "runs.db")
	cfg.Data.Folder = filepath.Join(dir, "raw")
	cfg.Models.Dir = filepath.Join(dir, "models")
	cfg.Preprocess = preprocess.DefaultConfig()
	cfg.Preprocess.Size = preprocess.SizeConfig{Column: preprocess.ColumnBody, Lower: 5, Upper: 200}
	return cfg
}

func TestPreprocessRecordsRuns(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	ctx := context.Background()
	application, err := New(ctx, cfg, logging.NewWriter(io.Discard, "error"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer application.Close()

	dir := filepath.Dir(cfg.Database.DSN)
	input := filepath.Join(dir, "dataset.csv")
	body := "The government announced new measures to support small businesses during the winter months. " +
		"Officials said the program would start next week and run until the end of the year."
	csv := "id,title,body,label\n1,Measures,\"" + body + "\",reliable\n2,Empty,,reliable\n"
	if err := os.WriteFile(input, []byte(csv), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	output := filepath.Join(dir, "out", "clean.csv")
	outcomes, err := application.Preprocess(ctx, []usecase.Job{{Input: input, Output: output}})
	if err != nil {
		t.Fatalf("preprocess: %v", err)
	}
	if got := outcomes[0].Result.Corpus.Len(); got != 1 {
		t.Fatalf("expected one cleaned article, got %d", got)
	}

	written, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(written), "body,label\n") || !strings.Contains(string(written), "officials said") {
		t.Fatalf("unexpected output:\n%s", written)
	}

	runs, err := application.Runs(ctx, 10)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != outcomes[0].Result.RunID || runs[0].RowsIn != 2 || runs[0].RowsOut != 1 {
		t.Fatalf("unexpected runs %+v", runs)
	}
}

func TestRunsWithoutDatabase(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Database.DSN = ""
	application, err := New(context.Background(), cfg, logging.NewWriter(io.Discard, "error"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer application.Close()

	if _, err := application.Runs(context.Background(), 1); err == nil {
		t.Fatal("expected an error without a run database")
	}
}

func TestNewRejectsInvalidStageConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Database.DSN = ""
	cfg.Preprocess.Language.Code = "not a language"

	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected a configuration error")
	}
}

func TestPreprocessSeveralDatasetsOnSQLite(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	ctx := context.Background()
	application, err := New(ctx, cfg, logging.NewWriter(io.Discard, "error"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer application.Close()

	dir := filepath.Dir(cfg.Database.DSN)
	body := "The council approved the new budget for public transport after a long debate. " +
		"Members agreed that more buses will serve the northern districts from spring."
	csv := "id,title,body,label\n1,Budget,\"" + body + "\",reliable\n"

	jobs := make([]usecase.Job, 3)
	for i := range jobs {
		input := filepath.Join(dir, "dataset-"+string(rune('a'+i))+".csv")
		if err := os.WriteFile(input, []byte(csv), 0o644); err != nil {
			t.Fatalf("write input: %v", err)
		}
		jobs[i] = usecase.Job{Input: input, Output: filepath.Join(dir, "out", filepath.Base(input))}
	}

	if _, err := application.Preprocess(ctx, jobs); err != nil {
		t.Fatalf("preprocess: %v", err)
	}

	runs, err := application.Runs(ctx, 10)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != len(jobs) {
		t.Fatalf("expected %d recorded runs, got %d", len(jobs), len(runs))
	}
	for _, job := range jobs {
		if _, err := os.Stat(job.Output); err != nil {
			t.Fatalf("cleaned dataset %s: %v", job.Output, err)
		}
	}
}
