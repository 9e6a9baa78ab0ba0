package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
logging:
  level: debug
monant:
  username: reader
  pause: 1s
training:
  batchSize: 32
preprocess:
  size:
    lower: 50
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Logging.Level != "debug" || cfg.Monant.Username != "reader" || cfg.Monant.Pause != time.Second {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Monant.PageSize != 200 || cfg.Database.Driver != "sqlite" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if cfg.Training.BatchSize != 32 || cfg.Training.TestSize != 0.15 || cfg.Training.Epochs != 10 {
		t.Fatalf("unexpected training config %+v", cfg.Training)
	}

	size := cfg.Preprocess.Size
	if size.Lower != 50 || size.Upper != 10000 || size.Column != "body" {
		t.Fatalf("stage defaults not kept under a partial override: %+v", size)
	}
	if cfg.Preprocess.SentenceLength.Lower != 5 || cfg.Preprocess.Language.Code != "en" {
		t.Fatalf("untouched stages changed: %+v", cfg.Preprocess)
	}
}

func TestLoadFileErrors(t *testing.T) {
	t.Parallel()

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if _, err := LoadFile(writeConfig(t, "logging: [unclosed")); err == nil {
		t.Fatal("expected an error for invalid yaml")
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := writeConfig(t, "monant:\n  username: from-file\n")
	t.Setenv(configPathEnv, path)
	t.Setenv(monantUserEnv, "from-env")
	t.Setenv(monantPasswordEnv, "secret")
	t.Setenv(databaseDSNEnv, "postgres://localhost/runs")
	t.Setenv(databaseDriverEnv, "pgx")
	t.Setenv(mlAPIKeyEnv, "key")

	cfg := Load()

	if cfg.Monant.Username != "from-env" || cfg.Monant.Password != "secret" {
		t.Fatalf("credentials not overridden: %+v", cfg.Monant)
	}
	if cfg.Database.DSN != "postgres://localhost/runs" || cfg.Database.Driver != "pgx" {
		t.Fatalf("database not overridden: %+v", cfg.Database)
	}
	if cfg.ML.APIKey != "key" {
		t.Fatalf("ml key not overridden: %+v", cfg.ML)
	}
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "absent.yaml"))

	cfg := Load()
	if cfg.Data.Dataset != defaultConfig().Data.Dataset || cfg.Preprocess.Size.Lower != 200 {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}
