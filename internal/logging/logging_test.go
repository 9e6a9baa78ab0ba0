package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"error":   slog.LevelError,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"info":    slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"verbose": slog.LevelDebug,
		"":        slog.LevelDebug,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWriterFiltersAndTags(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := Component(NewWriter(&buf, "warn"), "preprocess")

	logger.Info("hidden")
	logger.Warn("shown", "rows", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %s", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "component=preprocess") || !strings.Contains(out, "rows=3") {
		t.Fatalf("unexpected output: %s", out)
	}
}
