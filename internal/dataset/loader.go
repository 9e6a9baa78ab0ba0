package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"FakeNewsDetector/internal/corpus"
	"FakeNewsDetector/internal/ports"
)

// FileLoader reads and writes corpora on the local filesystem. With an empty format the codec is
// chosen by file extension.
type FileLoader struct {
	registry *Registry
	format   string
	logger   *slog.Logger
}

var (
	_ ports.CorpusLoader = (*FileLoader)(nil)
	_ ports.CorpusWriter = (*FileLoader)(nil)
)

// NewFileLoader wires a registry; a nil registry means DefaultRegistry.
func NewFileLoader(reg *Registry, format string, log *slog.Logger) *FileLoader {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &FileLoader{registry: reg, format: format, logger: log}
}

func (l *FileLoader) codec(path string) (Codec, error) {
	if l.format != "" {
		return l.registry.Resolve(l.format)
	}
	return l.registry.ForPath(path)
}

// Load reads the whole file at path.
func (l *FileLoader) Load(ctx context.Context, path string) (*corpus.Corpus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	codec, err := l.codec(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	c, err := codec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	l.debug("dataset loaded", "path", path, "format", codec.Name(), "rows", c.Len(), "columns", len(c.Columns()))
	return c, nil
}

// Write replaces the file at path, creating parent directories.
func (l *FileLoader) Write(ctx context.Context, path string, c *corpus.Corpus) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	codec, err := l.codec(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dataset dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	if err := codec.Encode(f, c); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close dataset: %w", err)
	}
	l.debug("dataset written", "path", path, "format", codec.Name(), "rows", c.Len())
	return nil
}

// Remove deletes a dataset written earlier. A missing file is not an error.
func (l *FileLoader) Remove(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove dataset: %w", err)
	}
	l.debug("dataset removed", "path", path)
	return nil
}

func (l *FileLoader) debug(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}
