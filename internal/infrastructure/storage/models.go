package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"FakeNewsDetector/internal/domain"
	"FakeNewsDetector/internal/ports"
)

const (
	wordIndexFile = "word_index.json"
	metaFile      = "meta.json"
)

// ErrModelNotFound is returned when no model with the requested name is stored.
var ErrModelNotFound = errors.New("model not found")

// ModelStore keeps what prediction needs from a training run in <dir>/<name>/.
type ModelStore struct {
	dir string
}

var _ ports.ModelStore = (*ModelStore)(nil)

// NewModelStore roots the store at dir.
func NewModelStore(dir string) *ModelStore {
	return &ModelStore{dir: dir}
}

// Save writes the word index and metadata of a model.
func (s *ModelStore) Save(meta domain.ModelMeta, wordIndex map[string]int) error {
	dir, err := s.modelDir(meta.Name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, wordIndexFile), wordIndex); err != nil {
		return fmt.Errorf("save word index: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, metaFile), meta); err != nil {
		return fmt.Errorf("save model meta: %w", err)
	}
	return nil
}

// Load reads back a stored model.
func (s *ModelStore) Load(name string) (domain.ModelMeta, map[string]int, error) {
	dir, err := s.modelDir(name)
	if err != nil {
		return domain.ModelMeta{}, nil, err
	}

	var meta domain.ModelMeta
	if err := readJSON(filepath.Join(dir, metaFile), &meta); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ModelMeta{}, nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
		}
		return domain.ModelMeta{}, nil, fmt.Errorf("load model meta: %w", err)
	}

	var index map[string]int
	if err := readJSON(filepath.Join(dir, wordIndexFile), &index); err != nil {
		return domain.ModelMeta{}, nil, fmt.Errorf("load word index: %w", err)
	}
	return meta, index, nil
}

func (s *ModelStore) modelDir(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid model name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
