package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"FakeNewsDetector/internal/domain"
	"FakeNewsDetector/internal/ports"
)

// Archive keeps raw platform payloads as one JSON file per article and per annotation under a
// data folder:
//
//	<dir>/articles/<article id>.json
//	<dir>/annotations/<entity id>.json
type Archive struct {
	dir string
}

var _ ports.ArticleArchive = (*Archive)(nil)

// NewArchive creates the folder layout under dir.
func NewArchive(dir string) (*Archive, error) {
	for _, sub := range []string{"articles", "annotations"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
	}
	return &Archive{dir: dir}, nil
}

// Dir is the data folder.
func (a *Archive) Dir() string { return a.dir }

// DatasetPath is where the labelled dataset is written.
func (a *Archive) DatasetPath() string { return filepath.Join(a.dir, "dataset.json") }

// SaveArticles writes every article, replacing earlier copies.
func (a *Archive) SaveArticles(articles []domain.RawArticle) error {
	for _, art := range articles {
		payload := []byte(art.Raw)
		if len(payload) == 0 {
			var err error
			if payload, err = json.Marshal(art); err != nil {
				return fmt.Errorf("marshal article %d: %w", art.ID, err)
			}
		}
		if err := writeFile(filepath.Join(a.dir, "articles", strconv.FormatInt(art.ID, 10)+".json"), payload); err != nil {
			return fmt.Errorf("save article %d: %w", art.ID, err)
		}
	}
	return nil
}

// SaveAnnotations writes every annotation keyed by its entity id.
func (a *Archive) SaveAnnotations(annotations []domain.Annotation) error {
	for _, ann := range annotations {
		payload := []byte(ann.Raw)
		if len(payload) == 0 {
			var err error
			if payload, err = json.Marshal(ann); err != nil {
				return fmt.Errorf("marshal annotation %d: %w", ann.EntityID, err)
			}
		}
		name := strconv.FormatInt(int64(ann.EntityID), 10) + ".json"
		if err := writeFile(filepath.Join(a.dir, "annotations", name), payload); err != nil {
			return fmt.Errorf("save annotation %d: %w", ann.EntityID, err)
		}
	}
	return nil
}

// Articles reads all archived articles ordered by id.
func (a *Archive) Articles() ([]domain.RawArticle, error) {
	var out []domain.RawArticle
	err := readAll(filepath.Join(a.dir, "articles"), func(name string, data []byte) error {
		var art domain.RawArticle
		if err := json.Unmarshal(data, &art); err != nil {
			return fmt.Errorf("article %s: %w", name, err)
		}
		out = append(out, art)
		return nil
	})
	return out, err
}

// Annotations reads all archived annotations ordered by entity id.
func (a *Archive) Annotations() ([]domain.Annotation, error) {
	var out []domain.Annotation
	err := readAll(filepath.Join(a.dir, "annotations"), func(name string, data []byte) error {
		var ann domain.Annotation
		if err := json.Unmarshal(data, &ann); err != nil {
			return fmt.Errorf("annotation %s: %w", name, err)
		}
		out = append(out, ann)
		return nil
	})
	return out, err
}

func readAll(dir string, fn func(name string, data []byte) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool {
		a, _ := strconv.ParseInt(strings.TrimSuffix(names[i], ".json"), 10, 64)
		b, _ := strconv.ParseInt(strings.TrimSuffix(names[j], ".json"), 10, 64)
		if a != b {
			return a < b
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := fn(name, data); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
