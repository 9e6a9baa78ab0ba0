// Package dataset reads and writes corpora as CSV or JSON files.
package dataset

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"FakeNewsDetector/internal/corpus"
)

// Codec converts between a file format and a corpus.
type Codec interface {
	Name() string
	Extensions() []string
	Decode(r io.Reader) (*corpus.Corpus, error)
	Encode(w io.Writer, c *corpus.Corpus) error
}

// Registry keeps a mapping from format names and file extensions to codecs.
type Registry struct {
	codecs     map[string]Codec
	extensions map[string]string
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: map[string]Codec{}, extensions: map[string]string{}}
}

// DefaultRegistry knows the csv and json formats.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(CSV{})
	r.Register(JSON{})
	return r
}

// Register adds or replaces a codec and claims its extensions.
func (r *Registry) Register(codec Codec) {
	if r.codecs == nil {
		r.codecs = map[string]Codec{}
		r.extensions = map[string]string{}
	}
	r.codecs[codec.Name()] = codec
	for _, ext := range codec.Extensions() {
		r.extensions[strings.ToLower(ext)] = codec.Name()
	}
}

// Resolve returns a codec by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Codec, error) {
	if codec, ok := r.codecs[strings.ToLower(name)]; ok {
		return codec, nil
	}
	return nil, fmt.Errorf("dataset format %q is not registered (known: %s)", name, strings.Join(r.Names(), ", "))
}

// ForPath picks the codec by file extension.
func (r *Registry) ForPath(path string) (Codec, error) {
	ext := strings.ToLower(filepath.Ext(path))
	name, ok := r.extensions[ext]
	if !ok {
		return nil, fmt.Errorf("no dataset format for extension %q of %s", ext, path)
	}
	return r.Resolve(name)
}

// Names lists registered formats, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.codecs))
	for name := range r.codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
