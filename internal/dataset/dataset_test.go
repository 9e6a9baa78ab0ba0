package dataset

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"FakeNewsDetector/internal/corpus"
)

func TestCSVDropsUnnamedIndexColumn(t *testing.T) {
	t.Parallel()

	in := ",body,label\n0,Some text,reliable\n1,,unreliable\n"
	c, err := CSV{}.Decode(strings.NewReader(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got := strings.Join(c.Columns(), ","); got != "body,label" {
		t.Fatalf("unexpected columns %s", got)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", c.Len())
	}
	body, _ := c.Cell(1, "body")
	if body.Valid {
		t.Fatalf("empty field should be missing, got %+v", body)
	}
}

func TestCSVRoundTripKeepsQuotedNewlines(t *testing.T) {
	t.Parallel()

	src := corpus.MustNew("body", "label")
	_ = src.AppendRow(corpus.String("line one\nline \"two\", three"), corpus.String("reliable"))
	_ = src.AppendRow(corpus.Null, corpus.String("unreliable"))

	var buf bytes.Buffer
	if err := (CSV{}).Encode(&buf, src); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := CSV{}.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	first, _ := got.Cell(0, "body")
	if first.Text != "line one\nline \"two\", three" {
		t.Fatalf("body changed: %q", first.Text)
	}
	second, _ := got.Cell(1, "body")
	if second.Valid {
		t.Fatalf("missing value should stay missing")
	}
}

func TestCSVRejectsRaggedRows(t *testing.T) {
	t.Parallel()

	if _, err := (CSV{}).Decode(strings.NewReader("body,label\nonly\n")); err == nil {
		t.Fatal("expected error for short record")
	}
	if _, err := (CSV{}).Decode(strings.NewReader("")); err == nil {
		t.Fatal("expected error for missing header")
	}
}

func TestJSONArrayOfRecords(t *testing.T) {
	t.Parallel()

	in := `[
	  {"id": 7, "body": "first", "label": "reliable"},
	  {"id": 8, "body": null, "label": "unreliable", "extra": {"a": 1}}
	]`
	c, err := JSON{}.Decode(strings.NewReader(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got := strings.Join(c.Columns(), ","); got != "id,body,label,extra" {
		t.Fatalf("unexpected columns %s", got)
	}
	id, _ := c.Cell(0, "id")
	if id.Text != "7" {
		t.Fatalf("number should keep its literal, got %q", id.Text)
	}
	body, _ := c.Cell(1, "body")
	if body.Valid {
		t.Fatalf("null should be missing")
	}
	extra, _ := c.Cell(0, "extra")
	if extra.Valid {
		t.Fatalf("absent key should be missing")
	}
	nested, _ := c.Cell(1, "extra")
	if nested.Text != `{"a":1}` {
		t.Fatalf("unexpected nested value %q", nested.Text)
	}
}

func TestJSONObjectKeyedByID(t *testing.T) {
	t.Parallel()

	in := `{"10": {"body": "ten"}, "2": {"id": 2, "body": "two"}, "x": {"body": "other"}}`
	c, err := JSON{}.Decode(strings.NewReader(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	cells, _ := c.ColumnValues("body")
	var order []string
	for _, cell := range cells {
		order = append(order, cell.Text)
	}
	if got := strings.Join(order, ","); got != "two,ten,other" {
		t.Fatalf("unexpected order %s", got)
	}
	id, _ := c.Cell(1, "id")
	if id.Text != "10" {
		t.Fatalf("id should default to the key, got %q", id.Text)
	}
}

func TestJSONEncodeKeepsColumnOrder(t *testing.T) {
	t.Parallel()

	src := corpus.MustNew("label", "body")
	_ = src.AppendRow(corpus.String("reliable"), corpus.Null)

	var buf bytes.Buffer
	if err := (JSON{}).Encode(&buf, src); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != `[{"label":"reliable","body":null}]` {
		t.Fatalf("unexpected json %s", got)
	}
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := DefaultRegistry()
	if _, err := reg.Resolve("CSV"); err != nil {
		t.Fatalf("resolve csv: %v", err)
	}
	if _, err := reg.Resolve("parquet"); err == nil {
		t.Fatal("expected error for unknown format")
	}
	codec, err := reg.ForPath("/data/dataset.JSON")
	if err != nil || codec.Name() != "json" {
		t.Fatalf("unexpected codec %v, %v", codec, err)
	}
	if _, err := reg.ForPath("/data/dataset.txt"); err == nil {
		t.Fatal("expected error for unknown extension")
	}
}

func TestFileLoaderWriteThenLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	loader := NewFileLoader(nil, "", nil)
	path := filepath.Join(t.TempDir(), "preprocessed", "dataset.csv")

	src := corpus.MustNew("body", "label")
	_ = src.AppendRow(corpus.String("text"), corpus.String("reliable"))
	if err := loader.Write(ctx, path, src); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := loader.Load(ctx, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Len() != 1 || strings.Join(got.Columns(), ",") != "body,label" {
		t.Fatalf("unexpected corpus: %d rows, columns %v", got.Len(), got.Columns())
	}
}

func TestFileLoaderRemove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	loader := NewFileLoader(nil, "", nil)
	path := filepath.Join(t.TempDir(), "dataset.json")

	src := corpus.MustNew("body")
	_ = src.AppendRow(corpus.String("text"))
	if err := loader.Write(ctx, path, src); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := loader.Remove(ctx, path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("dataset still present: %v", err)
	}
	if err := loader.Remove(ctx, path); err != nil {
		t.Fatalf("removing a missing dataset: %v", err)
	}
}
