package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"FakeNewsDetector/internal/corpus"
)

// JSON reads either an array of records or an object mapping article ids to records. Objects are
// ordered by numeric id, ids that are not numbers come last in lexical order. null is a missing
// value; numbers and booleans keep their literal text; nested values keep their compact JSON.
// Columns appear in the order their keys are first seen.
type JSON struct{}

type jsonRecord struct {
	keys   []string
	values map[string]corpus.Cell
}

// Name implements Codec.
func (JSON) Name() string { return "json" }

// Extensions implements Codec.
func (JSON) Extensions() []string { return []string{".json"} }

// Decode implements Codec.
func (JSON) Decode(r io.Reader) (*corpus.Corpus, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}

	var records []jsonRecord
	switch tok {
	case json.Delim('['):
		for dec.More() {
			rec, err := readRecord(dec)
			if err != nil {
				return nil, fmt.Errorf("json record %d: %w", len(records), err)
			}
			records = append(records, rec)
		}
	case json.Delim('{'):
		keyed := map[string]jsonRecord{}
		var ids []string
		for dec.More() {
			key, err := readKey(dec)
			if err != nil {
				return nil, err
			}
			rec, err := readRecord(dec)
			if err != nil {
				return nil, fmt.Errorf("json record %s: %w", key, err)
			}
			if _, ok := rec.values["id"]; !ok {
				rec.keys = append([]string{"id"}, rec.keys...)
				rec.values["id"] = corpus.String(key)
			}
			if _, dup := keyed[key]; !dup {
				ids = append(ids, key)
			}
			keyed[key] = rec
		}
		sortIDs(ids)
		for _, id := range ids {
			records = append(records, keyed[id])
		}
	default:
		return nil, fmt.Errorf("json: expected array or object, got %v", tok)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}

	return toCorpus(records)
}

func toCorpus(records []jsonRecord) (*corpus.Corpus, error) {
	var columns []string
	seen := map[string]struct{}{}
	for _, rec := range records {
		for _, k := range rec.keys {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				columns = append(columns, k)
			}
		}
	}

	c, err := corpus.New(columns...)
	if err != nil {
		return nil, fmt.Errorf("json columns: %w", err)
	}
	for i, rec := range records {
		if err := c.AppendRecord(rec.values); err != nil {
			return nil, fmt.Errorf("json record %d: %w", i, err)
		}
	}
	return c, nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("json key: %w", err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("json: expected key, got %v", tok)
	}
	return key, nil
}

func readRecord(dec *json.Decoder) (jsonRecord, error) {
	tok, err := dec.Token()
	if err != nil {
		return jsonRecord{}, err
	}
	if tok != json.Delim('{') {
		return jsonRecord{}, fmt.Errorf("expected object, got %v", tok)
	}

	rec := jsonRecord{values: map[string]corpus.Cell{}}
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return jsonRecord{}, err
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return jsonRecord{}, fmt.Errorf("field %s: %w", key, err)
		}
		cell, err := toCell(raw)
		if err != nil {
			return jsonRecord{}, fmt.Errorf("field %s: %w", key, err)
		}
		if _, dup := rec.values[key]; !dup {
			rec.keys = append(rec.keys, key)
		}
		rec.values[key] = cell
	}
	if _, err := dec.Token(); err != nil {
		return jsonRecord{}, err
	}
	return rec, nil
}

func toCell(raw json.RawMessage) (corpus.Cell, error) {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		return corpus.Null, nil
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return corpus.Cell{}, err
		}
		return corpus.String(s), nil
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return corpus.Cell{}, err
		}
		return corpus.String(buf.String()), nil
	}
}

func sortIDs(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, errA := strconv.ParseInt(ids[i], 10, 64)
		b, errB := strconv.ParseInt(ids[j], 10, 64)
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})
}

// Encode implements Codec. It writes an array of records with keys in column order; missing values
// become null.
func (JSON) Encode(w io.Writer, c *corpus.Corpus) error {
	bw := bufio.NewWriter(w)
	columns := c.Columns()
	keys := make([][]byte, len(columns))
	for i, col := range columns {
		k, err := json.Marshal(col)
		if err != nil {
			return fmt.Errorf("json column %s: %w", col, err)
		}
		keys[i] = k
	}

	bw.WriteByte('[')
	for i := 0; i < c.Len(); i++ {
		if i > 0 {
			bw.WriteByte(',')
		}
		bw.WriteByte('{')
		for j, cell := range c.Row(i) {
			if j > 0 {
				bw.WriteByte(',')
			}
			bw.Write(keys[j])
			bw.WriteByte(':')
			if !cell.Valid {
				bw.WriteString("null")
				continue
			}
			v, err := json.Marshal(cell.Text)
			if err != nil {
				return fmt.Errorf("json row %d: %w", i, err)
			}
			bw.Write(v)
		}
		bw.WriteByte('}')
	}
	bw.WriteString("]\n")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("json flush: %w", err)
	}
	return nil
}
