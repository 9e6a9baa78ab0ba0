package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"FakeNewsDetector/internal/corpus"
)

// CSV reads a header row followed by records. An empty field is a missing value. A leading column
// with an empty header is a row index written by a previous export and is dropped.
type CSV struct{}

// Name implements Codec.
func (CSV) Name() string { return "csv" }

// Extensions implements Codec.
func (CSV) Extensions() []string { return []string{".csv"} }

// Decode implements Codec.
func (CSV) Decode(r io.Reader) (*corpus.Corpus, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv: missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}

	skip := 0
	if len(header) > 0 && header[0] == "" {
		skip = 1
	}
	columns := append([]string(nil), header[skip:]...)

	c, err := corpus.New(columns...)
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv record: %w", err)
		}

		cells := make([]corpus.Cell, 0, len(columns))
		for _, field := range record[skip:] {
			if field == "" {
				cells = append(cells, corpus.Null)
				continue
			}
			cells = append(cells, corpus.String(field))
		}
		if err := c.AppendRow(cells...); err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
	}

	return c, nil
}

// Encode implements Codec. Missing values are written as empty fields.
func (CSV) Encode(w io.Writer, c *corpus.Corpus) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(c.Columns()); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}

	record := make([]string, len(c.Columns()))
	for i := 0; i < c.Len(); i++ {
		for j, cell := range c.Row(i) {
			record[j] = cell.Text
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("csv row %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
