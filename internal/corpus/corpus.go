package corpus

import (
	"fmt"
	"strings"
)

// Cell is a single field of a row. A cell that is not Valid holds a missing value.
type Cell struct {
	Text  string
	Valid bool
}

// Null is the missing value.
var Null = Cell{}

// String wraps s as a present value (possibly empty).
func String(s string) Cell {
	return Cell{Text: s, Valid: true}
}

// IsEmpty reports whether the cell is missing or holds the empty string.
func (c Cell) IsEmpty() bool {
	return !c.Valid || c.Text == ""
}

// Corpus is an ordered table of articles: one row per article, one column per attribute.
// Stages treat a Corpus as immutable and build a new one for their output.
type Corpus struct {
	columns []string
	index   map[string]int
	rows    [][]Cell
}

// New creates an empty corpus with the given unique column names.
func New(columns ...string) (*Corpus, error) {
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("column %d has an empty name", i)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		index[name] = i
	}

	cols := make([]string, len(columns))
	copy(cols, columns)

	return &Corpus{columns: cols, index: index}, nil
}

// MustNew is New for statically known column sets.
func MustNew(columns ...string) *Corpus {
	c, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return c
}

// Columns returns a copy of the column names in order.
func (c *Corpus) Columns() []string {
	out := make([]string, len(c.columns))
	copy(out, c.columns)
	return out
}

// Len returns the number of rows.
func (c *Corpus) Len() int {
	return len(c.rows)
}

// Has reports whether the corpus has the named column.
func (c *Corpus) Has(column string) bool {
	_, ok := c.index[column]
	return ok
}

// Index returns the position of the named column.
func (c *Corpus) Index(column string) (int, bool) {
	i, ok := c.index[column]
	return i, ok
}

// AppendRow adds a row; the number of cells must match the number of columns.
func (c *Corpus) AppendRow(cells ...Cell) error {
	if len(cells) != len(c.columns) {
		return fmt.Errorf("row has %d cells, corpus has %d columns", len(cells), len(c.columns))
	}
	row := make([]Cell, len(cells))
	copy(row, cells)
	c.rows = append(c.rows, row)
	return nil
}

// AppendRecord adds a row from a column->value map. Columns absent from the map are missing values.
func (c *Corpus) AppendRecord(record map[string]Cell) error {
	row := make([]Cell, len(c.columns))
	for name, cell := range record {
		i, ok := c.index[name]
		if !ok {
			return fmt.Errorf("unknown column %q", name)
		}
		row[i] = cell
	}
	c.rows = append(c.rows, row)
	return nil
}

// Row returns a copy of the cells of row i.
func (c *Corpus) Row(i int) []Cell {
	out := make([]Cell, len(c.rows[i]))
	copy(out, c.rows[i])
	return out
}

// Cell returns the value of column in row i.
func (c *Corpus) Cell(i int, column string) (Cell, error) {
	col, ok := c.index[column]
	if !ok {
		return Null, fmt.Errorf("unknown column %q", column)
	}
	if i < 0 || i >= len(c.rows) {
		return Null, fmt.Errorf("row %d out of range [0,%d)", i, len(c.rows))
	}
	return c.rows[i][col], nil
}

// ColumnValues returns every value of the named column in row order.
func (c *Corpus) ColumnValues(column string) ([]Cell, error) {
	col, ok := c.index[column]
	if !ok {
		return nil, fmt.Errorf("unknown column %q", column)
	}
	out := make([]Cell, len(c.rows))
	for i, row := range c.rows {
		out[i] = row[col]
	}
	return out, nil
}

// Filter returns a new corpus holding the rows for which keep returns true, in their original order.
func (c *Corpus) Filter(keep func(i int) bool) *Corpus {
	out := c.emptyLike()
	for i, row := range c.rows {
		if keep(i) {
			out.rows = append(out.rows, row)
		}
	}
	return out
}

// Select returns a new corpus with only the listed columns, in the listed order.
// Row count and order are unchanged.
func (c *Corpus) Select(columns ...string) (*Corpus, error) {
	out, err := New(columns...)
	if err != nil {
		return nil, err
	}

	positions := make([]int, len(columns))
	for i, name := range columns {
		col, ok := c.index[name]
		if !ok {
			return nil, fmt.Errorf("unknown column %q", name)
		}
		positions[i] = col
	}

	out.rows = make([][]Cell, len(c.rows))
	for r, row := range c.rows {
		projected := make([]Cell, len(positions))
		for i, col := range positions {
			projected[i] = row[col]
		}
		out.rows[r] = projected
	}
	return out, nil
}

// MapColumn returns a new corpus where every present value of column is replaced by fn(value).
// Missing values stay missing.
func (c *Corpus) MapColumn(column string, fn func(string) string) (*Corpus, error) {
	col, ok := c.index[column]
	if !ok {
		return nil, fmt.Errorf("unknown column %q", column)
	}

	out := c.emptyLike()
	out.rows = make([][]Cell, len(c.rows))
	for r, row := range c.rows {
		next := make([]Cell, len(row))
		copy(next, row)
		if next[col].Valid {
			next[col].Text = fn(next[col].Text)
		}
		out.rows[r] = next
	}
	return out, nil
}

// Clone returns a deep copy.
func (c *Corpus) Clone() *Corpus {
	out := c.emptyLike()
	out.rows = make([][]Cell, len(c.rows))
	for r, row := range c.rows {
		next := make([]Cell, len(row))
		copy(next, row)
		out.rows[r] = next
	}
	return out
}

func (c *Corpus) emptyLike() *Corpus {
	out := &Corpus{
		columns: make([]string, len(c.columns)),
		index:   make(map[string]int, len(c.index)),
	}
	copy(out.columns, c.columns)
	for k, v := range c.index {
		out.index[k] = v
	}
	return out
}
