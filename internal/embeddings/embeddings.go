// Package embeddings reads pre-trained word vectors and aligns them with a vocabulary.
package embeddings

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const maxLine = 1 << 20

// ReadVec parses the fastText text format: a "count dim" header, then one word per line followed
// by its vector. When keep is non-nil only words it contains are retained. Every vector must have
// the header's dimension.
func ReadVec(r io.Reader, keep map[string]int) (map[string][]float32, int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, 0, fmt.Errorf("read header: %w", err)
		}
		return nil, 0, fmt.Errorf("empty vector file")
	}
	header := strings.Fields(sc.Text())
	if len(header) != 2 {
		return nil, 0, fmt.Errorf("malformed header %q", sc.Text())
	}
	dim, err := strconv.Atoi(header[1])
	if err != nil || dim <= 0 {
		return nil, 0, fmt.Errorf("malformed dimension %q", header[1])
	}

	vectors := map[string][]float32{}
	for line := 2; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		word := fields[0]
		if keep != nil {
			if _, ok := keep[word]; !ok {
				continue
			}
		}
		if len(fields)-1 != dim {
			return nil, 0, fmt.Errorf("line %d: %q has %d values, want %d", line, word, len(fields)-1, dim)
		}

		vec := make([]float32, dim)
		for i, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, 0, fmt.Errorf("line %d: %w", line, err)
			}
			vec[i] = float32(v)
		}
		vectors[word] = vec
	}
	if err := sc.Err(); err != nil {
		return nil, 0, fmt.Errorf("read vectors: %w", err)
	}

	return vectors, dim, nil
}

// Matrix builds one row per vocabulary index. Words without a vector keep a zero row and are
// counted in notFound.
func Matrix(index map[string]int, vectors map[string][]float32, dim int) (matrix [][]float32, notFound int) {
	rows := 0
	for _, idx := range index {
		rows = max(rows, idx+1)
	}

	matrix = make([][]float32, rows)
	for i := range matrix {
		matrix[i] = make([]float32, dim)
	}
	for word, idx := range index {
		vec, ok := vectors[word]
		if !ok {
			notFound++
			continue
		}
		copy(matrix[idx], vec)
	}
	return matrix, notFound
}
