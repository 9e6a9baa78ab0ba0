// Package sequence turns cleaned article bodies into fixed-length integer sequences for the
// embedding layer.
package sequence

import (
	"sort"
	"strings"
)

// PadToken is the vocabulary entry reserved for padding.
const PadToken = "<pad>"

// defaultFilters are the characters replaced by spaces before splitting.
const defaultFilters = "!\"#$%&()*+,-./:;<=>?@[\\]^_`{|}~\t\n"

// Tokenizer builds a frequency ranked vocabulary. The most frequent word gets index 1, ties keep
// the order of first occurrence. Fit and Transform are separate so a vocabulary fitted on the
// training corpus can be applied to unseen text.
type Tokenizer struct {
	// MaxWords keeps only words with index below it in Transform output. Zero keeps all.
	MaxWords int

	index  map[string]int
	filter map[rune]struct{}
}

// NewTokenizer returns an unfitted tokenizer.
func NewTokenizer(maxWords int) *Tokenizer {
	filter := make(map[rune]struct{}, len(defaultFilters))
	for _, r := range defaultFilters {
		filter[r] = struct{}{}
	}
	return &Tokenizer{MaxWords: maxWords, filter: filter}
}

// Words lowercases text, replaces filtered characters with spaces and splits on spaces.
func (t *Tokenizer) Words(text string) []string {
	text = strings.Map(func(r rune) rune {
		if _, ok := t.filter[r]; ok {
			return ' '
		}
		return r
	}, strings.ToLower(text))

	parts := strings.Split(text, " ")
	words := parts[:0]
	for _, p := range parts {
		if p != "" {
			words = append(words, p)
		}
	}
	return words
}

// Fit replaces the vocabulary with one built from texts.
func (t *Tokenizer) Fit(texts []string) {
	counts := map[string]int{}
	var order []string
	for _, text := range texts {
		for _, w := range t.Words(text) {
			if _, ok := counts[w]; !ok {
				order = append(order, w)
			}
			counts[w]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	t.index = make(map[string]int, len(order))
	for i, w := range order {
		t.index[w] = i + 1
	}
}

// Transform maps every text to the indices of its known words. Unknown words are skipped.
func (t *Tokenizer) Transform(texts []string) [][]int {
	out := make([][]int, len(texts))
	for i, text := range texts {
		seq := []int{}
		for _, w := range t.Words(text) {
			idx, ok := t.index[w]
			if !ok || (t.MaxWords > 0 && idx >= t.MaxWords) {
				continue
			}
			seq = append(seq, idx)
		}
		out[i] = seq
	}
	return out
}

// WordIndex returns a copy of the vocabulary including PadToken at 0. With MaxWords set only
// indices up to MaxWords are included.
func (t *Tokenizer) WordIndex() map[string]int {
	out := make(map[string]int, len(t.index)+1)
	for w, idx := range t.index {
		if t.MaxWords > 0 && idx > t.MaxWords {
			continue
		}
		out[w] = idx
	}
	out[PadToken] = 0
	return out
}

// Lookup maps words through a stored word index. Unknown words map to 0.
func Lookup(index map[string]int, words []string) []int {
	seq := make([]int, len(words))
	for i, w := range words {
		seq[i] = index[w]
	}
	return seq
}
