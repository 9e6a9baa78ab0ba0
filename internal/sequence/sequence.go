package sequence

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"FakeNewsDetector/internal/corpus"
	"FakeNewsDetector/internal/domain"
)

// Pad brings every sequence to maxLen. Short sequences get zeros appended; long ones lose their
// leading elements. maxLen 0 pads to the longest sequence.
func Pad(seqs [][]int, maxLen int) [][]int {
	if maxLen <= 0 {
		for _, s := range seqs {
			maxLen = max(maxLen, len(s))
		}
	}

	out := make([][]int, len(seqs))
	for i, s := range seqs {
		row := make([]int, maxLen)
		if len(s) > maxLen {
			s = s[len(s)-maxLen:]
		}
		copy(row, s)
		out[i] = row
	}
	return out
}

// EncodeLabels maps "unreliable" to 1 and anything else, missing included, to 0.
func EncodeLabels(labels []corpus.Cell) []int {
	out := make([]int, len(labels))
	for i, l := range labels {
		if l.Valid && l.Text == domain.LabelUnreliable {
			out[i] = 1
		}
	}
	return out
}

// Split shuffles indices 0..n-1 with seed and returns the train and test parts. The test part has
// ceil(n*testSize) elements.
func Split(n int, testSize float64, seed uint64) (train, test []int, err error) {
	if n < 2 {
		return nil, nil, fmt.Errorf("split needs at least 2 samples, got %d", n)
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size must be in (0, 1), got %v", testSize)
	}

	nTest := int(math.Ceil(float64(n) * testSize))
	if nTest >= n {
		return nil, nil, errors.New("test size leaves no training samples")
	}

	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

// Sample returns k distinct indices out of n chosen with seed. k >= n returns all indices in order.
func Sample(n, k int, seed uint64) []int {
	if k >= n || k <= 0 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return rand.New(rand.NewPCG(seed, seed)).Perm(n)[:k]
}

// Gather picks rows of seqs and labels by index.
func Gather(seqs [][]int, labels []int, idx []int) ([][]int, []int) {
	xs := make([][]int, len(idx))
	ys := make([]int, len(idx))
	for i, j := range idx {
		xs[i] = seqs[j]
		ys[i] = labels[j]
	}
	return xs, ys
}
