package model

import "slices"

// Prediction is one scored output class. Score is an accumulated path
// log-probability when produced by the tree search and a raw output
// activation when produced by the flat scan.
type Prediction struct {
	Score float32
	Class int
}

// topK is a bounded min-heap on score holding the k best candidates
// seen so far. The minimum sits at items[0].
type topK struct {
	k     int
	items []Prediction
}

func newTopK(k int) *topK {
	return &topK{k: k, items: make([]Prediction, 0, k+1)}
}

func (h *topK) full() bool { return len(h.items) == h.k }

// min returns the smallest retained score. Only valid when non-empty.
func (h *topK) min() float32 { return h.items[0].Score }

// push offers a candidate. When the heap is full, candidates that do
// not beat the current minimum are dropped; ties with the minimum keep
// the incumbent.
func (h *topK) push(p Prediction) {
	if h.full() && p.Score <= h.min() {
		return
	}
	h.items = append(h.items, p)
	h.up(len(h.items) - 1)
	if len(h.items) > h.k {
		h.pop()
	}
}

func (h *topK) pop() {
	n := len(h.items) - 1
	h.items[0] = h.items[n]
	h.items = h.items[:n]
	h.down(0)
}

func (h *topK) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if h.items[parent].Score <= h.items[i].Score {
			return
		}
		h.items[parent], h.items[i] = h.items[i], h.items[parent]
		i = parent
	}
}

func (h *topK) down(i int) {
	n := len(h.items)
	for {
		small := i
		if l := 2*i + 1; l < n && h.items[l].Score < h.items[small].Score {
			small = l
		}
		if r := 2*i + 2; r < n && h.items[r].Score < h.items[small].Score {
			small = r
		}
		if small == i {
			return
		}
		h.items[i], h.items[small] = h.items[small], h.items[i]
		i = small
	}
}

// sorted returns the retained candidates in descending score order.
// Order among equal scores is unspecified.
func (h *topK) sorted() []Prediction {
	out := slices.Clone(h.items)
	slices.SortFunc(out, func(a, b Prediction) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	return out
}
