package ranker

import "container/heap"

// DefaultLimit is K when Options.Limit is unset.
const DefaultLimit = 100

// topK keeps the k best documents seen so far in a min-heap whose root is
// the current worst. Ties are broken towards the lower document id.
type topK struct {
	limit int
	h     scoredDocHeap
}

func newTopK(limit int) *topK {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &topK{limit: limit}
}

func (t *topK) Offer(doc ScoredDoc) {
	if t.h.Len() < t.limit {
		heap.Push(&t.h, doc)
		return
	}
	if worse(t.h[0], doc) {
		t.h[0] = doc
		heap.Fix(&t.h, 0)
	}
}

// Sorted drains the heap best first.
func (t *topK) Sorted() []ScoredDoc {
	out := make([]ScoredDoc, t.h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&t.h).(ScoredDoc)
	}
	return out
}

// worse reports whether a ranks below b.
func worse(a, b ScoredDoc) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.DocID > b.DocID
}

type scoredDocHeap []ScoredDoc

func (h scoredDocHeap) Len() int           { return len(h) }
func (h scoredDocHeap) Less(i, j int) bool { return worse(h[i], h[j]) }
func (h scoredDocHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *scoredDocHeap) Push(x interface{}) {
	*h = append(*h, x.(ScoredDoc))
}

func (h *scoredDocHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
