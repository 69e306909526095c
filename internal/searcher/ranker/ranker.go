// Package ranker scores documents against a free-text query by TF-IDF
// cosine similarity and selects the top K.
package ranker

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer/index"
)

type ScoredDoc struct {
	DocID int     `json:"doc_id"`
	Score float64 `json:"score"`
}

// Options controls scoring. With FullCosine unset the document side of the
// cosine is restricted to the query's dimensions.
type Options struct {
	Limit      int
	FullCosine bool
}

// QueryVector is a sparse tf-idf vector over indexed terms.
type QueryVector struct {
	Terms   []string
	Weights []float64
}

// Magnitude is the Euclidean norm of the vector.
func (q QueryVector) Magnitude() float64 {
	var sum float64
	for _, w := range q.Weights {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// NewQueryVector weights terms the way documents are weighted. Terms the
// index does not know are dropped before term frequencies are computed.
// Term order follows first occurrence.
func NewQueryVector(ix *index.Index, terms []string) QueryVector {
	counts := make(map[string]int, len(terms))
	var order []string
	total := 0
	for _, t := range terms {
		if !ix.Contains(t) {
			continue
		}
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
		total++
	}
	q := QueryVector{Terms: order, Weights: make([]float64, len(order))}
	for i, t := range order {
		idf, _ := ix.IDF(t)
		q.Weights[i] = float64(counts[t]) / float64(total) * idf
	}
	return q
}

// Rank scores every document sharing at least one term with the query and
// returns those with positive similarity, best first. Equal scores keep
// document order.
func Rank(ix *index.Index, terms []string, opts Options) []ScoredDoc {
	q := NewQueryVector(ix, terms)
	if len(q.Terms) == 0 {
		return []ScoredDoc{}
	}
	qMag := q.Magnitude()
	if qMag == 0 {
		return []ScoredDoc{}
	}

	// Documents outside the union have a zero dot product, so they are
	// never scored.
	var candidates index.PostingList
	for _, t := range q.Terms {
		candidates = index.Union(candidates, ix.Lookup(t))
	}

	top := newTopK(opts.Limit)
	for _, id := range candidates {
		doc, ok := ix.Document(id)
		if !ok {
			continue
		}
		var dot, restricted float64
		for i, t := range q.Terms {
			w := ix.Weight(doc, t)
			dot += q.Weights[i] * w
			restricted += w * w
		}
		dMag := math.Sqrt(restricted)
		if opts.FullCosine {
			dMag = doc.Magnitude
		}
		if dMag == 0 {
			continue
		}
		sim := dot / (qMag * dMag)
		if sim > 0 {
			top.Offer(ScoredDoc{DocID: id, Score: sim})
		}
	}
	return top.Sorted()
}
