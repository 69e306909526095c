// Package index holds the in-memory inverted index: posting lists, per
// document term-frequency vectors and corpus statistics. A Builder collects
// documents (pass one); Freeze computes IDF and document magnitudes (pass
// two) and returns an immutable Index safe for concurrent readers.
package index

import (
	"math"
	"sort"
)

// DocumentVector maps a term to its relative frequency in one document.
// Entries sum to 1 when the document has at least one term.
type DocumentVector map[string]float64

// Document is one indexed corpus line.
type Document struct {
	ID     int            `json:"id"`
	Line   string         `json:"line"`
	Vector DocumentVector `json:"-"`
	// Magnitude is the Euclidean norm of the document's full tf-idf vector.
	Magnitude float64 `json:"-"`
}

// Builder accumulates documents. Ids must be added in ascending order.
type Builder struct {
	postings map[string]PostingList
	docs     []Document
	tokens   int
}

func NewBuilder() *Builder {
	return &Builder{postings: make(map[string]PostingList)}
}

// AddDocument indexes one document from its already-normalized terms.
func (b *Builder) AddDocument(id int, line string, terms []string) {
	counts := make(map[string]int, len(terms))
	for _, term := range terms {
		counts[term]++
		list := b.postings[term]
		if n := len(list); n == 0 || list[n-1] != id {
			b.postings[term] = append(list, id)
		}
	}
	vec := make(DocumentVector, len(counts))
	for term, c := range counts {
		vec[term] = float64(c) / float64(len(terms))
	}
	b.tokens += len(terms)
	b.docs = append(b.docs, Document{ID: id, Line: line, Vector: vec})
}

// Merge folds other into b. other must not be used afterwards.
func (b *Builder) Merge(other *Builder) {
	for term, list := range other.postings {
		existing, ok := b.postings[term]
		switch {
		case !ok:
			b.postings[term] = list
		case existing[len(existing)-1] < list[0]:
			b.postings[term] = append(existing, list...)
		default:
			b.postings[term] = Union(existing, list)
		}
	}
	inOrder := len(b.docs) == 0 || len(other.docs) == 0 || other.docs[0].ID > b.docs[len(b.docs)-1].ID
	b.docs = append(b.docs, other.docs...)
	if !inOrder {
		sort.SliceStable(b.docs, func(i, j int) bool { return b.docs[i].ID < b.docs[j].ID })
	}
	b.tokens += other.tokens
}

// Docs is the number of documents added so far.
func (b *Builder) Docs() int { return len(b.docs) }

// Freeze runs the second pass and hands the data over to an Index. The
// Builder must not be used afterwards.
func (b *Builder) Freeze() *Index {
	n := len(b.docs)
	idf := make(map[string]float64, len(b.postings))
	for term, list := range b.postings {
		idf[term] = 1 + math.Log10(float64(n)/float64(len(list)))
	}
	terms := make([]string, 0, 16)
	for i := range b.docs {
		// summed in term order so magnitudes are bit-for-bit reproducible
		terms = terms[:0]
		for term := range b.docs[i].Vector {
			terms = append(terms, term)
		}
		sort.Strings(terms)
		var sum float64
		for _, term := range terms {
			w := b.docs[i].Vector[term] * idf[term]
			sum += w * w
		}
		b.docs[i].Magnitude = math.Sqrt(sum)
	}
	ix := &Index{
		postings: b.postings,
		idf:      idf,
		docs:     b.docs,
		tokens:   b.tokens,
	}
	b.postings, b.docs = nil, nil
	return ix
}

// Index is a frozen inverted index.
type Index struct {
	postings map[string]PostingList
	idf      map[string]float64
	docs     []Document
	tokens   int
}

// Stats summarises an Index.
type Stats struct {
	Documents int `json:"documents"`
	Terms     int `json:"terms"`
	Postings  int `json:"postings"`
	Tokens    int `json:"tokens"`
}

// Lookup returns the posting list of term, empty when unknown. The result
// is shared and must not be modified.
func (ix *Index) Lookup(term string) PostingList {
	if list, ok := ix.postings[term]; ok {
		return list
	}
	return PostingList{}
}

func (ix *Index) Contains(term string) bool {
	_, ok := ix.postings[term]
	return ok
}

func (ix *Index) DocFreq(term string) int {
	return len(ix.postings[term])
}

// IDF returns 1 + log10(N/df) for indexed terms.
func (ix *Index) IDF(term string) (float64, bool) {
	v, ok := ix.idf[term]
	return v, ok
}

// N is the number of indexed documents.
func (ix *Index) N() int { return len(ix.docs) }

// Weight is the tf-idf weight of term in doc, 0 when absent.
func (ix *Index) Weight(doc *Document, term string) float64 {
	tf, ok := doc.Vector[term]
	if !ok {
		return 0
	}
	return tf * ix.idf[term]
}

// Document finds a document by id.
func (ix *Index) Document(id int) (*Document, bool) {
	i := sort.Search(len(ix.docs), func(i int) bool { return ix.docs[i].ID >= id })
	if i < len(ix.docs) && ix.docs[i].ID == id {
		return &ix.docs[i], true
	}
	return nil, false
}

// Documents returns all documents in id order. The slice is shared.
func (ix *Index) Documents() []Document { return ix.docs }

// Terms returns the vocabulary, sorted.
func (ix *Index) Terms() []string {
	terms := make([]string, 0, len(ix.postings))
	for term := range ix.postings {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

func (ix *Index) Stats() Stats {
	postings := 0
	for _, list := range ix.postings {
		postings += len(list)
	}
	return Stats{
		Documents: len(ix.docs),
		Terms:     len(ix.postings),
		Postings:  postings,
		Tokens:    ix.tokens,
	}
}
