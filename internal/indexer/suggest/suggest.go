// Package suggest maps likely keyboard typos back to indexed terms. The
// index is built once per corpus load from the vocabulary and is read-only
// afterwards.
package suggest

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Index maps a typo variant to the indexed terms it can come from.
type Index struct {
	variants map[string][]string
	vocab    map[string]struct{}
}

// Build generates the variants of every term in parallel across workers
// shards of the vocabulary.
func Build(ctx context.Context, terms []string, workers int) (*Index, error) {
	if workers <= 0 {
		workers = 1
	}
	vocab := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		vocab[t] = struct{}{}
	}

	partials := make([]map[string][]string, workers)
	g, gctx := errgroup.WithContext(ctx)
	chunk := (len(terms) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		if lo >= len(terms) {
			break
		}
		hi := min(lo+chunk, len(terms))
		w := w
		g.Go(func() error {
			local := make(map[string][]string)
			for i, term := range terms[lo:hi] {
				if i%1024 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				for _, v := range Variants(term) {
					if v == "" || v == term {
						continue
					}
					local[v] = append(local[v], term)
				}
			}
			partials[w] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	variants := make(map[string][]string)
	for _, local := range partials {
		for v, ts := range local {
			variants[v] = append(variants[v], ts...)
		}
	}
	for v, ts := range variants {
		variants[v] = dedupe(ts)
	}
	return &Index{variants: variants, vocab: vocab}, nil
}

// Candidates returns the indexed terms term may be a typo of, sorted.
// Besides the precomputed variants it checks the deletions of term itself
// so a doubled or inserted letter ("sttuttgart") is caught too.
func (s *Index) Candidates(term string) []string {
	var out []string
	out = append(out, s.variants[term]...)
	for _, d := range Deletions(term) {
		if _, ok := s.vocab[d]; ok && d != term {
			out = append(out, d)
		}
	}
	return dedupe(out)
}

// Len is the number of distinct variants.
func (s *Index) Len() int { return len(s.variants) }

func dedupe(ts []string) []string {
	if len(ts) == 0 {
		return nil
	}
	sort.Strings(ts)
	out := ts[:1]
	for _, t := range ts[1:] {
		if t != out[len(out)-1] {
			out = append(out, t)
		}
	}
	return out
}
