package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer/suggest"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/searcher/ranker"
)

type staticSource struct{ snap *indexer.Snapshot }

func (s staticSource) Current() *indexer.Snapshot { return s.snap }

func newExecutor(b *testing.B, docs int) *executor.Executor {
	b.Helper()
	ix := buildIndex(b, syntheticCorpus(docs))
	sugg, err := suggest.Build(context.Background(), ix.Terms(), 4)
	if err != nil {
		b.Fatal(err)
	}
	return executor.New(staticSource{&indexer.Snapshot{Index: ix, Suggestions: sugg}}, executor.Options{MaxSuggestions: 10})
}

func BenchmarkQueryParse(b *testing.B) {
	queries := []struct {
		name  string
		query string
		mode  parser.Mode
	}{
		{"boolean_one", "Stuttgart", parser.ModeBoolean},
		{"boolean_two", "stuttgart bahn!", parser.ModeBoolean},
		{"ranked_long", "verspätung im fernverkehr zwischen stuttgart und münchen wegen streik", parser.ModeRanked},
	}
	for _, q := range queries {
		b.Run(q.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := parser.Parse(q.query, q.mode); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkBooleanSearch(b *testing.B) {
	ex := newExecutor(b, 20000)
	ctx := context.Background()
	queries := map[string]string{
		"single":     "bahn",
		"pair":       "stuttgart bahn",
		"suggestion": "sttuttgart bshn",
	}
	for name, q := range queries {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := ex.Search(ctx, q, parser.ModeBoolean, 100); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkRank(b *testing.B) {
	for _, docs := range []int{1000, 10000, 50000} {
		ix := buildIndex(b, syntheticCorpus(docs))
		terms := []string{"stuttgart", "bahn", "verspätung"}
		for _, full := range []bool{false, true} {
			b.Run(fmt.Sprintf("docs_%d/full_%v", docs, full), func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					_ = ranker.Rank(ix, terms, ranker.Options{Limit: 100, FullCosine: full})
				}
			})
		}
	}
}

func BenchmarkRankedSearchParallel(b *testing.B) {
	ex := newExecutor(b, 10000)
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := ex.Search(ctx, "stuttgart bahn ice", parser.ModeRanked, 0); err != nil {
				b.Fatal(err)
			}
		}
	})
}
