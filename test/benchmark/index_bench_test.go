// Package benchmark measures index construction, boolean lookup and ranked
// retrieval over a synthetic corpus.
package benchmark

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer/corpus"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer/shard"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer/suggest"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/config"
)

var vocabulary = []string{
	"stuttgart", "bahn", "berlin", "münchen", "hamburg", "zug", "verspätung",
	"stellwerk", "fernverkehr", "bahnhof", "gleis", "ersatzverkehr", "ulm",
	"köln", "frankfurt", "streik", "lokführer", "ticket", "sparpreis", "ice",
}

// syntheticCorpus returns n lines of 5 to 15 words drawn with a skewed
// distribution, so a few terms have long posting lists.
func syntheticCorpus(n int) string {
	rng := rand.New(rand.NewSource(1))
	var sb strings.Builder
	for i := 0; i < n; i++ {
		words := 5 + rng.Intn(11)
		for j := 0; j < words; j++ {
			if j > 0 {
				sb.WriteByte(' ')
			}
			k := rng.Intn(len(vocabulary))
			k = k * k / len(vocabulary)
			sb.WriteString(vocabulary[k])
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func buildIndex(b *testing.B, lines string) *index.Index {
	b.Helper()
	builder := index.NewBuilder()
	r := corpus.NewReader(strings.NewReader(lines), config.Default().Corpus)
	err := r.Each(func(rec corpus.Record) error {
		builder.AddDocument(rec.ID, rec.Line, tokenizer.Tokenize(rec.Body))
		return nil
	})
	if err != nil {
		b.Fatal(err)
	}
	return builder.Freeze()
}

func BenchmarkBuildSequential(b *testing.B) {
	for _, n := range []int{1000, 10000} {
		lines := syntheticCorpus(n)
		b.Run(fmt.Sprintf("docs_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(lines)))
			for i := 0; i < b.N; i++ {
				_ = buildIndex(b, lines)
			}
		})
	}
}

func BenchmarkBuildPartitioned(b *testing.B) {
	lines := syntheticCorpus(20000)
	for _, workers := range []int{1, 2, 4, 8} {
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(lines)))
			for i := 0; i < b.N; i++ {
				r := corpus.NewReader(strings.NewReader(lines), config.Default().Corpus)
				builder, err := shard.Build(context.Background(), r, shard.Options{
					Workers:       workers,
					PartitionSize: 2000,
				})
				if err != nil {
					b.Fatal(err)
				}
				_ = builder.Freeze()
			}
		})
	}
}

func BenchmarkIntersect(b *testing.B) {
	ix := buildIndex(b, syntheticCorpus(50000))
	pairs := [][2]string{
		{"stuttgart", "bahn"},
		{"stuttgart", "ice"},
		{"sparpreis", "ice"},
	}
	for _, p := range pairs {
		a, c := ix.Lookup(p[0]), ix.Lookup(p[1])
		b.Run(p[0]+"_"+p[1], func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = index.Intersect(a, c)
			}
		})
	}
}

func BenchmarkLookupParallel(b *testing.B) {
	ix := buildIndex(b, syntheticCorpus(10000))
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_ = ix.Lookup(vocabulary[i%len(vocabulary)])
			i++
		}
	})
}

func BenchmarkSuggestBuild(b *testing.B) {
	ix := buildIndex(b, syntheticCorpus(1000))
	terms := ix.Terms()
	for _, workers := range []int{1, 4} {
		b.Run(fmt.Sprintf("workers_%d", workers), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := suggest.Build(context.Background(), terms, workers); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
