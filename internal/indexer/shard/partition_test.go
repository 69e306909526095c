package shard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer/corpus"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/config"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func sampleCorpus(n int) string {
	words := []string{"stuttgart", "bahn", "berlin", "hamburg", "streik", "the", "zug", "hafen", "21"}
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "%s %s %s\n", words[i%len(words)], words[(i*7)%len(words)], words[(i*3+1)%len(words)])
	}
	return sb.String()
}

func TestPartitionedBuildMatchesSequential(t *testing.T) {
	text := sampleCorpus(1000)
	seqB, err := Build(context.Background(), corpus.NewReader(strings.NewReader(text), config.CorpusConfig{}), Options{Workers: 1, PartitionSize: 1000})
	if err != nil {
		t.Fatal(err)
	}
	parB, err := Build(context.Background(), corpus.NewReader(strings.NewReader(text), config.CorpusConfig{}), Options{Workers: 4, PartitionSize: 37})
	if err != nil {
		t.Fatal(err)
	}
	seq, par := seqB.Freeze(), parB.Freeze()

	if diff := cmp.Diff(seq.Terms(), par.Terms()); diff != "" {
		t.Fatalf("vocabulary differs:\n%s", diff)
	}
	for _, term := range seq.Terms() {
		if diff := cmp.Diff(seq.Lookup(term), par.Lookup(term)); diff != "" {
			t.Errorf("postings for %q differ:\n%s", term, diff)
		}
		a, _ := seq.IDF(term)
		b, _ := par.IDF(term)
		if a != b {
			t.Errorf("idf(%q): %v vs %v", term, a, b)
		}
	}
	if diff := cmp.Diff(seq.Documents(), par.Documents(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("documents differ:\n%s", diff)
	}
}

func TestProgress(t *testing.T) {
	var calls atomic.Int32
	var last atomic.Int32
	_, err := Build(context.Background(), corpus.NewReader(strings.NewReader(sampleCorpus(250)), config.CorpusConfig{}), Options{
		Workers:       2,
		PartitionSize: 40,
		ProgressEvery: 100,
		Progress: func(docs int) {
			calls.Add(1)
			last.Store(int32(docs))
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 || last.Load() != 200 {
		t.Errorf("progress calls=%d last=%d, want 2 and 200", calls.Load(), last.Load())
	}
}

type brokenSource struct{ n int }

func (b *brokenSource) Next() (corpus.Record, error) {
	if b.n >= 5 {
		return corpus.Record{}, errors.New("read failed")
	}
	b.n++
	return corpus.Record{ID: b.n - 1, Line: "bahn", Body: "bahn"}, nil
}

func TestSourceErrorAbortsBuild(t *testing.T) {
	_, err := Build(context.Background(), &brokenSource{}, Options{Workers: 3, PartitionSize: 2})
	if err == nil || !strings.Contains(err.Error(), "read failed") {
		t.Fatalf("err = %v, want read failure", err)
	}
}

func TestEmptySource(t *testing.T) {
	b, err := Build(context.Background(), corpus.NewReader(strings.NewReader(""), config.CorpusConfig{}), Options{Workers: 2})
	if err != nil {
		t.Fatal(err)
	}
	if ix := b.Freeze(); ix.N() != 0 {
		t.Errorf("N = %d, want 0", ix.N())
	}
}
