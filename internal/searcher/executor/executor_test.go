package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer/suggest"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/metrics"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type staticSource struct{ snap *indexer.Snapshot }

func (s staticSource) Current() *indexer.Snapshot { return s.snap }

func snapshot(t *testing.T, lines ...string) *indexer.Snapshot {
	t.Helper()
	b := index.NewBuilder()
	for id, line := range lines {
		b.AddDocument(id, line, tokenizer.Tokenize(line))
	}
	ix := b.Freeze()
	sugg, err := suggest.Build(context.Background(), ix.Terms(), 2)
	if err != nil {
		t.Fatalf("building suggestions: %v", err)
	}
	return &indexer.Snapshot{Index: ix, Suggestions: sugg, Generation: "gen-1"}
}

func newExecutor(t *testing.T) *Executor {
	t.Helper()
	snap := snapshot(t, "Stuttgart Bahn", "Berlin Bahn", "Stuttgart München")
	return New(staticSource{snap}, Options{TopK: 100, MaxSuggestions: 10})
}

func docIDs(hits []Hit) []int {
	ids := make([]int, len(hits))
	for i, h := range hits {
		ids[i] = h.DocID
	}
	return ids
}

func TestBooleanSearch(t *testing.T) {
	ex := newExecutor(t)
	ctx := context.Background()

	tests := []struct {
		query string
		want  []int
	}{
		{"stuttgart", []int{0, 2}},
		{"Bahn", []int{0, 1}},
		{"stuttgart bahn", []int{0}},
		{"bahn stuttgart", []int{0}},
		{"berlin münchen", []int{}},
		{"the bahn", []int{0, 1}},
		{"the of", []int{}},
		{"", []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res, err := ex.Search(ctx, tt.query, parser.ModeBoolean, 0)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if diff := cmp.Diff(tt.want, docIDs(res.Hits)); diff != "" {
				t.Errorf("hits (-want +got):\n%s", diff)
			}
			if res.TotalHits != len(tt.want) {
				t.Errorf("TotalHits = %d, want %d", res.TotalHits, len(tt.want))
			}
			if len(res.Suggestions) != 0 {
				t.Errorf("unexpected suggestions %+v", res.Suggestions)
			}
			if res.Generation != "gen-1" {
				t.Errorf("Generation = %q", res.Generation)
			}
		})
	}
}

func TestBooleanRejectsLongQueries(t *testing.T) {
	ex := newExecutor(t)
	_, err := ex.Search(context.Background(), "stuttgart bahn berlin", parser.ModeBoolean, 0)
	if !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestBooleanSuggestsCorrection(t *testing.T) {
	ex := newExecutor(t)
	res, err := ex.Search(context.Background(), "sttuttgart", parser.ModeBoolean, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.TotalHits != 0 {
		t.Errorf("TotalHits = %d, want 0", res.TotalHits)
	}
	if diff := cmp.Diff([]string{"sttuttgart"}, res.Unknown); diff != "" {
		t.Errorf("unknown (-want +got):\n%s", diff)
	}
	if len(res.Suggestions) != 1 {
		t.Fatalf("got %d suggestions, want 1: %+v", len(res.Suggestions), res.Suggestions)
	}
	s := res.Suggestions[0]
	if diff := cmp.Diff([]string{"stuttgart"}, s.Terms); diff != "" {
		t.Errorf("suggested terms (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 2}, docIDs(s.Hits)); diff != "" {
		t.Errorf("suggested hits (-want +got):\n%s", diff)
	}
}

func TestBooleanSuggestsOnlyForUnknownTerm(t *testing.T) {
	ex := newExecutor(t)
	res, err := ex.Search(context.Background(), "bahn sttuttgart", parser.ModeBoolean, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Suggestions) != 1 {
		t.Fatalf("got %d suggestions, want 1", len(res.Suggestions))
	}
	if diff := cmp.Diff([]string{"bahn", "stuttgart"}, res.Suggestions[0].Terms); diff != "" {
		t.Errorf("suggested terms (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0}, docIDs(res.Suggestions[0].Hits)); diff != "" {
		t.Errorf("suggested hits (-want +got):\n%s", diff)
	}
}

func TestBooleanSuggestsBothTerms(t *testing.T) {
	ex := newExecutor(t)
	res, err := ex.Search(context.Background(), "sttuttgart bshn", parser.ModeBoolean, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Suggestions) != 1 {
		t.Fatalf("got %d suggestions, want 1: %+v", len(res.Suggestions), res.Suggestions)
	}
	if diff := cmp.Diff([]string{"stuttgart", "bahn"}, res.Suggestions[0].Terms); diff != "" {
		t.Errorf("suggested terms (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0}, docIDs(res.Suggestions[0].Hits)); diff != "" {
		t.Errorf("suggested hits (-want +got):\n%s", diff)
	}
}

func TestBooleanNoCandidates(t *testing.T) {
	ex := newExecutor(t)
	res, err := ex.Search(context.Background(), "zzzzzz", parser.ModeBoolean, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.TotalHits != 0 || len(res.Suggestions) != 0 {
		t.Errorf("got %+v, want empty result without suggestions", res)
	}
}

func TestSuggestionCap(t *testing.T) {
	// "bat" is one substitution away from each of these.
	snap := snapshot(t, "bar", "baf", "bag", "bay", "bar baf")
	ex := New(staticSource{snap}, Options{MaxSuggestions: 2})
	res, err := ex.Search(context.Background(), "bat", parser.ModeBoolean, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Suggestions) != 2 {
		t.Errorf("got %d suggestions, want 2", len(res.Suggestions))
	}
}

func TestBooleanLimit(t *testing.T) {
	ex := newExecutor(t)
	res, err := ex.Search(context.Background(), "stuttgart", parser.ModeBoolean, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.TotalHits != 2 || len(res.Hits) != 1 {
		t.Errorf("TotalHits = %d, len(Hits) = %d, want 2 and 1", res.TotalHits, len(res.Hits))
	}
}

func TestRankedSearch(t *testing.T) {
	ex := newExecutor(t)
	res, err := ex.Search(context.Background(), "bahn", parser.ModeRanked, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if diff := cmp.Diff([]int{0, 1}, docIDs(res.Hits)); diff != "" {
		t.Errorf("hits (-want +got):\n%s", diff)
	}
	if res.Hits[0].Line != "Stuttgart Bahn" {
		t.Errorf("line = %q", res.Hits[0].Line)
	}
	for _, h := range res.Hits {
		if h.Score <= 0 {
			t.Errorf("doc %d score = %v, want > 0", h.DocID, h.Score)
		}
	}

	res, err = ex.Search(context.Background(), "the unheard of words", parser.ModeRanked, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Hits) != 0 {
		t.Errorf("got %d hits for unknown words", len(res.Hits))
	}
	if diff := cmp.Diff([]string{"unheard", "words"}, res.Unknown); diff != "" {
		t.Errorf("unknown (-want +got):\n%s", diff)
	}
}

func TestNotReady(t *testing.T) {
	ex := New(staticSource{}, Options{})
	_, err := ex.Search(context.Background(), "bahn", parser.ModeBoolean, 0)
	if !errors.Is(err, apperrors.ErrIndexNotReady) {
		t.Fatalf("err = %v, want ErrIndexNotReady", err)
	}
	if got := apperrors.HTTPStatusCode(err); got != 503 {
		t.Errorf("status = %d, want 503", got)
	}
}

func TestExecutorMetrics(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	snap := snapshot(t, "Stuttgart Bahn", "Berlin Bahn")
	ex := New(staticSource{snap}, Options{Metrics: m, MaxSuggestions: 10})
	ctx := context.Background()

	for _, q := range []string{"bahn", "sttuttgart", "zzzzzz"} {
		if _, err := ex.Search(ctx, q, parser.ModeBoolean, 0); err != nil {
			t.Fatalf("Search(%q): %v", q, err)
		}
	}
	if _, err := ex.Search(ctx, "a b c", parser.ModeBoolean, 0); err == nil {
		t.Fatal("expected error for three-term query")
	}

	for resultType, want := range map[string]float64{"hit": 1, "suggested": 1, "zero_result": 1, "error": 1} {
		got := testutil.ToFloat64(m.QueriesTotal.WithLabelValues("boolean", resultType))
		if got != want {
			t.Errorf("queries_total{%s} = %v, want %v", resultType, got, want)
		}
	}
	if got := testutil.ToFloat64(m.SuggestedQueries); got != 1 {
		t.Errorf("suggested queries = %v, want 1", got)
	}
}
