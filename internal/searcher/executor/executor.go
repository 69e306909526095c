// Package executor evaluates parsed queries against the live index
// snapshot: boolean conjunctions with keyboard-typo suggestions, and ranked
// TF-IDF retrieval.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/tracing"
)

// Source hands out the snapshot queries run against.
type Source interface {
	Current() *indexer.Snapshot
}

// Hit is one matching document. Score is zero for boolean results.
type Hit struct {
	DocID int     `json:"doc_id"`
	Score float64 `json:"score,omitempty"`
	Line  string  `json:"line"`
}

// SuggestedQuery is a corrected boolean query together with its results.
type SuggestedQuery struct {
	Terms     []string `json:"terms"`
	TotalHits int      `json:"total_hits"`
	Hits      []Hit    `json:"hits"`
}

type SearchResult struct {
	Query       string           `json:"query"`
	Mode        parser.Mode      `json:"mode"`
	Terms       []string         `json:"terms"`
	Unknown     []string         `json:"unknown,omitempty"`
	TotalHits   int              `json:"total_hits"`
	Hits        []Hit            `json:"hits"`
	Suggestions []SuggestedQuery `json:"suggestions,omitempty"`
	Generation  string           `json:"generation"`
}

// Options tunes an Executor.
type Options struct {
	TopK           int
	MaxResults     int
	FullCosine     bool
	MaxSuggestions int
	Timeout        time.Duration
	Metrics        *metrics.Metrics
}

// OptionsFromConfig derives executor options from the search and suggest
// sections.
func OptionsFromConfig(cfg *config.Config, m *metrics.Metrics) Options {
	return Options{
		TopK:           cfg.Search.TopK,
		MaxResults:     cfg.Search.MaxResults,
		FullCosine:     cfg.Search.Cosine == config.CosineFull,
		MaxSuggestions: cfg.Suggest.MaxQueries,
		Timeout:        cfg.Search.Timeout,
		Metrics:        m,
	}
}

type Executor struct {
	source Source
	opts   Options
	logger *slog.Logger
}

func New(source Source, opts Options) *Executor {
	if opts.TopK <= 0 {
		opts.TopK = ranker.DefaultLimit
	}
	return &Executor{
		source: source,
		opts:   opts,
		logger: slog.Default().With("component", "query-executor"),
	}
}

// Execute runs plan. limit caps the hits returned: for ranked queries 0
// means TopK, for boolean queries 0 means every match.
func (e *Executor) Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*SearchResult, error) {
	start := time.Now()
	snap := e.source.Current()
	if snap == nil {
		e.record(plan.Mode, "error", 0, start)
		return nil, apperrors.New(apperrors.ErrIndexNotReady, http.StatusServiceUnavailable, "index has not been built yet")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		result *SearchResult
		err    error
	)
	ctx, span := tracing.StartChildSpan(ctx, string(plan.Mode))
	defer span.End()
	switch plan.Mode {
	case parser.ModeRanked:
		err = resilience.WithTimeout(ctx, e.opts.Timeout, "ranked search", func(ctx context.Context) error {
			result = e.ranked(snap, plan, limit)
			return nil
		})
	case parser.ModeBoolean:
		result = e.boolean(ctx, snap, plan, limit)
	default:
		err = fmt.Errorf("%w: unknown mode %q", apperrors.ErrInvalidInput, plan.Mode)
	}
	if err != nil {
		e.record(plan.Mode, "error", 0, start)
		return nil, err
	}

	resultType := "hit"
	switch {
	case result.TotalHits > 0:
	case len(result.Suggestions) > 0:
		resultType = "suggested"
	default:
		resultType = "zero_result"
	}
	e.record(plan.Mode, resultType, result.TotalHits, start)
	span.SetAttr("hits", result.TotalHits)
	e.logger.Debug("query executed",
		"query", plan.RawQuery,
		"mode", plan.Mode,
		"terms", plan.Terms,
		"hits", result.TotalHits,
		"suggestions", len(result.Suggestions),
		"duration", time.Since(start),
	)
	return result, nil
}

// Search parses query in the given mode and executes it.
func (e *Executor) Search(ctx context.Context, query string, mode parser.Mode, limit int) (*SearchResult, error) {
	plan, err := parser.Parse(query, mode)
	if err != nil {
		e.record(mode, "error", 0, time.Now())
		return nil, err
	}
	return e.Execute(ctx, plan, limit)
}

func (e *Executor) boolean(ctx context.Context, snap *indexer.Snapshot, plan *parser.QueryPlan, limit int) *SearchResult {
	ix := snap.Index
	result := newResult(snap, plan)
	ids := conjunction(ix, plan.Terms)
	result.TotalHits = len(ids)
	result.Hits = hits(ix, ids, limit)
	for _, t := range plan.Terms {
		if !ix.Contains(t) {
			result.Unknown = append(result.Unknown, t)
		}
	}
	if len(result.Unknown) > 0 && snap.Suggestions != nil {
		_, span := tracing.StartChildSpan(ctx, "suggest")
		result.Suggestions = e.suggest(snap, plan.Terms, limit)
		span.SetAttr("suggestions", len(result.Suggestions))
		span.End()
		if m := e.opts.Metrics; m != nil && len(result.Suggestions) > 0 {
			m.SuggestedQueries.Add(float64(len(result.Suggestions)))
		}
	}
	return result
}

// suggest replaces every unknown term with each of its indexed keyboard
// variants. With two unknown terms all combinations are tried. Suggested
// queries are evaluated once; they never produce further suggestions.
func (e *Executor) suggest(snap *indexer.Snapshot, terms []string, limit int) []SuggestedQuery {
	ix := snap.Index
	options := make([][]string, len(terms))
	found := false
	for i, t := range terms {
		if ix.Contains(t) {
			options[i] = []string{t}
			continue
		}
		cands := snap.Suggestions.Candidates(t)
		if len(cands) == 0 {
			options[i] = []string{t}
			continue
		}
		options[i] = cands
		found = true
	}
	if !found {
		return nil
	}

	var out []SuggestedQuery
	for _, combo := range product(options) {
		if e.opts.MaxSuggestions > 0 && len(out) >= e.opts.MaxSuggestions {
			break
		}
		ids := conjunction(ix, combo)
		out = append(out, SuggestedQuery{
			Terms:     combo,
			TotalHits: len(ids),
			Hits:      hits(ix, ids, limit),
		})
	}
	return out
}

func (e *Executor) ranked(snap *indexer.Snapshot, plan *parser.QueryPlan, limit int) *SearchResult {
	if limit <= 0 || limit > e.opts.TopK {
		limit = e.opts.TopK
	}
	if e.opts.MaxResults > 0 && limit > e.opts.MaxResults {
		limit = e.opts.MaxResults
	}
	ix := snap.Index
	result := newResult(snap, plan)
	for _, t := range plan.Terms {
		if !ix.Contains(t) {
			result.Unknown = append(result.Unknown, t)
		}
	}
	scored := ranker.Rank(ix, plan.Terms, ranker.Options{Limit: limit, FullCosine: e.opts.FullCosine})
	result.TotalHits = len(scored)
	result.Hits = make([]Hit, 0, len(scored))
	for _, sd := range scored {
		doc, ok := ix.Document(sd.DocID)
		if !ok {
			continue
		}
		result.Hits = append(result.Hits, Hit{DocID: sd.DocID, Score: sd.Score, Line: doc.Line})
	}
	return result
}

func (e *Executor) record(mode parser.Mode, resultType string, n int, start time.Time) {
	m := e.opts.Metrics
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(string(mode), resultType).Inc()
	if resultType == "error" {
		return
	}
	m.QueryLatency.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
	m.QueryResultsCount.WithLabelValues(string(mode)).Observe(float64(n))
}

func newResult(snap *indexer.Snapshot, plan *parser.QueryPlan) *SearchResult {
	return &SearchResult{
		Query:      plan.RawQuery,
		Mode:       plan.Mode,
		Terms:      plan.Terms,
		Hits:       []Hit{},
		Generation: snap.Generation,
	}
}

// conjunction returns the documents containing every term. No terms
// matches nothing.
func conjunction(ix *index.Index, terms []string) index.PostingList {
	switch len(terms) {
	case 0:
		return index.PostingList{}
	case 1:
		return ix.Lookup(terms[0])
	}
	result := ix.Lookup(terms[0])
	for _, t := range terms[1:] {
		if len(result) == 0 {
			break
		}
		result = index.Intersect(result, ix.Lookup(t))
	}
	return result
}

func hits(ix *index.Index, ids index.PostingList, limit int) []Hit {
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]Hit, 0, len(ids))
	for _, id := range ids {
		doc, ok := ix.Document(id)
		if !ok {
			continue
		}
		out = append(out, Hit{DocID: id, Line: doc.Line})
	}
	return out
}

// product enumerates one choice per position, varying the last position
// fastest.
func product(options [][]string) [][]string {
	combos := [][]string{{}}
	for _, opts := range options {
		next := make([][]string, 0, len(combos)*len(opts))
		for _, prefix := range combos {
			for _, o := range opts {
				c := make([]string, len(prefix), len(prefix)+1)
				copy(c, prefix)
				next = append(next, append(c, o))
			}
		}
		combos = next
	}
	return combos
}
