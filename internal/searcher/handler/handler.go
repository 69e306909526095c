// Package handler exposes the search engine over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/searcher/render"
	apperrors "github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/tracing"
	"github.com/go-chi/chi/v5"
)

type SearchExecutor interface {
	Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*executor.SearchResult, error)
}

// IndexManager is satisfied by *indexer.Engine.
type IndexManager interface {
	Current() *indexer.Snapshot
	Load(ctx context.Context) (*indexer.Snapshot, error)
}

// Tracker is satisfied by *analytics.Collector.
type Tracker interface {
	TrackQuery(event analytics.QueryEvent)
}

// Options wires a Handler. Cache, Tracker and Metrics are optional.
type Options struct {
	Executor     SearchExecutor
	Index        IndexManager
	Cache        *cache.QueryCache
	Tracker      Tracker
	Metrics      *metrics.Metrics
	DefaultLimit int
	MaxResults   int
}

type Handler struct {
	executor     SearchExecutor
	index        IndexManager
	cache        *cache.QueryCache
	tracker      Tracker
	metrics      *metrics.Metrics
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

func New(opts Options) *Handler {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 1000
	}
	return &Handler{
		executor:     opts.Executor,
		index:        opts.Index,
		cache:        opts.Cache,
		tracker:      opts.Tracker,
		metrics:      opts.Metrics,
		defaultLimit: opts.DefaultLimit,
		maxResults:   opts.MaxResults,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Routes registers the API on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", h.Search)
		r.Get("/postings/{term}", h.Postings)
		r.Get("/suggest", h.Suggest)
		r.Get("/index/stats", h.IndexStats)
		r.Post("/index/reload", h.Reload)
		r.Get("/cache/stats", h.CacheStats)
		r.Post("/cache/invalidate", h.CacheInvalidate)
	})
}

// Search answers GET /api/v1/search?q=&mode=&limit=&format=. format=text
// returns the tab-separated lines the REPL prints.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := tracing.StartSpan(r.Context(), "search", middleware.GetRequestID(r.Context()))
	defer func() {
		span.End()
		span.Log(h.logger)
	}()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	mode, err := parser.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > h.maxResults {
		limit = h.maxResults
	}

	plan, err := parser.Parse(query, mode)
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	var (
		result   *executor.SearchResult
		cacheHit bool
	)
	snap := h.index.Current()
	if h.cache != nil && snap != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, snap.Generation, plan, limit, func() (*executor.SearchResult, error) {
			return h.executor.Execute(ctx, plan, limit)
		})
	} else {
		result, err = h.executor.Execute(ctx, plan, limit)
	}
	if err != nil {
		log.Error("search execution failed", "query", query, "mode", mode, "error", err)
		h.writeAppError(w, err)
		return
	}

	if h.cache != nil {
		w.Header().Set(CacheHeader, cacheStatus(cacheHit))
	}
	span.SetAttr("cache_hit", cacheHit)
	latency := time.Since(start)
	log.Info("search completed",
		"query", query,
		"mode", mode,
		"total_hits", result.TotalHits,
		"returned", len(result.Hits),
		"suggestions", len(result.Suggestions),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	if h.tracker != nil {
		h.tracker.TrackQuery(analytics.QueryEvent{
			Query:       query,
			Mode:        string(mode),
			Terms:       plan.Terms,
			Unknown:     result.Unknown,
			TotalHits:   result.TotalHits,
			Returned:    len(result.Hits),
			Suggestions: len(result.Suggestions),
			LatencyMs:   latency.Milliseconds(),
			CacheHit:    cacheHit,
			Generation:  result.Generation,
			Timestamp:   time.Now().UTC(),
			RequestID:   middleware.GetRequestID(ctx),
		})
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if err := render.Result(w, result); err != nil {
			h.logger.Error("failed to write response", "error", err)
		}
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// CacheHeader reports whether a search was answered from the cache.
const CacheHeader = "X-Cache"

func cacheStatus(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}

type postingsResponse struct {
	Term       string            `json:"term"`
	Normalized string            `json:"normalized"`
	DocFreq    int               `json:"doc_freq"`
	IDF        float64           `json:"idf"`
	Postings   index.PostingList `json:"postings"`
}

// Postings answers GET /api/v1/postings/{term}.
func (h *Handler) Postings(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}
	raw := chi.URLParam(r, "term")
	term, ok := tokenizer.Normalize(raw)
	if !ok {
		h.writeAppError(w, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "%q is not an indexable term", raw))
		return
	}
	idf, known := snap.Index.IDF(term)
	if !known {
		h.writeAppError(w, apperrors.Newf(apperrors.ErrUnknownTerm, http.StatusNotFound, "%q is not in the index", term))
		return
	}
	h.writeJSON(w, http.StatusOK, postingsResponse{
		Term:       raw,
		Normalized: term,
		DocFreq:    snap.Index.DocFreq(term),
		IDF:        idf,
		Postings:   snap.Index.Lookup(term),
	})
}

type suggestResponse struct {
	Term       string   `json:"term"`
	Normalized string   `json:"normalized"`
	Known      bool     `json:"known"`
	Candidates []string `json:"candidates"`
}

// Suggest answers GET /api/v1/suggest?term= with the indexed terms the
// input may be a keyboard typo of.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}
	raw := r.URL.Query().Get("term")
	term, ok := tokenizer.Normalize(raw)
	if !ok {
		h.writeAppError(w, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "%q is not an indexable term", raw))
		return
	}
	resp := suggestResponse{
		Term:       raw,
		Normalized: term,
		Known:      snap.Index.Contains(term),
		Candidates: []string{},
	}
	if snap.Suggestions != nil {
		if c := snap.Suggestions.Candidates(term); len(c) > 0 {
			resp.Candidates = c
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type statsResponse struct {
	index.Stats
	Source             string    `json:"source"`
	Generation         string    `json:"generation"`
	BuiltAt            time.Time `json:"built_at"`
	BuildTimeMs        int64     `json:"build_time_ms"`
	Lines              int       `json:"lines"`
	Malformed          int       `json:"malformed"`
	SuggestionVariants int       `json:"suggestion_variants"`
}

func newStatsResponse(snap *indexer.Snapshot) statsResponse {
	resp := statsResponse{
		Stats:       snap.Index.Stats(),
		Source:      snap.Source,
		Generation:  snap.Generation,
		BuiltAt:     snap.BuiltAt,
		BuildTimeMs: snap.BuildTime.Milliseconds(),
		Lines:       snap.Lines,
		Malformed:   snap.Malformed,
	}
	if snap.Suggestions != nil {
		resp.SuggestionVariants = snap.Suggestions.Len()
	}
	return resp
}

func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, newStatsResponse(snap))
}

// Reload rebuilds the index from the corpus file. On failure the previous
// snapshot keeps serving.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	snap, err := h.index.Load(r.Context())
	status := "ok"
	if err != nil {
		status = "error"
	}
	if h.metrics != nil {
		h.metrics.IndexReloadsTotal.WithLabelValues("api", status).Inc()
	}
	if err != nil {
		logger.FromContext(r.Context()).Error("index reload failed", "error", err)
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, newStatsResponse(snap))
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
		"breaker":  h.cache.State().String(),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) snapshot(w http.ResponseWriter) (*indexer.Snapshot, bool) {
	snap := h.index.Current()
	if snap == nil {
		h.writeAppError(w, apperrors.New(apperrors.ErrIndexNotReady, http.StatusServiceUnavailable, "index has not been built yet"))
		return nil, false
	}
	return snap, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeAppError maps err to a status code. Internal failures are not
// described to the client.
func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		message = "internal error"
	}
	h.writeError(w, status, message)
}
