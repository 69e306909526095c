package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.data[key]; ok {
		return v, nil
	}
	return "", goredis.Nil
}

func (s *memStore) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = string(value.([]byte))
	return nil
}

func (s *memStore) FlushByPattern(context.Context, string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.data))
	s.data = make(map[string]string)
	return n, nil
}

type recordingTracker struct {
	mu     sync.Mutex
	events []analytics.QueryEvent
}

func (r *recordingTracker) TrackQuery(e analytics.QueryEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

type fixture struct {
	server  *httptest.Server
	engine  *indexer.Engine
	path    string
	tracker *recordingTracker
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, load bool, withCache bool) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tweets")
	if err := os.WriteFile(path, []byte("Stuttgart Bahn\nBerlin Bahn\nStuttgart München\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Corpus.Path = path
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	engine := indexer.NewEngine(cfg, m)
	if load {
		if _, err := engine.Load(context.Background()); err != nil {
			t.Fatalf("Load: %v", err)
		}
	}
	tracker := &recordingTracker{}
	opts := Options{
		Executor:     executor.New(engine, executor.OptionsFromConfig(cfg, m)),
		Index:        engine,
		Tracker:      tracker,
		Metrics:      m,
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxResults:   cfg.Search.MaxResults,
	}
	if withCache {
		opts.Cache = cache.New(&memStore{data: make(map[string]string)}, time.Minute, m)
	}
	r := chi.NewRouter()
	New(opts).Routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &fixture{server: srv, engine: engine, path: path, tracker: tracker, metrics: m}
}

func (f *fixture) do(t *testing.T, method, path string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

func hitIDs(res executor.SearchResult) []int {
	ids := make([]int, len(res.Hits))
	for i, h := range res.Hits {
		ids[i] = h.DocID
	}
	return ids
}

func TestSearchBoolean(t *testing.T) {
	f := newFixture(t, true, false)
	var res executor.SearchResult
	if code := f.do(t, http.MethodGet, "/api/v1/search?q=stuttgart+bahn", &res); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if diff := cmp.Diff([]int{0}, hitIDs(res)); diff != "" {
		t.Errorf("hits (-want +got):\n%s", diff)
	}
	if len(f.tracker.events) != 1 || f.tracker.events[0].TotalHits != 1 {
		t.Errorf("tracked events = %+v", f.tracker.events)
	}
}

func TestSearchSuggestion(t *testing.T) {
	f := newFixture(t, true, false)
	var res executor.SearchResult
	f.do(t, http.MethodGet, "/api/v1/search?q=sttuttgart", &res)
	if len(res.Suggestions) != 1 || res.Suggestions[0].Terms[0] != "stuttgart" {
		t.Fatalf("suggestions = %+v", res.Suggestions)
	}
	if diff := cmp.Diff([]string{"sttuttgart"}, f.tracker.events[0].Unknown); diff != "" {
		t.Errorf("tracked unknown (-want +got):\n%s", diff)
	}
}

func TestSearchRanked(t *testing.T) {
	f := newFixture(t, true, false)
	var res executor.SearchResult
	f.do(t, http.MethodGet, "/api/v1/search?q=bahn&mode=ranked&limit=1", &res)
	if diff := cmp.Diff([]int{0}, hitIDs(res)); diff != "" {
		t.Errorf("hits (-want +got):\n%s", diff)
	}
	if res.Hits[0].Score <= 0 {
		t.Errorf("score = %v", res.Hits[0].Score)
	}
}

func TestSearchText(t *testing.T) {
	f := newFixture(t, true, false)
	resp, err := http.Get(f.server.URL + "/api/v1/search?q=stuttgart&format=text")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var sb strings.Builder
	if _, err := io.Copy(&sb, resp.Body); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("0\tStuttgart Bahn\n2\tStuttgart München\n", sb.String()); diff != "" {
		t.Errorf("body (-want +got):\n%s", diff)
	}
}

func TestSearchErrors(t *testing.T) {
	f := newFixture(t, true, false)
	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/search", http.StatusBadRequest},
		{"/api/v1/search?q=a+b+c", http.StatusBadRequest},
		{"/api/v1/search?q=bahn&mode=fuzzy", http.StatusBadRequest},
		{"/api/v1/search?q=bahn&limit=0", http.StatusBadRequest},
	}
	for _, tt := range tests {
		var body map[string]string
		if code := f.do(t, http.MethodGet, tt.path, &body); code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.path, code, tt.want)
		}
		if body["error"] == "" {
			t.Errorf("%s: missing error message", tt.path)
		}
	}
}

func TestNotReady(t *testing.T) {
	f := newFixture(t, false, true)
	for _, p := range []string{"/api/v1/search?q=bahn", "/api/v1/postings/bahn", "/api/v1/index/stats"} {
		if code := f.do(t, http.MethodGet, p, nil); code != http.StatusServiceUnavailable {
			t.Errorf("%s: status = %d, want 503", p, code)
		}
	}
}

func TestPostings(t *testing.T) {
	f := newFixture(t, true, false)
	var resp postingsResponse
	if code := f.do(t, http.MethodGet, "/api/v1/postings/Stuttgart", &resp); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if resp.Normalized != "stuttgart" || resp.DocFreq != 2 {
		t.Errorf("response = %+v", resp)
	}
	if code := f.do(t, http.MethodGet, "/api/v1/postings/hamburg", nil); code != http.StatusNotFound {
		t.Errorf("unknown term status = %d, want 404", code)
	}
	if code := f.do(t, http.MethodGet, "/api/v1/postings/the", nil); code != http.StatusBadRequest {
		t.Errorf("stop word status = %d, want 400", code)
	}
}

func TestSuggest(t *testing.T) {
	f := newFixture(t, true, false)
	var resp suggestResponse
	f.do(t, http.MethodGet, "/api/v1/suggest?term=Bshn", &resp)
	want := suggestResponse{Term: "Bshn", Normalized: "bshn", Candidates: []string{"bahn"}}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("response (-want +got):\n%s", diff)
	}
}

func TestReloadPublishesNewGeneration(t *testing.T) {
	f := newFixture(t, true, false)
	var before statsResponse
	f.do(t, http.MethodGet, "/api/v1/index/stats", &before)
	if before.Documents != 3 {
		t.Fatalf("documents = %d", before.Documents)
	}

	if err := os.WriteFile(f.path, []byte("Hamburg Hafen\n"), 0644); err != nil {
		t.Fatal(err)
	}
	var after statsResponse
	if code := f.do(t, http.MethodPost, "/api/v1/index/reload", &after); code != http.StatusOK {
		t.Fatalf("reload status = %d", code)
	}
	if after.Documents != 1 || after.Generation == before.Generation {
		t.Errorf("after reload = %+v", after)
	}
	if got := testutil.ToFloat64(f.metrics.IndexReloadsTotal.WithLabelValues("api", "ok")); got != 1 {
		t.Errorf("reloads metric = %v", got)
	}

	if err := os.Remove(f.path); err != nil {
		t.Fatal(err)
	}
	if code := f.do(t, http.MethodPost, "/api/v1/index/reload", nil); code != http.StatusInternalServerError {
		t.Errorf("failed reload status = %d", code)
	}
	var still statsResponse
	f.do(t, http.MethodGet, "/api/v1/index/stats", &still)
	if still.Generation != after.Generation {
		t.Error("failed reload replaced the live index")
	}
}

func TestCache(t *testing.T) {
	f := newFixture(t, true, true)
	f.do(t, http.MethodGet, "/api/v1/search?q=bahn", nil)
	f.do(t, http.MethodGet, "/api/v1/search?q=Bahn", nil)

	var stats map[string]any
	f.do(t, http.MethodGet, "/api/v1/cache/stats", &stats)
	if stats["hits"].(float64) != 1 || stats["misses"].(float64) != 1 {
		t.Errorf("cache stats = %v", stats)
	}
	if !f.tracker.events[1].CacheHit {
		t.Error("second search not reported as cache hit")
	}

	var inv map[string]any
	if code := f.do(t, http.MethodPost, "/api/v1/cache/invalidate", &inv); code != http.StatusOK {
		t.Fatalf("invalidate status = %d", code)
	}
	if inv["keys_deleted"].(float64) != 1 {
		t.Errorf("invalidate = %v", inv)
	}
}

func TestCacheDisabled(t *testing.T) {
	f := newFixture(t, true, false)
	var stats map[string]string
	f.do(t, http.MethodGet, "/api/v1/cache/stats", &stats)
	if stats["status"] != "disabled" {
		t.Errorf("stats = %v", stats)
	}
	if code := f.do(t, http.MethodPost, "/api/v1/cache/invalidate", nil); code != http.StatusServiceUnavailable {
		t.Errorf("invalidate status = %d", code)
	}
}

func TestCacheHeader(t *testing.T) {
	f := newFixture(t, true, true)
	for _, want := range []string{"MISS", "HIT"} {
		resp, err := http.Get(f.server.URL + "/api/v1/search?q=bahn")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if got := resp.Header.Get(CacheHeader); got != want {
			t.Errorf("%s = %q, want %q", CacheHeader, got, want)
		}
	}
}
