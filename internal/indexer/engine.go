package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer/corpus"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer/shard"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer/suggest"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/metrics"
	"github.com/google/uuid"
)

// Snapshot is everything built from one corpus load. It is immutable.
type Snapshot struct {
	Index       *index.Index
	Suggestions *suggest.Index
	Source      string
	Generation  string
	BuiltAt     time.Time
	BuildTime   time.Duration
	Lines       int
	Malformed   int
}

// BuildError reports a corpus that could not be read to the end. It matches
// apperrors.ErrIndexBuild, and apperrors.ErrCorpusNotFound when the file
// could not be opened.
type BuildError struct {
	Path string
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("building index from %s: %v", e.Path, e.Err)
}

func (e *BuildError) Unwrap() []error {
	return []error{apperrors.ErrIndexBuild, e.Err}
}

// Options configures a single build.
type Options struct {
	Corpus   config.CorpusConfig
	Indexer  config.IndexerConfig
	Suggest  config.SuggestConfig
	Metrics  *metrics.Metrics
	Progress func(docs int)
}

// Build reads the corpus at Options.Corpus.Path and returns a complete
// snapshot. Nothing partial is ever returned.
func Build(ctx context.Context, opts Options) (*Snapshot, error) {
	start := time.Now()
	logger := slog.Default().With("component", "indexer", "corpus", opts.Corpus.Path)
	snap, err := build(ctx, opts, logger)
	if m := opts.Metrics; m != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		m.IndexBuildsTotal.WithLabelValues(status).Inc()
		m.IndexBuildDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		logger.Error("index build failed", "error", err)
		return nil, err
	}
	snap.BuildTime = time.Since(start)
	stats := snap.Index.Stats()
	logger.Info("index built",
		"documents", stats.Documents,
		"terms", stats.Terms,
		"malformed", snap.Malformed,
		"generation", snap.Generation,
		"duration", snap.BuildTime.Round(time.Millisecond),
	)
	return snap, nil
}

func build(ctx context.Context, opts Options, logger *slog.Logger) (*Snapshot, error) {
	path := opts.Corpus.Path
	f, err := os.Open(path)
	if err != nil {
		return nil, &BuildError{Path: path, Err: fmt.Errorf("%w: %w", apperrors.ErrCorpusNotFound, err)}
	}
	defer f.Close()

	reader := corpus.NewReader(f, opts.Corpus)
	progress := opts.Progress
	if progress == nil {
		progress = func(docs int) { logger.Info("indexing progress", "documents", docs) }
	}
	builder, err := shard.Build(ctx, reader, shard.Options{
		Workers:       opts.Indexer.Workers,
		PartitionSize: opts.Indexer.PartitionSize,
		ProgressEvery: opts.Indexer.ProgressEvery,
		Progress:      progress,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &BuildError{Path: path, Err: err}
	}
	if m := opts.Metrics; m != nil {
		m.DocsIndexedTotal.Add(float64(builder.Docs()))
		m.MalformedRecordsTotal.Add(float64(reader.Malformed()))
	}
	ix := builder.Freeze()

	var sugg *suggest.Index
	if opts.Suggest.Enabled {
		sugg, err = suggest.Build(ctx, ix.Terms(), opts.Suggest.Workers)
		if err != nil {
			return nil, fmt.Errorf("building suggestion index: %w", err)
		}
	}
	return &Snapshot{
		Index:       ix,
		Suggestions: sugg,
		Source:      path,
		Generation:  uuid.NewString(),
		BuiltAt:     time.Now().UTC(),
		Lines:       reader.Lines(),
		Malformed:   reader.Malformed(),
	}, nil
}

// Engine owns the live snapshot and replaces it atomically on reload.
type Engine struct {
	opts    Options
	current atomic.Pointer[Snapshot]
	// loadMu serialises builds; readers never take it.
	loadMu sync.Mutex
	onSwap []func(*Snapshot)
	logger *slog.Logger
}

func NewEngine(cfg *config.Config, m *metrics.Metrics) *Engine {
	return &Engine{
		opts: Options{
			Corpus:  cfg.Corpus,
			Indexer: cfg.Indexer,
			Suggest: cfg.Suggest,
			Metrics: m,
		},
		logger: slog.Default().With("component", "index-engine"),
	}
}

// OnSwap registers fn to run after every successful load.
func (e *Engine) OnSwap(fn func(*Snapshot)) {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()
	e.onSwap = append(e.onSwap, fn)
}

// Load builds a fresh snapshot and publishes it. On failure the previous
// snapshot stays live.
func (e *Engine) Load(ctx context.Context) (*Snapshot, error) {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	snap, err := Build(ctx, e.opts)
	if err != nil {
		return nil, err
	}
	prev := e.current.Swap(snap)
	if prev != nil {
		e.logger.Info("index swapped", "previous", prev.Generation, "current", snap.Generation)
	}
	if m := e.opts.Metrics; m != nil {
		stats := snap.Index.Stats()
		m.IndexDocuments.Set(float64(stats.Documents))
		m.IndexTerms.Set(float64(stats.Terms))
		if snap.Suggestions != nil {
			m.SuggestionVariants.Set(float64(snap.Suggestions.Len()))
		}
	}
	for _, fn := range e.onSwap {
		fn(snap)
	}
	return snap, nil
}

// Current returns the live snapshot, or nil before the first Load.
func (e *Engine) Current() *Snapshot {
	return e.current.Load()
}

// Path is the corpus file this engine loads.
func (e *Engine) Path() string {
	return e.opts.Corpus.Path
}
