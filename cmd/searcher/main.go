// Command searcher serves the search API over HTTP.
//
// It builds the index at startup and optionally caches results in Redis,
// publishes query analytics to Kafka and reloads the index when the corpus
// file changes.
//
// Usage:
//
//	go run ./cmd/searcher [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/watcher"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/ratelimit"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/redis"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.SetupOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	slog.Info("starting search service", "port", cfg.Server.Port, "corpus", cfg.Corpus.Path)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	engine := indexer.NewEngine(cfg, m)

	var collector *analytics.Collector
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents)
		defer producer.Close()
		collector = analytics.NewCollector(producer, analytics.CollectorConfig{})
		collector.Start(ctx)
		defer collector.Close()
		engine.OnSwap(func(snap *indexer.Snapshot) {
			stats := snap.Index.Stats()
			collector.TrackIndexBuild(analytics.IndexEvent{
				Generation: snap.Generation,
				Source:     snap.Source,
				Trigger:    "searcher",
				Documents:  stats.Documents,
				Terms:      stats.Terms,
				Malformed:  snap.Malformed,
				DurationMs: snap.BuildTime.Milliseconds(),
				Timestamp:  snap.BuiltAt,
			})
		})
		slog.Info("analytics collector started", "topic", cfg.Kafka.Topics.QueryEvents)
	}

	if _, err := engine.Load(ctx); err != nil {
		slog.Error("failed to build index", "error", err)
		os.Exit(1)
	}

	var (
		queryCache  *cache.QueryCache
		redisClient *pkgredis.Client
	)
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, m)
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	if cfg.Watch.Enabled {
		w := watcher.New(engine.Path(), cfg.Watch.Debounce, func(ctx context.Context) {
			status := "ok"
			if _, err := engine.Load(ctx); err != nil {
				status = "error"
				slog.Error("reload failed, keeping previous index", "error", err)
			}
			m.IndexReloadsTotal.WithLabelValues("watch", status).Inc()
		})
		if err := w.Start(ctx); err != nil {
			slog.Warn("corpus watcher unavailable", "error", err)
		} else {
			defer w.Stop()
		}
	}

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		snap := engine.Current()
		if snap == nil {
			return health.Down("index not built")
		}
		return health.Up(fmt.Sprintf("%d documents, generation %s", snap.Index.N(), snap.Generation))
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.Degraded("not configured")
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.Degraded(err.Error())
		}
		return health.Up("")
	})

	exec := executor.New(engine, executor.OptionsFromConfig(cfg, m))
	hOpts := handler.Options{
		Executor:     exec,
		Index:        engine,
		Cache:        queryCache,
		Metrics:      m,
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxResults:   cfg.Search.MaxResults,
	}
	if collector != nil {
		hOpts.Tracker = collector
	}
	h := handler.New(hOpts)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	if len(cfg.Server.CORSOrigins) > 0 {
		cors := middleware.DefaultCORSConfig()
		cors.AllowOrigins = cfg.Server.CORSOrigins
		r.Use(middleware.CORS(cors))
	}
	if cfg.Server.RateLimit > 0 {
		limiter := ratelimit.New(cfg.Server.RateLimit, cfg.Server.RateWindow)
		defer limiter.Close()
		r.Use(middleware.RateLimit(limiter))
		slog.Info("rate limiting enabled", "limit", cfg.Server.RateLimit, "window", cfg.Server.RateWindow)
	}
	r.Use(middleware.Metrics(m))
	r.Use(middleware.Timeout(cfg.Server.WriteTimeout))
	h.Routes(r)
	r.Get("/health/live", checker.LiveHandler())
	r.Get("/health/ready", checker.ReadyHandler())
	r.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout + time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}
