// Command analytics runs the query analytics service.
//
// It consumes query and index-build events from Kafka, aggregates them in
// memory (query volume per mode, latency percentiles, cache hit rate,
// zero-result and unknown-term counts) and serves them over HTTP. With
// PostgreSQL configured it restores the last snapshot on startup and
// snapshots periodically.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml]
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

	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/postgres"
	"github.com/go-chi/chi/v5"
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
	slog.Info("starting analytics service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agg := analytics.NewAggregator()

	var (
		db    *postgres.Client
		store *aggregator.Store
	)
	if cfg.Postgres.Host != "" {
		db, err = postgres.New(ctx, cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, snapshots disabled", "error", err)
		} else {
			defer db.Close()
			store = aggregator.NewStore(db)
			if err := store.EnsureSchema(ctx); err != nil {
				slog.Error("failed to prepare analytics schema", "error", err)
				os.Exit(1)
			}
			latest, err := store.LatestSnapshot(ctx)
			if err != nil {
				slog.Warn("could not restore analytics snapshot", "error", err)
			} else if latest != nil {
				agg.Restore(*latest)
				slog.Info("analytics restored", "total_queries", latest.TotalQueries)
			}
			store.StartPeriodicSave(ctx, agg, cfg.Postgres.SnapshotEvery)
		}
	}

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents, analytics.HandleEvent(agg))
	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("analytics consumer error", "error", err)
		}
	}()
	slog.Info("analytics consumer started", "topic", cfg.Kafka.Topics.QueryEvents, "group", cfg.Kafka.ConsumerGroup)

	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port)
		defer shutdown(context.Background())
	}

	checker := health.NewChecker()
	checker.Register("kafka", func(ctx context.Context) health.ComponentHealth {
		return health.Up("consumer active")
	})
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if db == nil {
			return health.Degraded("not configured")
		}
		if err := db.DB.PingContext(ctx); err != nil {
			return health.Degraded(err.Error())
		}
		return health.Up("")
	})

	var history analytics.History
	if store != nil {
		history = store
	}
	h := analytics.NewHandler(agg, history)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Get("/api/v1/analytics", h.Stats)
	r.Get("/api/v1/analytics/snapshots", h.Snapshots)
	r.Get("/api/v1/analytics/unknown-terms", h.UnknownTerms)
	r.Get("/health/live", checker.LiveHandler())
	r.Get("/health/ready", checker.ReadyHandler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
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

	slog.Info("analytics service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("analytics service stopped")
}
