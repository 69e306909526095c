// Command indexer builds the index for a corpus once and reports what it
// found. With -postings it also prints the posting list of one term.
//
// Usage:
//
//	indexer [-config file] [-workers n] [-postings term] [corpus]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/metrics"
)

type report struct {
	Corpus             string  `json:"corpus"`
	Generation         string  `json:"generation"`
	Lines              int     `json:"lines"`
	Malformed          int     `json:"malformed"`
	Documents          int     `json:"documents"`
	Terms              int     `json:"terms"`
	Postings           int     `json:"postings"`
	Tokens             int     `json:"tokens"`
	SuggestionVariants int     `json:"suggestion_variants"`
	BuildSeconds       float64 `json:"build_seconds"`
}

func main() {
	configPath := flag.String("config", "", "path to config file; built-in defaults when empty")
	workers := flag.Int("workers", 0, "index build workers, overrides indexer.workers")
	postings := flag.String("postings", "", "print the posting list of this term")
	asJSON := flag.Bool("json", false, "print the report as JSON")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if flag.NArg() > 0 {
		cfg.Corpus.Path = flag.Arg(0)
	}
	if *workers > 0 {
		cfg.Indexer.Workers = *workers
	}
	logger.SetupOutput(cfg.Logging.Level, cfg.Logging.Format, "stderr")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdown := metrics.StartServer(cfg.Metrics.Port)
		defer shutdown(context.Background())
	}

	snap, err := indexer.Build(ctx, indexer.Options{
		Corpus:  cfg.Corpus,
		Indexer: cfg.Indexer,
		Suggest: cfg.Suggest,
		Metrics: m,
	})
	if err != nil {
		slog.Error("failed to build index", "corpus", cfg.Corpus.Path, "error", err)
		os.Exit(1)
	}

	stats := snap.Index.Stats()
	r := report{
		Corpus:       snap.Source,
		Generation:   snap.Generation,
		Lines:        snap.Lines,
		Malformed:    snap.Malformed,
		Documents:    stats.Documents,
		Terms:        stats.Terms,
		Postings:     stats.Postings,
		Tokens:       stats.Tokens,
		BuildSeconds: snap.BuildTime.Seconds(),
	}
	if snap.Suggestions != nil {
		r.SuggestionVariants = snap.Suggestions.Len()
	}
	if err := printReport(r, *asJSON); err != nil {
		slog.Error("failed to write report", "error", err)
		os.Exit(1)
	}

	if *postings != "" {
		term, ok := tokenizer.Normalize(*postings)
		if !ok {
			fmt.Fprintf(os.Stderr, "%q is not an indexable term\n", *postings)
			os.Exit(2)
		}
		ids := snap.Index.Lookup(term)
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = strconv.Itoa(id)
		}
		fmt.Printf("%s\t%s\n", term, strings.Join(parts, " "))
	}

	if cfg.Kafka.Enabled {
		publishBuild(ctx, cfg, snap, stats.Terms)
	}
}

func printReport(r report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	_, err := fmt.Printf("corpus\t%s\ngeneration\t%s\nlines\t%d\nmalformed\t%d\ndocuments\t%d\nterms\t%d\npostings\t%d\ntokens\t%d\nsuggestion_variants\t%d\nbuild_seconds\t%.3f\n",
		r.Corpus, r.Generation, r.Lines, r.Malformed, r.Documents, r.Terms, r.Postings, r.Tokens, r.SuggestionVariants, r.BuildSeconds)
	return err
}

// publishBuild announces the build to the analytics service.
func publishBuild(ctx context.Context, cfg *config.Config, snap *indexer.Snapshot, terms int) {
	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents)
	defer producer.Close()
	event := analytics.IndexEvent{
		Generation: snap.Generation,
		Source:     snap.Source,
		Trigger:    "indexer",
		Documents:  snap.Index.N(),
		Terms:      terms,
		Malformed:  snap.Malformed,
		DurationMs: snap.BuildTime.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	}
	err := producer.Publish(ctx, kafka.Event{Key: event.Generation, Type: string(analytics.EventIndexBuild), Value: event})
	if err != nil {
		slog.Warn("failed to publish index build event", "error", err)
	}
}
