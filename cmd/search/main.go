// Command search builds the index for a corpus file and answers queries
// read from standard input, one per line.
//
// Usage:
//
//	search [-config file] [-ranked] [corpus]
//
// Results go to standard output; logs, prompts and query errors go to
// standard error.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/cli"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/watcher"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file; built-in defaults when empty")
	ranked := flag.Bool("ranked", false, "start in ranked mode")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if flag.NArg() > 0 {
		cfg.Corpus.Path = flag.Arg(0)
	}
	logger.SetupOutput(cfg.Logging.Level, cfg.Logging.Format, "stderr")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := indexer.NewEngine(cfg, nil)
	if _, err := engine.Load(ctx); err != nil {
		slog.Error("failed to build index", "corpus", cfg.Corpus.Path, "error", err)
		os.Exit(1)
	}

	if cfg.Watch.Enabled {
		w := watcher.New(engine.Path(), cfg.Watch.Debounce, func(ctx context.Context) {
			if _, err := engine.Load(ctx); err != nil {
				slog.Error("reload failed, keeping previous index", "error", err)
			}
		})
		if err := w.Start(ctx); err != nil {
			slog.Warn("corpus watcher unavailable", "error", err)
		} else {
			defer w.Stop()
		}
	}

	opts := cli.Options{Mode: parser.ModeBoolean, Timeout: cfg.Search.Timeout}
	if *ranked {
		opts.Mode = parser.ModeRanked
	}
	if isTerminal(os.Stdin) {
		opts.Prompt = "> "
	}
	exec := executor.New(engine, executor.OptionsFromConfig(cfg, nil))
	repl := cli.New(exec, os.Stdin, os.Stdout, os.Stderr, opts)
	if err := repl.Run(ctx); err != nil {
		slog.Error("query loop failed", "error", err)
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
