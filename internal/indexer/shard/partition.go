// Package shard splits a corpus into contiguous document-id ranges, indexes
// the ranges in parallel and merges the partial indexes back in id order.
// The merged result is identical to a single sequential pass.
package shard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer/corpus"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer/tokenizer"
	"golang.org/x/sync/errgroup"
)

// Source yields records in ascending id order and io.EOF at the end.
type Source interface {
	Next() (corpus.Record, error)
}

// Options controls partitioning.
type Options struct {
	Workers       int
	PartitionSize int
	ProgressEvery int
	// Progress is called from the reading goroutine with the number of
	// documents read so far.
	Progress func(docs int)
}

type partition struct {
	seq     int
	records []corpus.Record
}

type partial struct {
	seq     int
	builder *index.Builder
}

// Build reads src to the end and returns a builder holding every document.
// The first error from src or ctx aborts the whole build.
func Build(ctx context.Context, src Source, opts Options) (*index.Builder, error) {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.PartitionSize <= 0 {
		opts.PartitionSize = 10000
	}
	logger := slog.Default().With("component", "shard-builder")

	g, gctx := errgroup.WithContext(ctx)
	parts := make(chan partition, opts.Workers)

	g.Go(func() error {
		defer close(parts)
		seq, read := 0, 0
		buf := make([]corpus.Record, 0, opts.PartitionSize)
		send := func() error {
			select {
			case parts <- partition{seq: seq, records: buf}:
			case <-gctx.Done():
				return gctx.Err()
			}
			seq++
			buf = make([]corpus.Record, 0, opts.PartitionSize)
			return nil
		}
		for {
			rec, err := src.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return err
			}
			buf = append(buf, rec)
			read++
			if opts.Progress != nil && opts.ProgressEvery > 0 && read%opts.ProgressEvery == 0 {
				opts.Progress(read)
			}
			if len(buf) == opts.PartitionSize {
				if err := send(); err != nil {
					return err
				}
			}
		}
		if len(buf) > 0 {
			return send()
		}
		return nil
	})

	var mu sync.Mutex
	var partials []partial
	for w := 0; w < opts.Workers; w++ {
		g.Go(func() error {
			for p := range parts {
				if err := gctx.Err(); err != nil {
					return err
				}
				b := index.NewBuilder()
				for _, rec := range p.records {
					b.AddDocument(rec.ID, rec.Line, tokenizer.Tokenize(rec.Body))
				}
				mu.Lock()
				partials = append(partials, partial{seq: p.seq, builder: b})
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(partials, func(i, j int) bool { return partials[i].seq < partials[j].seq })
	if len(partials) == 0 {
		return index.NewBuilder(), nil
	}
	merged := partials[0].builder
	for _, p := range partials[1:] {
		merged.Merge(p.builder)
	}
	logger.Debug("partitions merged", "partitions", len(partials), "workers", opts.Workers, "docs", merged.Docs())
	return merged, nil
}
