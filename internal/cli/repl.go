// Package cli implements the interactive query loop: one query per input
// line, results printed as tab-separated lines.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/searcher/render"
	apperrors "github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/resilience"
)

const helpText = `:boolean    one or two terms, all must match (default)
:ranked     free text, best matches first
:quit       exit
`

type Searcher interface {
	Search(ctx context.Context, query string, mode parser.Mode, limit int) (*executor.SearchResult, error)
}

// Options configures a REPL. Prompt is written to Errors before each line
// when non-empty.
type Options struct {
	Mode    parser.Mode
	Limit   int
	Timeout time.Duration
	Prompt  string
}

type REPL struct {
	searcher Searcher
	in       io.Reader
	out      io.Writer
	errs     io.Writer
	opts     Options
	logger   *slog.Logger
}

func New(s Searcher, in io.Reader, out, errs io.Writer, opts Options) *REPL {
	if opts.Mode == "" {
		opts.Mode = parser.ModeBoolean
	}
	return &REPL{
		searcher: s,
		in:       in,
		out:      out,
		errs:     errs,
		opts:     opts,
		logger:   slog.Default().With("component", "repl"),
	}
}

// Run reads queries until EOF, :quit or ctx is cancelled. Query errors are
// reported and the loop continues; only output failures end it early.
func (r *REPL) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r.in)
		sc.Buffer(make([]byte, 64*1024), 1<<20)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	for {
		r.prompt()
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("reading input: %w", err)
					}
				default:
				}
				return nil
			}
			quit, err := r.handle(ctx, line)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}
	}
}

func (r *REPL) handle(ctx context.Context, line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return false, nil
	case ":quit", ":q", ":exit":
		return true, nil
	case ":boolean":
		r.opts.Mode = parser.ModeBoolean
		return false, nil
	case ":ranked":
		r.opts.Mode = parser.ModeRanked
		return false, nil
	case ":help":
		_, err := io.WriteString(r.errs, helpText)
		return false, err
	}
	if strings.HasPrefix(line, ":") {
		fmt.Fprintf(r.errs, "unknown command %s\n", line)
		return false, nil
	}

	var res *executor.SearchResult
	err = resilience.WithTimeout(ctx, r.opts.Timeout, "query", func(ctx context.Context) error {
		var err error
		res, err = r.searcher.Search(ctx, line, r.opts.Mode, r.opts.Limit)
		return err
	})
	if err != nil {
		r.report(line, err)
		return false, nil
	}
	if err := render.Result(r.out, res); err != nil {
		return false, fmt.Errorf("writing results: %w", err)
	}
	return false, nil
}

func (r *REPL) report(query string, err error) {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		fmt.Fprintf(r.errs, "%s\n", appErr.Message)
	case errors.Is(err, apperrors.ErrTimeout):
		fmt.Fprintf(r.errs, "query timed out: %s\n", query)
	default:
		r.logger.Error("query failed", "query", query, "error", err)
		fmt.Fprintf(r.errs, "query failed: %v\n", err)
	}
}

func (r *REPL) prompt() {
	if r.opts.Prompt == "" {
		return
	}
	prefix := "b"
	if r.opts.Mode == parser.ModeRanked {
		prefix = "r"
	}
	fmt.Fprintf(r.errs, "%s%s", prefix, r.opts.Prompt)
}
