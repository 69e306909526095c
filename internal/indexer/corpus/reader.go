// Package corpus streams documents out of a line-delimited corpus file.
// Every line is one document and its zero-based line index is its id.
package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/errors"
)

// Record is one document as read from the corpus.
type Record struct {
	ID   int
	Line string
	Body string
}

// Reader yields Records lazily. Malformed lines are logged, counted and
// skipped; they still consume a line index.
type Reader struct {
	br        *bufio.Reader
	cfg       config.CorpusConfig
	next      int
	malformed int
	logger    *slog.Logger
}

func NewReader(r io.Reader, cfg config.CorpusConfig) *Reader {
	if cfg.Layout == "" {
		cfg.Layout = config.LayoutPlain
	}
	if cfg.Delimiter == "" {
		cfg.Delimiter = "\t"
	}
	return &Reader{
		br:     bufio.NewReaderSize(r, 64*1024),
		cfg:    cfg,
		logger: slog.Default().With("component", "corpus-reader"),
	}
}

// Next returns the next well-formed record, or io.EOF once the input is
// exhausted. Any other error is an I/O failure of the underlying reader.
func (r *Reader) Next() (Record, error) {
	for {
		line, err := r.br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return Record{}, fmt.Errorf("reading corpus line %d: %w", r.next, err)
		}
		if errors.Is(err, io.EOF) && line == "" {
			return Record{}, io.EOF
		}
		id := r.next
		r.next++
		line = strings.TrimRight(line, "\r\n")

		body, perr := r.body(line)
		if perr != nil {
			r.malformed++
			r.logger.Warn("skipping corpus line", "line", id, "error", perr)
			continue
		}
		return Record{ID: id, Line: line, Body: body}, nil
	}
}

func (r *Reader) body(line string) (string, error) {
	if r.cfg.MaxLineBytes > 0 && len(line) > r.cfg.MaxLineBytes {
		return "", fmt.Errorf("%w: %d bytes exceeds limit of %d", apperrors.ErrMalformedRecord, len(line), r.cfg.MaxLineBytes)
	}
	if r.cfg.Layout != config.LayoutTabbed {
		return line, nil
	}
	fields := strings.Split(line, r.cfg.Delimiter)
	if len(fields) <= r.cfg.Column {
		return "", fmt.Errorf("%w: %d fields, body column is %d", apperrors.ErrMalformedRecord, len(fields), r.cfg.Column)
	}
	return fields[r.cfg.Column], nil
}

// Lines is the number of lines consumed so far, malformed ones included.
func (r *Reader) Lines() int { return r.next }

// Malformed is the number of lines skipped so far.
func (r *Reader) Malformed() int { return r.malformed }

// Each calls fn for every well-formed record until EOF, an I/O error, or an
// error from fn.
func (r *Reader) Each(fn func(Record) error) error {
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}
