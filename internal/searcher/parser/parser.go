// Package parser turns raw query input into a normalized QueryPlan.
package parser

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/pkg/errors"
)

// Mode selects how a query is evaluated.
type Mode string

const (
	ModeBoolean Mode = "boolean"
	ModeRanked  Mode = "ranked"
)

// MaxBooleanTerms is the largest conjunction a boolean query may have.
const MaxBooleanTerms = 2

// QueryPlan is a parsed query. Terms are normalized; words that did not
// survive normalization are listed in Dropped.
type QueryPlan struct {
	RawQuery string   `json:"raw_query"`
	Mode     Mode     `json:"mode"`
	Terms    []string `json:"terms"`
	Dropped  []string `json:"dropped,omitempty"`
}

// Empty reports whether nothing is left to search for.
func (p *QueryPlan) Empty() bool { return len(p.Terms) == 0 }

// ParseMode accepts "boolean" or "ranked"; "" means boolean.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeBoolean:
		return ModeBoolean, nil
	case ModeRanked:
		return ModeRanked, nil
	default:
		return "", apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "unknown mode %q", s)
	}
}

// ParseBoolean splits query on whitespace into at most two words and
// normalizes each. Filtered words are dropped, so "the bahn" searches bahn.
func ParseBoolean(query string) (*QueryPlan, error) {
	words := strings.Fields(query)
	if len(words) > MaxBooleanTerms {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"boolean queries take at most %d terms, got %d", MaxBooleanTerms, len(words))
	}
	plan := newPlan(query, ModeBoolean)
	for _, w := range words {
		plan.add(w)
	}
	return plan, nil
}

// ParseRanked normalizes every word of query, keeping duplicates.
func ParseRanked(query string) *QueryPlan {
	plan := newPlan(query, ModeRanked)
	for _, w := range strings.Fields(query) {
		plan.add(w)
	}
	return plan
}

// Parse dispatches on mode.
func Parse(query string, mode Mode) (*QueryPlan, error) {
	switch mode {
	case ModeBoolean:
		return ParseBoolean(query)
	case ModeRanked:
		return ParseRanked(query), nil
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", apperrors.ErrInvalidInput, mode)
	}
}

func newPlan(query string, mode Mode) *QueryPlan {
	return &QueryPlan{
		RawQuery: query,
		Mode:     mode,
		Terms:    make([]string, 0, 2),
	}
}

func (p *QueryPlan) add(word string) {
	if term, ok := tokenizer.Normalize(word); ok {
		p.Terms = append(p.Terms, term)
		return
	}
	p.Dropped = append(p.Dropped, word)
}
