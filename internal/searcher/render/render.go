// Package render writes search results as tab-separated text lines.
package render

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/searcher/parser"
)

// SuggestionPrefix introduces the results of a corrected query.
const SuggestionPrefix = "possible search query: "

// NoResults is printed when neither the query nor any suggestion matched.
const NoResults = "no documents found"

// Result writes res to w. Boolean hits are "{id}\t{line}", ranked hits are
// "{score}\t{id}\t{line}". Each suggested query is announced on its own
// line before its hits.
func Result(w io.Writer, res *executor.SearchResult) error {
	bw := bufio.NewWriter(w)
	ranked := res.Mode == parser.ModeRanked
	writeHits(bw, res.Hits, ranked)
	for _, s := range res.Suggestions {
		bw.WriteString(SuggestionPrefix)
		bw.WriteString(strings.Join(s.Terms, ", "))
		bw.WriteByte('\n')
		writeHits(bw, s.Hits, false)
	}
	if len(res.Hits) == 0 && !matchedSuggestion(res) {
		bw.WriteString(NoResults)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Score formats a similarity with the shortest exact representation.
func Score(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeHits(bw *bufio.Writer, hits []executor.Hit, ranked bool) {
	for _, h := range hits {
		if ranked {
			bw.WriteString(Score(h.Score))
			bw.WriteByte('\t')
		}
		bw.WriteString(strconv.Itoa(h.DocID))
		bw.WriteByte('\t')
		bw.WriteString(h.Line)
		bw.WriteByte('\n')
	}
}

func matchedSuggestion(res *executor.SearchResult) bool {
	for _, s := range res.Suggestions {
		if len(s.Hits) > 0 {
			return true
		}
	}
	return false
}
