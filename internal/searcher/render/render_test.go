package render

import (
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Corpus-Search-Engine/internal/searcher/parser"
	"github.com/google/go-cmp/cmp"
)

func TestResult(t *testing.T) {
	tests := []struct {
		name string
		res  *executor.SearchResult
		want string
	}{
		{
			name: "boolean",
			res: &executor.SearchResult{
				Mode: parser.ModeBoolean,
				Hits: []executor.Hit{{DocID: 0, Line: "Stuttgart Bahn"}, {DocID: 2, Line: "Stuttgart München"}},
			},
			want: "0\tStuttgart Bahn\n2\tStuttgart München\n",
		},
		{
			name: "ranked",
			res: &executor.SearchResult{
				Mode: parser.ModeRanked,
				Hits: []executor.Hit{{DocID: 1, Score: 1, Line: "Berlin Bahn"}, {DocID: 3, Score: 0.25, Line: "Bahn"}},
			},
			want: "1\t1\tBerlin Bahn\n0.25\t3\tBahn\n",
		},
		{
			name: "suggestions",
			res: &executor.SearchResult{
				Mode: parser.ModeBoolean,
				Hits: []executor.Hit{},
				Suggestions: []executor.SuggestedQuery{
					{Terms: []string{"stuttgart", "bahn"}, Hits: []executor.Hit{{DocID: 0, Line: "Stuttgart Bahn"}}},
					{Terms: []string{"stuttgart", "bang"}},
				},
			},
			want: "possible search query: stuttgart, bahn\n0\tStuttgart Bahn\npossible search query: stuttgart, bang\n",
		},
		{
			name: "nothing",
			res:  &executor.SearchResult{Mode: parser.ModeBoolean},
			want: NoResults + "\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sb strings.Builder
			if err := Result(&sb, tt.res); err != nil {
				t.Fatalf("Result: %v", err)
			}
			if diff := cmp.Diff(tt.want, sb.String()); diff != "" {
				t.Errorf("output (-want +got):\n%s", diff)
			}
		})
	}
}
