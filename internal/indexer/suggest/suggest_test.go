package suggest

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAdjacencyIsSymmetric(t *testing.T) {
	if len(adjacent) != 26 {
		t.Fatalf("table has %d keys, want 26", len(adjacent))
	}
	for k, ns := range adjacent {
		for _, n := range ns {
			found := false
			for _, back := range adjacent[n] {
				if back == k {
					found = true
				}
			}
			if !found {
				t.Errorf("%c lists %c but %c does not list %c", k, n, n, k)
			}
		}
	}
}

func TestVariants(t *testing.T) {
	got := Variants("ab")
	want := []string{
		"qb", "wb", "sb", "zb", "xb", "b",
		"af", "ag", "ah", "av", "an", "a",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Variants(ab) mismatch (-want +got):\n%s", diff)
	}
}

func TestVariantsNonASCII(t *testing.T) {
	got := Variants("üb")
	// ü has no neighbours, so only its deletion is produced at position 0.
	if got[0] != "b" {
		t.Errorf("first variant = %q, want deletion %q", got[0], "b")
	}
	for _, v := range got {
		if v == "" {
			t.Error("empty variant")
		}
	}
}

func TestCandidates(t *testing.T) {
	idx, err := Build(context.Background(), []string{"stuttgart", "bahn", "berlin"}, 2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	tests := []struct {
		query string
		want  []string
	}{
		{"sruttgart", []string{"stuttgart"}},
		{"stuttgar", []string{"stuttgart"}},
		{"sttuttgart", []string{"stuttgart"}},
		{"bshn", []string{"bahn"}},
		{"bhn", []string{"bahn"}},
		{"zzzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, idx.Candidates(tt.query)); diff != "" {
				t.Errorf("Candidates(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestCandidatesSharedVariant(t *testing.T) {
	idx, err := Build(context.Background(), []string{"bahn", "bohn"}, 1)
	if err != nil {
		t.Fatal(err)
	}
	// "bhn" is a deletion variant of both terms.
	if diff := cmp.Diff([]string{"bahn", "bohn"}, idx.Candidates("bhn")); diff != "" {
		t.Errorf("Candidates(bhn) mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildIsDeterministicAcrossWorkers(t *testing.T) {
	terms := []string{"stuttgart", "bahn", "berlin", "hamburg", "hafen", "streik", "zug"}
	one, err := Build(context.Background(), terms, 1)
	if err != nil {
		t.Fatal(err)
	}
	many, err := Build(context.Background(), terms, 4)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(one.variants, many.variants); diff != "" {
		t.Errorf("variants differ between 1 and 4 workers:\n%s", diff)
	}
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Build(ctx, []string{"bahn"}, 1); err == nil {
		t.Fatal("expected context error")
	}
}
