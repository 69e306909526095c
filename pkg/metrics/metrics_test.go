package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.DocsIndexedTotal.Add(3)
	m.QueriesTotal.WithLabelValues("boolean", "hit").Inc()
	m.IndexTerms.Set(42)

	if got := testutil.ToFloat64(m.DocsIndexedTotal); got != 3 {
		t.Errorf("docs_indexed_total = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.QueriesTotal.WithLabelValues("boolean", "hit")); got != 1 {
		t.Errorf("queries_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.IndexTerms); got != 42 {
		t.Errorf("index_terms = %v, want 42", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected registered metric families")
	}
}

func TestTwoRegistriesDoNotCollide(t *testing.T) {
	NewWithRegistry(prometheus.NewRegistry())
	NewWithRegistry(prometheus.NewRegistry())
}
