// Package analytics records what users search for. The search service
// publishes events through a Collector; the analytics service consumes them
// into an Aggregator.
package analytics

import "time"

type EventType string

const (
	EventQuery      EventType = "query"
	EventIndexBuild EventType = "index_build"
)

// QueryEvent describes one executed search.
type QueryEvent struct {
	Query       string    `json:"query"`
	Mode        string    `json:"mode"`
	Terms       []string  `json:"terms"`
	Unknown     []string  `json:"unknown,omitempty"`
	TotalHits   int       `json:"total_hits"`
	Returned    int       `json:"returned"`
	Suggestions int       `json:"suggestions"`
	LatencyMs   int64     `json:"latency_ms"`
	CacheHit    bool      `json:"cache_hit"`
	Generation  string    `json:"generation"`
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
}

// IndexEvent describes one completed index build.
type IndexEvent struct {
	Generation string    `json:"generation"`
	Source     string    `json:"source"`
	Trigger    string    `json:"trigger"`
	Documents  int       `json:"documents"`
	Terms      int       `json:"terms"`
	Malformed  int       `json:"malformed"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}
