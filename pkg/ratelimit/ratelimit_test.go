package ratelimit

import (
	"testing"
	"time"
)

func newTestLimiter(burst int, window time.Duration) (*Limiter, *time.Time) {
	l := New(burst, window)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }
	return l, &clock
}

func TestAllowBurstThenDeny(t *testing.T) {
	l, _ := newTestLimiter(3, time.Minute)
	defer l.Close()

	for i := 0; i < 3; i++ {
		if !l.Allow("a") {
			t.Fatalf("request %d denied within burst", i)
		}
	}
	if l.Allow("a") {
		t.Fatal("fourth request allowed")
	}
	if !l.Allow("b") {
		t.Error("separate key should have its own bucket")
	}
}

func TestRefill(t *testing.T) {
	l, clock := newTestLimiter(2, 10*time.Second)
	defer l.Close()

	l.Allow("a")
	l.Allow("a")
	if l.Allow("a") {
		t.Fatal("bucket should be empty")
	}
	if d := l.RetryAfter("a"); d <= 0 || d > 5*time.Second {
		t.Errorf("RetryAfter = %v, want (0, 5s]", d)
	}
	*clock = clock.Add(5 * time.Second)
	if !l.Allow("a") {
		t.Error("one token should have refilled")
	}
}

func TestEvictAndReset(t *testing.T) {
	l, clock := newTestLimiter(1, time.Second)
	defer l.Close()

	l.Allow("a")
	l.Allow("b")
	l.Reset("b")
	if l.Len() != 1 {
		t.Fatalf("Len = %d, want 1", l.Len())
	}
	*clock = clock.Add(3 * time.Second)
	l.evict()
	if l.Len() != 0 {
		t.Errorf("Len after evict = %d, want 0", l.Len())
	}
}

func TestCloseIdempotent(t *testing.T) {
	l := New(1, time.Second)
	l.Close()
	l.Close()
}
