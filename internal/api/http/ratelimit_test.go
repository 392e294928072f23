package httpapi

import (
	"testing"
	"time"
)

func TestIPRateLimiterPerClient(t *testing.T) {
	l := NewIPRateLimiter(0.001, 1)

	if !l.Allow("10.0.0.1") {
		t.Fatalf("first request should pass")
	}
	if l.Allow("10.0.0.1") {
		t.Fatalf("second request should be limited")
	}
	if !l.Allow("10.0.0.2") {
		t.Fatalf("other clients have their own bucket")
	}
}

func TestIPRateLimiterSweep(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(1, 1)
	l.now = func() time.Time { return now }

	l.Allow("10.0.0.1")
	now = now.Add(limiterIdle / 2)
	l.Allow("10.0.0.2")

	now = now.Add(limiterIdle/2 + time.Second)
	if n := l.Sweep(); n != 1 {
		t.Fatalf("Sweep removed %d, want 1", n)
	}
	if _, ok := l.limiters.Load("10.0.0.2"); !ok {
		t.Fatalf("recently seen client was swept")
	}
}
