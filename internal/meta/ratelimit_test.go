package meta

import (
	"context"
	"testing"
	"time"
)

// testLimiter returns a limiter with a controllable clock. Sleeps advance the
// clock instead of blocking.
func testLimiter(start time.Time) (*Limiter, *time.Time, *[]time.Duration) {
	now := start
	var slept []time.Duration
	l := NewLimiter()
	l.now = func() time.Time { return now }
	l.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		now = now.Add(d)
		return nil
	}
	return l, &now, &slept
}

func TestLimiter_UnderCeilingNeverWaits(t *testing.T) {
	l, _, slept := testLimiter(time.Unix(1700000000, 0))
	for i := 0; i < rateLimitCeiling; i++ {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}
	if len(*slept) != 0 {
		t.Fatalf("expected no waits under ceiling, got %d", len(*slept))
	}
	if l.Pending() != rateLimitCeiling {
		t.Fatalf("expected %d pending, got %d", rateLimitCeiling, l.Pending())
	}
}

func TestLimiter_CeilingPlusOneWaitsForOldest(t *testing.T) {
	start := time.Unix(1700000000, 0)
	l, _, slept := testLimiter(start)
	for i := 0; i < rateLimitCeiling; i++ {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(*slept) == 0 {
		t.Fatalf("expected the %dth acquire to wait", rateLimitCeiling+1)
	}
	// All 200 stamps share the same instant, so the wait is the full window
	// plus the slack.
	if (*slept)[0] != rateLimitWindow+rateLimitSlack {
		t.Fatalf("expected wait %v, got %v", rateLimitWindow+rateLimitSlack, (*slept)[0])
	}
}

func TestLimiter_WaitFloorsAtOneSecond(t *testing.T) {
	start := time.Unix(1700000000, 0)
	l, now, slept := testLimiter(start)
	for i := 0; i < rateLimitCeiling; i++ {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	// Just before the oldest stamp exits the window the computed wait is tiny;
	// the limiter must still sleep at least a second.
	*now = start.Add(rateLimitWindow - 50*time.Millisecond)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if (*slept)[0] < rateLimitMinSleep {
		t.Fatalf("expected wait >= %v, got %v", rateLimitMinSleep, (*slept)[0])
	}
}

func TestLimiter_OldEntriesPruned(t *testing.T) {
	start := time.Unix(1700000000, 0)
	l, now, slept := testLimiter(start)
	for i := 0; i < rateLimitCeiling; i++ {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	*now = start.Add(rateLimitWindow + time.Second)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(*slept) != 0 {
		t.Fatalf("expected no wait once window elapsed, got %v", *slept)
	}
	if l.Pending() != 1 {
		t.Fatalf("expected 1 pending after prune, got %d", l.Pending())
	}
}

func TestLimiter_AcquireHonorsContextCancel(t *testing.T) {
	start := time.Unix(1700000000, 0)
	l, _, _ := testLimiter(start)
	l.sleep = sleepCtx // real sleep so cancellation matters
	for i := 0; i < rateLimitCeiling; i++ {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Acquire(ctx); err == nil {
		t.Fatalf("expected context error")
	}
}
