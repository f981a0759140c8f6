package meta

import (
	"context"
	"sync"
	"time"
)

// Graph API app-level budget we stay under. The ceiling is deliberately
// conservative; server-reported usage headers are not consulted.
const (
	rateLimitWindow   = 60 * time.Second
	rateLimitCeiling  = 200
	rateLimitSlack    = 100 * time.Millisecond
	rateLimitMinSleep = 1 * time.Second
)

// Limiter is a sliding-window request gate shared by every Graph API call
// site in the process. The window is in-memory only; a restart resets it.
//
// All state lives under mu. Acquire re-checks the window after sleeping, so
// the ceiling holds even with many concurrent callers.
type Limiter struct {
	mu     sync.Mutex
	window time.Duration
	limit  int
	stamps []time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter returns a limiter with the fixed production window and ceiling.
func NewLimiter() *Limiter {
	return &Limiter{
		window: rateLimitWindow,
		limit:  rateLimitCeiling,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// Acquire blocks until issuing one more request keeps the process under the
// ceiling, then records the request timestamp. Returns early only if ctx is
// canceled during a wait.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.prune(now)

		if len(l.stamps) < l.limit {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()
			return nil
		}

		wait := l.stamps[0].Add(l.window).Sub(now) + rateLimitSlack
		if wait < rateLimitMinSleep {
			wait = rateLimitMinSleep
		}
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// prune drops timestamps that have left the window. Caller holds mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[i:]...)
	}
}

// Pending reports how many requests currently count against the window.
func (l *Limiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.stamps)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
