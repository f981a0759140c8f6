package meta

import "time"

// RetryPolicy controls how the page walker reacts to rate-limited responses.
// Only rate-limit errors are retried; everything else propagates immediately.
type RetryPolicy struct {
	// MaxRetries is the number of re-requests allowed for one page.
	MaxRetries int
	// Backoff returns the sleep before retry number retry (0-based).
	Backoff func(retry int) time.Duration
}

// DefaultRetryPolicy retries a rate-limited page up to 3 times with linear
// backoff: 5s, 10s, 15s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		Backoff: func(retry int) time.Duration {
			return time.Duration(retry+1) * 5 * time.Second
		},
	}
}
