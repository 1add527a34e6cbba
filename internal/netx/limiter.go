// Package netx holds the single outbound HTTP path of the engine: a
// process-wide rate limiter and the client that waits on it before every
// request.
package netx

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultInterval is the minimum spacing between two outbound requests.
const DefaultInterval = 2 * time.Second

// RateLimiter spaces requests at least interval apart across every caller
// sharing the instance. It is safe for concurrent use.
type RateLimiter struct {
	l *rate.Limiter
}

// NewRateLimiter returns a limiter whose first Acquire passes immediately.
// A non-positive interval disables limiting.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	if interval <= 0 {
		return &RateLimiter{l: rate.NewLimiter(rate.Inf, 1)}
	}
	return &RateLimiter{l: rate.NewLimiter(rate.Every(interval), 1)}
}

// Acquire blocks until the next request slot is available or ctx is done.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	return r.l.Wait(ctx)
}
