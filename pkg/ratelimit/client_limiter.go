package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// ClientLimiter is a smoothing client-side limiter for providers that publish
// a requests-per-minute budget but no rate limit headers. Instead of
// rejecting calls over budget, it paces them: Wait blocks until the next call
// is allowed or the context is done.
//
// The executor consults the limiter before running the request phase of each
// attempt (see pipeline.Executor.WithPacer), so a paced call is delayed
// before any middleware observes it.
type ClientLimiter struct {
	limiter *rate.Limiter
}

// NewClientLimiter creates a limiter pacing calls to rpm requests per minute,
// with a burst allowance of the same size
func NewClientLimiter(rpm int) *ClientLimiter {
	return &ClientLimiter{
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm),
	}
}

// Wait blocks until the next call is allowed under the configured rate, or
// until ctx is done
func (c *ClientLimiter) Wait(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

// Allow reports whether a call may proceed immediately without waiting
func (c *ClientLimiter) Allow() bool {
	return c.limiter.Allow()
}
