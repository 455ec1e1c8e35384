// Package ratelimit provides client-side rate limiting policies for the
// middleware pipeline: a fixed-window counter that rejects calls over the
// limit, and a smoothing limiter that paces calls instead of rejecting them.
package ratelimit

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cortexflow/pipelinekit/pkg/pipeline"
	"github.com/cortexflow/pipelinekit/pkg/retry"
	"github.com/cortexflow/pipelinekit/pkg/types"
)

// Window is the length of the fixed counting window
const Window = 60 * time.Second

// ErrRateLimited is returned when a call exceeds the window limit.
// The returned error carries HTTP status 429 for retry classification.
var ErrRateLimited = errors.New("rate limit exceeded")

// FixedWindow is a fixed-window request counter: it counts calls in discrete,
// non-overlapping 60-second buckets that reset entirely rather than sliding.
// When the count reaches the limit, further calls in the window are cancelled
// and rejected with ErrRateLimited.
//
// A FixedWindow is NOT internally synchronized. Concurrent calls sharing one
// instance require external serialization, sharding, or one instance per
// concurrent caller; this is a documented limitation of the policy, matching
// its single-threaded-per-call execution model.
type FixedWindow struct {
	limit       int
	windowStart time.Time
	count       int

	now func() time.Time
}

// NewFixedWindow creates a limiter allowing limit requests per 60-second
// window. The window starts at construction time.
func NewFixedWindow(limit int) *FixedWindow {
	l := &FixedWindow{
		limit: limit,
		now:   time.Now,
	}
	l.windowStart = l.now()
	return l
}

// ProcessRequest implements pipeline.RequestMiddleware.
//
// The counter resets to exactly zero the moment the elapsed time since the
// window start reaches or exceeds the window length, and is otherwise
// monotonically non-decreasing within a window. A call at the limit cancels
// the context and fails with ErrRateLimited; otherwise the count is
// incremented and the call proceeds.
func (l *FixedWindow) ProcessRequest(ctx *pipeline.CallContext, req *types.Request) error {
	now := l.now()

	if now.Sub(l.windowStart) >= Window {
		l.windowStart = now
		l.count = 0
	}

	if l.count >= l.limit {
		ctx.Cancel()
		return retry.WithStatus(
			fmt.Errorf("%w: %d requests in the current window", ErrRateLimited, l.count),
			http.StatusTooManyRequests,
		)
	}

	l.count++
	return nil
}

// Remaining returns the number of calls left in the current window.
// A stale window counts as a full fresh one.
func (l *FixedWindow) Remaining() int {
	if l.now().Sub(l.windowStart) >= Window {
		return l.limit
	}
	if l.count >= l.limit {
		return 0
	}
	return l.limit - l.count
}

// Stats is a snapshot of the limiter state
type Stats struct {
	// Limit is the configured number of requests per window
	Limit int

	// Count is the number of requests counted in the current window
	Count int

	// WindowStart is when the current window began
	WindowStart time.Time
}

// Stats returns a snapshot of the limiter state
func (l *FixedWindow) Stats() Stats {
	return Stats{
		Limit:       l.limit,
		Count:       l.count,
		WindowStart: l.windowStart,
	}
}
