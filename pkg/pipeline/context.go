// Package pipeline provides the middleware infrastructure that intercepts
// every outbound model call and its result to apply cross-cutting policies
// (caching, rate limiting, usage accounting, structured logging) before and
// after the call reaches a backend model.
//
// The pipeline is synchronous and single-threaded per call: every middleware
// runs to completion before the next begins, and there is no fan-out or
// parallel middleware execution. Shared policy instances referenced by
// multiple concurrent calls are not internally synchronized unless their own
// documentation says otherwise; safe concurrent sharing requires external
// locking or one instance per concurrent caller.
package pipeline

import "time"

// CacheHit is the payload a cache stores into the call context on a hit.
// The executor synthesizes the Response for the caller from it, so the model
// adapter is never invoked for a hit.
type CacheHit struct {
	// Text is an owned copy of the cached completion text
	Text string
}

// CallContext is the per-call mutable scratch space shared by the middlewares
// of one call. It holds the cooperative cancellation flag, an optional target
// model reference, and typed slots for data middlewares hand to the caller.
//
// A CallContext is constructed at the start of one call and discarded at its
// end. It does not own anything placed into it: any reference stored in a
// slot must outlive the call, and each slot holds at most one value —
// setting it again overwrites.
type CallContext struct {
	cancelled bool
	model     string

	cacheHit *CacheHit

	startTime time.Time
	hasStart  bool
}

// NewCallContext creates a call context for one call against the given model.
// model may be empty when the caller has not pinned a target model.
func NewCallContext(model string) *CallContext {
	return &CallContext{model: model}
}

// Cancel sets the cancellation flag. Cancellation is cooperative and purely
// local: it stops the remaining request-phase middlewares of this call, but
// never suppresses the response phase.
func (c *CallContext) Cancel() {
	c.cancelled = true
}

// Cancelled reports whether the call has been cancelled
func (c *CallContext) Cancelled() bool {
	return c.cancelled
}

// Model returns the target model for this call, or empty if none was set
func (c *CallContext) Model() string {
	return c.model
}

// SetModel overwrites the target model for this call
func (c *CallContext) SetModel(model string) {
	c.model = model
}

// SetCacheHit stores the cache-hit payload for this call, overwriting any
// previous one
func (c *CallContext) SetCacheHit(hit *CacheHit) {
	c.cacheHit = hit
}

// CacheHit returns the cache-hit payload stored for this call, or nil
func (c *CallContext) CacheHit() *CacheHit {
	return c.cacheHit
}

// MarkStart records the request-phase start timestamp used for latency
// measurement, overwriting any previous one
func (c *CallContext) MarkStart(t time.Time) {
	c.startTime = t
	c.hasStart = true
}

// StartTime returns the recorded start timestamp and whether one was recorded
func (c *CallContext) StartTime() (time.Time, bool) {
	return c.startTime, c.hasStart
}
