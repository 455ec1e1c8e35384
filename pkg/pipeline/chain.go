package pipeline

import (
	"sync"

	"github.com/cortexflow/pipelinekit/pkg/types"
)

// RequestMiddleware transforms requests before they are sent to the provider.
// It can mutate the request in place, cancel the call through the context,
// or return an error to abort the request phase.
type RequestMiddleware interface {
	ProcessRequest(ctx *CallContext, req *types.Request) error
}

// ResponseMiddleware processes responses after they are received (or
// synthesized). It can mutate the response in place or return an error.
type ResponseMiddleware interface {
	ProcessResponse(ctx *CallContext, resp *types.Response) error
}

// Middleware is a marker for values that implement RequestMiddleware,
// ResponseMiddleware, or both. Chain.Use registers a value for every phase
// interface it implements.
type Middleware interface{}

// Chain holds an ordered sequence of request middlewares and an independently
// ordered sequence of response middlewares, and executes them for one call.
//
// Registration is guarded by a mutex so a chain can be assembled from
// multiple goroutines, but the phase-run methods snapshot the lists and the
// middlewares themselves run unlocked; whether a given middleware tolerates
// concurrent calls is its own contract.
type Chain struct {
	mu       sync.RWMutex
	request  []RequestMiddleware
	response []ResponseMiddleware
}

// NewChain creates an empty middleware chain
func NewChain() *Chain {
	return &Chain{}
}

// Use registers middleware for every phase it implements: values implementing
// RequestMiddleware join the request sequence, values implementing
// ResponseMiddleware join the response sequence. Registering a value that
// implements neither is a no-op.
func (c *Chain) Use(m Middleware) *Chain {
	c.mu.Lock()
	defer c.mu.Unlock()

	if reqMw, ok := m.(RequestMiddleware); ok {
		c.request = append(c.request, reqMw)
	}
	if respMw, ok := m.(ResponseMiddleware); ok {
		c.response = append(c.response, respMw)
	}
	return c
}

// UseRequest appends middleware to the request sequence only
func (c *Chain) UseRequest(m RequestMiddleware) *Chain {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.request = append(c.request, m)
	return c
}

// UseResponse appends middleware to the response sequence only
func (c *Chain) UseResponse(m ResponseMiddleware) *Chain {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.response = append(c.response, m)
	return c
}

// Remove removes middleware from both sequences.
// Returns true if it was found in either.
func (c *Chain) Remove(m Middleware) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := false
	for i, mw := range c.request {
		if mw == m {
			c.request = append(c.request[:i], c.request[i+1:]...)
			removed = true
			break
		}
	}
	for i, mw := range c.response {
		if mw == m {
			c.response = append(c.response[:i], c.response[i+1:]...)
			removed = true
			break
		}
	}
	return removed
}

// Clear removes all middleware from the chain
func (c *Chain) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.request = nil
	c.response = nil
}

// RequestLen returns the number of registered request middlewares
func (c *Chain) RequestLen() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.request)
}

// ResponseLen returns the number of registered response middlewares
func (c *Chain) ResponseLen() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.response)
}

// RunRequestPhase executes the request middlewares in registration order.
//
// The first middleware error aborts the phase immediately and is propagated
// unchanged; no later middleware runs. After each successful middleware the
// context's cancellation flag is checked, and a cancelled call stops the
// iteration without error — the remaining request middlewares never run and
// never observe the request.
func (c *Chain) RunRequestPhase(ctx *CallContext, req *types.Request) error {
	c.mu.RLock()
	middlewares := make([]RequestMiddleware, len(c.request))
	copy(middlewares, c.request)
	c.mu.RUnlock()

	for _, mw := range middlewares {
		if err := mw.ProcessRequest(ctx, req); err != nil {
			return err
		}
		if ctx.Cancelled() {
			return nil
		}
	}

	return nil
}

// RunResponsePhase executes the response middlewares in strict reverse
// registration order. The first error aborts the phase and is propagated.
//
// This phase is not gated by the context's cancellation flag: it always runs
// in full even when the request phase short-circuited, so that accounting,
// logging, and cache population still observe calls that were answered from
// cache or denied by a limiter.
func (c *Chain) RunResponsePhase(ctx *CallContext, resp *types.Response) error {
	c.mu.RLock()
	middlewares := make([]ResponseMiddleware, len(c.response))
	copy(middlewares, c.response)
	c.mu.RUnlock()

	for i := len(middlewares) - 1; i >= 0; i-- {
		if err := middlewares[i].ProcessResponse(ctx, resp); err != nil {
			return err
		}
	}

	return nil
}

// RequestMiddlewareFunc is a function adapter for RequestMiddleware
type RequestMiddlewareFunc func(ctx *CallContext, req *types.Request) error

// ProcessRequest implements RequestMiddleware
func (f RequestMiddlewareFunc) ProcessRequest(ctx *CallContext, req *types.Request) error {
	return f(ctx, req)
}

// ResponseMiddlewareFunc is a function adapter for ResponseMiddleware
type ResponseMiddlewareFunc func(ctx *CallContext, resp *types.Response) error

// ProcessResponse implements ResponseMiddleware
func (f ResponseMiddlewareFunc) ProcessResponse(ctx *CallContext, resp *types.Response) error {
	return f(ctx, resp)
}
