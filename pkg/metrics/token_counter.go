// Package metrics provides usage accounting policies for the middleware
// pipeline.
package metrics

import (
	"sync/atomic"

	"github.com/cortexflow/pipelinekit/pkg/pipeline"
	"github.com/cortexflow/pipelinekit/pkg/types"
)

// TokenCounter is a pure usage accumulator. On every response-phase
// invocation it increments the request count by one unconditionally and adds
// the response's token counts (a nil Usage counts as zero) to its running
// totals. There is no expiry and no capacity bound.
//
// Unlike the other policies in this kit, the counters are atomics, so one
// TokenCounter may be shared by concurrent calls without external locking.
type TokenCounter struct {
	totalRequests    atomic.Int64
	promptTokens     atomic.Int64
	completionTokens atomic.Int64
}

// NewTokenCounter creates a token counter with all totals at zero
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{}
}

// ProcessResponse implements pipeline.ResponseMiddleware
func (tc *TokenCounter) ProcessResponse(ctx *pipeline.CallContext, resp *types.Response) error {
	tc.totalRequests.Add(1)

	if resp != nil && resp.Usage != nil {
		tc.promptTokens.Add(int64(resp.Usage.PromptTokens))
		tc.completionTokens.Add(int64(resp.Usage.CompletionTokens))
	}

	return nil
}

// TotalRequests returns the number of responses observed
func (tc *TokenCounter) TotalRequests() int64 {
	return tc.totalRequests.Load()
}

// PromptTokens returns the accumulated input token count
func (tc *TokenCounter) PromptTokens() int64 {
	return tc.promptTokens.Load()
}

// CompletionTokens returns the accumulated output token count
func (tc *TokenCounter) CompletionTokens() int64 {
	return tc.completionTokens.Load()
}

// TotalTokens returns the combined input and output token count
func (tc *TokenCounter) TotalTokens() int64 {
	return tc.promptTokens.Load() + tc.completionTokens.Load()
}

// Reset zeroes all counters
func (tc *TokenCounter) Reset() {
	tc.totalRequests.Store(0)
	tc.promptTokens.Store(0)
	tc.completionTokens.Store(0)
}

// Snapshot is a point-in-time copy of the counters
type Snapshot struct {
	TotalRequests    int64 `json:"total_requests"`
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// Snapshot returns a point-in-time copy of the counters
func (tc *TokenCounter) Snapshot() Snapshot {
	prompt := tc.promptTokens.Load()
	completion := tc.completionTokens.Load()
	return Snapshot{
		TotalRequests:    tc.totalRequests.Load(),
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}
