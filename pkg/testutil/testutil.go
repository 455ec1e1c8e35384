// Package testutil provides common fixtures and helpers for pipeline tests.
package testutil

import (
	"sync"
	"time"

	"github.com/cortexflow/pipelinekit/pkg/logging"
	"github.com/cortexflow/pipelinekit/pkg/types"
)

// NewTextRequest builds a valid request around the given prompt
func NewTextRequest(prompt string) *types.Request {
	req, err := types.NewRequestBuilder().
		WithPrompt(prompt).
		WithModel("test-model").
		Build()
	if err != nil {
		panic(err)
	}
	return req
}

// NewTextResponse builds a response with the given text and token usage
func NewTextResponse(text string, promptTokens, completionTokens int) *types.Response {
	return &types.Response{
		ID:           "test-response",
		Model:        "test-model",
		Text:         text,
		FinishReason: "stop",
		Usage: &types.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
		Created: time.Now().Unix(),
	}
}

// RecordingSink collects every emitted event for inspection
type RecordingSink struct {
	mu     sync.Mutex
	events []logging.Event
}

// Emit implements logging.Sink
func (s *RecordingSink) Emit(event logging.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

// Events returns a copy of the recorded events
func (s *RecordingSink) Events() []logging.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]logging.Event, len(s.events))
	copy(events, s.events)
	return events
}

// Clock is a manually advanced clock for policies with injectable time
type Clock struct {
	now time.Time
}

// NewClock creates a clock starting at a fixed instant
func NewClock() *Clock {
	return &Clock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current clock time; pass this method as the now func
func (c *Clock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
