// Package logging provides the structured logging policy for the middleware
// pipeline: timestamped request/response events emitted through a
// caller-supplied synchronous sink.
package logging

import (
	"time"

	"github.com/cortexflow/pipelinekit/pkg/pipeline"
	"github.com/cortexflow/pipelinekit/pkg/types"
)

// PreviewLimit is the hard byte cutoff applied to prompt and text previews.
// Truncation is a plain byte slice: no ellipsis, no word-boundary awareness.
const PreviewLimit = 100

// EventKind distinguishes request events from response events
type EventKind string

const (
	// EventRequest marks an event emitted at the start of the request phase
	EventRequest EventKind = "request"

	// EventResponse marks an event emitted during the response phase
	EventResponse EventKind = "response"
)

// Event is a single structured log record
type Event struct {
	// Time is when the event was emitted
	Time time.Time `json:"time"`

	// Kind is "request" or "response"
	Kind EventKind `json:"kind"`

	// RequestID identifies the call the event belongs to
	RequestID string `json:"request_id,omitempty"`

	// Preview is the prompt (request events) or generated text (response
	// events) truncated to PreviewLimit bytes
	Preview string `json:"preview"`

	// Token counts, response events only; zero when the provider reported
	// no usage
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`

	// Latency is the duration since the request event of the same call.
	// Nil on request events and when no start was recorded.
	Latency *time.Duration `json:"latency,omitempty"`
}

// Sink receives emitted events. Emission is synchronous: the pipeline blocks
// on Emit, and there is no buffering or async flushing inside the logger —
// a sink that must not block the call path has to do its own buffering.
type Sink interface {
	Emit(event Event)
}

// SinkFunc is a function adapter for Sink
type SinkFunc func(event Event)

// Emit implements Sink
func (f SinkFunc) Emit(event Event) {
	f(event)
}

// StructuredLogger emits a request event when the request phase reaches it
// and a response event during the response phase. The start timestamp used
// for latency lives in the per-call context, not on the logger, so one
// logger instance can serve concurrent calls as long as its sink tolerates
// concurrent Emit calls.
type StructuredLogger struct {
	sink Sink

	now func() time.Time
}

// NewStructuredLogger creates a logger emitting to the given sink
func NewStructuredLogger(sink Sink) *StructuredLogger {
	return &StructuredLogger{
		sink: sink,
		now:  time.Now,
	}
}

// ProcessRequest implements pipeline.RequestMiddleware
func (l *StructuredLogger) ProcessRequest(ctx *pipeline.CallContext, req *types.Request) error {
	start := l.now()
	ctx.MarkStart(start)

	l.sink.Emit(Event{
		Time:      start,
		Kind:      EventRequest,
		RequestID: req.ID,
		Preview:   truncate(req.Prompt),
	})

	return nil
}

// ProcessResponse implements pipeline.ResponseMiddleware
func (l *StructuredLogger) ProcessResponse(ctx *pipeline.CallContext, resp *types.Response) error {
	now := l.now()

	event := Event{
		Time: now,
		Kind: EventResponse,
	}

	if resp != nil {
		event.RequestID = resp.ID
		event.Preview = truncate(resp.Text)
		if resp.Usage != nil {
			event.PromptTokens = resp.Usage.PromptTokens
			event.CompletionTokens = resp.Usage.CompletionTokens
		}
	}

	if start, ok := ctx.StartTime(); ok {
		latency := now.Sub(start)
		event.Latency = &latency
	}

	l.sink.Emit(event)
	return nil
}

// truncate cuts s to PreviewLimit bytes
func truncate(s string) string {
	if len(s) > PreviewLimit {
		return s[:PreviewLimit]
	}
	return s
}
