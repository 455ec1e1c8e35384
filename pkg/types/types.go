// Package types defines the canonical request and response records that flow
// through the middleware pipeline. It includes the standardized request/response
// formats shared by every policy middleware and the request builder used by callers.
package types

import "time"

// Request is the canonical outbound call record. It is created once per call
// by the caller (normally through RequestBuilder), mutated in place by each
// request middleware in registration order, and handed to the model adapter
// once the request phase finishes.
type Request struct {
	// ID is a unique identifier for this request, assigned by the builder
	ID string `json:"id"`

	// Prompt is the text sent to the model. Cache keying is exact string
	// equality on this field.
	Prompt string `json:"prompt"`

	// Model selection
	Model string `json:"model,omitempty"`

	// Generation parameters
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`

	// Headers holds transport headers attached to the outbound call
	Headers map[string]string `json:"headers,omitempty"`

	// ProviderOptions holds provider-specific options that the vendor
	// adapter translates; the pipeline never interprets them
	ProviderOptions map[string]interface{} `json:"provider_options,omitempty"`

	// Metadata holds arbitrary caller metadata
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Response is the canonical result record produced by the model adapter after
// a successful call (or synthesized by the executor for cache hits and limiter
// denials). It is mutated in place by each response middleware, visited in
// reverse registration order.
type Response struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Created int64  `json:"created"`

	// Text is the generated completion text
	Text string `json:"text"`

	// FinishReason reports why generation stopped (e.g. "stop", "length",
	// FinishReasonCached for responses synthesized from the cache)
	FinishReason string `json:"finish_reason,omitempty"`

	// Usage is the token accounting reported by the provider.
	// Nil when the provider reported no usage.
	Usage *Usage `json:"usage,omitempty"`

	// Headers holds transport headers from the provider response
	Headers map[string]string `json:"headers,omitempty"`

	// Metadata holds provider-specific metadata
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Usage represents token usage for a single call
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Finish reasons set by the executor for responses that never reached a provider
const (
	// FinishReasonCached marks a response synthesized from a cache hit
	FinishReasonCached = "cached"

	// FinishReasonRejected marks a response synthesized for a call a policy
	// denied (e.g. rate limit exceeded) so that response-phase middlewares
	// still observe the attempt
	FinishReasonRejected = "rejected"

	// FinishReasonCancelled marks a response synthesized for a call that a
	// request middleware cancelled without providing a payload
	FinishReasonCancelled = "cancelled"
)

// NewResponse creates a response with the identity fields copied from the request
func NewResponse(req *Request, text string) *Response {
	resp := &Response{
		Text:    text,
		Created: time.Now().Unix(),
	}
	if req != nil {
		resp.ID = req.ID
		resp.Model = req.Model
	}
	return resp
}
