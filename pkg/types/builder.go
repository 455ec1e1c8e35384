package types

import "github.com/google/uuid"

// RequestBuilder helps build canonical requests with validation
type RequestBuilder struct {
	request *Request
}

// NewRequestBuilder creates a new request builder. The built request is
// assigned a unique ID.
func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{
		request: &Request{
			ID:              uuid.New().String(),
			Stop:            make([]string, 0),
			Headers:         make(map[string]string),
			ProviderOptions: make(map[string]interface{}),
			Metadata:        make(map[string]interface{}),
		},
	}
}

// WithPrompt sets the prompt text for the request
func (b *RequestBuilder) WithPrompt(prompt string) *RequestBuilder {
	b.request.Prompt = prompt
	return b
}

// WithModel sets the model for the request
func (b *RequestBuilder) WithModel(model string) *RequestBuilder {
	b.request.Model = model
	return b
}

// WithMaxTokens sets the maximum tokens for the request
func (b *RequestBuilder) WithMaxTokens(maxTokens int) *RequestBuilder {
	b.request.MaxTokens = maxTokens
	return b
}

// WithTemperature sets the temperature for the request
func (b *RequestBuilder) WithTemperature(temperature float64) *RequestBuilder {
	b.request.Temperature = temperature
	return b
}

// WithStop sets the stop sequences for the request
func (b *RequestBuilder) WithStop(stop []string) *RequestBuilder {
	b.request.Stop = stop
	return b
}

// WithHeader adds a transport header to the request
func (b *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	b.request.Headers[key] = value
	return b
}

// WithProviderOption adds a provider-specific option to the request
func (b *RequestBuilder) WithProviderOption(key string, value interface{}) *RequestBuilder {
	b.request.ProviderOptions[key] = value
	return b
}

// WithMetadata adds metadata to the request
func (b *RequestBuilder) WithMetadata(key string, value interface{}) *RequestBuilder {
	b.request.Metadata[key] = value
	return b
}

// Build validates and builds the request.
// It returns a copy to prevent modification through the builder afterwards.
func (b *RequestBuilder) Build() (*Request, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	requestCopy := *b.request
	return &requestCopy, nil
}

// validate validates the request
func (b *RequestBuilder) validate() error {
	if b.request.Prompt == "" {
		return ErrEmptyPrompt
	}

	if b.request.Temperature < 0 || b.request.Temperature > 2 {
		return ErrInvalidTemperature
	}

	if b.request.MaxTokens < 0 {
		return ErrInvalidMaxTokens
	}

	return nil
}

// Common validation errors
var (
	ErrEmptyPrompt        = NewValidationError("prompt must not be empty")
	ErrInvalidTemperature = NewValidationError("temperature must be between 0 and 2")
	ErrInvalidMaxTokens   = NewValidationError("max_tokens must be non-negative")
)

// ValidationError represents a request validation error
type ValidationError struct {
	Message string
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}
