package retry

import (
	"errors"
	"net/http"
	"strconv"
	"time"
)

// StatusError wraps an error with the HTTP status of the failed call and,
// optionally, the response headers. Policy.ShouldRetry classifies failures
// by the status extracted from the error chain.
type StatusError struct {
	err     error
	status  int
	headers http.Header
}

// Error implements the error interface
func (e *StatusError) Error() string {
	return e.err.Error()
}

// Unwrap returns the underlying error
func (e *StatusError) Unwrap() error {
	return e.err
}

// Status returns the HTTP status code associated with the error
func (e *StatusError) Status() int {
	return e.status
}

// Headers returns the HTTP response headers associated with the error,
// or nil if none were recorded
func (e *StatusError) Headers() http.Header {
	return e.headers
}

// WithStatus wraps an error with an HTTP status code
func WithStatus(err error, status int) error {
	if err == nil {
		return nil
	}
	return &StatusError{err: err, status: status}
}

// WithStatusHeaders wraps an error with an HTTP status code and the response
// headers of the failed call, so that Retry-After can be honored later.
func WithStatusHeaders(err error, status int, headers http.Header) error {
	if err == nil {
		return nil
	}
	return &StatusError{err: err, status: status, headers: headers}
}

// StatusCode extracts the HTTP status code from an error chain.
// It returns 0 when no status is available.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.status
	}
	return 0
}

// HeadersOf extracts HTTP response headers from an error chain, or nil
func HeadersOf(err error) http.Header {
	var se *StatusError
	if errors.As(err, &se) {
		return se.headers
	}
	return nil
}

// ParseRetryAfter parses the Retry-After header from HTTP response headers.
// It supports both delay-seconds (integer) and HTTP-date formats.
// Returns the duration to wait before retrying, or 0 if not present/invalid.
func ParseRetryAfter(headers http.Header) time.Duration {
	if headers == nil {
		return 0
	}

	retryAfter := headers.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	// Try to parse as delay-seconds (integer)
	if seconds, err := strconv.ParseInt(retryAfter, 10, 64); err == nil {
		if seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
		return 0
	}

	// Try to parse as HTTP-date
	if t, err := http.ParseTime(retryAfter); err == nil {
		duration := time.Until(t)
		if duration > 0 {
			return duration
		}
		return 0
	}

	return 0
}
