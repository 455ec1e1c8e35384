package retry

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithStatus(t *testing.T) {
	base := errors.New("provider unavailable")
	err := WithStatus(base, 503)

	require.Error(t, err)
	assert.Equal(t, "provider unavailable", err.Error())
	assert.Equal(t, 503, StatusCode(err))
	assert.ErrorIs(t, err, base)

	assert.Nil(t, WithStatus(nil, 503))
}

func TestStatusCode_WrappedChain(t *testing.T) {
	base := errors.New("rate limit exceeded")
	err := fmt.Errorf("call failed: %w", WithStatus(base, 429))

	assert.Equal(t, 429, StatusCode(err))
	assert.ErrorIs(t, err, base)
}

func TestStatusCode_NoStatus(t *testing.T) {
	assert.Equal(t, 0, StatusCode(nil))
	assert.Equal(t, 0, StatusCode(errors.New("parse failure")))
}

func TestWithStatusHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("Retry-After", "5")

	err := WithStatusHeaders(errors.New("too many requests"), 429, headers)

	assert.Equal(t, 429, StatusCode(err))
	assert.Equal(t, "5", HeadersOf(err).Get("Retry-After"))

	assert.Nil(t, HeadersOf(errors.New("plain")))
	assert.Nil(t, WithStatusHeaders(nil, 429, headers))
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "delay seconds", value: "30", want: 30 * time.Second},
		{name: "zero seconds", value: "0", want: 0},
		{name: "negative seconds", value: "-5", want: 0},
		{name: "garbage", value: "not-a-delay", want: 0},
		{name: "empty", value: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			if tt.value != "" {
				headers.Set("Retry-After", tt.value)
			}
			assert.Equal(t, tt.want, ParseRetryAfter(headers))
		})
	}
}

func TestParseRetryAfter_HTTPDate(t *testing.T) {
	headers := http.Header{}
	headers.Set("Retry-After", time.Now().Add(10*time.Second).UTC().Format(http.TimeFormat))

	got := ParseRetryAfter(headers)
	assert.Greater(t, got, 5*time.Second)
	assert.LessOrEqual(t, got, 10*time.Second)

	headers.Set("Retry-After", time.Now().Add(-10*time.Second).UTC().Format(http.TimeFormat))
	assert.Equal(t, time.Duration(0), ParseRetryAfter(headers))
}

func TestParseRetryAfter_NilHeaders(t *testing.T) {
	assert.Equal(t, time.Duration(0), ParseRetryAfter(nil))
}
