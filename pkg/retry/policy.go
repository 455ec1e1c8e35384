// Package retry provides the retry policy consulted by the calling orchestrator
// between pipeline attempts. This includes policy presets, backoff calculation,
// and error classification to handle transient provider failures gracefully.
//
// A Policy is purely advisory: it never performs a retry itself and never
// returns an error. The caller's retry loop (see pipeline.Executor) decides
// what to do with its answers.
package retry

import (
	"math"
	"math/rand"
	"net/http"
	"time"
)

// Policy defines the configuration for retry behavior. A Policy value is
// immutable configuration plus two pure functions; it holds no other state.
type Policy struct {
	// MaxRetries is the maximum number of retry attempts (0 means no retries)
	MaxRetries int

	// InitialDelay is the delay before the first retry
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries
	MaxDelay time.Duration

	// Multiplier is the factor by which the delay grows per attempt.
	// For exponential backoff this is typically 2.0.
	Multiplier float64

	// Jitter randomizes computed delays to prevent thundering herd.
	// The randomness source is supplied per call to Delay.
	Jitter bool

	// RetryOnRateLimit enables retries on HTTP 429
	RetryOnRateLimit bool

	// RetryOnTimeout enables retries on HTTP 408
	RetryOnTimeout bool

	// RetryOnServerError enables retries on HTTP 5xx
	RetryOnServerError bool
}

// DefaultPolicy returns a retry policy with sensible defaults: a few retries
// with moderate exponential backoff.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:         3,
		InitialDelay:       1 * time.Second,
		MaxDelay:           30 * time.Second,
		Multiplier:         2.0,
		Jitter:             true,
		RetryOnRateLimit:   true,
		RetryOnTimeout:     true,
		RetryOnServerError: true,
	}
}

// AggressivePolicy returns a policy with more retry attempts and a larger
// base delay and multiplier. Useful for long-running batch work where giving
// up is more expensive than waiting.
func AggressivePolicy() Policy {
	return Policy{
		MaxRetries:         5,
		InitialDelay:       2 * time.Second,
		MaxDelay:           60 * time.Second,
		Multiplier:         3.0,
		Jitter:             true,
		RetryOnRateLimit:   true,
		RetryOnTimeout:     true,
		RetryOnServerError: true,
	}
}

// DisabledPolicy returns a policy that never retries
func DisabledPolicy() Policy {
	return Policy{
		MaxRetries: 0,
		Multiplier: 1.0,
	}
}

// ShouldRetry reports whether another attempt should be made after a failure.
//
// attempt is the zero-based index of the attempt that just failed. status is
// the transport-level HTTP status of the failure, or 0 when no status is
// available (e.g. a pure parse failure) — in that case the answer is always
// false, because retryability cannot be determined.
func (p Policy) ShouldRetry(attempt, status int) bool {
	if attempt >= p.MaxRetries {
		return false
	}

	switch {
	case status == http.StatusTooManyRequests:
		return p.RetryOnRateLimit
	case status == http.StatusRequestTimeout:
		return p.RetryOnTimeout
	case status >= http.StatusInternalServerError:
		return p.RetryOnServerError
	default:
		// Includes status == 0: no transport status, nothing to classify
		return false
	}
}

// Delay computes the backoff delay before retry number attempt (zero-based):
// InitialDelay × Multiplier^attempt, clamped to MaxDelay.
//
// When Jitter is enabled and rng is non-nil, the computed delay is scaled by
// a uniform factor in [0.5, 1.0) before clamping. A nil rng disables jitter
// for that call, which keeps the function deterministic for callers that
// need it.
func (p Policy) Delay(attempt int, rng *rand.Rand) time.Duration {
	delay := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt))

	if p.Jitter && rng != nil {
		delay *= 0.5 + 0.5*rng.Float64()
	}

	d := time.Duration(delay)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}
