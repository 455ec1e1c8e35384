package pipeline

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/cortexflow/pipelinekit/pkg/retry"
	"github.com/cortexflow/pipelinekit/pkg/types"
)

// ModelAdapter is the boundary to the external model backend. It consumes the
// finalized request after a non-cancelled request phase and produces the
// response the response phase then processes. It is never called when the
// request phase cancelled the call.
type ModelAdapter func(ctx context.Context, req *types.Request) (*types.Response, error)

// Pacer paces attempts before the request phase runs. It is implemented by
// ratelimit.ClientLimiter for callers that prefer smoothing over rejection.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Executor drives one pipeline call per attempt and wraps the attempt loop
// with the retry policy. Timeouts and cancellation of the network round trip
// belong to the context the caller passes in; the pipeline itself has no
// timeout logic.
//
// For each attempt the executor constructs a fresh CallContext, runs the
// request phase, invokes the model adapter unless the call was cancelled, and
// runs the response phase. The response phase always runs against some
// response: a real one from the adapter, one synthesized from the cache-hit
// payload, or an empty one marking a policy denial — so accounting and
// logging policies observe every attempt.
type Executor struct {
	chain   *Chain
	adapter ModelAdapter
	policy  retry.Policy
	pacer   Pacer

	rng   *rand.Rand
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an executor for the given chain, model adapter, and
// retry policy
func NewExecutor(chain *Chain, adapter ModelAdapter, policy retry.Policy) *Executor {
	return &Executor{
		chain:   chain,
		adapter: adapter,
		policy:  policy,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // G404: math/rand is sufficient for jitter
		sleep:   sleepContext,
	}
}

// WithPacer sets a pacer consulted before every attempt
func (e *Executor) WithPacer(p Pacer) *Executor {
	e.pacer = p
	return e
}

// Execute runs the pipeline for one logical call, retrying failed attempts
// according to the retry policy. The delay between attempts is the policy's
// backoff, raised to a Retry-After value when the failure carried one (and
// still clamped to the policy's maximum). Waiting aborts early when ctx is
// done.
func (e *Executor) Execute(ctx context.Context, req *types.Request) (*types.Response, error) {
	var lastErr error

	for attempt := 0; ; attempt++ {
		resp, err := e.attempt(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !e.policy.ShouldRetry(attempt, retry.StatusCode(err)) {
			return nil, lastErr
		}

		delay := e.policy.Delay(attempt, e.rng)
		if retryAfter := retry.ParseRetryAfter(retry.HeadersOf(err)); retryAfter > delay {
			delay = retryAfter
			if e.policy.MaxDelay > 0 && delay > e.policy.MaxDelay {
				delay = e.policy.MaxDelay
			}
		}

		if err := e.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// attempt runs one full request/response cycle
func (e *Executor) attempt(ctx context.Context, req *types.Request) (*types.Response, error) {
	if e.pacer != nil {
		if err := e.pacer.Wait(ctx); err != nil {
			return nil, err
		}
	}

	cctx := NewCallContext(req.Model)

	if err := e.chain.RunRequestPhase(cctx, req); err != nil {
		// A policy denial (e.g. rate limit) cancelled the call and failed it.
		// The response phase still runs, against a synthesized rejection
		// response, so response-phase policies observe the attempt. The
		// denial error stays the primary one the caller sees.
		if cctx.Cancelled() {
			denial := types.NewResponse(req, "")
			denial.FinishReason = types.FinishReasonRejected
			if rerr := e.chain.RunResponsePhase(cctx, denial); rerr != nil {
				return nil, errors.Join(err, rerr)
			}
		}
		return nil, err
	}

	var resp *types.Response
	switch {
	case cctx.Cancelled() && cctx.CacheHit() != nil:
		resp = types.NewResponse(req, cctx.CacheHit().Text)
		resp.FinishReason = types.FinishReasonCached
	case cctx.Cancelled():
		resp = types.NewResponse(req, "")
		resp.FinishReason = types.FinishReasonCancelled
	default:
		adapterResp, err := e.adapter(ctx, req)
		if err != nil {
			return nil, err
		}
		resp = adapterResp
	}

	if err := e.chain.RunResponsePhase(cctx, resp); err != nil {
		return nil, err
	}

	return resp, nil
}

// sleepContext waits for d or until ctx is done, whichever comes first
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
