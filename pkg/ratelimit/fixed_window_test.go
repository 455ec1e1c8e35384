package ratelimit

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexflow/pipelinekit/pkg/pipeline"
	"github.com/cortexflow/pipelinekit/pkg/retry"
	"github.com/cortexflow/pipelinekit/pkg/testutil"
)

func TestFixedWindow_LimitEnforced(t *testing.T) {
	clock := testutil.NewClock()
	limiter := NewFixedWindow(2)
	limiter.now = clock.Now
	limiter.windowStart = clock.Now()

	req := testutil.NewTextRequest("hello")

	// Calls 1 and 2 succeed and the call is not cancelled
	for i := 0; i < 2; i++ {
		ctx := pipeline.NewCallContext("")
		require.NoError(t, limiter.ProcessRequest(ctx, req))
		assert.False(t, ctx.Cancelled())
	}
	assert.Equal(t, 2, limiter.Stats().Count)

	// Call 3 fails with a rate-limit error and cancels the call
	ctx := pipeline.NewCallContext("")
	err := limiter.ProcessRequest(ctx, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, http.StatusTooManyRequests, retry.StatusCode(err))
	assert.True(t, ctx.Cancelled())
	assert.Equal(t, 2, limiter.Stats().Count)
}

func TestFixedWindow_WindowReset(t *testing.T) {
	clock := testutil.NewClock()
	limiter := NewFixedWindow(2)
	limiter.now = clock.Now
	limiter.windowStart = clock.Now()

	req := testutil.NewTextRequest("hello")

	for i := 0; i < 2; i++ {
		require.NoError(t, limiter.ProcessRequest(pipeline.NewCallContext(""), req))
	}
	require.Error(t, limiter.ProcessRequest(pipeline.NewCallContext(""), req))

	// 61 seconds later the window has rolled over: the counter resets and a
	// new call succeeds with count 1
	clock.Advance(61 * time.Second)

	ctx := pipeline.NewCallContext("")
	require.NoError(t, limiter.ProcessRequest(ctx, req))
	assert.False(t, ctx.Cancelled())

	stats := limiter.Stats()
	assert.Equal(t, 1, stats.Count)
	assert.Equal(t, clock.Now(), stats.WindowStart)
}

func TestFixedWindow_ResetAtExactBoundary(t *testing.T) {
	clock := testutil.NewClock()
	limiter := NewFixedWindow(1)
	limiter.now = clock.Now
	limiter.windowStart = clock.Now()

	req := testutil.NewTextRequest("hello")
	require.NoError(t, limiter.ProcessRequest(pipeline.NewCallContext(""), req))

	// Elapsed exactly equal to the window length resets the counter
	clock.Advance(Window)
	require.NoError(t, limiter.ProcessRequest(pipeline.NewCallContext(""), req))
	assert.Equal(t, 1, limiter.Stats().Count)
}

func TestFixedWindow_Remaining(t *testing.T) {
	clock := testutil.NewClock()
	limiter := NewFixedWindow(3)
	limiter.now = clock.Now
	limiter.windowStart = clock.Now()

	req := testutil.NewTextRequest("hello")

	assert.Equal(t, 3, limiter.Remaining())
	require.NoError(t, limiter.ProcessRequest(pipeline.NewCallContext(""), req))
	assert.Equal(t, 2, limiter.Remaining())

	// A stale window counts as a full fresh one
	clock.Advance(Window + time.Second)
	assert.Equal(t, 3, limiter.Remaining())
}
