package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexflow/pipelinekit/pkg/types"
)

// requestStub is a counting request middleware for order and short-circuit
// assertions
type requestStub struct {
	name   string
	log    *[]string
	calls  int
	cancel bool
	err    error
}

func (s *requestStub) ProcessRequest(ctx *CallContext, req *types.Request) error {
	s.calls++
	if s.log != nil {
		*s.log = append(*s.log, s.name)
	}
	if s.err != nil {
		return s.err
	}
	if s.cancel {
		ctx.Cancel()
	}
	return nil
}

// responseStub is the response-phase counterpart
type responseStub struct {
	name  string
	log   *[]string
	calls int
	err   error
}

func (s *responseStub) ProcessResponse(ctx *CallContext, resp *types.Response) error {
	s.calls++
	if s.log != nil {
		*s.log = append(*s.log, s.name)
	}
	return s.err
}

func testRequest(t *testing.T) *types.Request {
	t.Helper()
	req, err := types.NewRequestBuilder().WithPrompt("hello").Build()
	require.NoError(t, err)
	return req
}

func TestChain_RequestPhaseRunsInOrder(t *testing.T) {
	var log []string
	chain := NewChain().
		UseRequest(&requestStub{name: "a", log: &log}).
		UseRequest(&requestStub{name: "b", log: &log}).
		UseRequest(&requestStub{name: "c", log: &log})

	ctx := NewCallContext("")
	require.NoError(t, chain.RunRequestPhase(ctx, testRequest(t)))

	assert.Equal(t, []string{"a", "b", "c"}, log)
	assert.False(t, ctx.Cancelled())
}

func TestChain_CancellationStopsLaterRequestMiddlewares(t *testing.T) {
	first := &requestStub{name: "first"}
	canceller := &requestStub{name: "canceller", cancel: true}
	never := &requestStub{name: "never"}

	chain := NewChain().
		UseRequest(first).
		UseRequest(canceller).
		UseRequest(never)

	ctx := NewCallContext("")
	require.NoError(t, chain.RunRequestPhase(ctx, testRequest(t)))

	assert.True(t, ctx.Cancelled())
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, canceller.calls)
	assert.Equal(t, 0, never.calls)
}

func TestChain_RequestPhaseAbortsOnError(t *testing.T) {
	boom := errors.New("middleware failed")
	failing := &requestStub{name: "failing", err: boom}
	never := &requestStub{name: "never"}

	chain := NewChain().UseRequest(failing).UseRequest(never)

	err := chain.RunRequestPhase(NewCallContext(""), testRequest(t))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, never.calls)
}

func TestChain_ResponsePhaseRunsInReverseOrder(t *testing.T) {
	var log []string
	chain := NewChain().
		UseResponse(&responseStub{name: "a", log: &log}).
		UseResponse(&responseStub{name: "b", log: &log})

	require.NoError(t, chain.RunResponsePhase(NewCallContext(""), &types.Response{}))
	assert.Equal(t, []string{"b", "a"}, log)
}

func TestChain_ResponsePhaseIgnoresCancellation(t *testing.T) {
	var log []string
	chain := NewChain().
		UseResponse(&responseStub{name: "a", log: &log}).
		UseResponse(&responseStub{name: "b", log: &log})

	ctx := NewCallContext("")
	ctx.Cancel()

	require.NoError(t, chain.RunResponsePhase(ctx, &types.Response{}))
	assert.Equal(t, []string{"b", "a"}, log)
}

func TestChain_ResponsePhaseAbortsOnError(t *testing.T) {
	boom := errors.New("response middleware failed")
	var log []string

	// Reverse order: "last" runs first and fails, "first" never runs
	first := &responseStub{name: "first", log: &log}
	last := &responseStub{name: "last", log: &log, err: boom}

	chain := NewChain().UseResponse(first).UseResponse(last)

	err := chain.RunResponsePhase(NewCallContext(""), &types.Response{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"last"}, log)
	assert.Equal(t, 0, first.calls)
}

// combinedStub implements both phases
type combinedStub struct {
	requestCalls  int
	responseCalls int
}

func (s *combinedStub) ProcessRequest(ctx *CallContext, req *types.Request) error {
	s.requestCalls++
	return nil
}

func (s *combinedStub) ProcessResponse(ctx *CallContext, resp *types.Response) error {
	s.responseCalls++
	return nil
}

func TestChain_UseRegistersImplementedPhases(t *testing.T) {
	chain := NewChain()

	combined := &combinedStub{}
	requestOnly := &requestStub{name: "req"}
	responseOnly := &responseStub{name: "resp"}

	chain.Use(combined).Use(requestOnly).Use(responseOnly)

	assert.Equal(t, 2, chain.RequestLen())
	assert.Equal(t, 2, chain.ResponseLen())

	ctx := NewCallContext("")
	require.NoError(t, chain.RunRequestPhase(ctx, testRequest(t)))
	require.NoError(t, chain.RunResponsePhase(ctx, &types.Response{}))

	assert.Equal(t, 1, combined.requestCalls)
	assert.Equal(t, 1, combined.responseCalls)
	assert.Equal(t, 1, requestOnly.calls)
	assert.Equal(t, 1, responseOnly.calls)
}

func TestChain_Remove(t *testing.T) {
	combined := &combinedStub{}
	chain := NewChain().Use(combined)

	assert.True(t, chain.Remove(combined))
	assert.Equal(t, 0, chain.RequestLen())
	assert.Equal(t, 0, chain.ResponseLen())
	assert.False(t, chain.Remove(combined))
}

func TestChain_Clear(t *testing.T) {
	chain := NewChain().Use(&combinedStub{})
	chain.Clear()

	assert.Equal(t, 0, chain.RequestLen())
	assert.Equal(t, 0, chain.ResponseLen())
}

func TestChain_FuncAdapters(t *testing.T) {
	var requestRan, responseRan bool

	chain := NewChain().
		UseRequest(RequestMiddlewareFunc(func(ctx *CallContext, req *types.Request) error {
			requestRan = true
			return nil
		})).
		UseResponse(ResponseMiddlewareFunc(func(ctx *CallContext, resp *types.Response) error {
			responseRan = true
			return nil
		}))

	ctx := NewCallContext("")
	require.NoError(t, chain.RunRequestPhase(ctx, testRequest(t)))
	require.NoError(t, chain.RunResponsePhase(ctx, &types.Response{}))

	assert.True(t, requestRan)
	assert.True(t, responseRan)
}

func TestChain_MiddlewaresMutateInPlace(t *testing.T) {
	chain := NewChain().
		UseRequest(RequestMiddlewareFunc(func(ctx *CallContext, req *types.Request) error {
			req.Prompt = "rewritten: " + req.Prompt
			return nil
		})).
		UseResponse(ResponseMiddlewareFunc(func(ctx *CallContext, resp *types.Response) error {
			resp.Metadata = map[string]interface{}{"annotated": true}
			return nil
		}))

	req := testRequest(t)
	resp := &types.Response{Text: "hi"}
	ctx := NewCallContext("")

	require.NoError(t, chain.RunRequestPhase(ctx, req))
	require.NoError(t, chain.RunResponsePhase(ctx, resp))

	assert.Equal(t, "rewritten: hello", req.Prompt)
	assert.Equal(t, true, resp.Metadata["annotated"])
}
