package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/calyptra/fnchat/internal/chat"
	"github.com/calyptra/fnchat/internal/completion"
	"github.com/calyptra/fnchat/internal/config"
	"github.com/calyptra/fnchat/internal/tools"
)

// scriptedCompleter returns canned results in order and records every
// history it was handed.
type scriptedCompleter struct {
	mu        sync.Mutex
	results   []completion.Result
	calls     int
	histories [][]chat.Message

	// when set, Complete blocks until release is closed or the
	// context is cancelled
	release chan struct{}
}

func (c *scriptedCompleter) Complete(ctx context.Context, _ config.Generation, history []chat.Message, _ []openai.Tool) completion.Result {
	c.mu.Lock()
	i := c.calls
	c.calls++
	snapshot := make([]chat.Message, len(history))
	copy(snapshot, history)
	c.histories = append(c.histories, snapshot)
	release := c.release
	c.mu.Unlock()

	if release != nil {
		select {
		case <-ctx.Done():
		case <-release:
		}
	}
	if i >= len(c.results) {
		i = len(c.results) - 1
	}
	return c.results[i]
}

func (c *scriptedCompleter) completions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// echoRunner resolves every call to a tool message echoing the call
// arguments, or fails the whole batch with err.
type echoRunner struct {
	err error
}

func (r *echoRunner) InvokeAll(_ context.Context, calls []openai.ToolCall) ([]chat.Message, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]chat.Message, 0, len(calls))
	for _, c := range calls {
		out = append(out, chat.NewToolMessage(c.ID, "result for "+c.Function.Name))
	}
	return out, nil
}

func assistantResult(content string, calls ...openai.ToolCall) completion.Result {
	return completion.Result{Message: chat.NewAssistantMessage(content, calls)}
}

func toolCall(id, name, args string) openai.ToolCall {
	return openai.ToolCall{
		ID:   id,
		Type: openai.ToolTypeFunction,
		Function: openai.FunctionCall{
			Name:      name,
			Arguments: args,
		},
	}
}

func newTestOrchestrator(c Completer, r ToolRunner, maxRounds int) *Orchestrator {
	cfg := &config.Config{
		Generation:    config.DefaultGeneration(),
		MaxToolRounds: maxRounds,
	}
	return NewOrchestrator(c, r, nil, cfg, zap.NewNop())
}

func TestPlainTurn(t *testing.T) {
	completer := &scriptedCompleter{results: []completion.Result{assistantResult("4")}}
	orch := newTestOrchestrator(completer, &echoRunner{}, 8)

	require.NoError(t, orch.Send(context.Background(), "2+2?"))

	msgs := orch.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.RoleUser, msgs[0].Role)
	assert.Equal(t, "2+2?", msgs[0].Content)
	assert.Equal(t, chat.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "4", msgs[1].Content)
	assert.False(t, msgs[1].Metadata.Loading)

	assert.Equal(t, PhaseIdle, orch.Phase())
	assert.False(t, orch.Loading())
	assert.Empty(t, orch.RequestStatus())
	assert.Equal(t, 1, completer.completions())
}

func TestToolRoundCorrelationAndHiding(t *testing.T) {
	call := toolCall("c1", "render_chart", `{"data":[1,2]}`)
	completer := &scriptedCompleter{results: []completion.Result{
		assistantResult("", call),
		assistantResult("here is your chart"),
	}}
	orch := newTestOrchestrator(completer, &echoRunner{}, 8)

	require.NoError(t, orch.Send(context.Background(), "chart this data"))

	msgs := orch.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, chat.RoleUser, msgs[0].Role)
	assert.Equal(t, chat.RoleAssistant, msgs[1].Role)
	assert.True(t, msgs[1].Metadata.Hide, "tool-requesting turn must be hidden")
	assert.Equal(t, chat.RoleTool, msgs[2].Role)
	assert.Equal(t, "c1", msgs[2].ToolCallID)
	assert.True(t, msgs[2].Metadata.Hide)
	assert.Equal(t, chat.RoleAssistant, msgs[3].Role)
	assert.Equal(t, "here is your chart", msgs[3].Content)

	// final turn is annotated with the round that produced it
	require.Len(t, msgs[3].Metadata.FunctionCalls, 1)
	assert.Equal(t, "render_chart", msgs[3].Metadata.FunctionCalls[0].Name)
	assert.Equal(t, "result for render_chart", msgs[3].Metadata.FunctionResponse)

	// the second completion sees the hidden turn and the tool result,
	// and never a loading placeholder
	require.Len(t, completer.histories, 2)
	second := completer.histories[1]
	require.Len(t, second, 3)
	assert.Equal(t, chat.RoleAssistant, second[1].Role)
	assert.Equal(t, chat.RoleTool, second[2].Role)
	for _, h := range completer.histories {
		for _, m := range h {
			assert.False(t, m.Metadata.Loading)
		}
	}
}

func TestSiblingCallsKeepOrder(t *testing.T) {
	calls := []openai.ToolCall{
		toolCall("a", "get_current_time", "{}"),
		toolCall("b", "get_weather", `{"city":"Oslo"}`),
		toolCall("c", "popular_destinations", `{"origin":"OSL"}`),
	}
	completer := &scriptedCompleter{results: []completion.Result{
		assistantResult("", calls...),
		assistantResult("done"),
	}}
	orch := newTestOrchestrator(completer, &echoRunner{}, 8)

	require.NoError(t, orch.Send(context.Background(), "plan a trip"))

	msgs := orch.Messages()
	require.Len(t, msgs, 6)
	for i, want := range []string{"a", "b", "c"} {
		assert.Equal(t, chat.RoleTool, msgs[2+i].Role)
		assert.Equal(t, want, msgs[2+i].ToolCallID)
	}
}

func TestHistoryIsAppendOnlyAcrossTurns(t *testing.T) {
	completer := &scriptedCompleter{results: []completion.Result{
		assistantResult("first answer"),
		assistantResult("second answer"),
	}}
	orch := newTestOrchestrator(completer, &echoRunner{}, 8)

	require.NoError(t, orch.Send(context.Background(), "one"))
	firstTurn := orch.Messages()

	require.NoError(t, orch.Send(context.Background(), "two"))
	msgs := orch.Messages()

	require.Len(t, msgs, 4)
	assert.Equal(t, firstTurn, msgs[:len(firstTurn)])
}

func TestCompletionFailureRollsBackToUserMessage(t *testing.T) {
	completer := &scriptedCompleter{results: []completion.Result{
		assistantResult("earlier answer"),
		{Status: completion.StatusOverQuota},
	}}
	orch := newTestOrchestrator(completer, &echoRunner{}, 8)

	require.NoError(t, orch.Send(context.Background(), "hello"))
	require.Error(t, orch.Send(context.Background(), "again"))

	msgs := orch.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "earlier answer", msgs[1].Content)
	assert.Equal(t, chat.RoleUser, msgs[2].Role)
	assert.Equal(t, "again", msgs[2].Content)

	assert.Equal(t, PhaseError, orch.Phase())
	assert.Equal(t, completion.StatusOverQuota, orch.RequestStatus())
	assert.False(t, orch.Loading())
}

func TestMidLoopCompletionFailureDiscardsToolRound(t *testing.T) {
	completer := &scriptedCompleter{results: []completion.Result{
		assistantResult("", toolCall("c1", "get_current_time", "{}")),
		{Status: "model is overloaded"},
	}}
	orch := newTestOrchestrator(completer, &echoRunner{}, 8)

	require.Error(t, orch.Send(context.Background(), "what time is it"))

	// the hidden assistant and the tool result are gone too
	msgs := orch.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, chat.RoleUser, msgs[0].Role)
	assert.Equal(t, "model is overloaded", orch.RequestStatus())
}

func TestToolLoopBound(t *testing.T) {
	completer := &scriptedCompleter{results: []completion.Result{
		assistantResult("", toolCall("c1", "get_current_time", "{}")),
	}}
	orch := newTestOrchestrator(completer, &echoRunner{}, 2)

	err := orch.Send(context.Background(), "loop forever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), StatusToolLoopExceeded)

	assert.Equal(t, StatusToolLoopExceeded, orch.RequestStatus())
	assert.Equal(t, PhaseError, orch.Phase())
	// two executed rounds plus the completion that tripped the bound
	assert.Equal(t, 3, completer.completions())
}

func TestExactlyOneCompletionPerRound(t *testing.T) {
	completer := &scriptedCompleter{results: []completion.Result{
		assistantResult("", toolCall("c1", "get_current_time", "{}")),
		assistantResult("", toolCall("c2", "get_weather", `{"city":"Oslo"}`)),
		assistantResult("final"),
	}}
	orch := newTestOrchestrator(completer, &echoRunner{}, 8)

	require.NoError(t, orch.Send(context.Background(), "go"))

	assert.Equal(t, 3, completer.completions())
	assert.Equal(t, PhaseIdle, orch.Phase())
}

// staticTool is the minimal Tool used to exercise the real invoker
// through the orchestrator.
type staticTool struct{ name string }

func (t *staticTool) Name() string                   { return t.name }
func (t *staticTool) Description() string            { return "static test tool" }
func (t *staticTool) Parameters() map[string]any     { return map[string]any{} }
func (t *staticTool) Required() []string             { return nil }
func (t *staticTool) Call(context.Context, map[string]any) (string, error) {
	return "ok", nil
}

func TestMalformedArgumentsEndTurnWithUnknownError(t *testing.T) {
	completer := &scriptedCompleter{results: []completion.Result{
		assistantResult("", toolCall("c1", "ping", "not json")),
		assistantResult("back to normal"),
	}}
	registry := tools.NewRegistry([]tools.Tool{&staticTool{name: "ping"}}, nil)
	invoker := tools.NewInvoker(registry, zap.NewNop())
	orch := newTestOrchestrator(completer, invoker, 8)

	require.Error(t, orch.Send(context.Background(), "call it"))
	assert.Equal(t, completion.StatusUnknown, orch.RequestStatus())
	assert.Equal(t, PhaseError, orch.Phase())

	// the orchestrator stays usable after a failed turn
	require.NoError(t, orch.Send(context.Background(), "hello"))
	assert.Equal(t, PhaseIdle, orch.Phase())
	assert.Empty(t, orch.RequestStatus())
}

func TestUnsupportedToolEndsTurnWithUnknownError(t *testing.T) {
	completer := &scriptedCompleter{results: []completion.Result{
		assistantResult("", toolCall("c1", "no_such_tool", "{}")),
	}}
	registry := tools.NewRegistry(nil, nil)
	invoker := tools.NewInvoker(registry, zap.NewNop())
	orch := newTestOrchestrator(completer, invoker, 8)

	require.Error(t, orch.Send(context.Background(), "call it"))
	assert.Equal(t, completion.StatusUnknown, orch.RequestStatus())
}

func TestSecondSubmissionRejectedWhileBusy(t *testing.T) {
	completer := &scriptedCompleter{
		results: []completion.Result{assistantResult("slow answer")},
		release: make(chan struct{}),
	}
	orch := newTestOrchestrator(completer, &echoRunner{}, 8)

	done := make(chan error, 1)
	go func() { done <- orch.Send(context.Background(), "first") }()

	require.Eventually(t, orch.Busy, time.Second, time.Millisecond)
	require.ErrorIs(t, orch.Send(context.Background(), "second"), ErrTurnActive)

	close(completer.release)
	require.NoError(t, <-done)
	require.Len(t, orch.Messages(), 2)
}

func TestClearAbortsInFlightTurn(t *testing.T) {
	completer := &scriptedCompleter{
		results: []completion.Result{assistantResult("too late")},
		release: make(chan struct{}),
	}
	orch := newTestOrchestrator(completer, &echoRunner{}, 8)

	done := make(chan error, 1)
	go func() { done <- orch.Send(context.Background(), "first") }()

	require.Eventually(t, orch.Busy, time.Second, time.Millisecond)
	orch.Clear()

	require.ErrorIs(t, <-done, ErrTurnAborted)
	assert.Empty(t, orch.Messages(), "aborted turn must not touch the cleared history")
	assert.Equal(t, PhaseIdle, orch.Phase())
	assert.False(t, orch.Loading())

	// and the conversation can start over
	require.NoError(t, orch.Send(context.Background(), "fresh start"))
	require.Len(t, orch.Messages(), 2)
}

func TestClearResetsErrorState(t *testing.T) {
	completer := &scriptedCompleter{results: []completion.Result{
		{Status: completion.StatusOverQuota},
	}}
	orch := newTestOrchestrator(completer, &echoRunner{}, 8)

	require.Error(t, orch.Send(context.Background(), "hello"))
	orch.Clear()

	assert.Empty(t, orch.Messages())
	assert.Empty(t, orch.RequestStatus())
	assert.Equal(t, PhaseIdle, orch.Phase())
}

func TestLoadingPlaceholderVisibleDuringTurn(t *testing.T) {
	completer := &scriptedCompleter{
		results: []completion.Result{assistantResult("answer")},
		release: make(chan struct{}),
	}
	orch := newTestOrchestrator(completer, &echoRunner{}, 8)

	done := make(chan error, 1)
	go func() { done <- orch.Send(context.Background(), "hi") }()
	require.Eventually(t, orch.Busy, time.Second, time.Millisecond)

	msgs := orch.Messages()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[1].Metadata.Loading)
	assert.True(t, orch.Loading())

	close(completer.release)
	require.NoError(t, <-done)

	for _, m := range orch.Messages() {
		assert.False(t, m.Metadata.Loading)
	}
}

func TestToolBatchFailurePreservesCommittedHistory(t *testing.T) {
	completer := &scriptedCompleter{results: []completion.Result{
		assistantResult("", toolCall("c1", "get_current_time", "{}")),
	}}
	runner := &echoRunner{err: fmt.Errorf("tool exploded")}
	orch := newTestOrchestrator(completer, runner, 8)

	require.Error(t, orch.Send(context.Background(), "what time is it"))

	// unlike completion failures, tool failures keep the committed turn
	msgs := orch.Messages()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[1].HasToolCalls())
	assert.Equal(t, completion.StatusUnknown, orch.RequestStatus())
}
