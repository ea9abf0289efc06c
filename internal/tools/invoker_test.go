package tools

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calyptra/fnchat/internal/chat"
)

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

func TestInvokeSuccess(t *testing.T) {
	r := NewRegistry([]Tool{&fakeTool{
		name: "echo",
		call: func(ctx context.Context, args map[string]any) (string, error) {
			return args["text"].(string), nil
		},
	}}, nil)
	inv := NewInvoker(r, nil)

	msg, err := inv.Invoke(context.Background(), toolCall("c1", "echo", `{"text":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, chat.RoleTool, msg.Role)
	assert.Equal(t, "c1", msg.ToolCallID)
	assert.Equal(t, "hi", msg.Content)
	assert.True(t, msg.Metadata.Hide)
}

func TestInvokeMalformedArguments(t *testing.T) {
	inv := NewInvoker(NewRegistry([]Tool{&fakeTool{name: "echo"}}, nil), nil)

	_, err := inv.Invoke(context.Background(), toolCall("c1", "echo", "not json"))
	var parseErr *ArgumentParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "echo", parseErr.Tool)
}

func TestInvokeMissingRequiredArgument(t *testing.T) {
	inv := NewInvoker(NewRegistry([]Tool{&fakeTool{
		name:     "weather_history",
		params:   map[string]any{"locations": map[string]any{"type": "string"}},
		required: []string{"locations", "month"},
	}}, nil), nil)

	_, err := inv.Invoke(context.Background(),
		toolCall("c1", "weather_history", `{"locations":"Paris"}`))
	var missing *MissingArgumentError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "month", missing.Field)
}

func TestInvokeWrongArgumentType(t *testing.T) {
	inv := NewInvoker(NewRegistry([]Tool{&fakeTool{
		name:     "weather_history",
		params:   map[string]any{"month": map[string]any{"type": "number"}},
		required: []string{"month"},
	}}, nil), nil)

	_, err := inv.Invoke(context.Background(),
		toolCall("c1", "weather_history", `{"month":"july"}`))
	var parseErr *ArgumentParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestInvokeUnsupportedTool(t *testing.T) {
	inv := NewInvoker(NewRegistry(nil, nil), nil)

	_, err := inv.Invoke(context.Background(), toolCall("c1", "nope", `{}`))
	var unsupported *UnsupportedToolError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "nope", unsupported.Name)
}

func TestInvokeAllPreservesOrderAndCorrelation(t *testing.T) {
	var mu sync.Mutex
	started := map[string]time.Time{}

	slow := func(name string, delay time.Duration) Tool {
		return &fakeTool{
			name: name,
			call: func(ctx context.Context, args map[string]any) (string, error) {
				mu.Lock()
				started[name] = time.Now()
				mu.Unlock()
				time.Sleep(delay)
				return name + "-out", nil
			},
		}
	}

	r := NewRegistry([]Tool{slow("alpha", 50*time.Millisecond), slow("beta", 0)}, nil)
	inv := NewInvoker(r, nil)

	msgs, err := inv.InvokeAll(context.Background(), []openai.ToolCall{
		toolCall("c1", "alpha", `{}`),
		toolCall("c2", "beta", `{}`),
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	// Results track the original call order regardless of completion
	// order.
	assert.Equal(t, "c1", msgs[0].ToolCallID)
	assert.Equal(t, "alpha-out", msgs[0].Content)
	assert.Equal(t, "c2", msgs[1].ToolCallID)
	assert.Equal(t, "beta-out", msgs[1].Content)

	// And both ran; the fast one did not wait for the slow one to
	// finish first.
	assert.Len(t, started, 2)
}

func TestInvokeAllFailsBatchOnError(t *testing.T) {
	boom := errors.New("boom")
	r := NewRegistry([]Tool{
		&fakeTool{name: "ok"},
		&fakeTool{name: "bad", call: func(ctx context.Context, args map[string]any) (string, error) {
			return "", boom
		}},
	}, nil)
	inv := NewInvoker(r, nil)

	_, err := inv.InvokeAll(context.Background(), []openai.ToolCall{
		toolCall("c1", "ok", `{}`),
		toolCall("c2", "bad", `{}`),
	})
	require.ErrorIs(t, err, boom)
}

func TestInvokeArgumentsMustBeObject(t *testing.T) {
	inv := NewInvoker(NewRegistry([]Tool{&fakeTool{name: "echo"}}, nil), nil)

	_, err := inv.Invoke(context.Background(), toolCall("c1", "echo", `[1,2,3]`))
	var parseErr *ArgumentParseError
	require.ErrorAs(t, err, &parseErr)
}
