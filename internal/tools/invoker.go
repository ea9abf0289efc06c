package tools

import (
	"context"
	"encoding/json"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/calyptra/fnchat/internal/chat"
)

// Invoker executes model-issued tool calls and normalizes results into
// tool-result messages. It holds no state between invocations.
type Invoker struct {
	registry *Registry
	logger   *zap.Logger
}

// NewInvoker wires an invoker to a registry.
func NewInvoker(registry *Registry, logger *zap.Logger) *Invoker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invoker{registry: registry, logger: logger}
}

// Invoke executes one tool call: parse arguments, validate against the
// tool's schema, resolve, call. The returned message carries the
// call's id so the orchestrator can correlate it.
func (inv *Invoker) Invoke(ctx context.Context, call openai.ToolCall) (chat.Message, error) {
	name := call.Function.Name

	var args map[string]any
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return chat.Message{}, &ArgumentParseError{Tool: name, Err: err}
	}
	if args == nil {
		args = map[string]any{}
	}

	tool, ok := inv.registry.Resolve(name)
	if !ok {
		return chat.Message{}, &UnsupportedToolError{Name: name}
	}

	if err := validateArgs(tool, args); err != nil {
		return chat.Message{}, err
	}

	inv.logger.Debug("invoking tool",
		zap.String("tool", tool.Name()),
		zap.String("call_id", call.ID),
	)

	payload, err := tool.Call(ctx, args)
	if err != nil {
		return chat.Message{}, err
	}

	return chat.NewToolMessage(call.ID, payload), nil
}

// InvokeAll executes sibling tool calls concurrently and returns one
// tool-result message per call, in the original call order. Any
// failure cancels the remaining calls and fails the batch.
func (inv *Invoker) InvokeAll(ctx context.Context, calls []openai.ToolCall) ([]chat.Message, error) {
	results := make([]chat.Message, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			msg, err := inv.Invoke(gctx, call)
			if err != nil {
				return err
			}
			results[i] = msg
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
