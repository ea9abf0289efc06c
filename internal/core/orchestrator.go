package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/calyptra/fnchat/internal/chat"
	"github.com/calyptra/fnchat/internal/completion"
	"github.com/calyptra/fnchat/internal/config"
)

// StatusToolLoopExceeded is reported when the model keeps requesting
// tools past the configured round bound.
const StatusToolLoopExceeded = "tool_loop_exceeded"

// ErrTurnAborted is returned when Clear interrupts an in-flight turn.
var ErrTurnAborted = errors.New("turn aborted")

// Completer produces one chat completion for the given history.
// Failures are reported through the result's status, never an error.
type Completer interface {
	Complete(ctx context.Context, gen config.Generation, history []chat.Message, tools []openai.Tool) completion.Result
}

// ToolRunner executes a batch of sibling tool calls.
type ToolRunner interface {
	InvokeAll(ctx context.Context, calls []openai.ToolCall) ([]chat.Message, error)
}

// Orchestrator drives the tool-calling conversation loop. One turn at
// a time: user message in, completions and tool rounds until the model
// answers in plain text or something gives out.
type Orchestrator struct {
	completer     Completer
	runner        ToolRunner
	specs         []openai.Tool
	gen           config.Generation
	maxToolRounds int
	state         *ConversationState
	logger        *zap.Logger
	notify        func()

	mu         sync.Mutex
	cancelTurn context.CancelFunc
}

func NewOrchestrator(completer Completer, runner ToolRunner, specs []openai.Tool, cfg *config.Config, logger *zap.Logger) *Orchestrator {
	rounds := cfg.MaxToolRounds
	if rounds <= 0 {
		rounds = config.DefaultMaxToolRounds
	}
	return &Orchestrator{
		completer:     completer,
		runner:        runner,
		specs:         specs,
		gen:           cfg.Generation,
		maxToolRounds: rounds,
		state:         NewConversationState(),
		logger:        logger,
	}
}

// OnUpdate registers a callback fired after every state change. The
// callback must not call back into the orchestrator synchronously.
func (o *Orchestrator) OnUpdate(fn func()) {
	o.notify = fn
}

// Send runs one full turn for a plain text message. It blocks until
// the turn reaches Idle or Error.
func (o *Orchestrator) Send(ctx context.Context, text string) error {
	return o.run(ctx, chat.NewUserMessage(text))
}

// SendWithImage runs a turn for a message carrying an image.
func (o *Orchestrator) SendWithImage(ctx context.Context, text, imageURL string) error {
	return o.run(ctx, chat.NewUserImageMessage(text, imageURL))
}

func (o *Orchestrator) run(ctx context.Context, user chat.Message) error {
	baseLen, epoch, err := o.state.BeginTurn(user, chat.NewPlaceholder())
	if err != nil {
		return err
	}

	turnCtx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancelTurn = cancel
	o.mu.Unlock()
	defer func() {
		cancel()
		o.mu.Lock()
		o.cancelTurn = nil
		o.mu.Unlock()
	}()

	o.push()

	var (
		rounds        int
		lastCalls     []openai.ToolCall
		lastResponses string
	)

	for {
		history, ok := o.state.WireHistory(epoch)
		if !ok {
			return ErrTurnAborted
		}

		res := o.completer.Complete(turnCtx, o.gen, history, o.specs)
		if res.Failed() {
			o.logger.Warn("completion failed", zap.String("status", res.Status))
			o.state.FailCompletion(epoch, baseLen+1, res.Status)
			o.push()
			return fmt.Errorf("completion failed: %s", res.Status)
		}

		assistant := res.Message
		if rounds > 0 {
			assistant.Metadata.FunctionCalls = functionCalls(lastCalls)
			assistant.Metadata.FunctionResponse = lastResponses
		}
		if !o.state.CommitAssistant(epoch, assistant) {
			return ErrTurnAborted
		}
		o.push()

		if !assistant.HasToolCalls() {
			o.state.FinishTurn(epoch)
			o.push()
			return nil
		}

		rounds++
		if rounds > o.maxToolRounds {
			o.logger.Warn("tool round bound hit", zap.Int("rounds", rounds-1))
			o.state.FailTurn(epoch, StatusToolLoopExceeded)
			o.push()
			return fmt.Errorf("completion failed: %s", StatusToolLoopExceeded)
		}

		o.state.MarkHidden(epoch, assistant.ID)
		o.state.SetPhase(epoch, PhaseExecutingTools)
		o.push()

		results, err := o.runner.InvokeAll(turnCtx, assistant.ToolCalls)
		if err != nil {
			o.logger.Warn("tool invocation failed", zap.Error(err))
			o.state.FailTurn(epoch, completion.StatusUnknown)
			o.push()
			return err
		}

		if !o.state.AppendMessages(epoch, results) {
			return ErrTurnAborted
		}
		o.state.SetPhase(epoch, PhaseAwaitingCompletion)
		o.push()

		lastCalls = assistant.ToolCalls
		lastResponses = joinResponses(results)
	}
}

// Clear cancels any in-flight turn and wipes the conversation. The
// epoch is bumped before the cancel so the released turn can never
// commit into the fresh history.
func (o *Orchestrator) Clear() {
	o.state.Clear()

	o.mu.Lock()
	if o.cancelTurn != nil {
		o.cancelTurn()
	}
	o.mu.Unlock()

	o.push()
}

// Busy reports whether a turn is in flight.
func (o *Orchestrator) Busy() bool {
	switch o.state.Phase() {
	case PhaseAwaitingCompletion, PhaseExecutingTools:
		return true
	}
	return false
}

func (o *Orchestrator) Messages() []chat.Message { return o.state.Messages() }

func (o *Orchestrator) RequestStatus() string { return o.state.RequestStatus() }

func (o *Orchestrator) Loading() bool { return o.state.Loading() }

func (o *Orchestrator) Phase() Phase { return o.state.Phase() }

func (o *Orchestrator) push() {
	if o.notify != nil {
		o.notify()
	}
}

func functionCalls(calls []openai.ToolCall) []openai.FunctionCall {
	out := make([]openai.FunctionCall, 0, len(calls))
	for _, c := range calls {
		out = append(out, openai.FunctionCall{Name: c.Function.Name, Arguments: c.Function.Arguments})
	}
	return out
}

func joinResponses(results []chat.Message) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Content)
	}
	return strings.Join(parts, "\n")
}
