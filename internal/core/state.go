package core

import (
	"errors"
	"sync"

	"github.com/calyptra/fnchat/internal/chat"
)

// Phase is the orchestrator's position in the turn state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingCompletion
	PhaseExecutingTools
	PhaseError
)

// ErrTurnActive is returned when a submission arrives while a turn is
// in flight. Concurrent turns over one history are not permitted.
var ErrTurnActive = errors.New("a turn is already in flight")

// ConversationState owns the message history. It is the only shared
// mutable resource; every mutation happens through its methods under
// the lock. Mutators take the epoch observed at turn start, so a turn
// that was aborted by Clear can never touch history afterwards.
type ConversationState struct {
	mu            sync.Mutex
	messages      []chat.Message
	phase         Phase
	requestStatus string
	loading       bool
	epoch         uint64
}

func NewConversationState() *ConversationState {
	return &ConversationState{}
}

// BeginTurn appends the user message and the loading placeholder and
// moves to AwaitingCompletion. It returns the pre-turn history length
// (the rollback point) and the epoch guarding this turn's mutations.
func (s *ConversationState) BeginTurn(user, placeholder chat.Message) (baseLen int, epoch uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseAwaitingCompletion || s.phase == PhaseExecutingTools {
		return 0, 0, ErrTurnActive
	}

	baseLen = len(s.messages)
	s.messages = append(s.messages, user, placeholder)
	s.phase = PhaseAwaitingCompletion
	s.requestStatus = ""
	s.loading = true
	return baseLen, s.epoch, nil
}

// WireHistory returns the history to send to the model: everything
// except loading placeholders. Hidden messages stay in; they remain
// model context. The second return is false when the turn was aborted.
func (s *ConversationState) WireHistory(epoch uint64) ([]chat.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return nil, false
	}

	history := make([]chat.Message, 0, len(s.messages))
	for _, m := range s.messages {
		if m.Metadata.Loading {
			continue
		}
		history = append(history, m)
	}
	return history, true
}

// CommitAssistant appends an assistant message, consuming the trailing
// loading placeholder if one is present.
func (s *ConversationState) CommitAssistant(epoch uint64, msg chat.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return false
	}

	if n := len(s.messages); n > 0 && s.messages[n-1].Metadata.Loading {
		s.messages = s.messages[:n-1]
	}
	s.messages = append(s.messages, msg)
	return true
}

// AppendMessages appends tool-result messages.
func (s *ConversationState) AppendMessages(epoch uint64, msgs []chat.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return false
	}
	s.messages = append(s.messages, msgs...)
	return true
}

// MarkHidden flags a committed message as hidden from the UI.
func (s *ConversationState) MarkHidden(epoch uint64, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return false
	}
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].Metadata.Hide = true
			return true
		}
	}
	return false
}

// SetPhase transitions between AwaitingCompletion and ExecutingTools
// inside a turn.
func (s *ConversationState) SetPhase(epoch uint64, phase Phase) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return false
	}
	s.phase = phase
	return true
}

// FailCompletion rolls the turn back after a completion error result:
// everything appended this turn is discarded except the user message.
func (s *ConversationState) FailCompletion(epoch uint64, keep int, status string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return false
	}
	if keep <= len(s.messages) {
		s.messages = s.messages[:keep]
	}
	s.requestStatus = status
	s.loading = false
	s.phase = PhaseError
	return true
}

// FailTurn ends the turn in Error while preserving everything already
// committed. Used for tool-invocation failures and the loop bound.
func (s *ConversationState) FailTurn(epoch uint64, status string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return false
	}
	if n := len(s.messages); n > 0 && s.messages[n-1].Metadata.Loading {
		s.messages = s.messages[:n-1]
	}
	s.requestStatus = status
	s.loading = false
	s.phase = PhaseError
	return true
}

// FinishTurn ends a successful turn.
func (s *ConversationState) FinishTurn(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return false
	}
	s.loading = false
	s.requestStatus = ""
	s.phase = PhaseIdle
	return true
}

// Clear wipes the conversation from any state and invalidates any
// in-flight turn's epoch.
func (s *ConversationState) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.messages = nil
	s.phase = PhaseIdle
	s.requestStatus = ""
	s.loading = false
}

// Messages returns a copy of the history.
func (s *ConversationState) Messages() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]chat.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *ConversationState) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *ConversationState) RequestStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestStatus
}

func (s *ConversationState) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}
