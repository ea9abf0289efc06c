// Package chat defines the conversation data model shared by the
// orchestrator, the completion client and the tool invoker.
package chat

import (
	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
)

// Role identifies who produced a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Metadata carries display and bookkeeping annotations layered onto a
// message. It never influences what the model sees; hidden messages
// stay in model context.
type Metadata struct {
	// Loading marks the transient placeholder shown while a turn is in
	// flight. Loading messages are never sent to the model.
	Loading bool
	// Hide excludes the message from the UI while keeping it in model
	// context.
	Hide bool
	// Used marks a message consumed by some downstream affordance.
	Used bool
	// TotalTokens reported by the completion endpoint, when available.
	TotalTokens int
	// FunctionCalls records, on a final assistant turn, which tool
	// invocations produced it.
	FunctionCalls []openai.FunctionCall
	// FunctionResponse records the tool output that fed the final
	// assistant turn.
	FunctionResponse string
}

// Message is the atomic unit of conversation history. Messages are
// immutable once appended except for Metadata annotations.
type Message struct {
	ID      string
	Role    Role
	Content string
	// Parts holds multimodal content for user turns (text plus image
	// references). When non-empty it supersedes Content on the wire.
	Parts []openai.ChatMessagePart
	// ToolCallID correlates a tool-role message with the assistant
	// tool call that requested it.
	ToolCallID string
	// ToolCalls are present on assistant messages requesting tool
	// execution.
	ToolCalls []openai.ToolCall
	Metadata  Metadata
}

// NewUserMessage builds a plain-text user turn.
func NewUserMessage(text string) Message {
	return Message{
		ID:      uuid.NewString(),
		Role:    RoleUser,
		Content: text,
	}
}

// NewUserImageMessage builds a multimodal user turn carrying text and
// an image reference.
func NewUserImageMessage(text, imageURL string) Message {
	return Message{
		ID:   uuid.NewString(),
		Role: RoleUser,
		Parts: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: text},
			{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
			},
		},
	}
}

// NewAssistantMessage builds an assistant turn.
func NewAssistantMessage(content string, toolCalls []openai.ToolCall) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   content,
		ToolCalls: toolCalls,
	}
}

// NewPlaceholder builds the transient loading assistant entry shown
// while a completion is in flight.
func NewPlaceholder() Message {
	return Message{
		ID:       uuid.NewString(),
		Role:     RoleAssistant,
		Metadata: Metadata{Loading: true},
	}
}

// NewToolMessage builds a tool-result turn correlated to a tool call.
// Tool results are hidden from the UI but remain in model context.
func NewToolMessage(toolCallID, content string) Message {
	return Message{
		ID:         uuid.NewString(),
		Role:       RoleTool,
		Content:    content,
		ToolCallID: toolCallID,
		Metadata:   Metadata{Hide: true},
	}
}

// HasToolCalls reports whether this assistant turn requests tool
// execution.
func (m Message) HasToolCalls() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}
