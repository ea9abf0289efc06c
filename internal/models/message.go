package models

type MessageType int

const (
	User MessageType = iota
	Assistant
	Program
	ToolCall
	ToolResult
	Error
)

// Message is the UI-facing view of a conversation entry.
type Message struct {
	Content string
	Type    MessageType
	// Hidden entries stay in the transcript but are not rendered.
	Hidden bool
	// Tool call bookkeeping, set for ToolCall and ToolResult entries.
	ToolCallID string
	ToolName   string
	ToolArgs   string
}
