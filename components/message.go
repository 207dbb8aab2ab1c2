package components

import (
	"github.com/rs/xid"

	"github.com/quantfold/finagent/schema"
)

// NewTurnID returns a new turn ID.
func NewTurnID() string {
	return xid.New().String()
}

// NewCallID returns a correlation ID for a tool call. Providers that do
// not issue their own call IDs get one synthesized from this.
func NewCallID() string {
	return xid.New().String()
}

// MessageRole is the role of the message sender (e.g., 'user', 'system', 'tool')
type MessageRole = string

const (
	SystemRole    MessageRole = "system"
	UserRole      MessageRole = "user"
	AssistantRole MessageRole = "assistant"
	ToolRole      MessageRole = "tool"
)

// Message represents one entry in the conversation history. It is
// immutable once appended: the orchestrator only ever adds messages,
// never edits or removes them.
type Message struct {
	content schema.Schema
	// role is the role of the message sender
	role MessageRole
	// turnID is the unique identifier for the turn this message belongs to
	turnID string
	// toolCalls are the tool-call requests attached to an assistant message,
	// in the order the model emitted them
	toolCalls []ToolCall
	// toolCallID correlates a tool-role message with the originating call
	toolCallID string
	// toolName is the tool that produced a tool-role message; providers
	// without call IDs correlate results by name
	toolName string
}

// NewMessage returns a new Message
func NewMessage(role MessageRole, content schema.Schema) *Message {
	return &Message{
		role:    role,
		content: content,
	}
}

// NewAssistantMessage returns an assistant message carrying the model's
// text and its ordered tool-call requests.
func NewAssistantMessage(content schema.Schema, calls []ToolCall) *Message {
	msg := NewMessage(AssistantRole, content)
	if len(calls) > 0 {
		msg.toolCalls = make([]ToolCall, len(calls))
		copy(msg.toolCalls, calls)
	}
	return msg
}

// NewToolMessage returns a tool-role message holding one tool result.
// Failures are folded into the content so the model can adapt to them.
func NewToolMessage(result ToolResult) *Message {
	msg := NewMessage(ToolRole, schema.String(result.ModelContent()))
	msg.toolCallID = result.ID
	msg.toolName = result.Name
	return msg
}

// SetTurnID set message turnID
func (m *Message) SetTurnID(turnID string) *Message {
	m.turnID = turnID
	return m
}

// Role returns message role
func (m Message) Role() MessageRole {
	return m.role
}

// Content returns message content
func (m Message) Content() schema.Schema {
	return m.content
}

// StringifiedContent returns the content as the model sees it.
func (m Message) StringifiedContent() string {
	if m.content == nil {
		return ""
	}
	return schema.Stringify(m.content)
}

// TurnID returns message turnID
func (m Message) TurnID() string {
	return m.turnID
}

// ToolCalls returns a copy of the attached tool-call requests.
func (m Message) ToolCalls() []ToolCall {
	if len(m.toolCalls) == 0 {
		return nil
	}
	calls := make([]ToolCall, len(m.toolCalls))
	copy(calls, m.toolCalls)
	return calls
}

// HasToolCalls reports whether the assistant requested tool execution.
func (m Message) HasToolCalls() bool {
	return len(m.toolCalls) > 0
}

// ToolCallID returns the correlation ID of a tool-role message.
func (m Message) ToolCallID() string {
	return m.toolCallID
}

// ToolName returns the tool that produced a tool-role message.
func (m Message) ToolName() string {
	return m.toolName
}
