// Package llm defines the conversation model and the executor contract
// the engine consumes. Concrete provider clients live behind the
// Executor interface; the engine never sees a wire protocol.
package llm

import (
	"encoding/json"
	"time"
)

// Role identifies the author of a conversation message.
type Role string

// Role constants for message authors.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Message is a single message in a conversation. Timestamps order
// messages deterministically when a checkpointed history is replayed.
type Message struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	ToolID    string     `json:"tool_id,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Prompt is an ordered conversation history sent to the model.
type Prompt []Message

// NewSystemMessage creates a system message stamped with the current time.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content, Timestamp: time.Now().UTC()}
}

// NewUserMessage creates a user message stamped with the current time.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: time.Now().UTC()}
}

// NewAssistantMessage creates an assistant message stamped with the current time.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, Timestamp: time.Now().UTC()}
}

// NewToolResultMessage creates a tool-result message answering the given
// call ID.
func NewToolResultMessage(callID, content string) Message {
	return Message{Role: RoleTool, ToolID: callID, Content: content, Timestamp: time.Now().UTC()}
}

// HasToolCalls reports whether the message requests any tool invocations.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}
