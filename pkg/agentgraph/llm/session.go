package llm

import (
	"sort"
	"sync"
	"time"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/tool"
)

// Session is the per-run mutable LLM state: the current model, the
// conversation history, and the tool descriptors advertised to the
// model. It is checkpointed and restored as a unit.
//
// Session is safe for concurrent use; tool fan-out within one node may
// append tool results from multiple goroutines.
type Session struct {
	mu       sync.Mutex
	model    string
	messages []Message
	tools    []tool.Descriptor
}

// NewSession creates a session for the given model and tool set.
// A non-empty system prompt becomes the first message.
func NewSession(model, systemPrompt string, tools []tool.Descriptor) *Session {
	s := &Session{model: model, tools: tools}
	if systemPrompt != "" {
		s.messages = append(s.messages, NewSystemMessage(systemPrompt))
	}
	return s
}

// Model returns the current model identifier.
func (s *Session) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// SetModel changes the model used for subsequent calls.
func (s *Session) SetModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
}

// Tools returns the tool descriptors advertised to the model.
func (s *Session) Tools() []tool.Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]tool.Descriptor, len(s.tools))
	copy(out, s.tools)
	return out
}

// Append adds messages to the history.
func (s *Session) Append(msgs ...Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msgs...)
}

// History returns a copy of the conversation so far.
func (s *Session) History() Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(Prompt, len(s.messages))
	copy(out, s.messages)
	return out
}

// ReplaceHistory substitutes the whole conversation, sorting by message
// timestamp so a restored checkpoint replays in a deterministic order.
func (s *Session) ReplaceHistory(msgs []Message) {
	sorted := make([]Message, len(msgs))
	copy(sorted, msgs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = sorted
}

// Len returns the number of messages in the history.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// LastAssistant returns the most recent assistant message, if any.
func (s *Session) LastAssistant() (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == RoleAssistant {
			return s.messages[i], true
		}
	}
	return Message{}, false
}

// stamp is a test seam: messages appended without a timestamp get one.
func stamp(m Message) Message {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	return m
}

// AppendStamped appends messages, assigning the current time to any
// message missing a timestamp.
func (s *Session) AppendStamped(msgs ...Message) {
	stamped := make([]Message, len(msgs))
	for i, m := range msgs {
		stamped[i] = stamp(m)
	}
	s.Append(stamped...)
}
