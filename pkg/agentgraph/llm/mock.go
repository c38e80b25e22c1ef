package llm

import (
	"context"
	"errors"
	"sync"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/tool"
)

// MockExecutor is a scripted Executor for tests and for the mock
// feature. Responses are consumed in order; when the script runs out,
// Execute returns ErrScriptExhausted.
type MockExecutor struct {
	mu        sync.Mutex
	responses [][]Message
	requests  []Prompt
	moderated ModerationResult
}

// ErrScriptExhausted indicates the mock has no responses left.
var ErrScriptExhausted = errors.New("mock executor: no scripted responses left")

// NewMockExecutor creates a mock that replies with the given response
// batches, one batch per Execute call.
func NewMockExecutor(responses ...[]Message) *MockExecutor {
	return &MockExecutor{responses: responses}
}

// Enqueue appends another scripted response batch.
func (m *MockExecutor) Enqueue(msgs ...Message) *MockExecutor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, msgs)
	return m
}

// SetModeration sets the result returned by Moderate.
func (m *MockExecutor) SetModeration(res ModerationResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moderated = res
}

// Requests returns the prompts seen so far, in call order.
func (m *MockExecutor) Requests() []Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Prompt, len(m.requests))
	copy(out, m.requests)
	return out
}

// Execute implements Executor.
func (m *MockExecutor) Execute(_ context.Context, prompt Prompt, _ string, _ []tool.Descriptor) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, prompt)
	if len(m.responses) == 0 {
		return nil, ErrScriptExhausted
	}

	next := m.responses[0]
	m.responses = m.responses[1:]

	out := make([]Message, len(next))
	for i, msg := range next {
		out[i] = stamp(msg)
	}
	return out, nil
}

// ExecuteStreaming implements Executor by replaying the next scripted
// batch as a single chunk per message.
func (m *MockExecutor) ExecuteStreaming(ctx context.Context, prompt Prompt, model string) (<-chan Chunk, error) {
	msgs, err := m.Execute(ctx, prompt, model, nil)
	if err != nil {
		return nil, err
	}

	ch := make(chan Chunk, len(msgs))
	for _, msg := range msgs {
		ch <- Chunk{Content: msg.Content}
	}
	close(ch)
	return ch, nil
}

// ExecuteMultipleChoices implements Executor by returning the next
// scripted batch n times.
func (m *MockExecutor) ExecuteMultipleChoices(ctx context.Context, prompt Prompt, model string, n int) ([][]Message, error) {
	msgs, err := m.Execute(ctx, prompt, model, nil)
	if err != nil {
		return nil, err
	}

	out := make([][]Message, n)
	for i := range out {
		out[i] = msgs
	}
	return out, nil
}

// Moderate implements Executor.
func (m *MockExecutor) Moderate(context.Context, Prompt, string) (ModerationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.moderated, nil
}
