// Package mock substitutes canned tool results into a run by wrapping
// the execution environment. Strategies under test run unchanged while
// their tool calls resolve against this feature instead of real tools.
package mock

import (
	"context"
	"sync"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/llm"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/tool"
)

// Key is the feature's pipeline key.
const Key agentgraph.FeatureKey = "mock"

// Responder produces a mocked result content for a tool call.
type Responder func(call llm.ToolCall) (any, error)

// Feature intercepts tool execution. Calls to tools with a registered
// mock resolve locally; other calls pass through to the real
// environment.
type Feature struct {
	mu    sync.Mutex
	tools map[string]Responder
	calls []llm.ToolCall
}

// New creates the feature.
func New() *Feature {
	return &Feature{tools: make(map[string]Responder)}
}

// MockTool registers a fixed result for a tool name.
func (f *Feature) MockTool(name string, content any) *Feature {
	return f.MockToolFunc(name, func(llm.ToolCall) (any, error) {
		return content, nil
	})
}

// MockToolFunc registers a responder for a tool name.
func (f *Feature) MockToolFunc(name string, responder Responder) *Feature {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tools[name] = responder
	return f
}

// Calls returns the tool calls the feature has intercepted, mocked and
// passed-through alike, in the order they arrived.
func (f *Feature) Calls() []llm.ToolCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]llm.ToolCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// Key implements agentgraph.Feature.
func (f *Feature) Key() agentgraph.FeatureKey { return Key }

// Install implements agentgraph.Feature.
func (f *Feature) Install(p *agentgraph.Pipeline) {
	p.InterceptEnvironment(Key, func(env agentgraph.Environment) agentgraph.Environment {
		return &mockEnv{feature: f, inner: env}
	})
}

type mockEnv struct {
	feature *Feature
	inner   agentgraph.Environment
}

func (m *mockEnv) ExecuteLLM(ctx context.Context, prompt llm.Prompt, model string, tools []tool.Descriptor) ([]llm.Message, error) {
	return m.inner.ExecuteLLM(ctx, prompt, model, tools)
}

func (m *mockEnv) ExecuteTool(ctx context.Context, call llm.ToolCall) tool.Result {
	m.feature.mu.Lock()
	m.feature.calls = append(m.feature.calls, call)
	responder, ok := m.feature.tools[call.Name]
	m.feature.mu.Unlock()

	if !ok {
		return m.inner.ExecuteTool(ctx, call)
	}

	content, err := responder(call)
	if err != nil {
		return tool.Fail(call.ID, call.Name, tool.FailureExecution, err.Error())
	}
	return tool.Succeed(call.ID, call.Name, content)
}
