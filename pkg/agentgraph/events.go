package agentgraph

import (
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/llm"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/tool"
)

// Lifecycle event payloads. Every payload carries the run's Context, so
// handlers can reach the session, storage, checkpoint store, and
// execution point without extra plumbing.

// RunEvent accompanies run start, finish, error, and close.
type RunEvent struct {
	Context *Context

	// Input is the run's input value. Set on all run events.
	Input any

	// Result is the run's final output. Set on run finish only.
	Result any

	// Err is the failure. Set on run error only.
	Err error
}

// StrategyEvent accompanies one graph invocation: start fires before
// entering the graph (including each re-entry), finish fires only when
// the graph completes with a result.
type StrategyEvent struct {
	Context  *Context
	Strategy string

	// Result is the graph's output. Set on strategy finish only.
	Result any
}

// NodeEvent accompanies node start, finish, and error.
type NodeEvent struct {
	Context *Context
	Node    Node

	// Input is the value the node received.
	Input any

	// Output is the value the node produced. Set on node finish only.
	Output any

	// Err is the node failure. Set on node error only.
	Err error
}

// LLMEvent accompanies a model request and its responses.
type LLMEvent struct {
	Context *Context
	Model   string
	Prompt  llm.Prompt
	Tools   []tool.Descriptor

	// Responses holds the messages returned by the model. Set on LLM
	// finish only.
	Responses []llm.Message

	// Err is the request failure. Set on LLM finish only.
	Err error
}

// ToolEvent accompanies one tool call through dispatch, result, and
// failure. Tool events for concurrent calls may interleave across
// calls; within one call, the dispatch event precedes the result or
// failure event.
type ToolEvent struct {
	Context *Context
	Call    llm.ToolCall

	// Result is the call outcome. Set on tool result and tool failure
	// events; on failure its Failure field describes the error.
	Result *tool.Result
}
