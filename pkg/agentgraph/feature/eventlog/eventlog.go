// Package eventlog logs the run lifecycle through the run's logger.
package eventlog

import (
	"github.com/randalmurphal/agentgraph/pkg/agentgraph"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/observability"
)

// Key is the feature's pipeline key.
const Key agentgraph.FeatureKey = "eventlog"

// Feature logs node, LLM, and tool events. Run start and completion
// are logged by the runner itself; this feature covers the steps in
// between.
type Feature struct{}

// New creates the feature.
func New() *Feature { return &Feature{} }

// Key implements agentgraph.Feature.
func (f *Feature) Key() agentgraph.FeatureKey { return Key }

// Install implements agentgraph.Feature.
func (f *Feature) Install(p *agentgraph.Pipeline) {
	p.InterceptNodeStart(Key, func(_ agentgraph.InterceptContext, e agentgraph.NodeEvent) {
		observability.LogNodeStart(e.Context.Logger(), e.Node.Name())
	})
	p.InterceptNodeFinish(Key, func(_ agentgraph.InterceptContext, e agentgraph.NodeEvent) {
		observability.LogNodeComplete(e.Context.Logger(), e.Node.Name())
	})
	p.InterceptNodeError(Key, func(_ agentgraph.InterceptContext, e agentgraph.NodeEvent) {
		observability.LogNodeError(e.Context.Logger(), e.Node.Name(), e.Err)
	})
	p.InterceptLLMStart(Key, func(_ agentgraph.InterceptContext, e agentgraph.LLMEvent) {
		observability.LogLLMCall(e.Context.Logger(), e.Model, len(e.Prompt))
	})
	p.InterceptToolCall(Key, func(_ agentgraph.InterceptContext, e agentgraph.ToolEvent) {
		observability.LogToolCall(e.Context.Logger(), e.Call.Name, e.Call.ID)
	})
	p.InterceptToolValidationError(Key, func(_ agentgraph.InterceptContext, e agentgraph.ToolEvent) {
		observability.LogToolFailure(e.Context.Logger(), e.Call.Name, e.Call.ID, failureReason(e))
	})
	p.InterceptToolFailure(Key, func(_ agentgraph.InterceptContext, e agentgraph.ToolEvent) {
		observability.LogToolFailure(e.Context.Logger(), e.Call.Name, e.Call.ID, failureReason(e))
	})
}

func failureReason(e agentgraph.ToolEvent) string {
	if e.Result != nil && e.Result.Failure != nil {
		return e.Result.Failure.Message
	}
	return "unknown"
}
