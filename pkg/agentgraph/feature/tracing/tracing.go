// Package tracing emits OpenTelemetry spans for the run lifecycle: a
// root span per run with node, model, and tool child spans.
package tracing

import (
	"github.com/randalmurphal/agentgraph/pkg/agentgraph"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/observability"
)

// Key is the feature's pipeline key.
const Key agentgraph.FeatureKey = "tracing"

// Feature bridges pipeline events to a span manager. The feature owns
// the span registry; the engine's events carry only identifiers.
type Feature struct {
	spans *observability.SpanManager
}

// New creates the feature on the global tracer provider.
func New() *Feature {
	return &Feature{spans: observability.NewSpanManager()}
}

// Key implements agentgraph.Feature.
func (f *Feature) Key() agentgraph.FeatureKey { return Key }

// Install implements agentgraph.Feature.
func (f *Feature) Install(p *agentgraph.Pipeline) {
	p.InterceptRunStart(Key, func(_ agentgraph.InterceptContext, e agentgraph.RunEvent) {
		ctx := e.Context
		f.spans.StartRun(ctx, ctx.RunID(), ctx.AgentID(), ctx.Strategy().Name())
	})
	p.InterceptRunFinish(Key, func(_ agentgraph.InterceptContext, e agentgraph.RunEvent) {
		f.spans.EndRun(e.Context.RunID(), nil)
	})
	p.InterceptRunError(Key, func(_ agentgraph.InterceptContext, e agentgraph.RunEvent) {
		f.spans.EndRun(e.Context.RunID(), e.Err)
	})

	p.InterceptNodeStart(Key, func(_ agentgraph.InterceptContext, e agentgraph.NodeEvent) {
		f.spans.StartNode(e.Context.RunID(), e.Node.Name())
	})
	p.InterceptNodeFinish(Key, func(_ agentgraph.InterceptContext, e agentgraph.NodeEvent) {
		f.spans.EndNode(e.Context.RunID(), e.Node.Name(), nil)
	})
	p.InterceptNodeError(Key, func(_ agentgraph.InterceptContext, e agentgraph.NodeEvent) {
		f.spans.EndNode(e.Context.RunID(), e.Node.Name(), e.Err)
	})

	p.InterceptLLMStart(Key, func(_ agentgraph.InterceptContext, e agentgraph.LLMEvent) {
		f.spans.StartLLM(e.Context.RunID(), e.Model)
	})
	p.InterceptLLMFinish(Key, func(_ agentgraph.InterceptContext, e agentgraph.LLMEvent) {
		f.spans.EndLLM(e.Context.RunID(), e.Err)
	})

	p.InterceptToolCall(Key, func(_ agentgraph.InterceptContext, e agentgraph.ToolEvent) {
		f.spans.StartTool(e.Context.RunID(), e.Call.Name, e.Call.ID)
	})
	p.InterceptToolResult(Key, func(_ agentgraph.InterceptContext, e agentgraph.ToolEvent) {
		f.spans.EndTool(e.Context.RunID(), e.Call.ID, nil)
	})
	endFailed := func(_ agentgraph.InterceptContext, e agentgraph.ToolEvent) {
		var err error
		if e.Result != nil && e.Result.Failure != nil {
			err = e.Result.Failure
		}
		f.spans.EndTool(e.Context.RunID(), e.Call.ID, err)
	}
	p.InterceptToolValidationError(Key, endFailed)
	p.InterceptToolFailure(Key, endFailed)
}
