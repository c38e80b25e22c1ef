// Package events republishes the run lifecycle onto an event bus, so
// consumers outside the agent (UIs, audit sinks) can observe runs
// without registering pipeline handlers of their own.
package events

import (
	"github.com/randalmurphal/agentgraph/pkg/agentgraph"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/event"
)

// Key is the feature's pipeline key.
const Key agentgraph.FeatureKey = "events"

// Feature publishes one bus event per pipeline event. Publishing uses
// the run's context, so a cancelled run stops blocking publishes.
type Feature struct {
	bus *event.Bus
}

// New creates the feature publishing to bus.
func New(bus *event.Bus) *Feature {
	if bus == nil {
		panic("events: bus cannot be nil")
	}
	return &Feature{bus: bus}
}

// Key implements agentgraph.Feature.
func (f *Feature) Key() agentgraph.FeatureKey { return Key }

// Install implements agentgraph.Feature.
func (f *Feature) Install(p *agentgraph.Pipeline) {
	p.InterceptRunStart(Key, func(_ agentgraph.InterceptContext, e agentgraph.RunEvent) {
		f.publish(e.Context, event.TypeRunStarted, e)
	})
	p.InterceptRunFinish(Key, func(_ agentgraph.InterceptContext, e agentgraph.RunEvent) {
		f.publish(e.Context, event.TypeRunCompleted, e)
	})
	p.InterceptRunError(Key, func(_ agentgraph.InterceptContext, e agentgraph.RunEvent) {
		f.publish(e.Context, event.TypeRunFailed, e)
	})

	p.InterceptNodeStart(Key, func(_ agentgraph.InterceptContext, e agentgraph.NodeEvent) {
		f.publish(e.Context, event.TypeNodeStarted, e)
	})
	p.InterceptNodeFinish(Key, func(_ agentgraph.InterceptContext, e agentgraph.NodeEvent) {
		f.publish(e.Context, event.TypeNodeFinished, e)
	})
	p.InterceptNodeError(Key, func(_ agentgraph.InterceptContext, e agentgraph.NodeEvent) {
		f.publish(e.Context, event.TypeNodeFailed, e)
	})

	p.InterceptLLMStart(Key, func(_ agentgraph.InterceptContext, e agentgraph.LLMEvent) {
		f.publish(e.Context, event.TypeLLMRequested, e)
	})
	p.InterceptLLMFinish(Key, func(_ agentgraph.InterceptContext, e agentgraph.LLMEvent) {
		f.publish(e.Context, event.TypeLLMResponded, e)
	})

	p.InterceptToolCall(Key, func(_ agentgraph.InterceptContext, e agentgraph.ToolEvent) {
		f.publish(e.Context, event.TypeToolCalled, e)
	})
	p.InterceptToolResult(Key, func(_ agentgraph.InterceptContext, e agentgraph.ToolEvent) {
		f.publish(e.Context, event.TypeToolReturned, e)
	})
	p.InterceptToolValidationError(Key, func(_ agentgraph.InterceptContext, e agentgraph.ToolEvent) {
		f.publish(e.Context, event.TypeToolRejected, e)
	})
	p.InterceptToolFailure(Key, func(_ agentgraph.InterceptContext, e agentgraph.ToolEvent) {
		f.publish(e.Context, event.TypeToolFailed, e)
	})
}

func (f *Feature) publish(ctx *agentgraph.Context, eventType string, payload any) {
	if err := f.bus.Publish(ctx, event.New(eventType, ctx.RunID(), payload)); err != nil {
		ctx.Logger().Warn("event publish failed", "type", eventType, "error", err.Error())
	}
}
