package observability

import (
	"context"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanManager creates and tracks spans for a run hierarchy: one run
// span, with node, model, and tool spans as children. It keeps the open
// spans in a private registry keyed by run and call identity, since the
// engine's event surface carries identifiers rather than span handles.
//
// SpanManager is safe for concurrent use; tool spans are opened and
// closed from concurrent goroutines.
type SpanManager struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]spanEntry
}

type spanEntry struct {
	ctx  context.Context
	span trace.Span
}

// NewSpanManager creates a span manager on the global tracer provider.
func NewSpanManager() *SpanManager {
	return &SpanManager{
		tracer: otel.Tracer(instrumentationName),
		spans:  make(map[string]spanEntry),
	}
}

// StartRun opens the root span for a run.
func (sm *SpanManager) StartRun(ctx context.Context, runID, agentID, strategy string) {
	sctx, span := sm.tracer.Start(ctx, "agent.run",
		trace.WithAttributes(
			attribute.String(KeyRunID, runID),
			attribute.String(KeyAgentID, agentID),
			attribute.String(KeyStrategy, strategy),
		))
	sm.put(runKey(runID), sctx, span)
}

// EndRun closes the run span and any span still open under it.
func (sm *SpanManager) EndRun(runID string, err error) {
	sm.mu.Lock()
	var run *spanEntry
	var orphans []spanEntry
	for key, e := range sm.spans {
		switch {
		case key == runKey(runID):
			run = &e
			delete(sm.spans, key)
		case belongsToRun(key, runID):
			orphans = append(orphans, e)
			delete(sm.spans, key)
		}
	}
	sm.mu.Unlock()

	for _, e := range orphans {
		e.span.End()
	}
	if run != nil {
		endSpan(run.span, err)
	}
}

// StartNode opens a node span under the run span.
func (sm *SpanManager) StartNode(runID, node string) {
	parent := sm.parent(runKey(runID))
	sctx, span := sm.tracer.Start(parent, "node."+node,
		trace.WithAttributes(attribute.String(KeyNode, node)))
	sm.put(nodeKey(runID, node), sctx, span)
}

// EndNode closes a node span.
func (sm *SpanManager) EndNode(runID, node string, err error) {
	if e, ok := sm.take(nodeKey(runID, node)); ok {
		endSpan(e.span, err)
	}
}

// StartLLM opens a model-request span under the run span.
func (sm *SpanManager) StartLLM(runID, model string) {
	parent := sm.parent(runKey(runID))
	sctx, span := sm.tracer.Start(parent, "llm.request",
		trace.WithAttributes(attribute.String(KeyModel, model)))
	sm.put(llmKey(runID), sctx, span)
}

// EndLLM closes the model-request span.
func (sm *SpanManager) EndLLM(runID string, err error) {
	if e, ok := sm.take(llmKey(runID)); ok {
		endSpan(e.span, err)
	}
}

// StartTool opens a tool span under the run span, keyed by call ID so
// concurrent calls track independently.
func (sm *SpanManager) StartTool(runID, toolName, callID string) {
	parent := sm.parent(runKey(runID))
	sctx, span := sm.tracer.Start(parent, "tool."+toolName,
		trace.WithAttributes(
			attribute.String(KeyTool, toolName),
			attribute.String(KeyCallID, callID),
		))
	sm.put(toolKey(runID, callID), sctx, span)
}

// EndTool closes a tool span.
func (sm *SpanManager) EndTool(runID, callID string, err error) {
	if e, ok := sm.take(toolKey(runID, callID)); ok {
		endSpan(e.span, err)
	}
}

func (sm *SpanManager) put(key string, ctx context.Context, span trace.Span) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.spans[key] = spanEntry{ctx: ctx, span: span}
}

func (sm *SpanManager) take(key string) (spanEntry, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	e, ok := sm.spans[key]
	if ok {
		delete(sm.spans, key)
	}
	return e, ok
}

// parent returns the context carrying the run span, or Background when
// the run span is unknown.
func (sm *SpanManager) parent(key string) context.Context {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if e, ok := sm.spans[key]; ok {
		return e.ctx
	}
	return context.Background()
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func runKey(runID string) string          { return "run:" + runID }
func nodeKey(runID, node string) string   { return "node:" + runID + ":" + node }
func llmKey(runID string) string          { return "llm:" + runID }
func toolKey(runID, callID string) string { return "tool:" + runID + ":" + callID }

func belongsToRun(key, runID string) bool {
	return strings.HasPrefix(key, "node:"+runID+":") ||
		strings.HasPrefix(key, "tool:"+runID+":") ||
		key == llmKey(runID)
}
