package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/randalmurphal/agentgraph"

// Metrics records engine-level measurements through the global
// OpenTelemetry meter provider. Without an SDK installed the
// instruments are no-ops.
type Metrics struct {
	runs            metric.Int64Counter
	runDuration     metric.Float64Histogram
	nodeExecutions  metric.Int64Counter
	nodeDuration    metric.Float64Histogram
	llmCalls        metric.Int64Counter
	toolCalls       metric.Int64Counter
	checkpointBytes metric.Int64Histogram
}

// NewMetrics creates the engine's instruments on the global meter
// provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	m := &Metrics{}
	var err error

	if m.runs, err = meter.Int64Counter("agentgraph.runs",
		metric.WithDescription("Completed agent runs by outcome")); err != nil {
		return nil, err
	}
	if m.runDuration, err = meter.Float64Histogram("agentgraph.run.duration",
		metric.WithDescription("Agent run duration"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.nodeExecutions, err = meter.Int64Counter("agentgraph.node.executions",
		metric.WithDescription("Node executions by node name")); err != nil {
		return nil, err
	}
	if m.nodeDuration, err = meter.Float64Histogram("agentgraph.node.duration",
		metric.WithDescription("Node execution duration"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.llmCalls, err = meter.Int64Counter("agentgraph.llm.calls",
		metric.WithDescription("Model requests by model")); err != nil {
		return nil, err
	}
	if m.toolCalls, err = meter.Int64Counter("agentgraph.tool.calls",
		metric.WithDescription("Tool calls by tool name and outcome")); err != nil {
		return nil, err
	}
	if m.checkpointBytes, err = meter.Int64Histogram("agentgraph.checkpoint.size",
		metric.WithDescription("Serialized checkpoint size"),
		metric.WithUnit("By")); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordRun records one completed run.
func (m *Metrics) RecordRun(ctx context.Context, strategy string, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("strategy", strategy),
		attribute.Bool("success", success),
	)
	m.runs.Add(ctx, 1, attrs)
	m.runDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordNode records one node execution.
func (m *Metrics) RecordNode(ctx context.Context, node string, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("node", node),
		attribute.Bool("success", success),
	)
	m.nodeExecutions.Add(ctx, 1, attrs)
	m.nodeDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordLLMCall records one model request.
func (m *Metrics) RecordLLMCall(ctx context.Context, model string, success bool) {
	if m == nil {
		return
	}
	m.llmCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.Bool("success", success),
	))
}

// RecordToolCall records one tool call.
func (m *Metrics) RecordToolCall(ctx context.Context, toolName string, success bool) {
	if m == nil {
		return
	}
	m.toolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", toolName),
		attribute.Bool("success", success),
	))
}

// RecordCheckpoint records the size of one saved checkpoint.
func (m *Metrics) RecordCheckpoint(ctx context.Context, sizeBytes int) {
	if m == nil {
		return
	}
	m.checkpointBytes.Record(ctx, int64(sizeBytes))
}
