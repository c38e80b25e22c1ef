// Package observability provides structured logging, metrics, and
// tracing helpers shared by the engine and its features.
//
// Logging is slog-based and nil-safe: every helper accepts a nil
// logger and does nothing, so call sites need no guards. Metrics and
// traces go through the global OpenTelemetry providers, which default
// to no-ops when no SDK is installed.
package observability

import (
	"log/slog"
	"time"
)

// Attribute keys used across log records.
const (
	KeyRunID    = "run_id"
	KeyAgentID  = "agent_id"
	KeyStrategy = "strategy"
	KeyNode     = "node"
	KeyModel    = "model"
	KeyTool     = "tool"
	KeyCallID   = "call_id"
	KeyError    = "error"
	KeyDuration = "duration_ms"
)

// RunLogger returns a logger with run identity attached, for use
// throughout one run.
func RunLogger(logger *slog.Logger, runID, agentID, strategy string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String(KeyRunID, runID),
		slog.String(KeyAgentID, agentID),
		slog.String(KeyStrategy, strategy),
	)
}

// LogRunStart records the start of a run.
func LogRunStart(logger *slog.Logger) {
	if logger == nil {
		return
	}
	logger.Info("run started")
}

// LogRunComplete records a successful run.
func LogRunComplete(logger *slog.Logger, duration time.Duration, iterations int) {
	if logger == nil {
		return
	}
	logger.Info("run completed",
		slog.Int64(KeyDuration, duration.Milliseconds()),
		slog.Int("iterations", iterations),
	)
}

// LogRunError records a failed run.
func LogRunError(logger *slog.Logger, err error, duration time.Duration) {
	if logger == nil {
		return
	}
	logger.Error("run failed",
		slog.String(KeyError, err.Error()),
		slog.Int64(KeyDuration, duration.Milliseconds()),
	)
}

// LogReentry records a graph re-entry at a resume point.
func LogReentry(logger *slog.Logger, node string) {
	if logger == nil {
		return
	}
	logger.Info("re-entering graph", slog.String(KeyNode, node))
}

// LogNodeStart records a node beginning execution.
func LogNodeStart(logger *slog.Logger, node string) {
	if logger == nil {
		return
	}
	logger.Debug("node started", slog.String(KeyNode, node))
}

// LogNodeComplete records a node finishing.
func LogNodeComplete(logger *slog.Logger, node string) {
	if logger == nil {
		return
	}
	logger.Debug("node completed", slog.String(KeyNode, node))
}

// LogNodeError records a node failure.
func LogNodeError(logger *slog.Logger, node string, err error) {
	if logger == nil {
		return
	}
	logger.Error("node failed",
		slog.String(KeyNode, node),
		slog.String(KeyError, err.Error()),
	)
}

// LogLLMCall records a model request.
func LogLLMCall(logger *slog.Logger, model string, messages int) {
	if logger == nil {
		return
	}
	logger.Debug("llm request", slog.String(KeyModel, model), slog.Int("messages", messages))
}

// LogToolCall records a tool dispatch.
func LogToolCall(logger *slog.Logger, toolName, callID string) {
	if logger == nil {
		return
	}
	logger.Debug("tool call", slog.String(KeyTool, toolName), slog.String(KeyCallID, callID))
}

// LogToolFailure records a failed tool call.
func LogToolFailure(logger *slog.Logger, toolName, callID, reason string) {
	if logger == nil {
		return
	}
	logger.Warn("tool call failed",
		slog.String(KeyTool, toolName),
		slog.String(KeyCallID, callID),
		slog.String(KeyError, reason),
	)
}

// LogCheckpoint records a saved checkpoint.
func LogCheckpoint(logger *slog.Logger, node string, sequence int64) {
	if logger == nil {
		return
	}
	logger.Debug("checkpoint saved",
		slog.String(KeyNode, node),
		slog.Int64("sequence", sequence),
	)
}
