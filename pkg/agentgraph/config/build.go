package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/checkpoint"
	agerrors "github.com/randalmurphal/agentgraph/pkg/agentgraph/errors"
)

// Options converts the configuration into agent options. The checkpoint
// store, when configured, is created here; the caller owns closing it
// through the returned store.
func (a Agent) Options() ([]agentgraph.Option, checkpoint.Store, error) {
	var opts []agentgraph.Option

	if a.ID != "" {
		opts = append(opts, agentgraph.WithAgentID(a.ID))
	}
	if a.Model != "" {
		opts = append(opts, agentgraph.WithModel(a.Model))
	}
	if a.SystemPrompt != "" {
		opts = append(opts, agentgraph.WithSystemPrompt(a.SystemPrompt))
	}
	if a.MaxIterations > 0 {
		opts = append(opts, agentgraph.WithMaxIterations(a.MaxIterations))
	}
	opts = append(opts, agentgraph.WithLogger(a.Log.Build()))

	store, err := a.Checkpoint.Build()
	if err != nil {
		return nil, nil, err
	}
	if store != nil {
		opts = append(opts, agentgraph.WithCheckpointStore(store))
	}

	return opts, store, nil
}

// Build creates the configured checkpoint store, or nil when no backend
// is configured.
func (c Checkpoint) Build() (checkpoint.Store, error) {
	switch c.Backend {
	case "":
		return nil, nil
	case "memory":
		return checkpoint.NewMemoryStore(), nil
	case "sqlite":
		store, err := checkpoint.NewSQLiteStore(c.Path)
		if err != nil {
			return nil, fmt.Errorf("open checkpoint store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown checkpoint backend %q", c.Backend)
	}
}

// Build creates a logger per the log configuration.
func (l Log) Build() *slog.Logger {
	var level slog.Level
	switch l.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// RetryConfig converts the retry configuration for use with the llm
// package's retrying executor. Returns NoRetry when retry is disabled.
func (r Retry) RetryConfig() agerrors.RetryConfig {
	if !r.Enabled {
		return agerrors.NoRetry
	}
	cfg := agerrors.RetryConfig{
		MaxAttempts:    r.MaxAttempts,
		InitialBackoff: r.InitialBackoff.Std(),
		MaxBackoff:     r.MaxBackoff.Std(),
		BackoffFactor:  r.BackoffFactor,
		Jitter:         agerrors.DefaultRetry.Jitter,
	}
	return cfg
}
