package agentgraph

import (
	"fmt"
	"log/slog"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/checkpoint"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/observability"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/tool"
)

// Option configures an agent at construction.
type Option func(*Agent) error

// WithAgentID sets the agent identifier instead of a generated UUID.
func WithAgentID(id string) Option {
	return func(a *Agent) error {
		if id == "" {
			return fmt.Errorf("agent id cannot be empty")
		}
		a.id = id
		return nil
	}
}

// WithModel sets the model name used for the agent's LLM requests.
func WithModel(model string) Option {
	return func(a *Agent) error {
		a.model = model
		return nil
	}
}

// WithSystemPrompt sets the system message that seeds each run's
// session.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) error {
		a.systemPrompt = prompt
		return nil
	}
}

// WithTools adds tools to the agent's registry.
func WithTools(tools ...tool.Tool) Option {
	return func(a *Agent) error {
		for _, t := range tools {
			a.tools.Add(t)
		}
		return nil
	}
}

// WithToolRegistry replaces the agent's tool registry.
func WithToolRegistry(reg *tool.Registry) Option {
	return func(a *Agent) error {
		if reg == nil {
			return fmt.Errorf("tool registry cannot be nil")
		}
		a.tools = reg
		return nil
	}
}

// WithMaxIterations bounds node executions per run, across graph
// re-entries. Implicit start and finish nodes count.
func WithMaxIterations(n int) Option {
	return func(a *Agent) error {
		if n < 1 {
			return fmt.Errorf("max iterations must be positive, got %d", n)
		}
		a.maxIterations = n
		return nil
	}
}

// WithLogger sets the agent's logger. Without it the agent does not
// log.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) error {
		a.logger = logger
		return nil
	}
}

// WithMetrics enables OpenTelemetry metrics for the agent's runs.
func WithMetrics() Option {
	return func(a *Agent) error {
		m, err := observability.NewMetrics()
		if err != nil {
			return fmt.Errorf("create metrics: %w", err)
		}
		a.metrics = m
		return nil
	}
}

// WithCheckpointStore sets the store that persistence features use for
// this agent's runs.
func WithCheckpointStore(store checkpoint.Store) Option {
	return func(a *Agent) error {
		a.checkpoints = store
		return nil
	}
}

// WithFeature registers features on the agent's pipeline, in order.
// Fails on a duplicate feature key.
func WithFeature(features ...Feature) Option {
	return func(a *Agent) error {
		for _, f := range features {
			if err := a.pipeline.Register(f); err != nil {
				return err
			}
		}
		return nil
	}
}
