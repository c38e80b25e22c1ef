// Package config loads agent configuration from YAML or JSON files and
// turns it into engine options.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Agent is the file-level configuration for one agent.
type Agent struct {
	// ID identifies the agent. Optional; a UUID is generated when
	// empty.
	ID string `yaml:"id" json:"id"`

	// Model is the model name for LLM requests.
	Model string `yaml:"model" json:"model"`

	// SystemPrompt seeds each run's conversation.
	SystemPrompt string `yaml:"system_prompt" json:"system_prompt"`

	// MaxIterations bounds node executions per run. Zero means the
	// engine default.
	MaxIterations int `yaml:"max_iterations" json:"max_iterations"`

	LLM        LLM        `yaml:"llm" json:"llm"`
	Checkpoint Checkpoint `yaml:"checkpoint" json:"checkpoint"`
	Log        Log        `yaml:"log" json:"log"`
}

// LLM configures the model provider connection and retry behavior.
type LLM struct {
	// BaseURL overrides the provider endpoint. Empty uses the provider
	// default.
	BaseURL string `yaml:"base_url" json:"base_url"`

	// APIKeyEnv names the environment variable holding the API key.
	// Defaults to OPENAI_API_KEY.
	APIKeyEnv string `yaml:"api_key_env" json:"api_key_env"`

	Retry Retry `yaml:"retry" json:"retry"`
}

// Retry configures retry of transient model request failures.
type Retry struct {
	// Enabled turns retry on. Off by default.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// MaxAttempts is the total attempt count including the first.
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`

	InitialBackoff Duration `yaml:"initial_backoff" json:"initial_backoff"`
	MaxBackoff     Duration `yaml:"max_backoff" json:"max_backoff"`
	BackoffFactor  float64  `yaml:"backoff_factor" json:"backoff_factor"`
}

// Checkpoint configures the checkpoint store.
type Checkpoint struct {
	// Backend selects the store: "memory", "sqlite", or "" for none.
	Backend string `yaml:"backend" json:"backend"`

	// Path is the SQLite database path. Required for the sqlite
	// backend.
	Path string `yaml:"path" json:"path"`

	// Continuous enables a checkpoint after every node execution.
	Continuous bool `yaml:"continuous" json:"continuous"`
}

// Log configures the agent's logger.
type Log struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level" json:"level"`

	// Format is "json" or "text". Defaults to text.
	Format string `yaml:"format" json:"format"`
}

// Default returns the configuration used when no file is given.
func Default() Agent {
	return Agent{
		LLM: LLM{
			APIKeyEnv: "OPENAI_API_KEY",
			Retry: Retry{
				MaxAttempts:    3,
				InitialBackoff: Duration(time.Second),
				MaxBackoff:     Duration(30 * time.Second),
				BackoffFactor:  2.0,
			},
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Validate checks cross-field constraints.
func (a Agent) Validate() error {
	var errs []error

	if a.MaxIterations < 0 {
		errs = append(errs, fmt.Errorf("max_iterations cannot be negative, got %d", a.MaxIterations))
	}

	switch a.Checkpoint.Backend {
	case "", "memory":
	case "sqlite":
		if a.Checkpoint.Path == "" {
			errs = append(errs, errors.New("checkpoint.path is required for the sqlite backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown checkpoint backend %q", a.Checkpoint.Backend))
	}

	switch a.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", a.Log.Level))
	}

	switch a.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", a.Log.Format))
	}

	if a.LLM.Retry.Enabled {
		if a.LLM.Retry.MaxAttempts < 1 {
			errs = append(errs, errors.New("llm.retry.max_attempts must be positive when retry is enabled"))
		}
		if a.LLM.Retry.BackoffFactor < 1.0 {
			errs = append(errs, fmt.Errorf("llm.retry.backoff_factor must be >= 1.0, got %v", a.LLM.Retry.BackoffFactor))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
