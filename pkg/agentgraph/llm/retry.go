package llm

import (
	"context"

	agerrors "github.com/randalmurphal/agentgraph/pkg/agentgraph/errors"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/tool"
)

// RetryExecutor wraps an Executor with transient-failure retries.
// Rate limits and 5xx provider errors are retried with exponential
// backoff; everything else fails through immediately.
type RetryExecutor struct {
	inner Executor
	cfg   agerrors.RetryConfig
}

// NewRetryExecutor wraps an executor with the given retry configuration.
func NewRetryExecutor(inner Executor, cfg agerrors.RetryConfig) *RetryExecutor {
	return &RetryExecutor{inner: inner, cfg: cfg}
}

// Execute implements Executor.
func (r *RetryExecutor) Execute(ctx context.Context, prompt Prompt, model string, tools []tool.Descriptor) ([]Message, error) {
	res := agerrors.WithRetryContext(ctx, r.cfg, func(ctx context.Context) ([]Message, error) {
		return r.inner.Execute(ctx, prompt, model, tools)
	})
	return res.Value, res.Err
}

// ExecuteStreaming implements Executor. Streams are not replayed after
// partial delivery, so only the initial call is retried.
func (r *RetryExecutor) ExecuteStreaming(ctx context.Context, prompt Prompt, model string) (<-chan Chunk, error) {
	res := agerrors.WithRetryContext(ctx, r.cfg, func(ctx context.Context) (<-chan Chunk, error) {
		return r.inner.ExecuteStreaming(ctx, prompt, model)
	})
	return res.Value, res.Err
}

// ExecuteMultipleChoices implements Executor.
func (r *RetryExecutor) ExecuteMultipleChoices(ctx context.Context, prompt Prompt, model string, n int) ([][]Message, error) {
	res := agerrors.WithRetryContext(ctx, r.cfg, func(ctx context.Context) ([][]Message, error) {
		return r.inner.ExecuteMultipleChoices(ctx, prompt, model, n)
	})
	return res.Value, res.Err
}

// Moderate implements Executor.
func (r *RetryExecutor) Moderate(ctx context.Context, prompt Prompt, model string) (ModerationResult, error) {
	res := agerrors.WithRetryContext(ctx, r.cfg, func(ctx context.Context) (ModerationResult, error) {
		return r.inner.Moderate(ctx, prompt, model)
	})
	return res.Value, res.Err
}
