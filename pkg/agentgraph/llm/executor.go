package llm

import (
	"context"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/tool"
)

// Executor is the narrow seam between the engine and a model provider.
// Implementations perform the actual chat/completion wire calls; the
// engine only ever sees prompts in and messages out.
//
// Implementations must be safe for concurrent use.
type Executor interface {
	// Execute sends the prompt to the model and returns the response
	// messages. Tool descriptors, when present, are advertised so the
	// model may answer with tool calls.
	Execute(ctx context.Context, prompt Prompt, model string, tools []tool.Descriptor) ([]Message, error)

	// ExecuteStreaming sends the prompt and yields response text
	// incrementally. The channel is closed when the response completes;
	// a chunk with a non-nil Err terminates the stream.
	ExecuteStreaming(ctx context.Context, prompt Prompt, model string) (<-chan Chunk, error)

	// ExecuteMultipleChoices requests n alternative completions.
	ExecuteMultipleChoices(ctx context.Context, prompt Prompt, model string, n int) ([][]Message, error)

	// Moderate classifies the prompt against the provider's content policy.
	Moderate(ctx context.Context, prompt Prompt, model string) (ModerationResult, error)
}

// Chunk is one increment of a streaming response.
type Chunk struct {
	Content string
	Err     error
}

// ModerationResult is the outcome of a moderation check.
type ModerationResult struct {
	Flagged    bool            `json:"flagged"`
	Categories map[string]bool `json:"categories,omitempty"`
}
