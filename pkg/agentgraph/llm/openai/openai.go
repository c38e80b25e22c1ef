// Package openai implements llm.Executor on the OpenAI chat
// completions API. It also works against OpenAI-compatible endpoints
// via WithBaseURL.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	agerrors "github.com/randalmurphal/agentgraph/pkg/agentgraph/errors"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/llm"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/tool"
)

// Executor sends prompts to the OpenAI API.
type Executor struct {
	client openai.Client
}

// Options configures the executor.
type Options struct {
	// APIKey authenticates requests. Empty falls back to the SDK's
	// environment lookup.
	APIKey string

	// BaseURL overrides the endpoint, for OpenAI-compatible providers.
	BaseURL string
}

// New creates an executor.
func New(opts Options) *Executor {
	var clientOpts []openaiopt.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, openaiopt.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, openaiopt.WithBaseURL(opts.BaseURL))
	}
	return &Executor{client: openai.NewClient(clientOpts...)}
}

// Execute implements llm.Executor.
func (e *Executor) Execute(ctx context.Context, prompt llm.Prompt, model string, tools []tool.Descriptor) ([]llm.Message, error) {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: convertPrompt(prompt),
	}
	if len(tools) > 0 {
		converted, err := convertTools(tools)
		if err != nil {
			return nil, err
		}
		params.Tools = converted
	}

	resp, err := e.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: response contained no choices")
	}
	return []llm.Message{convertChoice(resp.Choices[0].Message)}, nil
}

// ExecuteStreaming implements llm.Executor. Content deltas are sent on
// the returned channel as they arrive; the channel closes when the
// stream ends, with a final error chunk on failure.
func (e *Executor) ExecuteStreaming(ctx context.Context, prompt llm.Prompt, model string) (<-chan llm.Chunk, error) {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: convertPrompt(prompt),
	}

	out := make(chan llm.Chunk, 16)
	go func() {
		defer close(out)

		stream := e.client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()

		acc := openai.ChatCompletionAccumulator{}
		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)
			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				select {
				case out <- llm.Chunk{Content: chunk.Choices[0].Delta.Content}:
				case <-ctx.Done():
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			out <- llm.Chunk{Err: wrapError(err)}
		}
	}()
	return out, nil
}

// ExecuteMultipleChoices implements llm.Executor, returning one
// response set per requested choice.
func (e *Executor) ExecuteMultipleChoices(ctx context.Context, prompt llm.Prompt, model string, n int) ([][]llm.Message, error) {
	if n < 1 {
		return nil, fmt.Errorf("openai: choice count must be positive, got %d", n)
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: convertPrompt(prompt),
		N:        openai.Int(int64(n)),
	}

	resp, err := e.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}

	choices := make([][]llm.Message, 0, len(resp.Choices))
	for _, c := range resp.Choices {
		choices = append(choices, []llm.Message{convertChoice(c.Message)})
	}
	return choices, nil
}

// Moderate implements llm.Executor using the moderations endpoint. The
// latest user-visible content of the prompt is checked.
func (e *Executor) Moderate(ctx context.Context, prompt llm.Prompt, model string) (llm.ModerationResult, error) {
	text := lastContent(prompt)
	if text == "" {
		return llm.ModerationResult{}, nil
	}

	params := openai.ModerationNewParams{
		Input: openai.ModerationNewParamsInputUnion{
			OfString: openai.String(text),
		},
	}
	if model != "" {
		params.Model = openai.ModerationModel(model)
	}

	resp, err := e.client.Moderations.New(ctx, params)
	if err != nil {
		return llm.ModerationResult{}, wrapError(err)
	}
	if len(resp.Results) == 0 {
		return llm.ModerationResult{}, nil
	}

	r := resp.Results[0]
	result := llm.ModerationResult{
		Flagged:    r.Flagged,
		Categories: make(map[string]bool),
	}

	// The SDK exposes categories as a struct; flatten it by name so
	// callers are not coupled to the SDK's category set.
	raw, err := json.Marshal(r.Categories)
	if err != nil {
		return result, nil
	}
	var flags map[string]bool
	if err := json.Unmarshal(raw, &flags); err != nil {
		return result, nil
	}
	result.Categories = flags
	return result, nil
}

func convertPrompt(prompt llm.Prompt) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(prompt))
	for _, msg := range prompt {
		switch msg.Role {
		case llm.RoleSystem:
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
				},
			})
		case llm.RoleAssistant:
			assistant := &openai.ChatCompletionAssistantMessageParam{}
			if msg.Content != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(msg.Content),
				}
			}
			for _, tc := range msg.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: string(tc.Arguments),
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: assistant})
		case llm.RoleTool:
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfTool: &openai.ChatCompletionToolMessageParam{
					Content: openai.ChatCompletionToolMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
					ToolCallID: msg.ToolID,
				},
			})
		default:
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
				},
			})
		}
	}
	return out
}

func convertTools(tools []tool.Descriptor) ([]openai.ChatCompletionToolParam, error) {
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, d := range tools {
		var parameters shared.FunctionParameters
		if d.Parameters != nil {
			raw, err := json.Marshal(d.Parameters)
			if err != nil {
				return nil, fmt.Errorf("openai: marshal schema for tool %q: %w", d.Name, err)
			}
			if err := json.Unmarshal(raw, &parameters); err != nil {
				return nil, fmt.Errorf("openai: convert schema for tool %q: %w", d.Name, err)
			}
		}
		out = append(out, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        d.Name,
				Description: openai.String(d.Description),
				Parameters:  parameters,
			},
		})
	}
	return out, nil
}

func convertChoice(msg openai.ChatCompletionMessage) llm.Message {
	out := llm.NewAssistantMessage(msg.Content)
	for i, tc := range msg.ToolCalls {
		id := tc.ID
		if id == "" {
			// Some compatible providers omit call IDs.
			id = fmt.Sprintf("call_%d", i)
		}
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
			ID:        id,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return out
}

func lastContent(prompt llm.Prompt) string {
	for i := len(prompt) - 1; i >= 0; i-- {
		if prompt[i].Role == llm.RoleUser || prompt[i].Role == llm.RoleAssistant {
			return prompt[i].Content
		}
	}
	return ""
}

// wrapError converts SDK failures into categorized provider errors so
// the retrying executor can tell transient from permanent.
func wrapError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	perr := &agerrors.ProviderError{
		StatusCode: apiErr.StatusCode,
		Message:    apiErr.Error(),
	}
	if agerrors.Categorize(perr) == agerrors.CategoryTransient {
		return agerrors.Transient(perr, "openai request")
	}
	return agerrors.Permanent(perr, "openai request")
}
