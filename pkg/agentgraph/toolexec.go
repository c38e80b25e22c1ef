package agentgraph

import (
	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/llm"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/tool"
)

// RequestLLM sends the session's current history to the model and
// appends the responses to the session. LLM start and finish events
// fire around the request.
func (c *Context) RequestLLM() ([]llm.Message, error) {
	prompt := c.session.History()
	model := c.session.Model()
	tools := c.session.Tools()

	c.pipeline.onLLMStart(LLMEvent{Context: c, Model: model, Prompt: prompt, Tools: tools})

	responses, err := c.env.ExecuteLLM(c, prompt, model, tools)
	c.pipeline.onLLMFinish(LLMEvent{
		Context:   c,
		Model:     model,
		Prompt:    prompt,
		Tools:     tools,
		Responses: responses,
		Err:       err,
	})
	if err != nil {
		return nil, err
	}

	for _, m := range responses {
		c.session.AppendStamped(m)
	}
	return responses, nil
}

// SendMessage appends a user message to the session and requests a
// model response.
func (c *Context) SendMessage(content string) ([]llm.Message, error) {
	c.session.Append(llm.NewUserMessage(content))
	return c.RequestLLM()
}

// RunTools executes the given tool calls concurrently and returns one
// result per call, in call order. A failing call never fails the batch
// or the run: its failure is captured in its result while the other
// calls complete normally.
//
// Each call fires a dispatch event before execution and exactly one
// event after: result on success, validation-error when the tool
// rejected its decoded arguments, failure for every other failure
// kind. Events for different calls interleave as the calls are
// concurrent.
func (c *Context) RunTools(calls []llm.ToolCall) []tool.Result {
	results := make([]tool.Result, len(calls))
	if len(calls) == 0 {
		return results
	}

	var g errgroup.Group
	for i, call := range calls {
		g.Go(func() error {
			c.pipeline.onToolCall(ToolEvent{Context: c, Call: call})

			res := c.env.ExecuteTool(c, call)
			results[i] = res

			switch {
			case res.OK():
				c.pipeline.onToolResult(ToolEvent{Context: c, Call: call, Result: &res})
			case res.Failure.Kind == tool.FailureValidation:
				c.pipeline.onToolValidationError(ToolEvent{Context: c, Call: call, Result: &res})
			default:
				c.pipeline.onToolFailure(ToolEvent{Context: c, Call: call, Result: &res})
			}
			return nil
		})
	}
	// Goroutines always return nil: the group is used purely as a
	// join, so one failed call cannot cancel its siblings.
	_ = g.Wait()

	return results
}

// ReplyToolResults appends a tool-result message to the session for
// each result.
func (c *Context) ReplyToolResults(results []tool.Result) {
	for _, res := range results {
		c.session.Append(llm.NewToolResultMessage(res.CallID, res.Text()))
	}
}
