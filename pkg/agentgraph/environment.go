package agentgraph

import (
	"context"
	"errors"
	"fmt"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/llm"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/tool"
)

// Environment is the run's boundary to the outside world: model
// requests and tool execution. Features may wrap it (see
// Pipeline.InterceptEnvironment) to substitute or decorate either
// capability; node bodies never see it directly, they go through the
// Context execution methods, which add lifecycle events on top.
type Environment interface {
	// ExecuteLLM sends a prompt to the model and returns its response
	// messages.
	ExecuteLLM(ctx context.Context, prompt llm.Prompt, model string, tools []tool.Descriptor) ([]llm.Message, error)

	// ExecuteTool runs a single tool call to completion. Failures are
	// reported inside the Result, never as a panic or process error.
	ExecuteTool(ctx context.Context, call llm.ToolCall) tool.Result
}

// EnvironmentTransformer wraps an environment, returning the
// environment to use in its place.
type EnvironmentTransformer func(Environment) Environment

// executionEnvironment is the default environment: a model executor
// plus a tool registry.
type executionEnvironment struct {
	executor llm.Executor
	tools    *tool.Registry
}

func newEnvironment(executor llm.Executor, tools *tool.Registry) Environment {
	return &executionEnvironment{executor: executor, tools: tools}
}

func (e *executionEnvironment) ExecuteLLM(ctx context.Context, prompt llm.Prompt, model string, tools []tool.Descriptor) ([]llm.Message, error) {
	return e.executor.Execute(ctx, prompt, model, tools)
}

func (e *executionEnvironment) ExecuteTool(ctx context.Context, call llm.ToolCall) (res tool.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = tool.Fail(call.ID, call.Name, tool.FailureExecution, fmt.Sprintf("tool panicked: %v", r))
		}
	}()

	t, err := e.tools.Get(call.Name)
	if err != nil {
		return tool.Fail(call.ID, call.Name, tool.FailureNotFound, err.Error())
	}

	content, err := t.Call(ctx, call.Arguments)
	if err != nil {
		return tool.Fail(call.ID, call.Name, failureKind(err), err.Error())
	}
	return tool.Succeed(call.ID, call.Name, content)
}

func failureKind(err error) tool.FailureKind {
	var argErr *tool.ArgumentError
	if errors.As(err, &argErr) {
		return tool.FailureArguments
	}
	var valErr *tool.ValidationError
	if errors.As(err, &valErr) {
		return tool.FailureValidation
	}
	return tool.FailureExecution
}
