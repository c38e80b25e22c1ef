package agentgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/llm"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/tool"
)

func echoStrategy(t *testing.T) *Strategy {
	t.Helper()
	return NewStrategy[string, string]("echo").
		AddNode(passthrough("echo")).
		AddEdge(Forward[string](StartNode, "echo")).
		AddEdge(Forward[string]("echo", FinishNode)).
		MustBuild()
}

func TestRunIdentity(t *testing.T) {
	agent, err := NewAgent(echoStrategy(t), llm.NewMockExecutor())
	require.NoError(t, err)

	out, err := agent.Run(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "x", out)
}

func TestRunInputTypeMismatch(t *testing.T) {
	agent, err := NewAgent(echoStrategy(t), llm.NewMockExecutor())
	require.NoError(t, err)

	_, err = agent.Run(context.Background(), 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestRunAlreadyRunning(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	var enteredOnce sync.Once
	blocking := NewNode("block", func(_ *Context, s string) (string, error) {
		enteredOnce.Do(func() { close(entered) })
		<-release
		return s, nil
	})
	strategy := NewStrategy[string, string]("blocking").
		AddNode(blocking).
		AddEdge(Forward[string](StartNode, "block")).
		AddEdge(Forward[string]("block", FinishNode)).
		MustBuild()

	agent, err := NewAgent(strategy, llm.NewMockExecutor())
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		out, err := agent.Run(context.Background(), "first")
		assert.NoError(t, err)
		assert.Equal(t, "first", out)
	}()

	<-entered
	_, err = agent.Run(context.Background(), "second")
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(release)
	wg.Wait()

	// The agent is reusable once the first run finished.
	out, err := agent.Run(context.Background(), "third")
	require.NoError(t, err)
	assert.Equal(t, "third", out)
}

func TestRunMaxIterations(t *testing.T) {
	// a and b ping-pong forever; an escape edge keeps the build valid
	// but never matches.
	a := passthrough("a")
	b := passthrough("b")
	strategy := NewStrategy[string, string]("pingpong").
		AddNode(a).
		AddNode(b).
		AddEdge(Forward[string](StartNode, "a")).
		AddEdge(ForwardIf[string]("a", FinishNode, func(string) bool { return false })).
		AddEdge(Forward[string]("a", "b")).
		AddEdge(Forward[string]("b", "a")).
		MustBuild()

	agent, err := NewAgent(strategy, llm.NewMockExecutor(), WithMaxIterations(3))
	require.NoError(t, err)

	executed := 0
	require.NoError(t, agent.pipeline.Register(countingFeature{counter: &executed}))

	_, err = agent.Run(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxIterations)

	var maxErr *MaxIterationsError
	require.ErrorAs(t, err, &maxErr)
	assert.Equal(t, 3, maxErr.Max)

	// Start, a, and b each consumed one execution; nothing ran after
	// the budget tripped.
	assert.Equal(t, 3, executed)
}

type countingFeature struct {
	counter *int
}

func (countingFeature) Key() FeatureKey { return "counting" }

func (f countingFeature) Install(p *Pipeline) {
	p.InterceptNodeStart("counting", func(_ InterceptContext, _ NodeEvent) {
		*f.counter++
	})
}

func TestRunStuck(t *testing.T) {
	picky := NewNode("picky", func(_ *Context, s string) (string, error) {
		return s, nil
	})
	strategy := NewStrategy[string, string]("stuck").
		AddNode(picky).
		AddEdge(Forward[string](StartNode, "picky")).
		AddEdge(ForwardIf[string]("picky", FinishNode, func(s string) bool {
			return s == "never"
		})).
		MustBuild()

	agent, err := NewAgent(strategy, llm.NewMockExecutor())
	require.NoError(t, err)

	_, err = agent.Run(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStuck)

	var stuck *StuckError
	require.ErrorAs(t, err, &stuck)
	assert.Equal(t, "picky", stuck.Node)
}

func TestEdgeOrderIsDeterministic(t *testing.T) {
	var evaluated []string
	pred := func(name string, match bool) func(string) bool {
		return func(string) bool {
			evaluated = append(evaluated, name)
			return match
		}
	}

	strategy := NewStrategy[string, string]("routes").
		AddNode(passthrough("router")).
		AddNode(passthrough("first")).
		AddNode(passthrough("second")).
		AddEdge(Forward[string](StartNode, "router")).
		AddEdge(ForwardIf[string]("router", "first", pred("no-match", false))).
		AddEdge(ForwardIf[string]("router", "second", pred("match", true))).
		AddEdge(ForwardIf[string]("router", "first", pred("after-match", true))).
		AddEdge(Forward[string]("first", FinishNode)).
		AddEdge(Forward[string]("second", FinishNode)).
		MustBuild()

	agent, err := NewAgent(strategy, llm.NewMockExecutor())
	require.NoError(t, err)

	out, err := agent.Run(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "x", out)

	// Declaration order, and nothing evaluated past the first match.
	assert.Equal(t, []string{"no-match", "match"}, evaluated)
}

func TestNodePanicBecomesError(t *testing.T) {
	boom := NewNode("boom", func(_ *Context, s string) (string, error) {
		panic("kaboom")
	})
	strategy := NewStrategy[string, string]("panics").
		AddNode(boom).
		AddEdge(Forward[string](StartNode, "boom")).
		AddEdge(Forward[string]("boom", FinishNode)).
		MustBuild()

	agent, err := NewAgent(strategy, llm.NewMockExecutor())
	require.NoError(t, err)

	_, err = agent.Run(context.Background(), "x")
	require.Error(t, err)

	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "boom", panicErr.Node)
	assert.Equal(t, "kaboom", panicErr.Value)
	assert.NotEmpty(t, panicErr.Stack)
}

func TestNodeErrorWrapped(t *testing.T) {
	sentinel := errors.New("backend unavailable")
	failing := NewNode("fails", func(_ *Context, s string) (string, error) {
		return "", sentinel
	})
	strategy := NewStrategy[string, string]("failing").
		AddNode(failing).
		AddEdge(Forward[string](StartNode, "fails")).
		AddEdge(Forward[string]("fails", FinishNode)).
		MustBuild()

	agent, err := NewAgent(strategy, llm.NewMockExecutor())
	require.NoError(t, err)

	_, err = agent.Run(context.Background(), "x")
	require.ErrorIs(t, err, sentinel)

	var nodeErr *NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, "fails", nodeErr.Node)
}

func TestReentrySignalWithoutPointFails(t *testing.T) {
	bail := NewNode("bail", func(_ *Context, s string) (string, error) {
		return "", Reenter("nowhere to go")
	})
	strategy := NewStrategy[string, string]("bailing").
		AddNode(bail).
		AddEdge(Forward[string](StartNode, "bail")).
		AddEdge(Forward[string]("bail", FinishNode)).
		MustBuild()

	agent, err := NewAgent(strategy, llm.NewMockExecutor())
	require.NoError(t, err)

	_, err = agent.Run(context.Background(), "x")
	assert.ErrorIs(t, err, ErrResultMissing)
}

func TestReentryResumesAtExecutionPoint(t *testing.T) {
	executions := make(map[string]int)

	work := NewNode("work", func(_ *Context, s string) (string, error) {
		executions["work"]++
		return s + "+work", nil
	})
	redo := NewNode("redo", func(ctx *Context, s string) (string, error) {
		executions["redo"]++
		if executions["redo"] == 1 {
			require.NoError(t, ctx.SetExecutionPoint("work", "again"))
			return "", Reenter("retry work")
		}
		return s, nil
	})

	strategy := NewStrategy[string, string]("reentry").
		AddNode(work).
		AddNode(redo).
		AddEdge(Forward[string](StartNode, "work")).
		AddEdge(Forward[string]("work", "redo")).
		AddEdge(Forward[string]("redo", FinishNode)).
		MustBuild()

	agent, err := NewAgent(strategy, llm.NewMockExecutor())
	require.NoError(t, err)

	out, err := agent.Run(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "again+work", out)
	assert.Equal(t, 2, executions["work"])
	assert.Equal(t, 2, executions["redo"])
}

func TestSetExecutionPointValidation(t *testing.T) {
	probe := NewNode("probe", func(ctx *Context, s string) (string, error) {
		assert.ErrorIs(t, ctx.SetExecutionPoint("ghost", "x"), ErrUnknownNode)
		assert.ErrorIs(t, ctx.SetExecutionPoint("probe", 42), ErrTypeMismatch)
		assert.False(t, ctx.HasExecutionPoint())
		return s, nil
	})
	probing := NewStrategy[string, string]("probing").
		AddNode(probe).
		AddEdge(Forward[string](StartNode, "probe")).
		AddEdge(Forward[string]("probe", FinishNode)).
		MustBuild()

	agent, err := NewAgent(probing, llm.NewMockExecutor())
	require.NoError(t, err)

	_, err = agent.Run(context.Background(), "x")
	require.NoError(t, err)
}

func TestRunContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	slow := NewNode("slow", func(nctx *Context, s string) (string, error) {
		cancel()
		select {
		case <-nctx.Done():
			return "", nctx.Err()
		case <-time.After(5 * time.Second):
			return s, nil
		}
	})
	strategy := NewStrategy[string, string]("cancellable").
		AddNode(slow).
		AddEdge(Forward[string](StartNode, "slow")).
		AddEdge(Forward[string]("slow", FinishNode)).
		MustBuild()

	agent, err := NewAgent(strategy, llm.NewMockExecutor())
	require.NoError(t, err)

	_, err = agent.Run(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunToolCallConversation(t *testing.T) {
	type calcArgs struct {
		A int `json:"a"`
		B int `json:"b"`
	}
	calc := tool.NewFunctionTool("calc", "adds two integers",
		func(_ context.Context, args calcArgs) (int, error) {
			return args.A + args.B, nil
		})

	callArgs, err := json.Marshal(calcArgs{A: 2, B: 3})
	require.NoError(t, err)

	withCall := llm.NewAssistantMessage("")
	withCall.ToolCalls = []llm.ToolCall{{ID: "call-1", Name: "calc", Arguments: callArgs}}

	executor := llm.NewMockExecutor(
		[]llm.Message{withCall},
		[]llm.Message{llm.NewAssistantMessage("2+3 equals 5")},
	)

	answer := NewNode("answer", func(ctx *Context, question string) (string, error) {
		msgs, err := ctx.SendMessage(question)
		if err != nil {
			return "", err
		}
		for msgs[len(msgs)-1].HasToolCalls() {
			results := ctx.RunTools(msgs[len(msgs)-1].ToolCalls)
			ctx.ReplyToolResults(results)
			msgs, err = ctx.RequestLLM()
			if err != nil {
				return "", err
			}
		}
		return msgs[len(msgs)-1].Content, nil
	})

	strategy := NewStrategy[string, string]("qa").
		AddNode(answer).
		AddEdge(Forward[string](StartNode, "answer")).
		AddEdge(Forward[string]("answer", FinishNode)).
		MustBuild()

	var toolEvents []string
	agent, err := NewAgent(strategy, executor,
		WithModel("test-model"),
		WithSystemPrompt("You are a calculator."),
		WithTools(calc),
		WithFeature(toolEventRecorder{events: &toolEvents}),
	)
	require.NoError(t, err)

	out, err := agent.Run(context.Background(), "what is 2+3?")
	require.NoError(t, err)
	assert.Equal(t, "2+3 equals 5", out)

	// One dispatch event and one result event, dispatch first.
	require.Equal(t, []string{"call:calc", "result:calc"}, toolEvents)

	// The executor saw the tool result fed back on the second request.
	requests := executor.Requests()
	require.Len(t, requests, 2)
	second := requests[1]
	var sawToolResult bool
	for _, m := range second {
		if m.Role == llm.RoleTool && m.ToolID == "call-1" {
			sawToolResult = true
			assert.Equal(t, "5", m.Content)
		}
	}
	assert.True(t, sawToolResult)
}

type toolEventRecorder struct {
	events *[]string
}

func (toolEventRecorder) Key() FeatureKey { return "tool-recorder" }

func (r toolEventRecorder) Install(p *Pipeline) {
	p.InterceptToolCall("tool-recorder", func(_ InterceptContext, e ToolEvent) {
		*r.events = append(*r.events, "call:"+e.Call.Name)
	})
	p.InterceptToolResult("tool-recorder", func(_ InterceptContext, e ToolEvent) {
		*r.events = append(*r.events, "result:"+e.Call.Name)
	})
	p.InterceptToolValidationError("tool-recorder", func(_ InterceptContext, e ToolEvent) {
		*r.events = append(*r.events, "validation:"+e.Call.Name)
	})
	p.InterceptToolFailure("tool-recorder", func(_ InterceptContext, e ToolEvent) {
		*r.events = append(*r.events, "failure:"+e.Call.Name)
	})
}

func TestHandlerPanicFailsRun(t *testing.T) {
	agent, err := NewAgent(echoStrategy(t), llm.NewMockExecutor(),
		WithFeature(panickingFeature{}))
	require.NoError(t, err)

	var runErrs []error
	require.NoError(t, agent.pipeline.Register(runErrorRecorder{errs: &runErrs}))

	out, err := agent.Run(context.Background(), "x")
	require.Error(t, err)
	assert.Nil(t, out)

	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "", panicErr.Node)
	assert.Contains(t, err.Error(), "handler bug")

	// The run-error handlers saw the failure before Run returned.
	require.Len(t, runErrs, 1)
	assert.Equal(t, err, runErrs[0])

	// The agent is not wedged: a second Run attempt is admitted.
	_, err = agent.Run(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyRunning)
}

type panickingFeature struct{}

func (panickingFeature) Key() FeatureKey { return "panicking" }

func (panickingFeature) Install(p *Pipeline) {
	p.InterceptNodeStart("panicking", func(_ InterceptContext, _ NodeEvent) {
		panic("handler bug")
	})
}

type runErrorRecorder struct {
	errs *[]error
}

func (runErrorRecorder) Key() FeatureKey { return "run-error-recorder" }

func (r runErrorRecorder) Install(p *Pipeline) {
	p.InterceptRunError("run-error-recorder", func(_ InterceptContext, e RunEvent) {
		*r.errs = append(*r.errs, e.Err)
	})
}

func TestFinishBoundaryRejectsWrongRuntimeType(t *testing.T) {
	// The any-output node lets a non-string value reach the finish
	// boundary at runtime.
	produce := NewNode("produce", func(_ *Context, s string) (any, error) {
		return 123, nil
	})
	strategy := NewStrategy[string, string]("escape").
		AddNode(produce).
		AddEdge(Forward[string](StartNode, "produce")).
		AddEdge(Transform("produce", FinishNode, func(_ *Context, v any) (string, error) {
			s, ok := v.(string)
			if !ok {
				return "", fmt.Errorf("expected string, got %T", v)
			}
			return s, nil
		})).
		MustBuild()

	agent, err := NewAgent(strategy, llm.NewMockExecutor())
	require.NoError(t, err)

	_, err = agent.Run(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "expected string"))
}
