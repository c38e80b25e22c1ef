package agentgraph

import (
	"context"
	"log/slog"
	"reflect"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/checkpoint"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/llm"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/observability"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/tool"
)

// DefaultMaxIterations bounds node executions per run when no limit is
// configured.
const DefaultMaxIterations = 50

// Agent binds a strategy to a model executor, a tool registry, and a
// feature pipeline. An agent is reusable across runs but executes at
// most one run at a time; a second Run while one is in flight returns
// ErrAlreadyRunning.
type Agent struct {
	id            string
	strategy      *Strategy
	executor      llm.Executor
	tools         *tool.Registry
	pipeline      *Pipeline
	logger        *slog.Logger
	metrics       *observability.Metrics
	model         string
	systemPrompt  string
	maxIterations int
	checkpoints   checkpoint.Store

	mu      sync.Mutex
	running bool
}

// NewAgent creates an agent executing the given strategy. The executor
// handles the agent's model requests; behavior is adjusted through
// options.
func NewAgent(strategy *Strategy, executor llm.Executor, opts ...Option) (*Agent, error) {
	a := &Agent{
		id:            uuid.New().String(),
		strategy:      strategy,
		executor:      executor,
		tools:         tool.NewRegistry(),
		pipeline:      NewPipeline(),
		maxIterations: DefaultMaxIterations,
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// ID returns the agent's identifier.
func (a *Agent) ID() string { return a.id }

// Strategy returns the agent's strategy.
func (a *Agent) Strategy() *Strategy { return a.strategy }

// Tools returns the agent's tool registry.
func (a *Agent) Tools() *tool.Registry { return a.tools }

// Pipeline returns the agent's feature pipeline.
func (a *Agent) Pipeline() *Pipeline { return a.pipeline }

// Run executes the strategy on the given input and returns its result.
//
// The graph is entered once, then re-entered for as long as nodes
// interrupt execution with a pending execution point; the iteration
// budget spans all entries. Run returns ErrAlreadyRunning if a run is
// already in flight on this agent.
func (a *Agent) Run(ctx context.Context, input any) (any, error) {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	a.running = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	if !assignable(input, a.strategy.inType) {
		return nil, &TypeMismatchError{
			Where: "run input",
			Got:   reflect.TypeOf(input),
			Want:  a.strategy.inType,
		}
	}

	runID := uuid.New().String()
	env := a.pipeline.transformEnvironment(newEnvironment(a.executor, a.tools))
	rctx := newContext(ctx, a, runID, env)
	rctx.logger = observability.RunLogger(a.logger, runID, a.id, a.strategy.name)

	started := time.Now()
	observability.LogRunStart(rctx.logger)
	defer a.pipeline.onClose(RunEvent{Context: rctx, Input: input})

	result, err := a.runGuarded(rctx, input)
	duration := time.Since(started)

	if err != nil {
		observability.LogRunError(rctx.logger, err, duration)
		a.metrics.RecordRun(ctx, a.strategy.name, duration, false)
		a.pipeline.onRunError(RunEvent{Context: rctx, Input: input, Err: err})
		return nil, err
	}

	observability.LogRunComplete(rctx.logger, duration, rctx.Iterations())
	a.metrics.RecordRun(ctx, a.strategy.name, duration, true)
	a.pipeline.onRunFinish(RunEvent{Context: rctx, Input: input, Result: result})
	return result, nil
}

// runGuarded fires the run-start event and drives the run loop with
// panic recovery. Node bodies recover their own panics; this guard
// catches panics escaping pipeline handlers, so the run-error path
// observes every fatal failure before it reaches the caller.
func (a *Agent) runGuarded(rctx *Context, input any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	a.pipeline.onRunStart(RunEvent{Context: rctx, Input: input})
	return a.runLoop(rctx, input)
}

// runLoop enters the graph and re-enters it while nodes interrupt
// execution with a pending resume point.
func (a *Agent) runLoop(rctx *Context, input any) (any, error) {
	for {
		if err := rctx.Err(); err != nil {
			return nil, err
		}

		a.pipeline.onStrategyStart(StrategyEvent{Context: rctx, Strategy: a.strategy.name})
		result, err := a.strategy.execute(rctx, input)
		if err != nil {
			return nil, err
		}
		if result != nil {
			a.pipeline.onStrategyFinish(StrategyEvent{Context: rctx, Strategy: a.strategy.name, Result: result})
			return result, nil
		}

		// Interrupted: a pending execution point means re-enter, its
		// absence means a node signalled re-entry with nowhere to go.
		if !rctx.HasExecutionPoint() {
			return nil, ErrResultMissing
		}
		observability.LogReentry(rctx.logger, peekNode(rctx))
	}
}

func peekNode(rctx *Context) string {
	rctx.mu.Lock()
	defer rctx.mu.Unlock()
	if rctx.pending == nil {
		return ""
	}
	return rctx.pending.Node
}
