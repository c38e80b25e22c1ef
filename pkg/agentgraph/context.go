package agentgraph

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/checkpoint"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/llm"
)

// ExecutionPoint names a node and the input it should receive on the
// next graph entry. It is the unit of resume: rollback and external
// restore both reduce to installing an execution point and re-entering
// the graph.
type ExecutionPoint struct {
	Node  string
	Input any
}

// Context carries the state of one agent run: identity, conversation
// session, key-value storage, the iteration budget, and the pending
// execution point. It embeds the run's context.Context, so node bodies
// use it directly for cancellation and deadlines.
//
// A Context is created per Run call and never shared across runs.
type Context struct {
	context.Context

	runID         string
	agentID       string
	strategy      *Strategy
	session       *llm.Session
	storage       *Storage
	pipeline      *Pipeline
	env           Environment
	checkpoints   checkpoint.Store
	logger        *slog.Logger
	maxIterations int

	mu         sync.Mutex
	iterations int
	pending    *ExecutionPoint

	seq atomic.Int64
}

func newContext(parent context.Context, a *Agent, runID string, env Environment) *Context {
	return &Context{
		Context:       parent,
		runID:         runID,
		agentID:       a.id,
		strategy:      a.strategy,
		session:       llm.NewSession(a.model, a.systemPrompt, a.tools.Descriptors()),
		storage:       newStorage(),
		pipeline:      a.pipeline,
		env:           env,
		checkpoints:   a.checkpoints,
		logger:        a.logger,
		maxIterations: a.maxIterations,
	}
}

// RunID returns the unique identifier of this run.
func (c *Context) RunID() string { return c.runID }

// AgentID returns the identifier of the agent executing this run.
func (c *Context) AgentID() string { return c.agentID }

// Strategy returns the strategy being executed.
func (c *Context) Strategy() *Strategy { return c.strategy }

// Session returns the run's conversation session.
func (c *Context) Session() *llm.Session { return c.session }

// Storage returns the run's key-value storage.
func (c *Context) Storage() *Storage { return c.storage }

// Pipeline returns the agent's feature pipeline.
func (c *Context) Pipeline() *Pipeline { return c.pipeline }

// Logger returns the run's logger. Never nil: an agent without a
// configured logger yields a discarding one.
func (c *Context) Logger() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// CheckpointStore returns the agent's checkpoint store, or nil if none
// was configured.
func (c *Context) CheckpointStore() checkpoint.Store { return c.checkpoints }

// Iterations returns the number of node executions so far in this run,
// across graph re-entries.
func (c *Context) Iterations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.iterations
}

// nextIteration consumes one execution from the budget. It returns
// false when the budget is exhausted.
func (c *Context) nextIteration() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.iterations >= c.maxIterations {
		return false
	}
	c.iterations++
	return true
}

// NextSequence returns a monotonically increasing sequence number for
// this run, starting at 1. Checkpoint creation uses it to order
// snapshots.
func (c *Context) NextSequence() int64 {
	return c.seq.Add(1)
}

// SetExecutionPoint installs the point at which the graph resumes on
// its next entry, replacing any pending point. The node must exist and
// the input must match its declared input type.
func (c *Context) SetExecutionPoint(node string, input any) error {
	n, ok := c.strategy.Node(node)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNode, node)
	}
	if !assignable(input, n.InputType()) {
		return &TypeMismatchError{
			Where: "execution point at " + node,
			Got:   reflect.TypeOf(input),
			Want:  n.InputType(),
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = &ExecutionPoint{Node: node, Input: input}
	return nil
}

// HasExecutionPoint reports whether a resume point is pending.
func (c *Context) HasExecutionPoint() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// takeExecutionPoint removes and returns the pending point, if any.
func (c *Context) takeExecutionPoint() *ExecutionPoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	ep := c.pending
	c.pending = nil
	return ep
}
