package agentgraph

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinel errors. Use errors.Is to match; the typed wrappers below
// carry detail and unwrap to these.
var (
	// ErrAlreadyRunning indicates Run was called on an agent that has a
	// run in flight.
	ErrAlreadyRunning = errors.New("agent is already running")

	// ErrResultMissing indicates a graph invocation finished without a
	// result and without a pending execution point.
	ErrResultMissing = errors.New("run produced no result and no execution point")

	// ErrMaxIterations indicates a run exceeded its node execution budget.
	ErrMaxIterations = errors.New("max iterations exceeded")

	// ErrStuck indicates no outgoing edge accepted a node's output.
	ErrStuck = errors.New("no matching edge for node output")

	// ErrTypeMismatch indicates a value did not match a declared node,
	// edge, or strategy type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrDuplicateFeature indicates a feature key registered twice on
	// one pipeline.
	ErrDuplicateFeature = errors.New("feature already registered")

	// ErrUnknownNode indicates an edge or execution point referenced a
	// node the strategy does not contain.
	ErrUnknownNode = errors.New("unknown node")

	// ErrNoOutgoingEdge indicates a non-finish node with no outgoing
	// edges, found at build time.
	ErrNoOutgoingEdge = errors.New("node has no outgoing edges")

	// ErrNoPathToFinish indicates the finish node is unreachable from
	// the start node, found at build time.
	ErrNoPathToFinish = errors.New("no path from start to finish")
)

// MaxIterationsError is returned when a run exceeds its node execution
// budget.
type MaxIterationsError struct {
	Max      int
	LastNode string
}

func (e *MaxIterationsError) Error() string {
	return fmt.Sprintf("max iterations exceeded (%d), last node %q", e.Max, e.LastNode)
}

func (e *MaxIterationsError) Unwrap() error { return ErrMaxIterations }

// StuckError is returned when a node produced an output that no
// outgoing edge accepted.
type StuckError struct {
	Node   string
	Output any
}

func (e *StuckError) Error() string {
	return fmt.Sprintf("node %q: no matching edge for output of type %T", e.Node, e.Output)
}

func (e *StuckError) Unwrap() error { return ErrStuck }

// TypeMismatchError is returned when a runtime value does not match a
// declared type: a run input against the strategy input type, or a
// finish-bound value against the strategy output type.
type TypeMismatchError struct {
	// Where names the boundary that failed, e.g. "run input" or
	// the finish node name.
	Where string
	Got   reflect.Type
	Want  reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: type mismatch: got %v, want %v", e.Where, e.Got, e.Want)
}

func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }

// NodeError wraps a failure attributed to a specific node.
type NodeError struct {
	Node string
	Op   string
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q: %s: %v", e.Node, e.Op, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// PanicError wraps a panic recovered from a node body or a pipeline
// handler. The panic is converted to an error so a misbehaving node or
// feature fails its run instead of crashing the process. Node is empty
// when the panic came from a handler rather than a node body.
type PanicError struct {
	Node  string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("run panicked: %v", e.Value)
	}
	return fmt.Sprintf("node %q panicked: %v", e.Node, e.Value)
}
