package agentgraph

import (
	"fmt"
	"reflect"
	"strings"
)

// Reserved node identifiers. Every strategy begins at StartNode and
// terminates at FinishNode; both are created implicitly by NewStrategy
// as identity nodes over the strategy's input and output types.
const (
	StartNode  = "__start__"
	FinishNode = "__finish__"
)

// Node is a named unit of computation with statically declared input
// and output types. Nodes are immutable once built and owned exclusively
// by their strategy.
//
// Nodes are created with NewNode; the concrete types are erased behind
// this interface at the graph-traversal boundary, with reflect type tags
// retained for edge validation and checkpoint restore.
type Node interface {
	// Name returns the node's identifier, unique within a strategy.
	Name() string

	// InputType returns the declared input type.
	InputType() reflect.Type

	// OutputType returns the declared output type.
	OutputType() reflect.Type

	run(ctx *Context, input any) (any, error)
}

// NodeFunc is the signature of a node body. It receives the run's
// context and a typed input, and returns a typed output. Returning a
// *ReentrySignal as the error interrupts the current graph invocation
// so execution can re-enter at a pending execution point.
type NodeFunc[I, O any] func(ctx *Context, input I) (O, error)

type typedNode[I, O any] struct {
	name string
	fn   NodeFunc[I, O]
}

// NewNode creates a node with the given name and body.
//
// Panics if:
//   - name is empty
//   - name is a reserved identifier (StartNode, FinishNode)
//   - name contains whitespace
//   - fn is nil
func NewNode[I, O any](name string, fn NodeFunc[I, O]) Node {
	if name == "" {
		panic("agentgraph: node name cannot be empty")
	}
	if name == StartNode || name == FinishNode {
		panic(fmt.Sprintf("agentgraph: node name %q is reserved", name))
	}
	if strings.ContainsAny(name, " \t\n\r") {
		panic("agentgraph: node name cannot contain whitespace")
	}
	if fn == nil {
		panic("agentgraph: node function cannot be nil")
	}
	return &typedNode[I, O]{name: name, fn: fn}
}

func (n *typedNode[I, O]) Name() string { return n.name }

func (n *typedNode[I, O]) InputType() reflect.Type { return reflect.TypeFor[I]() }

func (n *typedNode[I, O]) OutputType() reflect.Type { return reflect.TypeFor[O]() }

func (n *typedNode[I, O]) run(ctx *Context, input any) (any, error) {
	in, ok := input.(I)
	if !ok {
		return nil, &NodeError{
			Node: n.name,
			Op:   "input",
			Err:  fmt.Errorf("%w: got %T, want %s", ErrTypeMismatch, input, reflect.TypeFor[I]()),
		}
	}

	out, err := n.fn(ctx, in)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// identityNode builds the implicit start and finish nodes.
func identityNode[T any](name string) Node {
	return &typedNode[T, T]{
		name: name,
		fn: func(_ *Context, input T) (T, error) {
			return input, nil
		},
	}
}

// ReentrySignal is returned (as an error) from a node body to interrupt
// the current graph invocation. The run orchestrator re-invokes the
// graph afterwards, resuming at the pending execution point set on the
// run's context; a signal without a pending point fails the run with
// ErrResultMissing.
type ReentrySignal struct {
	// Reason describes why re-entry was requested, for logs only.
	Reason string
}

// Error implements the error interface.
func (s *ReentrySignal) Error() string {
	if s.Reason == "" {
		return "execution re-entry requested"
	}
	return "execution re-entry requested: " + s.Reason
}

// Reenter creates a re-entry signal with the given reason.
func Reenter(reason string) *ReentrySignal {
	return &ReentrySignal{Reason: reason}
}
