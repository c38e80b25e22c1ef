package agentgraph

import (
	"errors"
	"reflect"
	"runtime/debug"
)

// execute walks the graph from the start node (or the context's pending
// execution point) until the finish node runs or a limit trips.
//
// Return convention: (result, nil) on normal completion; (nil, nil)
// when a node interrupted the invocation with a ReentrySignal, in which
// case the caller decides whether to re-enter; (nil, err) on failure.
//
// Every node execution, implicit start and finish included, consumes
// one iteration from the run's budget.
func (s *Strategy) execute(ctx *Context, input any) (any, error) {
	current := StartNode
	in := input

	if ep := ctx.takeExecutionPoint(); ep != nil {
		current = ep.Node
		in = ep.Input
	}

	for {
		if !ctx.nextIteration() {
			return nil, &MaxIterationsError{Max: ctx.maxIterations, LastNode: current}
		}

		node := s.nodes[current]
		ctx.pipeline.onNodeStart(NodeEvent{Context: ctx, Node: node, Input: in})

		out, err := runNode(ctx, node, in)
		if err != nil {
			var signal *ReentrySignal
			if errors.As(err, &signal) {
				// The node interrupted rather than completed: no finish
				// event, the caller re-enters at the pending point.
				return nil, nil
			}
			ctx.pipeline.onNodeError(NodeEvent{Context: ctx, Node: node, Input: in, Err: err})
			return nil, err
		}

		ctx.pipeline.onNodeFinish(NodeEvent{Context: ctx, Node: node, Input: in, Output: out})

		if current == FinishNode {
			return out, nil
		}

		next, nextInput, err := s.resolveEdge(ctx, current, out)
		if err != nil {
			return nil, err
		}
		if next == FinishNode && !assignable(nextInput, s.outType) {
			return nil, &TypeMismatchError{
				Where: "finish input from " + current,
				Got:   reflect.TypeOf(nextInput),
				Want:  s.outType,
			}
		}

		current = next
		in = nextInput
	}
}

// runNode executes a node body with panic recovery. A panic becomes a
// PanicError wrapped in a NodeError, failing the run instead of the
// process.
func runNode(ctx *Context, node Node, input any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &NodeError{
				Node: node.Name(),
				Op:   "execute",
				Err:  &PanicError{Node: node.Name(), Value: r, Stack: debug.Stack()},
			}
		}
	}()

	out, err = node.run(ctx, input)
	if err != nil {
		var signal *ReentrySignal
		var nerr *NodeError
		if !errors.As(err, &signal) && !errors.As(err, &nerr) {
			err = &NodeError{Node: node.Name(), Op: "execute", Err: err}
		}
	}
	return out, err
}

// resolveEdge picks the first outgoing edge, in declaration order,
// whose predicate accepts the output, then applies its transform.
// Predicates after the first match are not evaluated.
func (s *Strategy) resolveEdge(ctx *Context, from string, output any) (string, any, error) {
	for _, e := range s.edges[from] {
		if !e.matches(output) {
			continue
		}
		input, err := e.convert(ctx, output)
		if err != nil {
			return "", nil, &NodeError{Node: from, Op: "edge transform to " + e.to, Err: err}
		}
		return e.to, input, nil
	}
	return "", nil, &StuckError{Node: from, Output: output}
}

// assignable reports whether a runtime value can be passed where the
// given static type is expected.
func assignable(v any, want reflect.Type) bool {
	if v == nil {
		// Untyped nil satisfies only nilable types.
		switch want.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
			return true
		}
		return false
	}
	got := reflect.TypeOf(v)
	if got == want {
		return true
	}
	return want.Kind() == reflect.Interface && got.Implements(want)
}
