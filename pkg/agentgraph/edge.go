package agentgraph

import (
	"reflect"
)

// Edge is a directed, optionally conditional connection between two
// nodes. An edge carries a predicate deciding whether it accepts a
// source output, and a transform converting the accepted output into
// the target node's input.
//
// Edges are created with Forward, ForwardIf, Transform and TransformIf;
// their type parameters bind the source output type and target input
// type, which Build validates against the declared node types.
type Edge struct {
	from string
	to   string

	outType reflect.Type
	inType  reflect.Type

	// accepts reports whether this edge matches the source output.
	// A nil accepts is unconditional.
	accepts func(output any) bool

	// convert maps the source output to the target input. Never nil
	// after construction.
	convert func(ctx *Context, output any) (any, error)
}

// From returns the source node name.
func (e Edge) From() string { return e.from }

// To returns the target node name.
func (e Edge) To() string { return e.to }

// Forward creates an unconditional edge that passes the source output
// through unchanged. The source output type and target input type must
// both be T.
func Forward[T any](from, to string) Edge {
	return Edge{
		from:    from,
		to:      to,
		outType: reflect.TypeFor[T](),
		inType:  reflect.TypeFor[T](),
		convert: func(_ *Context, output any) (any, error) {
			return output, nil
		},
	}
}

// ForwardIf creates a conditional edge that passes the source output
// through unchanged when pred returns true.
func ForwardIf[T any](from, to string, pred func(output T) bool) Edge {
	e := Forward[T](from, to)
	e.accepts = func(output any) bool {
		v, ok := output.(T)
		return ok && pred(v)
	}
	return e
}

// Transform creates an unconditional edge that converts the source
// output into the target input.
func Transform[O, I any](from, to string, fn func(ctx *Context, output O) (I, error)) Edge {
	return Edge{
		from:    from,
		to:      to,
		outType: reflect.TypeFor[O](),
		inType:  reflect.TypeFor[I](),
		convert: func(ctx *Context, output any) (any, error) {
			v, ok := output.(O)
			if !ok {
				return nil, &NodeError{
					Node: from,
					Op:   "edge transform",
					Err:  ErrTypeMismatch,
				}
			}
			return fn(ctx, v)
		},
	}
}

// TransformIf creates a conditional edge that converts the source
// output into the target input when pred returns true. The predicate is
// evaluated before the transform; a rejected output leaves the
// transform uncalled.
func TransformIf[O, I any](from, to string, pred func(output O) bool, fn func(ctx *Context, output O) (I, error)) Edge {
	e := Transform[O, I](from, to, fn)
	e.accepts = func(output any) bool {
		v, ok := output.(O)
		return ok && pred(v)
	}
	return e
}

// matches reports whether the edge accepts the given source output.
func (e Edge) matches(output any) bool {
	if e.accepts == nil {
		return true
	}
	return e.accepts(output)
}
