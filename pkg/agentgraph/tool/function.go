package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
)

// FunctionTool wraps an ordinary Go function as a Tool. The argument
// schema is generated reflectively from the input type I.
type FunctionTool[I, O any] struct {
	descriptor Descriptor
	fn         func(ctx context.Context, input I) (O, error)
}

// NewFunctionTool creates a tool from a function. The parameter schema
// is derived from I's struct fields.
//
// Panics if name is empty or fn is nil.
func NewFunctionTool[I, O any](name, description string, fn func(ctx context.Context, input I) (O, error)) *FunctionTool[I, O] {
	if name == "" {
		panic("tool: name cannot be empty")
	}
	if fn == nil {
		panic("tool: function cannot be nil")
	}

	var zero I
	return &FunctionTool[I, O]{
		descriptor: Descriptor{
			Name:        name,
			Description: description,
			Parameters:  SchemaFor(reflect.TypeOf(zero)),
		},
		fn: fn,
	}
}

// Descriptor implements Tool.
func (t *FunctionTool[I, O]) Descriptor() Descriptor {
	return t.descriptor
}

// Call implements Tool. Malformed JSON arguments are reported as an
// *ArgumentError so the caller can distinguish decode failures from
// execution failures.
func (t *FunctionTool[I, O]) Call(ctx context.Context, args json.RawMessage) (any, error) {
	var input I
	if len(args) > 0 {
		if err := json.Unmarshal(args, &input); err != nil {
			return nil, &ArgumentError{Tool: t.descriptor.Name, Err: err}
		}
	}

	out, err := t.fn(ctx, input)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ArgumentError reports that tool arguments could not be decoded.
type ArgumentError struct {
	Tool string
	Err  error
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("tool %s: decode arguments: %v", e.Tool, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *ArgumentError) Unwrap() error {
	return e.Err
}
