// Package tool defines the tool contract consumed by the agent engine:
// a descriptor (name, description, parameter schema) plus an execute
// function taking JSON-encoded arguments.
//
// Tools are resolved by name from a Registry. Use NewFunctionTool to wrap
// an ordinary Go function as a tool with a reflectively generated schema.
package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound indicates a tool name could not be resolved in the registry.
var ErrNotFound = errors.New("tool not found")

// Tool is an external capability invocable by name with structured
// arguments, yielding a structured result.
type Tool interface {
	// Descriptor returns the metadata describing the tool.
	Descriptor() Descriptor

	// Call executes the tool with JSON-encoded arguments.
	// A *ValidationError return marks the arguments as semantically
	// invalid; any other error is an execution failure.
	Call(ctx context.Context, args json.RawMessage) (any, error)
}

// Descriptor describes a tool to the LLM: its name, purpose, and the
// JSON schema of its arguments.
type Descriptor struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// Schema is a JSON Schema fragment describing tool parameters.
// It supports the subset of JSON Schema that chat-completion APIs accept
// for function parameters.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
}

// ValidationError reports that decoded arguments failed the tool's own
// semantic validation. The engine converts it into a structured
// validation-failure result instead of an execution failure.
type ValidationError struct {
	Tool   string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("tool %s: invalid arguments: %s", e.Tool, e.Reason)
}

// Validate creates a ValidationError for the given tool.
func Validate(tool, reason string) *ValidationError {
	return &ValidationError{Tool: tool, Reason: reason}
}
