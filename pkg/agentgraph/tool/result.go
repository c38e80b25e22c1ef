package tool

import (
	"encoding/json"
	"fmt"
)

// FailureKind classifies how a tool call failed.
type FailureKind string

const (
	// FailureNotFound means the call named a tool absent from the registry.
	FailureNotFound FailureKind = "not_found"

	// FailureArguments means the call's arguments could not be decoded.
	FailureArguments FailureKind = "arguments"

	// FailureValidation means decoded arguments failed the tool's own checks.
	FailureValidation FailureKind = "validation"

	// FailureExecution means the tool ran and returned an error or panicked.
	FailureExecution FailureKind = "execution"
)

// Result is the outcome of a single tool call. Exactly one of Content
// or Failure is meaningful. Results are always well-formed: a failing
// tool produces a Result with Failure set, never an error return from
// the executor.
type Result struct {
	CallID  string   `json:"call_id"`
	Tool    string   `json:"tool"`
	Content any      `json:"content,omitempty"`
	Failure *Failure `json:"failure,omitempty"`
}

// Failure describes a structured tool-call failure.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Failure == nil
}

// Text renders the result as the content of a tool-result conversation
// message: JSON for successful structured content, an error line for
// failures.
func (r Result) Text() string {
	if r.Failure != nil {
		return fmt.Sprintf("error (%s): %s", r.Failure.Kind, r.Failure.Message)
	}
	switch c := r.Content.(type) {
	case string:
		return c
	default:
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Sprintf("%v", c)
		}
		return string(data)
	}
}

// Succeed creates a successful result.
func Succeed(callID, tool string, content any) Result {
	return Result{CallID: callID, Tool: tool, Content: content}
}

// Fail creates a failed result.
func Fail(callID, tool string, kind FailureKind, message string) Result {
	return Result{
		CallID:  callID,
		Tool:    tool,
		Failure: &Failure{Kind: kind, Message: message},
	}
}
