// Package event provides an in-memory pub/sub bus for run lifecycle
// events. The engine itself does not publish here; the events feature
// bridges pipeline events onto a bus so external consumers can observe
// runs without registering pipeline handlers.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Event types published by the events feature.
const (
	TypeRunStarted   = "run.started"
	TypeRunCompleted = "run.completed"
	TypeRunFailed    = "run.failed"
	TypeNodeStarted  = "node.started"
	TypeNodeFinished = "node.finished"
	TypeNodeFailed   = "node.failed"
	TypeLLMRequested = "llm.requested"
	TypeLLMResponded = "llm.responded"
	TypeToolCalled   = "tool.called"
	TypeToolReturned = "tool.returned"
	TypeToolRejected = "tool.rejected"
	TypeToolFailed   = "tool.failed"
)

// Event is one lifecycle occurrence within a run. Events are immutable
// once published.
type Event struct {
	// ID is the unique event identifier.
	ID string

	// Type is one of the Type constants.
	Type string

	// RunID identifies the run the event belongs to.
	RunID string

	// Timestamp is when the event occurred.
	Timestamp time.Time

	// Payload carries type-specific detail. The events feature
	// publishes the engine's event payload values here.
	Payload any
}

// New creates an event with a fresh ID and the current timestamp.
func New(eventType, runID string, payload any) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		RunID:     runID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// Handler consumes events from a subscription.
type Handler func(evt Event)
