// Package checkpoint provides persisted execution snapshots and the
// storage backends that hold them.
//
// A Store keys checkpoints by run ID and orders them by sequence. The
// engine appends; rollback reads the newest entry for a run.
package checkpoint

import "errors"

// Store persists checkpoints for resume and rollback.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save appends a checkpoint for its run.
	Save(cp *Checkpoint) error

	// List returns all checkpoints for a run, ordered oldest to newest.
	// Returns an empty slice (not an error) if the run has none.
	List(runID string) ([]*Checkpoint, error)

	// Latest returns the newest checkpoint for a run.
	// Returns ErrNotFound if the run has no checkpoints.
	Latest(runID string) (*Checkpoint, error)

	// DeleteRun removes all checkpoints for a run.
	// Returns nil if the run has no checkpoints.
	DeleteRun(runID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for checkpoint storage.
var (
	// ErrNotFound indicates a run has no checkpoints.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("checkpoint store closed")

	// ErrVersionMismatch indicates an incompatible checkpoint format.
	ErrVersionMismatch = errors.New("checkpoint version mismatch")
)
