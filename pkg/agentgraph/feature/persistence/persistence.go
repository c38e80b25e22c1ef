// Package persistence snapshots run state into a checkpoint store and
// rebuilds it: rollback within a run, and resume of a previous run.
//
// The engine never checkpoints on its own. This feature does it either
// continuously (after every node) or on demand via Create, and turns a
// checkpoint back into live state by replacing the session history and
// installing an execution point at the checkpointed node.
package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/checkpoint"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/observability"
)

// Key is the feature's pipeline key.
const Key agentgraph.FeatureKey = "persistence"

var (
	// ErrNoStore indicates the agent has no checkpoint store
	// configured.
	ErrNoStore = errors.New("no checkpoint store configured")

	// ErrNoCheckpoint indicates a rollback or resume found no
	// checkpoint for the run.
	ErrNoCheckpoint = errors.New("no checkpoint for run")

	// ErrCheckpointType indicates a checkpoint's stored input type does
	// not match the node's declared input type.
	ErrCheckpointType = errors.New("checkpoint input type mismatch")
)

// Feature installs checkpoint behavior on an agent.
type Feature struct {
	continuous  bool
	resumeRunID string
}

// FeatureOption configures the feature.
type FeatureOption func(*Feature)

// WithContinuous checkpoints after every executed node, the implicit
// start node included.
func WithContinuous() FeatureOption {
	return func(f *Feature) { f.continuous = true }
}

// WithResumeRun restores the latest checkpoint of a previous run when a
// new run starts, continuing that run's work under a new run ID. A
// restore failure is logged and the run starts fresh.
func WithResumeRun(runID string) FeatureOption {
	return func(f *Feature) { f.resumeRunID = runID }
}

// New creates the feature.
func New(opts ...FeatureOption) *Feature {
	f := &Feature{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Key implements agentgraph.Feature.
func (f *Feature) Key() agentgraph.FeatureKey { return Key }

// Install implements agentgraph.Feature.
func (f *Feature) Install(p *agentgraph.Pipeline) {
	if f.resumeRunID != "" {
		p.InterceptRunStart(Key, func(_ agentgraph.InterceptContext, e agentgraph.RunEvent) {
			if err := resumeFrom(e.Context, f.resumeRunID); err != nil {
				e.Context.Logger().Warn("resume failed, starting fresh",
					"resume_run_id", f.resumeRunID, "error", err.Error())
			}
		})
	}

	if f.continuous {
		p.InterceptNodeFinish(Key, func(_ agentgraph.InterceptContext, e agentgraph.NodeEvent) {
			if e.Node.Name() == agentgraph.FinishNode {
				return
			}
			if _, err := Create(e.Context, e.Node.Name(), e.Input); err != nil {
				e.Context.Logger().Warn("checkpoint failed",
					"node", e.Node.Name(), "error", err.Error())
			}
		})
	}
}

// Create snapshots the run at the given node: the input that node
// receives and the conversation history as it stands.
func Create(ctx *agentgraph.Context, nodeID string, input any) (*checkpoint.Checkpoint, error) {
	store := ctx.CheckpointStore()
	if store == nil {
		return nil, ErrNoStore
	}
	node, ok := ctx.Strategy().Node(nodeID)
	if !ok {
		return nil, fmt.Errorf("checkpoint: unknown node %q", nodeID)
	}

	raw, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: marshal input for node %q: %w", nodeID, err)
	}

	cp := checkpoint.New(
		ctx.RunID(),
		nodeID,
		ctx.NextSequence(),
		raw,
		node.InputType().String(),
		ctx.Session().History(),
	)
	if err := store.Save(cp); err != nil {
		return nil, fmt.Errorf("checkpoint: save: %w", err)
	}

	observability.LogCheckpoint(ctx.Logger(), nodeID, cp.Sequence)
	return cp, nil
}

// List returns the run's checkpoints, oldest to newest.
func List(ctx *agentgraph.Context) ([]*checkpoint.Checkpoint, error) {
	store := ctx.CheckpointStore()
	if store == nil {
		return nil, ErrNoStore
	}
	return store.List(ctx.RunID())
}

// Latest returns the run's newest checkpoint, or ErrNoCheckpoint.
func Latest(ctx *agentgraph.Context) (*checkpoint.Checkpoint, error) {
	store := ctx.CheckpointStore()
	if store == nil {
		return nil, ErrNoStore
	}
	cp, err := store.Latest(ctx.RunID())
	if errors.Is(err, checkpoint.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNoCheckpoint, ctx.RunID())
	}
	return cp, err
}

// Restore rebuilds run state from a checkpoint: the session history is
// replaced and an execution point is installed at the checkpointed
// node. The graph picks the point up on its next entry.
func Restore(ctx *agentgraph.Context, cp *checkpoint.Checkpoint) error {
	node, ok := ctx.Strategy().Node(cp.NodeID)
	if !ok {
		return fmt.Errorf("restore: strategy has no node %q", cp.NodeID)
	}

	input, err := decodeInput(node, cp)
	if err != nil {
		return err
	}

	ctx.Session().ReplaceHistory(cp.Messages)
	if err := ctx.SetExecutionPoint(cp.NodeID, input); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	return nil
}

// Rollback restores the given checkpoint and returns the re-entry
// signal to propagate out of the calling node:
//
//	return zero, persistence.Rollback(ctx, cp)
func Rollback(ctx *agentgraph.Context, cp *checkpoint.Checkpoint) error {
	if err := Restore(ctx, cp); err != nil {
		return err
	}
	return agentgraph.Reenter(fmt.Sprintf("rollback to node %q (seq %d)", cp.NodeID, cp.Sequence))
}

// RollbackToLatest restores the run's newest checkpoint. Like Rollback,
// the returned error is the re-entry signal on success.
func RollbackToLatest(ctx *agentgraph.Context) error {
	cp, err := Latest(ctx)
	if err != nil {
		return err
	}
	return Rollback(ctx, cp)
}

// resumeFrom loads another run's newest checkpoint into this run.
func resumeFrom(ctx *agentgraph.Context, runID string) error {
	store := ctx.CheckpointStore()
	if store == nil {
		return ErrNoStore
	}
	cp, err := store.Latest(runID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNoCheckpoint, runID)
	}
	if err != nil {
		return err
	}
	return Restore(ctx, cp)
}

func decodeInput(node agentgraph.Node, cp *checkpoint.Checkpoint) (any, error) {
	want := node.InputType()
	if cp.InputType != want.String() {
		return nil, fmt.Errorf("%w: checkpoint holds %s, node %q expects %s",
			ErrCheckpointType, cp.InputType, cp.NodeID, want)
	}

	ptr := reflect.New(want)
	if err := json.Unmarshal(cp.Input, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("restore: decode input for node %q: %w", cp.NodeID, err)
	}
	return ptr.Elem().Interface(), nil
}
