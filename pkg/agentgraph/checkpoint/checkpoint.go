package checkpoint

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/llm"
)

// Version is the current checkpoint format version.
// Increment when making breaking changes to checkpoint structure.
const Version = 1

// Checkpoint is the persisted snapshot of a run's execution point:
// the node just executed, the input it received, and the conversation
// history at that moment. It contains everything needed to re-enter the
// graph at that node.
//
// Checkpoints are immutable once written.
type Checkpoint struct {
	// Metadata
	Version   int       `json:"version"`
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	NodeID    string    `json:"node_id"`
	Sequence  int64     `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`

	// Execution state. InputType is the Go type name of the decoded
	// input; it is validated against the node's declared input type on
	// restore.
	Input     json.RawMessage `json:"input"`
	InputType string          `json:"input_type"`

	// Conversation state.
	Messages []llm.Message `json:"messages"`
}

// New creates a checkpoint with a fresh ID and the current timestamp.
// Input must already be JSON-serialized.
func New(runID, nodeID string, seq int64, input []byte, inputType string, messages []llm.Message) *Checkpoint {
	return &Checkpoint{
		Version:   Version,
		ID:        uuid.New().String(),
		RunID:     runID,
		NodeID:    nodeID,
		Sequence:  seq,
		CreatedAt: time.Now().UTC(),
		Input:     input,
		InputType: inputType,
		Messages:  messages,
	}
}

// Marshal serializes a checkpoint to JSON.
func (c *Checkpoint) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// Unmarshal deserializes a checkpoint from JSON.
func Unmarshal(data []byte) (*Checkpoint, error) {
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
