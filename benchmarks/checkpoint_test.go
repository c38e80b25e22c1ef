package benchmarks

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/checkpoint"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/feature/persistence"
	"github.com/randalmurphal/agentgraph/pkg/agentgraph/llm"
)

// LargeState approximates a realistic checkpoint payload.
type LargeState struct {
	ID       string
	Values   []int
	Metadata map[string]string
	Nested   struct {
		A string
		B int
		C []string
	}
}

func createLargeState() LargeState {
	s := LargeState{
		ID:     "bench-id",
		Values: []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		Metadata: map[string]string{
			"key1": "value1",
			"key2": "value2",
			"key3": "value3",
		},
	}
	s.Nested.A = "nested-a"
	s.Nested.B = 42
	s.Nested.C = []string{"c1", "c2", "c3"}
	return s
}

func benchCheckpoint() *checkpoint.Checkpoint {
	input, _ := json.Marshal(createLargeState())
	messages := []llm.Message{
		llm.NewSystemMessage("you are a benchmark"),
		llm.NewUserMessage("hello"),
		llm.NewAssistantMessage("hi"),
	}
	return checkpoint.New("run-1", "node-1", 0, input, "benchmarks.LargeState", messages)
}

// BenchmarkMemoryStore_Save measures in-memory checkpoint save.
func BenchmarkMemoryStore_Save(b *testing.B) {
	store := checkpoint.NewMemoryStore()
	cp := benchCheckpoint()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Save(cp)
	}
}

// BenchmarkMemoryStore_Latest measures in-memory checkpoint lookup.
func BenchmarkMemoryStore_Latest(b *testing.B) {
	store := checkpoint.NewMemoryStore()
	_ = store.Save(benchCheckpoint())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Latest("run-1")
	}
}

// BenchmarkSQLiteStore_Save measures SQLite checkpoint save.
func BenchmarkSQLiteStore_Save(b *testing.B) {
	store, err := checkpoint.NewSQLiteStore(filepath.Join(b.TempDir(), "bench.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()
	cp := benchCheckpoint()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Save(cp)
	}
}

// BenchmarkSQLiteStore_Latest measures SQLite checkpoint lookup.
func BenchmarkSQLiteStore_Latest(b *testing.B) {
	store, err := checkpoint.NewSQLiteStore(filepath.Join(b.TempDir(), "bench.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()
	_ = store.Save(benchCheckpoint())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Latest("run-1")
	}
}

// BenchmarkRun_WithCheckpointing measures execution with continuous
// checkpointing enabled.
func BenchmarkRun_WithCheckpointing(b *testing.B) {
	agent := mustAgent(b, buildLinear(5),
		agentgraph.WithCheckpointStore(checkpoint.NewMemoryStore()),
		agentgraph.WithFeature(persistence.New(persistence.WithContinuous())),
	)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = agent.Run(ctx, State{})
	}
}

// BenchmarkRun_WithoutCheckpointing is the baseline for the above.
func BenchmarkRun_WithoutCheckpointing(b *testing.B) {
	agent := mustAgent(b, buildLinear(5))
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = agent.Run(ctx, State{})
	}
}

// BenchmarkCheckpointMarshal measures checkpoint serialization.
func BenchmarkCheckpointMarshal(b *testing.B) {
	cp := benchCheckpoint()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = cp.Marshal()
	}
}

// BenchmarkCheckpointUnmarshal measures checkpoint deserialization.
func BenchmarkCheckpointUnmarshal(b *testing.B) {
	data, err := benchCheckpoint().Marshal()
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = checkpoint.Unmarshal(data)
	}
}
