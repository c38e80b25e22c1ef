package checkpoint

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/llm"
)

// storeTest runs the Store contract against an implementation.
func storeTest(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("latest of empty run", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		_, err := s.Latest("missing")
		assert.ErrorIs(t, err, ErrNotFound)

		cps, err := s.List("missing")
		require.NoError(t, err)
		assert.Empty(t, cps)
	})

	t.Run("save assigns sequence", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		for range 3 {
			cp := New("run-1", "node-a", 0, []byte(`"x"`), "string", nil)
			require.NoError(t, s.Save(cp))
		}

		cps, err := s.List("run-1")
		require.NoError(t, err)
		require.Len(t, cps, 3)
		for i, cp := range cps {
			assert.Equal(t, int64(i+1), cp.Sequence)
		}
	})

	t.Run("latest returns newest", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		require.NoError(t, s.Save(New("run-1", "a", 1, []byte(`"one"`), "string", nil)))
		require.NoError(t, s.Save(New("run-1", "b", 2, []byte(`"two"`), "string", nil)))
		require.NoError(t, s.Save(New("run-2", "c", 1, []byte(`"other"`), "string", nil)))

		cp, err := s.Latest("run-1")
		require.NoError(t, err)
		assert.Equal(t, "b", cp.NodeID)
		assert.Equal(t, int64(2), cp.Sequence)
	})

	t.Run("round trip preserves state", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		messages := []llm.Message{
			{Role: llm.RoleSystem, Content: "sys", Timestamp: time.Now().UTC().Truncate(time.Millisecond)},
			{Role: llm.RoleAssistant, Content: "", Timestamp: time.Now().UTC().Truncate(time.Millisecond),
				ToolCalls: []llm.ToolCall{{ID: "c1", Name: "calc", Arguments: []byte(`{"a":2,"b":3}`)}}},
		}
		saved := New("run-1", "calc-node", 7, []byte(`{"q":"2+3"}`), "main.question", messages)
		require.NoError(t, s.Save(saved))

		loaded, err := s.Latest("run-1")
		require.NoError(t, err)

		assert.Equal(t, saved.ID, loaded.ID)
		assert.Equal(t, Version, loaded.Version)
		assert.Equal(t, "calc-node", loaded.NodeID)
		assert.Equal(t, int64(7), loaded.Sequence)
		assert.Equal(t, "main.question", loaded.InputType)
		assert.JSONEq(t, `{"q":"2+3"}`, string(loaded.Input))

		require.Len(t, loaded.Messages, 2)
		assert.Equal(t, messages[0].Content, loaded.Messages[0].Content)
		require.Len(t, loaded.Messages[1].ToolCalls, 1)
		assert.Equal(t, "calc", loaded.Messages[1].ToolCalls[0].Name)
		assert.JSONEq(t, `{"a":2,"b":3}`, string(loaded.Messages[1].ToolCalls[0].Arguments))
	})

	t.Run("delete run", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		require.NoError(t, s.Save(New("run-1", "a", 0, []byte(`"x"`), "string", nil)))
		require.NoError(t, s.Save(New("run-2", "a", 0, []byte(`"y"`), "string", nil)))

		require.NoError(t, s.DeleteRun("run-1"))

		_, err := s.Latest("run-1")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.Latest("run-2")
		assert.NoError(t, err)
	})

	t.Run("closed store rejects operations", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Close())

		assert.ErrorIs(t, s.Save(New("r", "n", 0, nil, "", nil)), ErrStoreClosed)
		_, err := s.List("r")
		assert.ErrorIs(t, err, ErrStoreClosed)
		_, err = s.Latest("r")
		assert.ErrorIs(t, err, ErrStoreClosed)
		assert.ErrorIs(t, s.DeleteRun("r"), ErrStoreClosed)
	})
}

func TestMemoryStore(t *testing.T) {
	storeTest(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	storeTest(t, func(t *testing.T) Store {
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "checkpoints.db"))
		require.NoError(t, err)
		return s
	})
}

func TestMemoryStoreCopiesOnRead(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.Save(New("run-1", "a", 1, []byte(`"x"`), "string", nil)))

	cp, err := s.Latest("run-1")
	require.NoError(t, err)
	cp.NodeID = "mutated"

	again, err := s.Latest("run-1")
	require.NoError(t, err)
	assert.Equal(t, "a", again.NodeID)
}
