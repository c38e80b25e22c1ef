package checkpoint

import (
	"sync"
)

// MemoryStore is an in-memory checkpoint store for testing and
// single-process runs. Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string][]*Checkpoint // runID -> checkpoints, append order
	seq    map[string]int64
	closed bool
}

// NewMemoryStore creates a new in-memory checkpoint store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string][]*Checkpoint),
		seq:  make(map[string]int64),
	}
}

// Save implements Store. A zero sequence is assigned the next sequence
// number for the run.
func (m *MemoryStore) Save(cp *Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	stored := *cp
	if stored.Sequence == 0 {
		m.seq[cp.RunID]++
		stored.Sequence = m.seq[cp.RunID]
	} else if stored.Sequence > m.seq[cp.RunID] {
		m.seq[cp.RunID] = stored.Sequence
	}

	m.data[cp.RunID] = append(m.data[cp.RunID], &stored)
	return nil
}

// List implements Store.
func (m *MemoryStore) List(runID string) ([]*Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	cps := m.data[runID]
	out := make([]*Checkpoint, len(cps))
	for i, cp := range cps {
		copied := *cp
		out[i] = &copied
	}
	return out, nil
}

// Latest implements Store.
func (m *MemoryStore) Latest(runID string) (*Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	cps := m.data[runID]
	if len(cps) == 0 {
		return nil, ErrNotFound
	}

	copied := *cps[len(cps)-1]
	return &copied, nil
}

// DeleteRun implements Store.
func (m *MemoryStore) DeleteRun(runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.data, runID)
	delete(m.seq, runID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.data = nil
	m.seq = nil
	return nil
}

// Len returns the total number of checkpoints across all runs.
// Useful for testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, cps := range m.data {
		count += len(cps)
	}
	return count
}
