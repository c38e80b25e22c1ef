package agentgraph

import "sync"

// StorageKey identifies a value in a run's key-value storage. Packages
// sharing state through storage should export their keys.
type StorageKey string

// Storage is concurrency-safe key-value state scoped to a single run.
// It survives graph re-entry within the run but not across runs.
type Storage struct {
	mu   sync.RWMutex
	data map[StorageKey]any
}

func newStorage() *Storage {
	return &Storage{data: make(map[StorageKey]any)}
}

// Set stores a value under key, replacing any previous value.
func (s *Storage) Set(key StorageKey, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Get returns the value stored under key.
func (s *Storage) Get(key StorageKey) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Delete removes the value stored under key.
func (s *Storage) Delete(key StorageKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// Keys returns a snapshot of the stored keys. Order is unspecified.
func (s *Storage) Keys() []StorageKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]StorageKey, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}

// Clear removes all stored values.
func (s *Storage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[StorageKey]any)
}

// GetStored returns the value under key asserted to T. The boolean is
// false when the key is absent or holds a different type.
func GetStored[T any](s *Storage, key StorageKey) (T, bool) {
	v, ok := s.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
