package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndGet(t *testing.T) {
	r := New[string, int]()
	assert.Equal(t, 0, r.Len())

	r.Register("a", 1)
	r.Register("b", 2)

	v, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = r.Get("missing")
	assert.False(t, ok)

	assert.True(t, r.Has("b"))
	assert.Equal(t, 2, r.Len())

	// Register overwrites.
	r.Register("a", 10)
	v, _ = r.Get("a")
	assert.Equal(t, 10, v)
}

func TestRegisterMany(t *testing.T) {
	r := New[string, string]()
	r.RegisterMany(map[string]string{"x": "1", "y": "2"})

	assert.Equal(t, 2, r.Len())
	assert.ElementsMatch(t, []string{"x", "y"}, r.Keys())
}

func TestDelete(t *testing.T) {
	r := New[string, int]()
	r.Register("a", 1)
	r.Delete("a")
	assert.False(t, r.Has("a"))

	// Deleting a missing key is a no-op.
	r.Delete("a")
	assert.Equal(t, 0, r.Len())
}

func TestRangeStopsEarly(t *testing.T) {
	r := New[string, int]()
	r.RegisterMany(map[string]int{"a": 1, "b": 2, "c": 3})

	seen := 0
	r.Range(func(string, int) bool {
		seen++
		return seen < 2
	})
	assert.Equal(t, 2, seen)
}

func TestRangeAllowsMutation(t *testing.T) {
	r := New[string, int]()
	r.RegisterMany(map[string]int{"a": 1, "b": 2})

	r.Range(func(k string, _ int) bool {
		r.Delete(k)
		return true
	})
	assert.Equal(t, 0, r.Len())
}

func TestGetOrCreate(t *testing.T) {
	r := New[string, *sync.Map]()

	created := 0
	factory := func() *sync.Map {
		created++
		return &sync.Map{}
	}

	first := r.GetOrCreate("shared", factory)
	second := r.GetOrCreate("shared", factory)

	assert.Same(t, first, second)
	assert.Equal(t, 1, created)
}

func TestGetOrCreateConcurrent(t *testing.T) {
	r := New[string, int]()

	var mu sync.Mutex
	created := 0

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.GetOrCreate("key", func() int {
				mu.Lock()
				created++
				mu.Unlock()
				return 42
			})
		}()
	}
	wg.Wait()

	v, ok := r.Get("key")
	require.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, created)
}
