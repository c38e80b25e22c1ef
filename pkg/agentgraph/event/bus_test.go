package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collector gathers delivered events behind a mutex; handlers run on
// subscription goroutines.
type collector struct {
	mu     sync.Mutex
	events []Event
	seen   chan struct{}
}

func newCollector() *collector {
	return &collector{seen: make(chan struct{}, 64)}
}

func (c *collector) handle(evt Event) {
	c.mu.Lock()
	c.events = append(c.events, evt)
	c.mu.Unlock()
	c.seen <- struct{}{}
}

func (c *collector) wait(t *testing.T, n int) []Event {
	t.Helper()
	for range n {
		select {
		case <-c.seen:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for events")
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

func TestBusDeliversByType(t *testing.T) {
	bus := NewBus(BusConfig{})
	defer bus.Close()

	nodeEvents := newCollector()
	all := newCollector()

	bus.Subscribe([]string{TypeNodeStarted}, nodeEvents.handle)
	bus.SubscribeAll(all.handle)

	require.NoError(t, bus.Publish(context.Background(), New(TypeNodeStarted, "run-1", nil)))
	require.NoError(t, bus.Publish(context.Background(), New(TypeToolCalled, "run-1", nil)))

	got := nodeEvents.wait(t, 1)
	require.Len(t, got, 1)
	assert.Equal(t, TypeNodeStarted, got[0].Type)
	assert.Equal(t, "run-1", got[0].RunID)
	assert.NotEmpty(t, got[0].ID)

	assert.Len(t, all.wait(t, 2), 2)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus(BusConfig{})
	defer bus.Close()

	c := newCollector()
	sub := bus.Subscribe([]string{TypeRunStarted}, c.handle)

	require.NoError(t, bus.Publish(context.Background(), New(TypeRunStarted, "r", nil)))
	c.wait(t, 1)

	sub.Unsubscribe()
	require.NoError(t, bus.Publish(context.Background(), New(TypeRunStarted, "r", nil)))

	time.Sleep(50 * time.Millisecond)
	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Len(t, c.events, 1)
}

func TestBusClosed(t *testing.T) {
	bus := NewBus(BusConfig{})
	require.NoError(t, bus.Close())

	err := bus.Publish(context.Background(), New(TypeRunStarted, "r", nil))
	assert.ErrorIs(t, err, ErrBusClosed)
	assert.Nil(t, bus.Subscribe(nil, func(Event) {}))

	// Close twice is fine.
	assert.NoError(t, bus.Close())
}

func TestBusNonBlockingDrops(t *testing.T) {
	dropped := make(chan string, 1)
	bus := NewBus(BusConfig{
		BufferSize:  1,
		NonBlocking: true,
		OnDrop: func(_ Event, subscriberID string) {
			select {
			case dropped <- subscriberID:
			default:
			}
		},
	})
	defer bus.Close()

	block := make(chan struct{})
	bus.SubscribeAll(func(Event) { <-block })

	// First event occupies the handler, second fills the buffer, third
	// drops.
	for range 3 {
		require.NoError(t, bus.Publish(context.Background(), New(TypeRunStarted, "r", nil)))
	}

	select {
	case <-dropped:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a dropped event")
	}
	close(block)
}

func TestBusPublishHonorsContext(t *testing.T) {
	bus := NewBus(BusConfig{BufferSize: 1})
	defer bus.Close()

	block := make(chan struct{})
	defer close(block)
	bus.SubscribeAll(func(Event) { <-block })

	// Fill the handler and the buffer.
	require.NoError(t, bus.Publish(context.Background(), New(TypeRunStarted, "r", nil)))
	require.NoError(t, bus.Publish(context.Background(), New(TypeRunStarted, "r", nil)))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := bus.Publish(ctx, New(TypeRunStarted, "r", nil))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
