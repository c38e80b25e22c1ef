package event

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
)

// ErrBusClosed indicates a publish on a closed bus.
var ErrBusClosed = errors.New("event bus closed")

// BusConfig configures bus behavior.
type BusConfig struct {
	// BufferSize is the channel buffer per subscription. Default 256.
	BufferSize int

	// NonBlocking makes Publish drop events for subscriptions whose
	// buffer is full instead of blocking. Default false.
	NonBlocking bool

	// OnDrop is called when an event is dropped in non-blocking mode.
	OnDrop func(evt Event, subscriberID string)
}

// Bus is an in-memory pub/sub event bus. Each subscription receives
// events on its own buffered channel and runs its handler on a
// dedicated goroutine, so one slow consumer does not stall another.
type Bus struct {
	config BusConfig

	mu        sync.RWMutex
	subs      map[string]*Subscription
	byType    map[string]map[string]*Subscription
	wildcards map[string]*Subscription

	nextID  atomic.Int64
	closed  atomic.Bool
	closeCh chan struct{}
}

// NewBus creates a bus.
func NewBus(config BusConfig) *Bus {
	if config.BufferSize <= 0 {
		config.BufferSize = 256
	}
	return &Bus{
		config:    config,
		subs:      make(map[string]*Subscription),
		byType:    make(map[string]map[string]*Subscription),
		wildcards: make(map[string]*Subscription),
		closeCh:   make(chan struct{}),
	}
}

// Subscription is an active subscription on a bus.
type Subscription struct {
	id      string
	types   []string
	handler Handler
	events  chan Event
	done    chan struct{}
	bus     *Bus
}

// Subscribe registers a handler for the given event types. An empty
// types slice subscribes to all events. Returns nil on a closed bus.
func (b *Bus) Subscribe(types []string, handler Handler) *Subscription {
	if b.closed.Load() {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{
		id:      strconv.FormatInt(b.nextID.Add(1), 10),
		types:   types,
		handler: handler,
		events:  make(chan Event, b.config.BufferSize),
		done:    make(chan struct{}),
		bus:     b,
	}
	b.subs[sub.id] = sub

	if len(types) == 0 {
		b.wildcards[sub.id] = sub
	} else {
		for _, t := range types {
			if b.byType[t] == nil {
				b.byType[t] = make(map[string]*Subscription)
			}
			b.byType[t][sub.id] = sub
		}
	}

	go sub.run()
	return sub
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) *Subscription {
	return b.Subscribe(nil, handler)
}

// Publish delivers an event to all matching subscriptions. In blocking
// mode (the default) it waits for buffer space, honoring ctx
// cancellation.
func (b *Bus) Publish(ctx context.Context, evt Event) error {
	if b.closed.Load() {
		return ErrBusClosed
	}

	b.mu.RLock()
	subs := make([]*Subscription, 0, len(b.wildcards))
	for _, sub := range b.byType[evt.Type] {
		subs = append(subs, sub)
	}
	for _, sub := range b.wildcards {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		if b.config.NonBlocking {
			select {
			case sub.events <- evt:
			default:
				if b.config.OnDrop != nil {
					b.config.OnDrop(evt, sub.id)
				}
			}
			continue
		}

		select {
		case sub.events <- evt:
		case <-ctx.Done():
			return ctx.Err()
		case <-b.closeCh:
			return ErrBusClosed
		}
	}
	return nil
}

// Close shuts down the bus and all subscriptions. Buffered events may
// go undelivered.
func (b *Bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(b.closeCh)

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		close(sub.done)
	}
	return nil
}

func (s *Subscription) run() {
	for {
		select {
		case evt := <-s.events:
			s.handler(evt)
		case <-s.done:
			return
		}
	}
}

// Unsubscribe removes the subscription from its bus.
func (s *Subscription) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	if _, ok := s.bus.subs[s.id]; !ok {
		return
	}
	delete(s.bus.subs, s.id)
	delete(s.bus.wildcards, s.id)
	for _, t := range s.types {
		delete(s.bus.byType[t], s.id)
	}
	close(s.done)
}
