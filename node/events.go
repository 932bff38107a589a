package node

import (
	"sync"
	"sync/atomic"

	"github.com/evalchain/evalchain/registry"
)

// Subscription represents a subscription to one or more registry event
// types on the EventBus.
type Subscription struct {
	id     uint64
	types  map[registry.EventType]struct{}
	ch     chan registry.Event
	bus    *EventBus
	closed atomic.Bool
}

// Chan returns a read-only channel that receives events matching the
// subscription's event types.
func (s *Subscription) Chan() <-chan registry.Event {
	return s.ch
}

// Unsubscribe removes this subscription from the event bus and closes
// the underlying channel. It is safe to call multiple times.
func (s *Subscription) Unsubscribe() {
	if s.bus != nil {
		s.bus.Unsubscribe(s)
	}
}

// EventBus fans registry events out to subscribers. It implements
// registry.EventSink with a non-blocking Publish, so it may be wired
// directly as the registry's sink. All methods are safe for concurrent
// use.
type EventBus struct {
	mu         sync.RWMutex
	subs       map[uint64]*Subscription
	nextID     uint64
	bufferSize int
	closed     bool
}

// NewEventBus creates a new EventBus. bufferSize controls the channel
// buffer for each subscription; use 0 for unbuffered channels (events
// are dropped for subscribers that are not ready).
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize < 0 {
		bufferSize = 0
	}
	return &EventBus{
		subs:       make(map[uint64]*Subscription),
		bufferSize: bufferSize,
	}
}

// Subscribe creates a subscription that receives events matching any of
// the given types. With no types, every event matches.
func (eb *EventBus) Subscribe(types ...registry.EventType) *Subscription {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		// Return a closed subscription.
		sub := &Subscription{
			ch:    make(chan registry.Event),
			types: make(map[registry.EventType]struct{}),
		}
		sub.closed.Store(true)
		close(sub.ch)
		return sub
	}

	eb.nextID++
	typeSet := make(map[registry.EventType]struct{}, len(types))
	for _, t := range types {
		typeSet[t] = struct{}{}
	}
	sub := &Subscription{
		id:    eb.nextID,
		types: typeSet,
		ch:    make(chan registry.Event, eb.bufferSize),
		bus:   eb,
	}
	eb.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes the given subscription from the bus and closes
// its channel. Safe to call multiple times or with nil.
func (eb *EventBus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	// Atomic bool ensures the channel is closed exactly once, even under
	// concurrent calls.
	if !sub.closed.CompareAndSwap(false, true) {
		return
	}

	eb.mu.Lock()
	delete(eb.subs, sub.id)
	eb.mu.Unlock()

	close(sub.ch)
}

// Publish delivers the event to all matching subscribers without
// blocking: a subscriber whose channel is full misses the event (it can
// recover from the registry's event log via EventsSince). This satisfies
// the registry.EventSink contract, which forbids blocking.
func (eb *EventBus) Publish(ev registry.Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, sub := range eb.subs {
		if sub.closed.Load() {
			continue
		}
		if len(sub.types) > 0 {
			if _, ok := sub.types[ev.Type]; !ok {
				continue
			}
		}
		select {
		case sub.ch <- ev:
		default:
			// Subscriber not keeping up; it can resync from the log.
		}
	}
}

// SubscriberCount returns the number of active subscriptions matching
// the given event type.
func (eb *EventBus) SubscriberCount(typ registry.EventType) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	count := 0
	for _, sub := range eb.subs {
		if sub.closed.Load() {
			continue
		}
		if len(sub.types) == 0 {
			count++
			continue
		}
		if _, ok := sub.types[typ]; ok {
			count++
		}
	}
	return count
}

// Close shuts down the event bus. All subscription channels are closed
// and no further events can be published.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	if eb.closed {
		eb.mu.Unlock()
		return
	}
	eb.closed = true
	subs := make([]*Subscription, 0, len(eb.subs))
	for _, sub := range eb.subs {
		subs = append(subs, sub)
	}
	eb.subs = make(map[uint64]*Subscription)
	eb.mu.Unlock()

	for _, sub := range subs {
		if sub.closed.CompareAndSwap(false, true) {
			close(sub.ch)
		}
	}
}
