package node

import (
	"testing"

	"github.com/evalchain/evalchain/registry"
)

func testEvent(seq uint64, typ registry.EventType) registry.Event {
	return registry.Event{Seq: seq, Type: typ}
}

func TestEventBusSubscribeAndPublish(t *testing.T) {
	bus := NewEventBus(4)
	sub := bus.Subscribe(registry.EventTaskCreated)

	bus.Publish(testEvent(1, registry.EventTaskCreated))
	bus.Publish(testEvent(2, registry.EventEvaluationStarted)) // filtered out
	bus.Publish(testEvent(3, registry.EventTaskCreated))

	got := []uint64{}
	for len(got) < 2 {
		ev := <-sub.Chan()
		got = append(got, ev.Seq)
	}
	if got[0] != 1 || got[1] != 3 {
		t.Errorf("received seqs %v, want [1 3]", got)
	}
	select {
	case ev := <-sub.Chan():
		t.Errorf("unexpected extra event: %+v", ev)
	default:
	}
}

func TestEventBusSubscribeAll(t *testing.T) {
	bus := NewEventBus(4)
	sub := bus.Subscribe() // no filter: everything matches

	bus.Publish(testEvent(1, registry.EventTaskCreated))
	bus.Publish(testEvent(2, registry.EventEvaluationReset))

	if ev := <-sub.Chan(); ev.Seq != 1 {
		t.Errorf("first seq = %d", ev.Seq)
	}
	if ev := <-sub.Chan(); ev.Seq != 2 {
		t.Errorf("second seq = %d", ev.Seq)
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus(4)
	sub := bus.Subscribe(registry.EventTaskCreated)

	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	if _, ok := <-sub.Chan(); ok {
		t.Error("channel not closed after unsubscribe")
	}
	if n := bus.SubscriberCount(registry.EventTaskCreated); n != 0 {
		t.Errorf("subscriber count = %d, want 0", n)
	}

	// Publishing to a bus with no subscribers must not panic.
	bus.Publish(testEvent(1, registry.EventTaskCreated))
}

func TestEventBusFullSubscriberDropsEvent(t *testing.T) {
	bus := NewEventBus(1)
	sub := bus.Subscribe(registry.EventTaskCreated)

	bus.Publish(testEvent(1, registry.EventTaskCreated))
	bus.Publish(testEvent(2, registry.EventTaskCreated)) // buffer full: dropped

	if ev := <-sub.Chan(); ev.Seq != 1 {
		t.Errorf("seq = %d, want 1", ev.Seq)
	}
	select {
	case ev := <-sub.Chan():
		t.Errorf("dropped event delivered: %+v", ev)
	default:
	}
}

func TestEventBusSubscriberCount(t *testing.T) {
	bus := NewEventBus(1)
	bus.Subscribe(registry.EventTaskCreated)
	bus.Subscribe(registry.EventTaskCreated, registry.EventEvaluationReset)
	bus.Subscribe() // matches all

	if n := bus.SubscriberCount(registry.EventTaskCreated); n != 3 {
		t.Errorf("count(TaskCreated) = %d, want 3", n)
	}
	if n := bus.SubscriberCount(registry.EventEvaluationReset); n != 2 {
		t.Errorf("count(EvaluationReset) = %d, want 2", n)
	}
}

func TestEventBusClose(t *testing.T) {
	bus := NewEventBus(1)
	sub := bus.Subscribe(registry.EventTaskCreated)

	bus.Close()
	bus.Close() // idempotent

	if _, ok := <-sub.Chan(); ok {
		t.Error("subscription channel open after Close")
	}

	// Subscriptions after Close come back already closed.
	late := bus.Subscribe(registry.EventTaskCreated)
	if _, ok := <-late.Chan(); ok {
		t.Error("post-Close subscription channel open")
	}
	bus.Publish(testEvent(1, registry.EventTaskCreated)) // no panic
}
