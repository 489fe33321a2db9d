package hooks

import (
	"container/list"
	"sync"
)

type (
	// Bus is a non-blocking, unbounded, strict-FIFO queue of UI events. A
	// single Bus is meant to be shared process-wide: agent tools call Send
	// from whatever goroutine they happen to run on, and the UI poll loop
	// calls TryRecv from its own loop to drain whatever accumulated since the
	// last poll.
	//
	// Unlike runtime/agent/hooks.Bus, there is no Register/Subscriber fan-out
	// here: Bus models a single mpsc channel (spec.md §4.4), not a pub/sub
	// system, because the UI is the only consumer this module defines.
	Bus interface {
		// Send enqueues event and returns immediately. Send never blocks and
		// never fails: the queue is unbounded, so there is no backpressure
		// condition for a sender to observe.
		Send(event Event)

		// TryRecv removes and returns the oldest enqueued event. ok is false
		// if the queue is empty. TryRecv never blocks.
		TryRecv() (event Event, ok bool)

		// Len reports the number of events currently queued, primarily for
		// tests and diagnostics.
		Len() int
	}

	bus struct {
		mu    sync.Mutex
		queue *list.List
	}
)

// NewBus constructs an empty, ready-to-use Bus.
func NewBus() Bus {
	return &bus{queue: list.New()}
}

func (b *bus) Send(event Event) {
	b.mu.Lock()
	b.queue.PushBack(event)
	b.mu.Unlock()
}

func (b *bus) TryRecv() (Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	front := b.queue.Front()
	if front == nil {
		return Event{}, false
	}
	b.queue.Remove(front)
	return front.Value.(Event), true
}

func (b *bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queue.Len()
}

// DrainAll removes and returns every currently queued event, oldest first.
// It is a convenience wrapper over repeated TryRecv calls for UI code that
// wants to process a full batch per frame rather than one event at a time.
func DrainAll(b Bus) []Event {
	var events []Event
	for {
		event, ok := b.TryRecv()
		if !ok {
			return events
		}
		events = append(events, event)
	}
}
