// Package events carries audit run progress as typed events so the CLI
// progress stream, the API, and tests can observe a run without
// coupling to the engine.
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// Event is implemented by every published event.
type Event interface {
	EventType() string
	Timestamp() time.Time
	RunID() string
}

// BaseEvent carries the fields shared by all events and is embedded by
// the concrete event types.
type BaseEvent struct {
	Type string    `json:"type"`
	Time time.Time `json:"timestamp"`
	Run  string    `json:"run_id"`
}

func (e BaseEvent) EventType() string    { return e.Type }
func (e BaseEvent) Timestamp() time.Time { return e.Time }
func (e BaseEvent) RunID() string        { return e.Run }

// NewBaseEvent stamps a base event with the current time.
func NewBaseEvent(eventType, runID string) BaseEvent {
	return BaseEvent{Type: eventType, Time: time.Now(), Run: runID}
}

// subscription is one registered consumer. A plain subscription drops
// the oldest buffered event under pressure; a priority subscription
// blocks the publisher instead, so terminal run events are never lost.
type subscription struct {
	ch       chan Event
	types    map[string]bool // empty matches every type
	priority bool
}

func (s *subscription) wants(eventType string) bool {
	return len(s.types) == 0 || s.types[eventType]
}

// EventBus fans published events out to subscribers.
type EventBus struct {
	mu      sync.RWMutex
	subs    []*subscription
	bufSize int
	dropped int64
	closed  bool
}

// New creates a bus whose plain subscriptions buffer bufferSize events.
func New(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &EventBus{bufSize: bufferSize}
}

// Subscribe registers a consumer for the named event types, or for all
// events when none are given. The channel is closed by Close.
func (b *EventBus) Subscribe(types ...string) <-chan Event {
	sub := &subscription{
		ch:    make(chan Event, b.bufSize),
		types: make(map[string]bool, len(types)),
	}
	for _, t := range types {
		sub.types[t] = true
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, sub)
	return sub.ch
}

// SubscribePriority registers a consumer that must see every event.
// Publishes block rather than drop, so the consumer has to keep up.
func (b *EventBus) SubscribePriority() <-chan Event {
	sub := &subscription{
		ch:       make(chan Event, 50),
		types:    make(map[string]bool),
		priority: true,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, sub)
	return sub.ch
}

// Unsubscribe removes a consumer and closes its channel.
func (b *EventBus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.subs[:0]
	for _, sub := range b.subs {
		if sub.ch == ch {
			close(sub.ch)
			continue
		}
		kept = append(kept, sub)
	}
	b.subs = kept
}

// Publish delivers an event to every matching plain subscription.
// Priority subscriptions only receive events via PublishPriority.
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, sub := range b.subs {
		if !sub.priority && sub.wants(event.EventType()) {
			b.deliver(sub, event)
		}
	}
}

// PublishPriority delivers an event to all subscriptions, blocking on
// priority channels. Used for terminal events such as run completion.
func (b *EventBus) PublishPriority(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, sub := range b.subs {
		switch {
		case sub.priority:
			sub.ch <- event
		case sub.wants(event.EventType()):
			b.deliver(sub, event)
		}
	}
}

// deliver sends without blocking. When the buffer is full the oldest
// event is discarded to make room, and the drop is counted.
func (b *EventBus) deliver(sub *subscription, event Event) {
	select {
	case sub.ch <- event:
		return
	default:
	}
	select {
	case <-sub.ch:
		atomic.AddInt64(&b.dropped, 1)
	default:
	}
	select {
	case sub.ch <- event:
	default:
		atomic.AddInt64(&b.dropped, 1)
	}
}

// DroppedCount reports how many events were discarded under pressure.
func (b *EventBus) DroppedCount() int64 {
	return atomic.LoadInt64(&b.dropped)
}

// Close closes every subscriber channel. Publishes after Close are
// silently ignored.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		close(sub.ch)
	}
	b.subs = nil
}
