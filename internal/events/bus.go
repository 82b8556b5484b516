// Package events provides a simple publish-subscribe event bus for SSE delivery.
package events

import (
	"sync"

	"github.com/micro-nova/acodec-go/internal/models"
)

const subBufferSize = 8

// Kind names the SSE event type.
type Kind string

const (
	KindStatus Kind = "status"
	KindJack   Kind = "jack"
)

// Event is one bus message: a status snapshot or a jack report.
type Event struct {
	Kind   Kind
	Status models.Status
	Jack   models.JackEvent
}

// Payload returns the value to encode for the event's kind.
func (e Event) Payload() any {
	if e.Kind == KindJack {
		return e.Jack
	}
	return e.Status
}

// Bus is a non-blocking publish-subscribe event bus.
// Subscribers that are slow to consume events will have events dropped rather
// than blocking publishers.
type Bus struct {
	mu   sync.Mutex
	subs map[string]chan Event
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[string]chan Event),
	}
}

// Subscribe creates a new subscription with the given ID.
// Call Unsubscribe when done to clean up.
func (b *Bus) Subscribe(id string) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, subBufferSize)
	b.subs[id] = ch
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish sends an event to all subscribers.
// If a subscriber's channel is full, the event is dropped (non-blocking).
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Drop if subscriber is slow
		}
	}
}

// PublishStatus publishes a status snapshot.
func (b *Bus) PublishStatus(s models.Status) {
	b.Publish(Event{Kind: KindStatus, Status: s})
}

// PublishJack publishes a jack report.
func (b *Bus) PublishJack(j models.JackEvent) {
	b.Publish(Event{Kind: KindJack, Jack: j})
}

// SubscriberCount returns the current number of subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
