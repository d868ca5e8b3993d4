// Package notify provides the queue-change notification port: an
// in-process broker for single-node deployments and tests, and a Redis
// pub/sub bridge for multi-node ones.
package notify

import "sync"

// Broker fans queue-change events out to in-process subscribers.
// Delivery is at-least-once and unordered; handlers must tolerate
// repeated notifications for the same id.
type Broker struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]func(queueID string)
}

// NewBroker returns an empty in-process broker.
func NewBroker() *Broker {
	return &Broker{handlers: make(map[int]func(queueID string))}
}

// Publish notifies every subscriber that the queue changed.
func (b *Broker) Publish(queueID string) {
	b.mu.RLock()
	handlers := make([]func(string), 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(queueID)
	}
}

// Subscribe registers a handler and returns its unsubscribe function.
func (b *Broker) Subscribe(handler func(queueID string)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}
