// Package bus provides an internal event bus for component communication
package bus

import (
	"sync"
)

// EventType identifies different event types
type EventType string

// Event types for Zy
const (
	// Model events
	EventTypeModelReady    EventType = "model.ready"
	EventTypeModelUnloaded EventType = "model.unloaded"
	EventTypeModelError    EventType = "model.error"

	// Pose events
	EventTypePoseChanged EventType = "pose.changed"

	// Sequence events
	EventTypeSequenceChanged  EventType = "sequence.changed"
	EventTypeSequenceProgress EventType = "sequence.progress"
	EventTypeSequenceDone     EventType = "sequence.done"

	// Selection events
	EventTypeSelectionChanged EventType = "selection.changed"

	// Chat events
	EventTypeChatMessage EventType = "chat.message"

	// Notification events
	EventTypeNotice EventType = "notify.notice"
)

// Event represents a bus event
type Event struct {
	Type EventType
	Data map[string]any
}

// Handler is a function that handles events
type Handler func(Event)

// EventBus is a simple pub/sub event bus
type EventBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for an event type
func (b *EventBus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish calls each handler for the event's type in subscription order
// on the caller's goroutine. Handlers must not block.
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type]))
	copy(handlers, b.handlers[event.Type])
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
