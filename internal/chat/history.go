package chat

import (
	"sync"
	"time"
)

// DefaultMaxHistory is how many messages History keeps.
const DefaultMaxHistory = 100

// History is the in-memory conversation shown in the chat panel. It holds
// both backend exchanges and locally handled commands.
type History struct {
	mu       sync.RWMutex
	messages []Message
	limit    int
	now      func() time.Time
}

// NewHistory creates a history keeping at most limit messages. A
// non-positive limit selects DefaultMaxHistory.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultMaxHistory
	}
	return &History{limit: limit, now: time.Now}
}

// Add appends a message and returns it.
func (h *History) Add(role Role, text string) Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	m := Message{Role: role, Text: text, Timestamp: h.now()}
	h.messages = append(h.messages, m)
	if len(h.messages) > h.limit {
		h.messages = h.messages[len(h.messages)-h.limit:]
	}
	return m
}

// Messages returns a copy, oldest first.
func (h *History) Messages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Clear drops every message.
func (h *History) Clear() {
	h.mu.Lock()
	h.messages = nil
	h.mu.Unlock()
}
