package audit

import (
	"context"
	"sync"
)

// Memory keeps the most recent events in a fixed-size ring.
type Memory struct {
	mu     sync.RWMutex
	events []SecurityEvent
	next   int
	full   bool
}

// NewMemory creates a ring holding up to capacity events.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = 1
	}
	return &Memory{events: make([]SecurityEvent, capacity)}
}

// Record implements Recorder.
func (m *Memory) Record(_ context.Context, event SecurityEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events[m.next] = event
	m.next = (m.next + 1) % len(m.events)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

// Recent returns up to limit events, newest first. limit <= 0 returns all.
func (m *Memory) Recent(limit int) []SecurityEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := m.next
	if m.full {
		n = len(m.events)
	}
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]SecurityEvent, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (m.next - 1 - i + len(m.events)) % len(m.events)
		out = append(out, m.events[idx])
	}
	return out
}

// Len returns the number of retained events.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.full {
		return len(m.events)
	}
	return m.next
}
