package journal

import (
	"context"
	"sync"
)

// Memory is an in-process emitter that keeps every event, for tests and for
// serving a live game's event feed without a database round trip.
type Memory struct {
	mu     sync.RWMutex
	events map[string][]Event
}

// NewMemory creates an empty in-memory emitter.
func NewMemory() *Memory {
	return &Memory{events: make(map[string][]Event)}
}

// Emit appends the event to its game's stream.
func (m *Memory) Emit(ctx context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.GameID] = append(m.events[event.GameID], event)
	return nil
}

// Events returns a copy of the game's stream in emission order.
func (m *Memory) Events(gameID string) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Event(nil), m.events[gameID]...)
}

// Tee fans one event stream out to several emitters, failing on the first
// error so upstream sees at-least-once semantics per sink.
type Tee []Emitter

// Emit sends the event to every sink in order.
func (t Tee) Emit(ctx context.Context, event Event) error {
	for _, emitter := range t {
		if err := emitter.Emit(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
