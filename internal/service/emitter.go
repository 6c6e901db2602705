package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: change notifications for page observers
// ─────────────────────────────────────────────────────────────

// EventEmitter receives a notification after every committed change.
// Emission happens outside the transaction and cannot fail the operation.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// LogEmitter writes every event to a zerolog logger at debug level.
type LogEmitter struct {
	Log zerolog.Logger
}

func (e LogEmitter) Emit(_ context.Context, event string, data any) {
	e.Log.Debug().Str("event", event).Interface("data", data).Msg("emit")
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Count returns how many times event was emitted.
func (m *MockEmitter) Count(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Events {
		if e.Event == event {
			n++
		}
	}
	return n
}
