package audit

import (
	"context"
	"sync"
)

// Recorder receives audit events. Implementations must not block the caller
// for long and must swallow their own I/O failures.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(ctx context.Context, event Event)

// Record calls f(ctx, event).
func (f RecorderFunc) Record(ctx context.Context, event Event) {
	f(ctx, event)
}

// MultiRecorder fans an event out to every recorder in order.
type MultiRecorder []Recorder

// Record forwards event to each non-nil recorder.
func (m MultiRecorder) Record(ctx context.Context, event Event) {
	for _, r := range m {
		if r != nil {
			r.Record(ctx, event)
		}
	}
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, Event) {}

// Nop returns a Recorder that discards every event.
func Nop() Recorder {
	return nopRecorder{}
}

// MemoryRecorder keeps events in memory, mostly for tests and previews.
type MemoryRecorder struct {
	mu     sync.Mutex
	events []Event
}

// Record appends event.
func (m *MemoryRecorder) Record(_ context.Context, event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

// Events returns a copy of the recorded events.
func (m *MemoryRecorder) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}
