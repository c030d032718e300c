package mock

import (
	"context"
	"sync"

	"github.com/Harsh-BH/chroma/internal/notify"
)

// Ensure Sink implements notify.Sink.
var _ notify.Sink = (*Sink)(nil)

// Sink records every event it receives.
type Sink struct {
	mu     sync.Mutex
	events []notify.Event

	NotifyFn func(ctx context.Context, event notify.Event) error
}

func (m *Sink) Notify(ctx context.Context, event notify.Event) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	if m.NotifyFn != nil {
		return m.NotifyFn(ctx, event)
	}
	return nil
}

// Events returns a copy of the recorded events.
func (m *Sink) Events() []notify.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.Event(nil), m.events...)
}
