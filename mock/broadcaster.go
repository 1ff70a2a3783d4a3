package mock

import (
	"context"
	"sync"

	"github.com/chen893/radar"
)

// Compile-time interface verification.
var (
	_ radar.Broadcaster = (*Broadcaster)(nil)
	_ radar.Broadcaster = (*Recorder)(nil)
)

// Broadcaster is a mock implementation of radar.Broadcaster.
type Broadcaster struct {
	BroadcastFn func(ctx context.Context, ev radar.Event) error
}

func (b *Broadcaster) Broadcast(ctx context.Context, ev radar.Event) error {
	return b.BroadcastFn(ctx, ev)
}

// Recorder is a radar.Broadcaster that records every event.
// It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []radar.Event
}

func (r *Recorder) Broadcast(_ context.Context, ev radar.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []radar.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]radar.Event(nil), r.events...)
}

// Types returns the types of the recorded events in order.
func (r *Recorder) Types() []radar.EventType {
	var types []radar.EventType
	for _, ev := range r.Events() {
		types = append(types, ev.Type)
	}
	return types
}
