package mock

import (
	"context"

	"github.com/chen893/radar"
)

// Compile-time interface verification.
var (
	_ radar.Dispatcher  = (*Dispatcher)(nil)
	_ radar.EventSource = (*EventSource)(nil)
)

// Dispatcher is a mock implementation of radar.Dispatcher.
type Dispatcher struct {
	RequestFn func(ctx context.Context, msg radar.Message) radar.Response
}

func (d *Dispatcher) Request(ctx context.Context, msg radar.Message) radar.Response {
	return d.RequestFn(ctx, msg)
}

// EventSource is a mock implementation of radar.EventSource.
type EventSource struct {
	SubscribeFn func(buffer int) (<-chan radar.Event, func())
}

func (e *EventSource) Subscribe(buffer int) (<-chan radar.Event, func()) {
	return e.SubscribeFn(buffer)
}
