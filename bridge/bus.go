// Package bridge routes messages from foreground contexts to command
// handlers and fans broadcasts out to every listener.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/chen893/radar"
)

// Compile-time interface verification.
var (
	_ radar.Dispatcher  = (*Bus)(nil)
	_ radar.EventSource = (*Bus)(nil)
	_ radar.Broadcaster = (*Bus)(nil)
)

// HandlerFunc answers one message type. The returned value becomes the
// response data; it is kept on failure too, so a failed task can still be
// shown to the caller.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) (any, error)

// Bus is an in-process message bridge.
type Bus struct {
	Logger *slog.Logger

	mu       sync.RWMutex
	handlers map[radar.MessageType]HandlerFunc

	subMu       sync.RWMutex
	subscribers []chan radar.Event
}

// NewBus creates an empty Bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bus{
		Logger:   logger,
		handlers: make(map[radar.MessageType]HandlerFunc),
	}
}

// Handle registers h for typ, replacing any earlier handler.
func (b *Bus) Handle(typ radar.MessageType, h HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers == nil {
		b.handlers = make(map[radar.MessageType]HandlerFunc)
	}
	b.handlers[typ] = h
}

// Request runs the handler registered for msg.Type.
func (b *Bus) Request(ctx context.Context, msg radar.Message) (resp radar.Response) {
	b.mu.RLock()
	h, ok := b.handlers[msg.Type]
	b.mu.RUnlock()
	if !ok {
		return failure(nil, radar.Errorf(radar.EINVALID, "unknown message type %q", msg.Type))
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger().Error("handler panic", "type", msg.Type, "panic", r)
			resp = failure(nil, fmt.Errorf("handler panic: %v", r))
		}
	}()

	data, err := h(ctx, msg.Payload)
	if err != nil {
		resp = failure(data, err)
		if resp.Code == radar.EINTERNAL {
			b.logger().Error("request failed", "type", msg.Type, "error", err)
		}
		return resp
	}
	return radar.Response{Success: true, Data: data}
}

// Subscribe registers a listener with room for buffer undelivered events.
// The returned function ends the subscription and closes the channel; it
// may be called more than once.
func (b *Bus) Subscribe(buffer int) (<-chan radar.Event, func()) {
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan radar.Event, buffer)

	b.subMu.Lock()
	b.subscribers = append(b.subscribers, ch)
	b.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.unsubscribe(ch) })
	}
}

func (b *Bus) unsubscribe(ch chan radar.Event) {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	for i, sub := range b.subscribers {
		if sub == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// Broadcast delivers ev to every listener without blocking. Listeners
// whose buffer is full miss the event. Having no listener is not an error.
func (b *Bus) Broadcast(ctx context.Context, ev radar.Event) error {
	b.subMu.RLock()
	defer b.subMu.RUnlock()

	dropped := 0
	for _, sub := range b.subscribers {
		select {
		case sub <- ev:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		b.logger().Debug("event dropped", "type", ev.Type, "listeners", dropped)
	}
	return nil
}

// Listeners returns the number of active subscriptions.
func (b *Bus) Listeners() int {
	b.subMu.RLock()
	defer b.subMu.RUnlock()
	return len(b.subscribers)
}

func (b *Bus) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return b.Logger
}

// failure converts err to a failed response. Task errors keep their
// classified code and message.
func failure(data any, err error) radar.Response {
	resp := radar.Response{Success: false, Data: data}
	var te *radar.TaskError
	switch {
	case errors.As(err, &te):
		resp.Code, resp.Error = te.Code, te.Message
	case errors.Is(err, context.Canceled):
		resp.Code, resp.Error = radar.ECANCELLED, "Cancelled."
	case errors.Is(err, context.DeadlineExceeded):
		resp.Code, resp.Error = radar.ETIMEOUT, "The request timed out."
	default:
		resp.Code, resp.Error = radar.ErrorCode(err), radar.ErrorMessage(err)
	}
	return resp
}
