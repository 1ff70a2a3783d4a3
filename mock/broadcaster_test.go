package mock_test

import (
	"context"
	"sync"
	"testing"

	"github.com/chen893/radar"
	"github.com/chen893/radar/mock"
	"github.com/stretchr/testify/assert"
)

func TestRecorder_ImplementsInterface(t *testing.T) {
	t.Parallel()

	var _ radar.Broadcaster = &mock.Recorder{}
}

func TestRecorder_Broadcast(t *testing.T) {
	t.Parallel()

	t.Run("records events from concurrent callers", func(t *testing.T) {
		t.Parallel()

		r := &mock.Recorder{}
		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = r.Broadcast(context.Background(), radar.Event{Type: radar.EventTaskCreated})
			}()
		}
		wg.Wait()

		assert.Len(t, r.Events(), 10)
	})

	t.Run("returns types in order", func(t *testing.T) {
		t.Parallel()

		r := &mock.Recorder{}
		_ = r.Broadcast(context.Background(), radar.Event{Type: radar.EventTaskCreated})
		_ = r.Broadcast(context.Background(), radar.Event{Type: radar.EventTaskCompleted})

		assert.Equal(t, []radar.EventType{radar.EventTaskCreated, radar.EventTaskCompleted}, r.Types())
	})
}
