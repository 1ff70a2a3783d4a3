package page_test

import (
	"context"
	"testing"
	"time"

	"github.com/chen893/radar"
	"github.com/chen893/radar/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostLimiter(t *testing.T) {
	t.Parallel()

	t.Run("implements radar.RateLimiter interface", func(t *testing.T) {
		t.Parallel()
		var _ radar.RateLimiter = page.NewHostLimiter(1, 1)
	})

	t.Run("allows immediate request when under limit", func(t *testing.T) {
		t.Parallel()

		limiter := page.NewHostLimiter(10, 1)

		start := time.Now()
		err := limiter.Wait(context.Background(), "www.reddit.com")

		require.NoError(t, err)
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("rate limits requests to same host", func(t *testing.T) {
		t.Parallel()

		limiter := page.NewHostLimiter(10, 1)
		require.NoError(t, limiter.Wait(context.Background(), "www.reddit.com"))

		start := time.Now()
		err := limiter.Wait(context.Background(), "www.reddit.com")

		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	})

	t.Run("different hosts have independent limits", func(t *testing.T) {
		t.Parallel()

		limiter := page.NewHostLimiter(10, 1)
		require.NoError(t, limiter.Wait(context.Background(), "www.reddit.com"))

		start := time.Now()
		err := limiter.Wait(context.Background(), "www.zhihu.com")

		require.NoError(t, err)
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		limiter := page.NewHostLimiter(1, 1)
		require.NoError(t, limiter.Wait(context.Background(), "example.com"))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := limiter.Wait(ctx, "example.com")

		assert.Error(t, err)
	})
}
