package mock

import (
	"context"

	"github.com/chen893/radar"
)

// Compile-time interface verification.
var (
	_ radar.PageContext = (*PageContext)(nil)
	_ radar.RateLimiter = (*RateLimiter)(nil)
)

// PageContext is a mock implementation of radar.PageContext.
type PageContext struct {
	ExtractPageFn func(ctx context.Context, tab radar.Tab) (*radar.ExtractionResult, error)
}

func (p *PageContext) ExtractPage(ctx context.Context, tab radar.Tab) (*radar.ExtractionResult, error) {
	return p.ExtractPageFn(ctx, tab)
}

// RateLimiter is a mock implementation of radar.RateLimiter.
type RateLimiter struct {
	WaitFn func(ctx context.Context, key string) error
}

func (r *RateLimiter) Wait(ctx context.Context, key string) error {
	return r.WaitFn(ctx, key)
}
