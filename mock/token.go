package mock

import (
	"context"

	"github.com/chen893/radar"
)

var _ radar.TokenCounter = (*TokenCounter)(nil)

// TokenCounter is a mock implementation of radar.TokenCounter.
type TokenCounter struct {
	CountTokensFn func(ctx context.Context, text string) (int, error)
}

func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	return tc.CountTokensFn(ctx, text)
}
