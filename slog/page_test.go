package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/chen893/radar"
	"github.com/chen893/radar/mock"
	radarslog "github.com/chen893/radar/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingPageContext_ExtractPage(t *testing.T) {
	t.Parallel()

	t.Run("logs platform, length and fallback", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.PageContext{
			ExtractPageFn: func(ctx context.Context, tab radar.Tab) (*radar.ExtractionResult, error) {
				return &radar.ExtractionResult{
					Success:      true,
					Platform:     radar.PlatformGeneric,
					Content:      radar.PageContent{Body: "hello"},
					FallbackUsed: true,
				}, nil
			},
		}

		pages := radarslog.NewLoggingPageContext(inner, logger)
		result, err := pages.ExtractPage(context.Background(), radar.Tab{URL: "https://example.com/a", HTML: "<p>hello</p>"})

		require.NoError(t, err)
		assert.True(t, result.Success)
		output := buf.String()
		assert.Contains(t, output, "extract page")
		assert.Contains(t, output, "url=https://example.com/a")
		assert.Contains(t, output, "snapshot=true")
		assert.Contains(t, output, "platform=generic")
		assert.Contains(t, output, "chars=5")
		assert.Contains(t, output, "fallback=true")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.PageContext{
			ExtractPageFn: func(ctx context.Context, tab radar.Tab) (*radar.ExtractionResult, error) {
				return nil, errors.New("navigation timeout")
			},
		}

		_, err := radarslog.NewLoggingPageContext(inner, logger).ExtractPage(context.Background(), radar.Tab{URL: "https://example.com/a"})

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "snapshot=false")
		assert.Contains(t, output, "err=\"navigation timeout\"")
		assert.NotContains(t, output, "platform=")
	})
}
