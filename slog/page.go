package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/chen893/radar"
)

// Ensure LoggingPageContext implements radar.PageContext.
var _ radar.PageContext = (*LoggingPageContext)(nil)

// LoggingPageContext wraps a PageContext with logging.
type LoggingPageContext struct {
	next   radar.PageContext
	logger *slog.Logger
}

// NewLoggingPageContext creates a new LoggingPageContext.
func NewLoggingPageContext(next radar.PageContext, logger *slog.Logger) *LoggingPageContext {
	return &LoggingPageContext{next: next, logger: logger}
}

// ExtractPage delegates to the wrapped context and logs what was read.
func (p *LoggingPageContext) ExtractPage(ctx context.Context, tab radar.Tab) (result *radar.ExtractionResult, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"url", tab.URL,
			"snapshot", tab.HTML != "",
			"duration", time.Since(begin),
		}
		if result != nil {
			attrs = append(attrs,
				"platform", string(result.Platform),
				"chars", result.TextLength(),
				"fallback", result.FallbackUsed,
			)
		}
		attrs = append(attrs, "err", err)
		p.logger.Info("extract page", attrs...)
	}(time.Now())
	return p.next.ExtractPage(ctx, tab)
}
