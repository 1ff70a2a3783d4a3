package slog

import (
	"log/slog"
	"time"

	"github.com/chen893/radar"
)

// Ensure LoggingRegistry implements radar.AdapterRegistry.
var _ radar.AdapterRegistry = (*LoggingRegistry)(nil)

// LoggingRegistry wraps an AdapterRegistry with debug logging for adapter
// selection.
type LoggingRegistry struct {
	next   radar.AdapterRegistry
	logger *slog.Logger
}

// NewLoggingRegistry creates a new LoggingRegistry.
func NewLoggingRegistry(next radar.AdapterRegistry, logger *slog.Logger) *LoggingRegistry {
	return &LoggingRegistry{next: next, logger: logger}
}

// Adapter selects an adapter for url and logs the chosen platform.
func (r *LoggingRegistry) Adapter(url string) radar.Adapter {
	begin := time.Now()
	adapter := r.next.Adapter(url)
	r.logger.Debug("adapter selection",
		"url", url,
		"platform", string(adapter.Platform()),
		"duration", time.Since(begin),
	)
	return adapter
}

// DetectPlatform delegates to the wrapped registry.
func (r *LoggingRegistry) DetectPlatform(url string) radar.Platform {
	return r.next.DetectPlatform(url)
}

// Register delegates to the wrapped registry.
func (r *LoggingRegistry) Register(adapter radar.Adapter) {
	r.next.Register(adapter)
}

// List delegates to the wrapped registry.
func (r *LoggingRegistry) List() []radar.Platform {
	return r.next.List()
}
