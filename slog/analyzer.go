package slog

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/chen893/radar"
)

// Ensure LoggingAnalyzer implements radar.Analyzer.
var _ radar.Analyzer = (*LoggingAnalyzer)(nil)

// LoggingAnalyzer wraps an Analyzer with logging. Prompt text is never
// logged, only its length.
type LoggingAnalyzer struct {
	next     radar.Analyzer
	provider string
	logger   *slog.Logger
}

// NewLoggingAnalyzer creates a new LoggingAnalyzer.
func NewLoggingAnalyzer(next radar.Analyzer, provider string, logger *slog.Logger) *LoggingAnalyzer {
	return &LoggingAnalyzer{next: next, provider: provider, logger: logger}
}

// NewLoggingAnalyzerFactory wraps every Analyzer built by next.
func NewLoggingAnalyzerFactory(next radar.AnalyzerFactory, logger *slog.Logger) radar.AnalyzerFactory {
	return func(cfg radar.LLMConfig) (radar.Analyzer, error) {
		a, err := next(cfg)
		if err != nil {
			return nil, err
		}
		return NewLoggingAnalyzer(a, cfg.Provider, logger), nil
	}
}

// Analyze delegates to the wrapped analyzer and logs the outcome.
func (a *LoggingAnalyzer) Analyze(ctx context.Context, text, systemPrompt string) (result *radar.AnalysisResult, err error) {
	defer func(begin time.Time) {
		demands := 0
		if result != nil {
			demands = len(result.Demands)
		}
		a.logger.Info("analyze",
			"provider", a.provider,
			"chars", utf8.RuneCountInString(text),
			"demands", demands,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return a.next.Analyze(ctx, text, systemPrompt)
}

// Stream delegates to the wrapped analyzer and logs how much arrived.
func (a *LoggingAnalyzer) Stream(ctx context.Context, text, systemPrompt string, fn func(chunk string) error) (err error) {
	chunks, bytes := 0, 0
	defer func(begin time.Time) {
		a.logger.Info("stream",
			"provider", a.provider,
			"chars", utf8.RuneCountInString(text),
			"chunks", chunks,
			"bytes", bytes,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return a.next.Stream(ctx, text, systemPrompt, func(chunk string) error {
		chunks++
		bytes += len(chunk)
		return fn(chunk)
	})
}

// TestConnection delegates to the wrapped analyzer and logs the outcome.
func (a *LoggingAnalyzer) TestConnection(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		a.logger.Info("test connection",
			"provider", a.provider,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return a.next.TestConnection(ctx)
}
