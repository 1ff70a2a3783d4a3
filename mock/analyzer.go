package mock

import (
	"context"

	"github.com/chen893/radar"
)

var _ radar.Analyzer = (*Analyzer)(nil)

// Analyzer is a mock implementation of radar.Analyzer.
type Analyzer struct {
	AnalyzeFn        func(ctx context.Context, text, systemPrompt string) (*radar.AnalysisResult, error)
	StreamFn         func(ctx context.Context, text, systemPrompt string, fn func(chunk string) error) error
	TestConnectionFn func(ctx context.Context) error
}

func (a *Analyzer) Analyze(ctx context.Context, text, systemPrompt string) (*radar.AnalysisResult, error) {
	return a.AnalyzeFn(ctx, text, systemPrompt)
}

func (a *Analyzer) Stream(ctx context.Context, text, systemPrompt string, fn func(chunk string) error) error {
	return a.StreamFn(ctx, text, systemPrompt, fn)
}

func (a *Analyzer) TestConnection(ctx context.Context) error {
	return a.TestConnectionFn(ctx)
}

// AnalyzerFactory returns a radar.AnalyzerFactory that always yields a.
func AnalyzerFactory(a radar.Analyzer) radar.AnalyzerFactory {
	return func(radar.LLMConfig) (radar.Analyzer, error) {
		return a, nil
	}
}
