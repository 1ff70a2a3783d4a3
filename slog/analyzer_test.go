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

func TestLoggingAnalyzer_Analyze(t *testing.T) {
	t.Parallel()

	t.Run("logs length and demand count but not the text", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Analyzer{
			AnalyzeFn: func(ctx context.Context, text, systemPrompt string) (*radar.AnalysisResult, error) {
				return &radar.AnalysisResult{Demands: make([]radar.DemandCandidate, 2)}, nil
			},
		}

		a := radarslog.NewLoggingAnalyzer(inner, radar.ProviderGemini, logger)
		result, err := a.Analyze(context.Background(), "secret complaint", "")

		require.NoError(t, err)
		assert.Len(t, result.Demands, 2)
		output := buf.String()
		assert.Contains(t, output, "provider=gemini")
		assert.Contains(t, output, "chars=16")
		assert.Contains(t, output, "demands=2")
		assert.NotContains(t, output, "secret complaint")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Analyzer{
			AnalyzeFn: func(ctx context.Context, text, systemPrompt string) (*radar.AnalysisResult, error) {
				return nil, errors.New("quota exceeded")
			},
		}

		_, err := radarslog.NewLoggingAnalyzer(inner, radar.ProviderOpenAI, logger).Analyze(context.Background(), "x", "")

		require.Error(t, err)
		assert.Contains(t, buf.String(), "err=\"quota exceeded\"")
	})
}

func TestLoggingAnalyzer_Stream(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	inner := &mock.Analyzer{
		StreamFn: func(ctx context.Context, text, systemPrompt string, fn func(string) error) error {
			for _, c := range []string{"ab", "cde"} {
				if err := fn(c); err != nil {
					return err
				}
			}
			return nil
		},
	}

	var got string
	err := radarslog.NewLoggingAnalyzer(inner, radar.ProviderGemini, logger).Stream(context.Background(), "x", "", func(chunk string) error {
		got += chunk
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "abcde", got)
	assert.Contains(t, buf.String(), "chunks=2")
	assert.Contains(t, buf.String(), "bytes=5")
}

func TestLoggingAnalyzerFactory(t *testing.T) {
	t.Parallel()

	t.Run("wraps built analyzers", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Analyzer{TestConnectionFn: func(context.Context) error { return nil }}
		factory := radarslog.NewLoggingAnalyzerFactory(mock.AnalyzerFactory(inner), logger)

		a, err := factory(radar.LLMConfig{Provider: radar.ProviderOpenAI, APIKey: "k"})
		require.NoError(t, err)
		require.NoError(t, a.TestConnection(context.Background()))

		assert.Contains(t, buf.String(), "test connection")
		assert.Contains(t, buf.String(), "provider=openai")
	})

	t.Run("passes factory errors through", func(t *testing.T) {
		t.Parallel()

		factory := radarslog.NewLoggingAnalyzerFactory(func(radar.LLMConfig) (radar.Analyzer, error) {
			return nil, radar.NewTaskError(radar.EAPIKEYMISSING, "")
		}, slog.New(slog.DiscardHandler))

		_, err := factory(radar.LLMConfig{})

		assert.Error(t, err)
	})
}
