package sqlite_test

import (
	"context"
	"testing"

	"github.com/chen893/radar"
	"github.com/chen893/radar/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigService(t *testing.T) {
	t.Parallel()

	t.Run("returns zero config before first save", func(t *testing.T) {
		t.Parallel()

		cfg, err := sqlite.NewConfigService(setupTestDB(t)).Config(context.Background())

		require.NoError(t, err)
		assert.Equal(t, &radar.Config{}, cfg)
	})

	t.Run("round trips and replaces the config", func(t *testing.T) {
		t.Parallel()

		svc := sqlite.NewConfigService(setupTestDB(t))
		ctx := context.Background()

		require.NoError(t, svc.UpdateConfig(ctx, &radar.Config{
			LLM:             radar.LLMConfig{Provider: radar.ProviderGemini, APIKey: "k1"},
			CustomWhitelist: []string{"news.ycombinator.com"},
		}))
		require.NoError(t, svc.UpdateConfig(ctx, &radar.Config{
			LLM:          radar.LLMConfig{Provider: radar.ProviderOpenAI, APIKey: "k2", Model: "gpt-4o-mini"},
			SystemPrompt: "custom",
		}))

		cfg, err := svc.Config(ctx)
		require.NoError(t, err)
		assert.Equal(t, radar.ProviderOpenAI, cfg.LLM.Provider)
		assert.Equal(t, "k2", cfg.LLM.APIKey)
		assert.Equal(t, "custom", cfg.SystemPrompt)
		assert.Empty(t, cfg.CustomWhitelist)
	})

	t.Run("rejects unknown providers", func(t *testing.T) {
		t.Parallel()

		err := sqlite.NewConfigService(setupTestDB(t)).UpdateConfig(context.Background(),
			&radar.Config{LLM: radar.LLMConfig{Provider: "llama"}})

		assert.Equal(t, radar.EINVALID, radar.ErrorCode(err))
	})
}
