package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/chen893/radar"
	"gopkg.in/yaml.v3"
)

// Environment variables holding provider keys.
const (
	envGeminiKey = "GEMINI_API_KEY"
	envOpenAIKey = "OPENAI_API_KEY"
)

// seedConfig returns the stored configuration after filling it in from the
// YAML file at path and from provider keys in the environment. The file is
// only used when nothing has been stored yet; environment keys only fill an
// empty key. Anything filled in is stored.
func seedConfig(ctx context.Context, configs radar.ConfigService, path string, getenv func(string) string) (*radar.Config, error) {
	cfg, err := configs.Config(ctx)
	if err != nil {
		return nil, err
	}

	changed := false
	if path != "" && isZeroConfig(cfg) {
		file, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		cfg, changed = file, true
	}

	if cfg.LLM.APIKey == "" {
		gemini, openai := getenv(envGeminiKey), getenv(envOpenAIKey)
		switch {
		case cfg.LLM.Provider == radar.ProviderOpenAI && openai != "":
			cfg.LLM.APIKey, changed = openai, true
		case cfg.LLM.Provider != radar.ProviderOpenAI && gemini != "":
			cfg.LLM.Provider, cfg.LLM.APIKey, changed = radar.ProviderGemini, gemini, true
		case cfg.LLM.Provider == "" && openai != "":
			cfg.LLM.Provider, cfg.LLM.APIKey, changed = radar.ProviderOpenAI, openai, true
		}
	}

	if changed {
		if err := configs.UpdateConfig(ctx, cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func readConfigFile(path string) (*radar.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg radar.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	return &cfg, nil
}

func isZeroConfig(cfg *radar.Config) bool {
	return cfg.LLM == (radar.LLMConfig{}) &&
		cfg.SystemPrompt == "" &&
		len(cfg.CustomWhitelist) == 0 &&
		len(cfg.Blacklist) == 0
}
