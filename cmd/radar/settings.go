package main

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/chen893/radar"
	"gopkg.in/yaml.v3"
)

// Run executes the settings show command.
func (c *SettingsShowCmd) Run(deps *Dependencies) error {
	cfg, err := deps.Config.Config(deps.Ctx)
	if err != nil {
		return report(deps, err)
	}
	out, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return report(deps, err)
	}
	_, err = deps.Stdout.Write(out)
	return err
}

// Run executes the settings set command.
func (c *SettingsSetCmd) Run(deps *Dependencies) error {
	cfg, err := deps.Config.Config(deps.Ctx)
	if err != nil {
		return report(deps, err)
	}

	if c.Provider != "" {
		cfg.LLM.Provider = strings.ToLower(c.Provider)
	}
	if c.APIKey != "" {
		cfg.LLM.APIKey = c.APIKey
	}
	if c.Model != "" {
		cfg.LLM.Model = c.Model
	}
	if c.BaseURL != "" {
		cfg.LLM.BaseURL = c.BaseURL
	}
	if c.Prompt != "" {
		data, err := os.ReadFile(c.Prompt)
		if err != nil {
			return report(deps, err)
		}
		cfg.SystemPrompt = strings.TrimSpace(string(data))
	}
	for _, p := range c.Authorize {
		if !slices.Contains(cfg.CustomWhitelist, p) {
			cfg.CustomWhitelist = append(cfg.CustomWhitelist, p)
		}
	}
	for _, p := range c.Block {
		if !slices.Contains(cfg.Blacklist, p) {
			cfg.Blacklist = append(cfg.Blacklist, p)
		}
	}

	if err := deps.Orchestrator.UpdateConfig(deps.Ctx, cfg); err != nil {
		return report(deps, err)
	}
	fmt.Fprintln(deps.Stdout, "Settings saved.")
	return nil
}

// Run executes the test-llm command.
func (c *TestLLMCmd) Run(deps *Dependencies) error {
	if err := deps.Orchestrator.TestConnection(deps.Ctx, nil); err != nil {
		return report(deps, classify(err))
	}
	cfg, err := deps.Config.Config(deps.Ctx)
	if err != nil {
		return report(deps, err)
	}
	provider := cfg.LLM.Provider
	if provider == "" {
		provider = radar.ProviderGemini
	}
	fmt.Fprintf(deps.Stdout, "Connected to %s\n", provider)
	return nil
}
