package radar

import "context"

// LLM providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// LLMConfig selects and authenticates the model provider.
type LLMConfig struct {
	Provider string `json:"provider" yaml:"provider"`
	APIKey   string `json:"apiKey" yaml:"api_key"`
	BaseURL  string `json:"baseUrl,omitempty" yaml:"base_url"`
	Model    string `json:"model,omitempty" yaml:"model"`
}

// Config holds user settings.
type Config struct {
	LLM             LLMConfig `json:"llm" yaml:"llm"`
	SystemPrompt    string    `json:"systemPrompt,omitempty" yaml:"system_prompt"`
	CustomWhitelist []string  `json:"customWhitelist,omitempty" yaml:"custom_whitelist"`
	Blacklist       []string  `json:"blacklist,omitempty" yaml:"blacklist"`
}

// Redacted returns a copy of the config with the API key masked.
func (c Config) Redacted() Config {
	if c.LLM.APIKey != "" {
		c.LLM.APIKey = "****"
	}
	c.CustomWhitelist = append([]string(nil), c.CustomWhitelist...)
	c.Blacklist = append([]string(nil), c.Blacklist...)
	return c
}

// ConfigService persists user settings.
type ConfigService interface {
	// Config returns the stored configuration, or the zero Config if none
	// has been saved.
	Config(ctx context.Context) (*Config, error)

	// UpdateConfig replaces the stored configuration.
	UpdateConfig(ctx context.Context, cfg *Config) error
}
