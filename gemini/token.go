package gemini

import (
	"context"
	"fmt"
	"sync"

	"github.com/chen893/radar"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

var _ radar.TokenCounter = (*PromptMeter)(nil)

// PromptMeter measures prompts with the local Gemini tokenizer. The
// tokenizer model is loaded on the first non-empty prompt, so commands that
// never call a model do not load it.
type PromptMeter struct {
	model string

	mu  sync.Mutex
	tok *tokenizer.LocalTokenizer
	err error
}

// NewPromptMeter returns a meter for the tokenizer of model.
func NewPromptMeter(model string) *PromptMeter {
	return &PromptMeter{model: model}
}

// CountTokens reports how many tokens text takes as a user turn.
func (m *PromptMeter) CountTokens(_ context.Context, text string) (int, error) {
	if text == "" {
		return 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tok == nil && m.err == nil {
		m.tok, m.err = tokenizer.NewLocalTokenizer(m.model)
	}
	if m.err != nil {
		return 0, fmt.Errorf("load %s tokenizer: %w", m.model, m.err)
	}

	turn := &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: text}}}
	res, err := m.tok.CountTokens([]*genai.Content{turn}, nil)
	if err != nil {
		return 0, err
	}
	return int(res.TotalTokens), nil
}
