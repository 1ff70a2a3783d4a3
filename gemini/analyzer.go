// Package gemini implements radar.Analyzer on Google Gemini.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/chen893/radar"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// DefaultModel is used when the configuration names no model.
const DefaultModel = "gemini-2.5-flash"

var _ radar.Analyzer = (*Analyzer)(nil)

// Analyzer implements radar.Analyzer using Google Gemini. Analysis
// requests use JSON mode with a response schema so the model cannot
// return free text.
type Analyzer struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
}

// NewAnalyzer creates a new Analyzer. An empty model uses DefaultModel and
// a nil limiter disables client-side rate limiting.
func NewAnalyzer(client *genai.Client, model string, limiter *rate.Limiter) *Analyzer {
	if model == "" {
		model = DefaultModel
	}
	return &Analyzer{client: client, model: model, limiter: limiter}
}

// Factory builds Analyzers from provider configuration. Analyzers built
// by the same Factory share its rate limiter.
type Factory struct {
	// Limiter bounds model calls across analyzers. Nil means unlimited.
	Limiter *rate.Limiter

	// HTTPClient overrides the client used to reach the API.
	HTTPClient *http.Client
}

// New returns an Analyzer for cfg. It returns API_KEY_NOT_CONFIGURED when
// cfg carries no API key.
func (f *Factory) New(cfg radar.LLMConfig) (radar.Analyzer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, radar.Errorf(radar.EAPIKEYMISSING, "gemini API key is not configured")
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: f.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return NewAnalyzer(client, cfg.Model, f.Limiter), nil
}

// Analyze asks the model for a structured analysis of text.
func (a *Analyzer) Analyze(ctx context.Context, text, systemPrompt string) (*radar.AnalysisResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, radar.Errorf(radar.EINVALID, "text required")
	}
	if err := a.wait(ctx); err != nil {
		return nil, err
	}

	result, err := a.client.Models.GenerateContent(ctx, a.model,
		[]*genai.Content{genai.NewContentFromText(BuildUserPrompt(text), genai.RoleUser)},
		BuildConfig(systemPrompt),
	)
	if err != nil {
		return nil, mapError(err)
	}
	if result == nil {
		return nil, radar.Errorf(radar.EPARSE, "gemini returned nil result")
	}

	out := result.Text()
	if strings.TrimSpace(out) == "" {
		return nil, radar.Errorf(radar.EPARSE, "gemini returned an empty response")
	}
	return radar.ParseAnalysis(out)
}

// Stream asks the model for a free-form brief and calls fn with each
// text chunk as it arrives. An error returned by fn stops the stream.
func (a *Analyzer) Stream(ctx context.Context, text, systemPrompt string, fn func(chunk string) error) error {
	if strings.TrimSpace(text) == "" {
		return radar.Errorf(radar.EINVALID, "text required")
	}
	if err := a.wait(ctx); err != nil {
		return err
	}

	stream := a.client.Models.GenerateContentStream(ctx, a.model,
		[]*genai.Content{genai.NewContentFromText(BuildUserPrompt(text), genai.RoleUser)},
		BuildStreamConfig(systemPrompt),
	)
	for resp, err := range stream {
		if err != nil {
			return mapError(err)
		}
		if resp == nil {
			continue
		}
		if chunk := resp.Text(); chunk != "" {
			if err := fn(chunk); err != nil {
				return err
			}
		}
	}
	return nil
}

// TestConnection counts the tokens of a short text, which requires a
// valid key but no generation quota.
func (a *Analyzer) TestConnection(ctx context.Context) error {
	_, err := a.client.Models.CountTokens(ctx, a.model,
		[]*genai.Content{genai.NewContentFromText("ping", genai.RoleUser)},
		nil,
	)
	if err != nil {
		return mapError(err)
	}
	return nil
}

func (a *Analyzer) wait(ctx context.Context) error {
	if a.limiter == nil {
		return nil
	}
	return a.limiter.Wait(ctx)
}

// mapError turns Gemini API errors into status errors so they classify by
// HTTP status. Other errors pass through unchanged.
func mapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &radar.StatusError{StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &radar.StatusError{StatusCode: apiErrPtr.Code, Message: apiErrPtr.Message}
	}
	return err
}

// BuildConfig returns the GenerateContentConfig for analysis calls.
// An empty systemPrompt uses radar.DefaultSystemPrompt.
func BuildConfig(systemPrompt string) *genai.GenerateContentConfig {
	if systemPrompt == "" {
		systemPrompt = radar.DefaultSystemPrompt
	}
	temp := float32(0.4)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		},
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
		ResponseSchema:   AnalysisSchema(),
	}
}

// BuildStreamConfig returns the GenerateContentConfig for free-form
// streaming calls. An empty systemPrompt uses radar.DefaultStreamPrompt.
func BuildStreamConfig(systemPrompt string) *genai.GenerateContentConfig {
	if systemPrompt == "" {
		systemPrompt = radar.DefaultStreamPrompt
	}
	temp := float32(0.7)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		},
		Temperature: &temp,
	}
}

// BuildUserPrompt wraps the page text so the model can tell it apart
// from instructions.
func BuildUserPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("<discussion>\n")
	sb.WriteString(text)
	sb.WriteString("\n</discussion>\n\n")
	sb.WriteString("Identify the product opportunities in the discussion above.")
	return sb.String()
}
