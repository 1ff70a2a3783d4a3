// Package openai implements radar.Analyzer against any OpenAI-compatible
// chat completions endpoint.
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chen893/radar"
	"golang.org/x/time/rate"
)

// Defaults used when the configuration leaves them empty.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 2 * time.Minute
)

var _ radar.Analyzer = (*Analyzer)(nil)

// Analyzer implements radar.Analyzer over the chat completions API with
// JSON object responses.
type Analyzer struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Factory builds Analyzers from provider configuration. Analyzers built
// by the same Factory share its rate limiter.
type Factory struct {
	// Limiter bounds model calls across analyzers. Nil means unlimited.
	Limiter *rate.Limiter

	// HTTPClient overrides the default client with DefaultTimeout.
	HTTPClient *http.Client
}

// New returns an Analyzer for cfg. It returns API_KEY_NOT_CONFIGURED when
// cfg carries no API key.
func (f *Factory) New(cfg radar.LLMConfig) (radar.Analyzer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, radar.Errorf(radar.EAPIKEYMISSING, "OpenAI API key is not configured")
	}
	a := &Analyzer{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: f.HTTPClient,
		limiter:    f.Limiter,
	}
	if a.baseURL == "" {
		a.baseURL = DefaultBaseURL
	}
	if a.model == "" {
		a.model = DefaultModel
	}
	if a.httpClient == nil {
		a.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return a, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Stream         bool            `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
		Delta   message `json:"delta"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Analyze asks the model for a structured analysis of text.
func (a *Analyzer) Analyze(ctx context.Context, text, systemPrompt string) (*radar.AnalysisResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, radar.Errorf(radar.EINVALID, "text required")
	}
	if systemPrompt == "" {
		systemPrompt = radar.DefaultSystemPrompt
	}

	resp, err := a.do(ctx, chatRequest{
		Model: a.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildUserPrompt(text)},
		},
		Temperature:    0.4,
		MaxTokens:      4096,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, radar.Errorf(radar.EPARSE, "invalid response body: %v", err)
	}
	if out.Error != nil {
		return nil, radar.Errorf(radar.EUNKNOWN, "%s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return nil, radar.Errorf(radar.EPARSE, "no completion returned")
	}
	return radar.ParseAnalysis(out.Choices[0].Message.Content)
}

// Stream asks the model for a free-form brief and calls fn with each
// content delta of the server-sent event stream.
func (a *Analyzer) Stream(ctx context.Context, text, systemPrompt string, fn func(chunk string) error) error {
	if strings.TrimSpace(text) == "" {
		return radar.Errorf(radar.EINVALID, "text required")
	}
	if systemPrompt == "" {
		systemPrompt = radar.DefaultStreamPrompt
	}

	resp, err := a.do(ctx, chatRequest{
		Model: a.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildUserPrompt(text)},
		},
		Temperature: 0.7,
		Stream:      true,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return nil
		}

		var chunk chatResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return radar.Errorf(radar.EPARSE, "invalid stream chunk: %v", err)
		}
		if chunk.Error != nil {
			return radar.Errorf(radar.EUNKNOWN, "%s", chunk.Error.Message)
		}
		for _, c := range chunk.Choices {
			if c.Delta.Content == "" {
				continue
			}
			if err := fn(c.Delta.Content); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// TestConnection lists models, which requires a valid key but no
// completion quota.
func (a *Analyzer) TestConnection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/models", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// do posts a chat completion request and returns the response when the
// status is 200. The caller closes the body.
func (a *Analyzer) do(ctx context.Context, body chatRequest) (*http.Response, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	if body.Stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}
	return resp, nil
}

// statusError reads the provider's error message into a StatusError.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	msg := strings.TrimSpace(string(body))
	var out chatResponse
	if json.Unmarshal(body, &out) == nil && out.Error != nil && out.Error.Message != "" {
		msg = out.Error.Message
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &radar.StatusError{StatusCode: resp.StatusCode, Message: msg}
}

// BuildUserPrompt wraps the page text so the model can tell it apart
// from instructions. The JSON object mode requires the word JSON to
// appear in the conversation.
func BuildUserPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("<discussion>\n")
	sb.WriteString(text)
	sb.WriteString("\n</discussion>\n\n")
	sb.WriteString("Identify the product opportunities in the discussion above and answer in JSON.")
	return sb.String()
}
