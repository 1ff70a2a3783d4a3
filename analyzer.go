package radar

import (
	"context"
	"encoding/json"
	"strings"
)

// AnalysisResult is the structured response of the model for one page.
type AnalysisResult struct {
	Summary string            `json:"summary"`
	Demands []DemandCandidate `json:"demands"`
}

// Validate returns a PARSE_ERROR if the result does not conform to the
// demand schema.
func (r *AnalysisResult) Validate() error {
	for i := range r.Demands {
		if err := r.Demands[i].Validate(); err != nil {
			return Errorf(EPARSE, "demand %d: %s", i, ErrorMessage(err))
		}
	}
	return nil
}

// ParseAnalysis decodes a model response into an AnalysisResult. Markdown
// code fences and text around the outermost JSON object are ignored.
// Malformed or non-conforming responses return PARSE_ERROR.
func ParseAnalysis(text string) (*AnalysisResult, error) {
	text = strings.TrimSpace(text)
	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, Errorf(EPARSE, "response contains no JSON object")
	}

	var r AnalysisResult
	if err := json.Unmarshal([]byte(text[start:end+1]), &r); err != nil {
		return nil, Errorf(EPARSE, "invalid response JSON: %v", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if r.Demands == nil {
		r.Demands = []DemandCandidate{}
	}
	return &r, nil
}

// Analyzer is the language model capability.
type Analyzer interface {
	// Analyze sends text to the model and returns its structured analysis.
	// An empty systemPrompt uses DefaultSystemPrompt.
	Analyze(ctx context.Context, text, systemPrompt string) (*AnalysisResult, error)

	// Stream sends text to the model and calls fn with each text chunk
	// of a free-form answer as it arrives.
	Stream(ctx context.Context, text, systemPrompt string, fn func(chunk string) error) error

	// TestConnection verifies the provider accepts the configured credentials.
	TestConnection(ctx context.Context) error
}

// AnalyzerFactory builds an Analyzer for a provider configuration.
// It returns API_KEY_NOT_CONFIGURED when cfg has no API key.
type AnalyzerFactory func(cfg LLMConfig) (Analyzer, error)

// DefaultSystemPrompt instructs the model to find product opportunities.
const DefaultSystemPrompt = `You are a product researcher. You read discussions where people describe problems, complaints and wishes, and you identify concrete product opportunities.

Return JSON with:
- "summary": two or three sentences describing what the discussion is about.
- "demands": a list of opportunities. For each one give
  - "solution": {"title", "description", "targetUser", "keyDifferentiators": []}
  - "validation": {"painPoints": [], "competitors": [], "competitorGaps": [], "quotes": []}

Quotes must be copied verbatim from the discussion. Placeholders such as [EMAIL] or [PHONE] are redactions; never try to reconstruct them. Return an empty "demands" list when the discussion contains no real opportunity.`

// DefaultStreamPrompt asks the model for a free-form opportunity brief.
const DefaultStreamPrompt = `You are a product researcher. Summarize the discussion below, then list the product opportunities it suggests, who would pay for them, and which existing products fall short. Use plain Markdown.`
