package readability

import (
	"strings"

	"github.com/chen893/radar"
	"github.com/go-shiori/go-readability"
)

var _ radar.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability. It is the second choice after
// trafilatura and tends to do better on single-column blog posts.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content and byline.
func (e *Extractor) Extract(rawHTML string) (*radar.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, radar.Errorf(radar.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(article.TextContent) == "" {
		return nil, radar.Errorf(radar.EEXTRACTION, "no readable content")
	}

	return &radar.ExtractResult{
		Title:       strings.TrimSpace(article.Title),
		ContentHTML: article.Content,
		Author:      strings.TrimSpace(article.Byline),
	}, nil
}
