package trafilatura

import (
	"bytes"
	"strings"

	"github.com/chen893/radar"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

var _ radar.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract an article and its reader
// comments from HTML.
type Extractor struct {
	// IncludeComments asks trafilatura to keep the comment section.
	IncludeComments bool

	// TargetLanguage restricts extraction to pages in the given
	// ISO 639-1 language. Empty accepts any language.
	TargetLanguage string
}

// NewExtractor creates an Extractor that keeps reader comments.
func NewExtractor() *Extractor {
	return &Extractor{IncludeComments: true}
}

// Extract processes raw HTML and returns the main content.
func (e *Extractor) Extract(rawHTML string) (*radar.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, radar.Errorf(radar.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback:  true,
		ExcludeComments: !e.IncludeComments,
		TargetLanguage:  e.TargetLanguage,
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), opts)
	if err != nil {
		return nil, err
	}

	var contentHTML string
	if result.ContentNode != nil {
		contentHTML, err = renderNode(result.ContentNode)
		if err != nil {
			return nil, err
		}
	}

	return &radar.ExtractResult{
		Title:       result.Metadata.Title,
		ContentHTML: contentHTML,
		Author:      result.Metadata.Author,
		Comments:    splitComments(result.CommentsText),
	}, nil
}

// splitComments breaks trafilatura's comment text into one entry per
// paragraph.
func splitComments(text string) []string {
	var comments []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			comments = append(comments, line)
		}
		if len(comments) == radar.MaxComments {
			break
		}
	}
	return comments
}

func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
