package radar

import (
	"strings"
	"unicode/utf8"
)

// Platform identifies the discussion platform a page belongs to.
type Platform string

// Supported platforms.
const (
	PlatformReddit  Platform = "reddit"
	PlatformZhihu   Platform = "zhihu"
	PlatformGeneric Platform = "generic"
)

// Extraction limits shared by adapters and the pipeline.
const (
	// MaxContentLength is the number of characters sent to the model and
	// kept in storage. Longer content is truncated.
	MaxContentLength = 20000

	// MaxPromptTokens is the default token budget for a prompt. Prompts the
	// token counter measures above it are shortened before the model call.
	MaxPromptTokens = 12000

	// MaxComments bounds the comments collected from a single page.
	MaxComments = 50

	// FallbackTextLength bounds the body text read by the fallback path.
	FallbackTextLength = 5000
)

// Snapshot is the rendered state of a page at extraction time.
type Snapshot struct {
	URL  string
	HTML string
}

// PageMetadata describes where extracted content came from.
type PageMetadata struct {
	Author    string            `json:"author,omitempty"`
	Timestamp string            `json:"timestamp,omitempty"`
	URL       string            `json:"url"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// PageContent is the normalized content of a page.
type PageContent struct {
	Title    string       `json:"title"`
	Body     string       `json:"body"`
	Comments []string     `json:"comments,omitempty"`
	Metadata PageMetadata `json:"metadata"`
}

// ExtractionResult is produced once per extraction attempt and is not
// modified after it is returned.
type ExtractionResult struct {
	Success        bool        `json:"success"`
	Platform       Platform    `json:"platform"`
	Content        PageContent `json:"content"`
	Truncated      bool        `json:"truncated"`
	OriginalLength int         `json:"originalLength,omitempty"`
	FallbackUsed   bool        `json:"fallbackUsed,omitempty"`
	Error          string      `json:"error,omitempty"`
}

// Text composes the text used for analysis and storage: the title, the
// body, then comments as a bulleted list.
func (r *ExtractionResult) Text() string {
	var sb strings.Builder
	if r.Content.Title != "" {
		sb.WriteString(r.Content.Title)
	}
	if r.Content.Body != "" {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(r.Content.Body)
	}
	if len(r.Content.Comments) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("Comments:")
		for _, c := range r.Content.Comments {
			sb.WriteString("\n- ")
			sb.WriteString(c)
		}
	}
	return sb.String()
}

// TextLength returns the length of Text in characters.
func (r *ExtractionResult) TextLength() int {
	return utf8.RuneCountInString(r.Text())
}

// Adapter converts a page snapshot into an ExtractionResult for one platform.
type Adapter interface {
	// CanHandle reports whether the adapter understands pages at url.
	CanHandle(url string) bool

	// Platform returns the platform the adapter extracts.
	Platform() Platform

	// Extract never fails. When platform-specific extraction does not
	// work the result is a degraded generic extraction with FallbackUsed set.
	Extract(snapshot *Snapshot) *ExtractionResult
}

// AdapterRegistry selects adapters for URLs.
type AdapterRegistry interface {
	// Register appends an adapter. Registration order is priority order.
	Register(adapter Adapter)

	// Adapter returns the first specific adapter that can handle url, or
	// the generic adapter. It never returns nil.
	Adapter(url string) Adapter

	// DetectPlatform returns the platform of the adapter selected for url.
	DetectPlatform(url string) Platform

	// List returns the registered platforms in priority order.
	List() []Platform
}

// ExtractResult holds the main content extracted from an HTML page.
type ExtractResult struct {
	// Title is the page title extracted from metadata.
	Title string

	// ContentHTML is the main content as clean HTML.
	// Boilerplate (nav, footer, sidebar, ads) has been removed.
	ContentHTML string

	// Author is the byline, if the extractor found one.
	Author string

	// Comments holds reader comments found below the main content,
	// one entry per comment, as plain text.
	Comments []string
}

// Extractor extracts main content from HTML pages, removing boilerplate.
type Extractor interface {
	Extract(html string) (*ExtractResult, error)
}

// Converter converts HTML to Markdown.
type Converter interface {
	Convert(html string) (string, error)
}
