package radar

import "context"

// Tab references the page a user wants analyzed.
type Tab struct {
	ID      string `json:"id,omitempty"`
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Favicon string `json:"favicon,omitempty"`

	// HTML is a DOM snapshot captured by the caller. When set it is
	// extracted directly instead of loading the page again.
	HTML string `json:"html,omitempty"`
}

// Fetcher retrieves rendered HTML from URLs.
// Implementations may use browser automation to handle JavaScript-rendered content.
type Fetcher interface {
	// Fetch navigates to the URL, waits for JavaScript to render,
	// and returns the rendered HTML.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases resources held by the fetcher.
	Close() error
}

// PageContext extracts content from the live page behind a tab.
type PageContext interface {
	// ExtractPage reads the current state of the page and runs the
	// matching adapter on it. Errors mean the page could not be read at
	// all; degraded extractions are returned as results.
	ExtractPage(ctx context.Context, tab Tab) (*ExtractionResult, error)
}

// RateLimiter provides keyed rate limiting.
type RateLimiter interface {
	// Wait blocks until the rate limit allows a request for key.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, key string) error
}

// TokenCounter counts tokens in text for a specific model.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
