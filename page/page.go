// Package page reads live pages and runs the matching platform adapter
// on them.
package page

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/chen893/radar"
)

var _ radar.PageContext = (*Context)(nil)

// Context implements radar.PageContext by fetching the page behind a tab
// and extracting it with the adapter the registry selects.
type Context struct {
	Fetcher  radar.Fetcher
	Registry radar.AdapterRegistry

	// Limiter, if set, is waited on per host before each fetch.
	Limiter radar.RateLimiter

	// RetryDelays are the pauses between fetch attempts. Nil means
	// DefaultRetryDelays; an empty slice disables retries.
	RetryDelays []time.Duration

	Logger *slog.Logger
}

// NewContext creates a Context with default retry delays.
func NewContext(fetcher radar.Fetcher, registry radar.AdapterRegistry) *Context {
	return &Context{
		Fetcher:  fetcher,
		Registry: registry,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// ExtractPage extracts the page behind tab. A snapshot carried by the tab
// is used as is; otherwise the page is fetched. Only a failure to read the
// page is an error; adapter degradation is reported in the result.
func (c *Context) ExtractPage(ctx context.Context, tab radar.Tab) (*radar.ExtractionResult, error) {
	if strings.TrimSpace(tab.URL) == "" {
		return nil, radar.Errorf(radar.EEXTRACTION, "tab has no URL")
	}

	html := tab.HTML
	if html == "" {
		var err error
		if html, err = c.fetch(ctx, tab.URL); err != nil {
			return nil, err
		}
	}

	result := c.Registry.Adapter(tab.URL).Extract(&radar.Snapshot{URL: tab.URL, HTML: html})
	if result.Content.Title == "" && tab.Title != "" {
		result.Content.Title = tab.Title
	}
	return result, nil
}

func (c *Context) fetch(ctx context.Context, rawURL string) (string, error) {
	if c.Fetcher == nil {
		return "", radar.Errorf(radar.EEXTRACTION, "no page loader configured")
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx, host(rawURL)); err != nil {
			return "", err
		}
	}

	delays := c.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}

	html, err := fetchWithRetry(ctx, c.Fetcher, rawURL, delays, c.logger())
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", radar.Errorf(radar.EEXTRACTION, "failed to load %s: %v", rawURL, err)
	}
	return html, nil
}

func (c *Context) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.Logger
}

func host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return strings.ToLower(u.Hostname())
}
