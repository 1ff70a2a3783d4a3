// Package rod loads pages in headless Chrome so that client-rendered
// discussion threads are captured as the user would see them.
package rod

import (
	"context"
	"time"

	"github.com/chen893/radar"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// DefaultFetchTimeout bounds a single page load.
const DefaultFetchTimeout = 30 * time.Second

// DefaultScrolls is how many times a page is scrolled to the bottom to
// trigger lazily loaded comments.
const DefaultScrolls = 2

var _ radar.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML using a managed Chrome instance.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	manager *BrowserManager
	timeout time.Duration
	scrolls int
	settle  time.Duration
	stealth bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-page load timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithScrolls sets how many times the page is scrolled to the bottom.
func WithScrolls(n int) Option {
	return func(f *Fetcher) {
		f.scrolls = n
	}
}

// WithStealth controls whether pages are opened with the stealth evasions
// that hide headless Chrome from bot detection. It is on by default since
// Reddit serves a login wall to detected automation.
func WithStealth(enabled bool) Option {
	return func(f *Fetcher) {
		f.stealth = enabled
	}
}

// NewFetcher launches Chrome with the given manager options.
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts []Option, managerOpts ...ManagerOption) (*Fetcher, error) {
	manager, err := NewBrowserManager(managerOpts...)
	if err != nil {
		return nil, err
	}
	f := &Fetcher{
		manager: manager,
		timeout: DefaultFetchTimeout,
		scrolls: DefaultScrolls,
		settle:  500 * time.Millisecond,
		stealth: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Fetch navigates to url, scrolls to load comments, and returns the
// rendered HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	browser, err := f.manager.Browser()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	page, err := f.newPage(browser)
	if err != nil {
		return "", err
	}
	defer page.Close()
	defer f.manager.IncrementPageCount()

	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return "", err
	}
	if err := page.WaitLoad(); err != nil {
		return "", err
	}

	for range f.scrolls {
		if _, err := page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(f.settle):
		}
	}

	return page.HTML()
}

func (f *Fetcher) newPage(browser *rod.Browser) (*rod.Page, error) {
	if f.stealth {
		return stealth.Page(browser)
	}
	return browser.Page(proto.TargetCreateTarget{})
}

// Close releases browser resources. It is safe to call more than once.
func (f *Fetcher) Close() error {
	return f.manager.Close()
}

// LauncherPID returns the process ID of the browser launcher.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}
