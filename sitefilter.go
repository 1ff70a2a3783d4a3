package radar

import (
	"net/url"
	"regexp"
	"slices"
	"strings"
	"sync"
)

// DefaultWhitelist lists the platforms analyzed without authorization.
var DefaultWhitelist = []string{
	"reddit.com",
	"*.reddit.com",
	"zhihu.com",
	"*.zhihu.com",
}

// DefaultBlacklist lists pages that are never analyzed, even on
// whitelisted sites.
var DefaultBlacklist = []string{
	"*/login*",
	"*/signin*",
	"*/signup*",
	"*/register*",
	"*/settings*",
	"*/account/*",
	"*/checkout*",
	"*/payment*",
	"*/oauth*",
}

// Reasons reported by SiteFilter.IsAllowed.
const (
	ReasonBlacklisted        = "blacklisted"
	ReasonNeedsAuthorization = "needs authorization"
)

// FilterDecision is the outcome of a site filter check.
type FilterDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// sitePattern is a compiled site pattern.
type sitePattern struct {
	raw     string
	re      *regexp.Regexp
	fullURL bool
}

func compileSitePattern(raw string) sitePattern {
	quoted := regexp.QuoteMeta(raw)
	quoted = strings.ReplaceAll(quoted, `\*`, `.*`)
	return sitePattern{
		raw:     raw,
		re:      regexp.MustCompile(`(?i)^` + quoted + `$`),
		fullURL: strings.Contains(raw, "/"),
	}
}

func (p sitePattern) match(host, rawURL string) bool {
	if p.fullURL {
		return p.re.MatchString(rawURL)
	}
	if host != "" && p.re.MatchString(host) {
		return true
	}
	return p.re.MatchString(rawURL)
}

// SiteFilter decides whether a URL may be analyzed. The blacklist always
// wins over both whitelists. SiteFilter is safe for concurrent use.
type SiteFilter struct {
	mu        sync.RWMutex
	whitelist []sitePattern
	blacklist []sitePattern
	custom    []sitePattern
}

// NewSiteFilter creates a SiteFilter with the given default whitelist and
// blacklist and an empty custom whitelist.
func NewSiteFilter(whitelist, blacklist []string) *SiteFilter {
	f := &SiteFilter{}
	for _, p := range whitelist {
		f.whitelist = appendPattern(f.whitelist, p)
	}
	for _, p := range blacklist {
		f.blacklist = appendPattern(f.blacklist, p)
	}
	return f
}

// NewDefaultSiteFilter creates a SiteFilter with DefaultWhitelist and DefaultBlacklist.
func NewDefaultSiteFilter() *SiteFilter {
	return NewSiteFilter(DefaultWhitelist, DefaultBlacklist)
}

// IsAllowed checks rawURL against the blacklist, the default whitelist and
// the custom whitelist, in that order.
func (f *SiteFilter) IsAllowed(rawURL string) FilterDecision {
	host := hostname(rawURL)

	f.mu.RLock()
	defer f.mu.RUnlock()

	if matchAny(f.blacklist, host, rawURL) {
		return FilterDecision{Allowed: false, Reason: ReasonBlacklisted}
	}
	if matchAny(f.whitelist, host, rawURL) {
		return FilterDecision{Allowed: true}
	}
	if matchAny(f.custom, host, rawURL) {
		return FilterDecision{Allowed: true}
	}
	return FilterDecision{Allowed: false, Reason: ReasonNeedsAuthorization}
}

// IsKnownPlatform reports whether rawURL matches the default whitelist.
func (f *SiteFilter) IsKnownPlatform(rawURL string) bool {
	host := hostname(rawURL)

	f.mu.RLock()
	defer f.mu.RUnlock()
	return matchAny(f.whitelist, host, rawURL)
}

// NeedsAuthorization reports whether rawURL is neither blacklisted nor
// covered by any whitelist, so a user grant would make it analyzable.
func (f *SiteFilter) NeedsAuthorization(rawURL string) bool {
	d := f.IsAllowed(rawURL)
	return !d.Allowed && d.Reason == ReasonNeedsAuthorization
}

// Grant adds pattern to the custom whitelist.
func (f *SiteFilter) Grant(pattern string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.custom = appendPattern(f.custom, pattern)
}

// Revoke removes pattern from the custom whitelist.
func (f *SiteFilter) Revoke(pattern string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.custom = removePattern(f.custom, pattern)
}

// AddBlacklist adds pattern to the blacklist.
func (f *SiteFilter) AddBlacklist(pattern string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blacklist = appendPattern(f.blacklist, pattern)
}

// RemoveBlacklist removes pattern from the blacklist.
func (f *SiteFilter) RemoveBlacklist(pattern string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blacklist = removePattern(f.blacklist, pattern)
}

// SitePatterns is a snapshot of the filter's pattern lists.
type SitePatterns struct {
	Whitelist       []string `json:"whitelist"`
	Blacklist       []string `json:"blacklist"`
	CustomWhitelist []string `json:"customWhitelist"`
}

// Patterns returns the current pattern lists.
func (f *SiteFilter) Patterns() SitePatterns {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return SitePatterns{
		Whitelist:       rawPatterns(f.whitelist),
		Blacklist:       rawPatterns(f.blacklist),
		CustomWhitelist: rawPatterns(f.custom),
	}
}

// AuthorizationPattern returns the custom whitelist pattern that grants
// access to every page on rawURL's host.
func AuthorizationPattern(rawURL string) string {
	host := hostname(rawURL)
	if host == "" {
		return rawURL
	}
	return strings.ToLower(host)
}

func appendPattern(list []sitePattern, raw string) []sitePattern {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return list
	}
	for _, p := range list {
		if strings.EqualFold(p.raw, raw) {
			return list
		}
	}
	return append(list, compileSitePattern(raw))
}

func removePattern(list []sitePattern, raw string) []sitePattern {
	return slices.DeleteFunc(list, func(p sitePattern) bool {
		return strings.EqualFold(p.raw, strings.TrimSpace(raw))
	})
}

func matchAny(list []sitePattern, host, rawURL string) bool {
	for _, p := range list {
		if p.match(host, rawURL) {
			return true
		}
	}
	return false
}

func rawPatterns(list []sitePattern) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.raw)
	}
	return out
}

// hostname returns the lower-cased host of rawURL, or "" if it has none.
func hostname(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
