package goquery

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/chen893/radar"
)

var _ radar.Adapter = (*RedditAdapter)(nil)

// RedditAdapter extracts posts and comments from Reddit.
//
// Reddit serves three different renderings of the same thread:
//   - shreddit: web components (shreddit-post, shreddit-comment)
//   - new: the React UI with data-test-id attributes
//   - old: old.reddit.com with .thing and .commentarea markup
type RedditAdapter struct{}

// NewRedditAdapter creates a new RedditAdapter.
func NewRedditAdapter() *RedditAdapter {
	return &RedditAdapter{}
}

// Platform returns radar.PlatformReddit.
func (a *RedditAdapter) Platform() radar.Platform {
	return radar.PlatformReddit
}

// CanHandle reports whether rawURL is on reddit.com or a subdomain.
func (a *RedditAdapter) CanHandle(rawURL string) bool {
	return hostMatches(rawURL, "reddit.com")
}

// Extract extracts the post, its comments, and post metadata.
func (a *RedditAdapter) Extract(snapshot *radar.Snapshot) *radar.ExtractionResult {
	return extract(radar.PlatformReddit, snapshot, a.extract)
}

func (a *RedditAdapter) extract(doc *goquery.Document, pageURL string) (radar.PageContent, error) {
	switch {
	case doc.Find("shreddit-post").Length() > 0:
		return a.shreddit(doc, pageURL), nil
	case doc.Find(`[data-test-id="post-content"]`).Length() > 0:
		return a.newReddit(doc, pageURL), nil
	case doc.Find(".thing.link").Length() > 0:
		return a.oldReddit(doc, pageURL), nil
	}
	return radar.PageContent{}, radar.Errorf(radar.EEXTRACTION, "no reddit post found")
}

func (a *RedditAdapter) shreddit(doc *goquery.Document, pageURL string) radar.PageContent {
	post := doc.Find("shreddit-post").First()

	title, _ := post.Attr("post-title")
	if strings.TrimSpace(title) == "" {
		title = firstText(doc, `shreddit-post [slot="title"]`, "shreddit-post h1", "h1")
	}
	author, _ := post.Attr("author")
	timestamp, _ := post.Attr("created-timestamp")

	extra := map[string]string{}
	if sub, ok := post.Attr("subreddit-prefixed-name"); ok {
		extra["subreddit"] = strings.TrimPrefix(sub, "r/")
	}
	if score, ok := post.Attr("score"); ok {
		extra["score"] = score
	}

	return radar.PageContent{
		Title:    title,
		Body:     firstText(doc, `shreddit-post [slot="text-body"]`, `[slot="text-body"]`),
		Comments: collectTexts(doc.Find(`shreddit-comment [slot="comment"]`)),
		Metadata: radar.PageMetadata{
			Author:    author,
			Timestamp: timestamp,
			URL:       pageURL,
			Extra:     withSubreddit(extra, pageURL),
		},
	}
}

func (a *RedditAdapter) newReddit(doc *goquery.Document, pageURL string) radar.PageContent {
	post := doc.Find(`[data-test-id="post-content"]`).First()

	var timestamp string
	if ts, ok := post.Find("time").First().Attr("datetime"); ok {
		timestamp = ts
	}

	return radar.PageContent{
		Title:    blockText(post.Find("h1").First()),
		Body:     blockText(post.Find(`[data-click-id="text"], .RichTextJSON-root`).First()),
		Comments: collectTexts(doc.Find(`[data-testid="comment"]`)),
		Metadata: radar.PageMetadata{
			Author:    strings.TrimPrefix(normalizeLine(post.Find(`[data-testid="post_author_link"]`).First().Text()), "u/"),
			Timestamp: timestamp,
			URL:       pageURL,
			Extra:     withSubreddit(map[string]string{}, pageURL),
		},
	}
}

func (a *RedditAdapter) oldReddit(doc *goquery.Document, pageURL string) radar.PageContent {
	thing := doc.Find(".thing.link").First()

	extra := map[string]string{}
	if sub, ok := thing.Attr("data-subreddit"); ok {
		extra["subreddit"] = sub
	}
	if score, ok := thing.Attr("data-score"); ok {
		extra["score"] = score
	}
	author, _ := thing.Attr("data-author")
	timestamp, _ := thing.Find("time").First().Attr("datetime")

	return radar.PageContent{
		Title:    normalizeLine(thing.Find("a.title").First().Text()),
		Body:     blockText(thing.Find(".expando .usertext-body .md").First()),
		Comments: collectTexts(doc.Find(".commentarea .comment .entry .md")),
		Metadata: radar.PageMetadata{
			Author:    author,
			Timestamp: timestamp,
			URL:       pageURL,
			Extra:     withSubreddit(extra, pageURL),
		},
	}
}

var subredditPath = regexp.MustCompile(`^/r/([^/]+)`)

// withSubreddit fills the subreddit from the URL path when the page
// markup did not carry it.
func withSubreddit(extra map[string]string, pageURL string) map[string]string {
	if extra["subreddit"] == "" {
		if u, err := url.Parse(pageURL); err == nil {
			if m := subredditPath.FindStringSubmatch(u.Path); m != nil {
				extra["subreddit"] = m[1]
			}
		}
	}
	if len(extra) == 0 {
		return nil
	}
	return extra
}
