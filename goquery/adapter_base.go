package goquery

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/chen893/radar"
	"golang.org/x/net/html"
)

// strategy performs platform-specific extraction on a parsed document.
type strategy func(doc *goquery.Document, pageURL string) (radar.PageContent, error)

// extract runs fn against the snapshot and turns any failure into a
// degraded fallback result. It never returns nil and never panics.
func extract(platform radar.Platform, snapshot *radar.Snapshot, fn strategy) *radar.ExtractionResult {
	if snapshot == nil {
		snapshot = &radar.Snapshot{}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snapshot.HTML))
	if err != nil {
		return fallback(platform, nil, snapshot.URL, radar.Errorf(radar.EEXTRACTION, "failed to parse HTML: %v", err))
	}

	content, err := runStrategy(fn, doc, snapshot.URL)
	if err == nil && content.Title == "" && content.Body == "" {
		err = radar.Errorf(radar.EEXTRACTION, "no content found")
	}
	if err != nil {
		return fallback(platform, doc, snapshot.URL, err)
	}

	return finish(&radar.ExtractionResult{
		Success:  true,
		Platform: platform,
		Content:  content,
	}, snapshot.URL)
}

// runStrategy converts panics inside fn into errors.
func runStrategy(fn strategy, doc *goquery.Document, pageURL string) (content radar.PageContent, err error) {
	defer func() {
		if r := recover(); r != nil {
			content = radar.PageContent{}
			err = fmt.Errorf("extraction panicked: %v", r)
		}
	}()
	content, err = fn(doc, pageURL)
	normalizeContent(&content)
	return content, err
}

// fallback reads the document title and a bounded slice of body text.
func fallback(platform radar.Platform, doc *goquery.Document, pageURL string, cause error) *radar.ExtractionResult {
	var content radar.PageContent
	if doc != nil {
		content.Title = documentTitle(doc)
		content.Body = firstRunes(blockText(doc.Find("body")), radar.FallbackTextLength)
	}
	normalizeContent(&content)

	return finish(&radar.ExtractionResult{
		Success:      true,
		Platform:     platform,
		Content:      content,
		FallbackUsed: true,
		Error:        causeText(cause),
	}, pageURL)
}

// finish fills metadata defaults and computes the truncation flag.
func finish(r *radar.ExtractionResult, pageURL string) *radar.ExtractionResult {
	if r.Content.Metadata.URL == "" {
		r.Content.Metadata.URL = pageURL
	}
	if len(r.Content.Comments) > radar.MaxComments {
		r.Content.Comments = r.Content.Comments[:radar.MaxComments]
	}
	if n := r.TextLength(); n > radar.MaxContentLength {
		r.Truncated = true
		r.OriginalLength = n
	}
	return r
}

func normalizeContent(c *radar.PageContent) {
	c.Title = normalizeLine(c.Title)
	c.Body = normalizeText(c.Body)
	comments := c.Comments[:0:0]
	for _, s := range c.Comments {
		if s = normalizeText(s); s != "" {
			comments = append(comments, s)
		}
		if len(comments) == radar.MaxComments {
			break
		}
	}
	c.Comments = comments
	c.Metadata.Author = normalizeLine(c.Metadata.Author)
}

func causeText(err error) string {
	if code := radar.ErrorCode(err); code != "" && code != radar.EINTERNAL {
		return radar.ErrorMessage(err)
	}
	return err.Error()
}

var (
	spaceRun = regexp.MustCompile(`[ \t\f\v\r\x{00A0}\x{3000}]+`)
	blankRun = regexp.MustCompile(`\n{3,}`)
)

// normalizeText collapses runs of horizontal whitespace to one space and
// allows at most one blank line between paragraphs.
func normalizeText(s string) string {
	s = spaceRun.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")
	s = blankRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// normalizeLine collapses all whitespace, including newlines.
func normalizeLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return strings.TrimSpace(s[:pos])
		}
		i++
	}
	return s
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"pre": true, "section": true, "table": true, "tr": true, "ul": true,
}

var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"svg": true, "iframe": true,
}

// blockText returns the visible text of sel with paragraph breaks
// preserved, roughly what a browser reports as innerText.
func blockText(sel *goquery.Selection) string {
	var sb strings.Builder
	for _, n := range sel.Nodes {
		writeText(&sb, n)
	}
	return normalizeText(sb.String())
}

func writeText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		if skippedElements[n.Data] {
			return
		}
		switch {
		case n.Data == "br":
			sb.WriteString("\n")
			return
		case n.Data == "p":
			sb.WriteString("\n\n")
			defer sb.WriteString("\n\n")
		case blockElements[n.Data]:
			sb.WriteString("\n")
			defer sb.WriteString("\n")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(sb, c)
	}
}

// documentTitle returns the <title> text, falling back to og:title.
func documentTitle(doc *goquery.Document) string {
	if t := normalizeLine(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return metaContent(doc, `meta[property="og:title"]`)
}

// metaContent returns the trimmed content attribute of the first match.
func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(v)
}

// firstText returns the block text of the first selector that yields
// non-empty text.
func firstText(doc *goquery.Document, selectors ...string) string {
	for _, s := range selectors {
		if t := blockText(doc.Find(s).First()); t != "" {
			return t
		}
	}
	return ""
}

// collectTexts returns the block text of each match, up to MaxComments.
func collectTexts(sel *goquery.Selection) []string {
	var out []string
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if t := blockText(s); t != "" {
			out = append(out, t)
		}
		return len(out) < radar.MaxComments
	})
	return out
}

// hostMatches reports whether rawURL's host is domain or a subdomain of it.
func hostMatches(rawURL, domain string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == domain || strings.HasSuffix(host, "."+domain)
}
