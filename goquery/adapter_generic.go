package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/chen893/radar"
)

var _ radar.Adapter = (*GenericAdapter)(nil)

// GenericAdapter extracts the main content of any page.
//
// Extractors are tried in order and the first one returning content wins.
// Its HTML is converted to Markdown when a Converter is set. Without
// extractors the adapter reads the page's semantic main region.
type GenericAdapter struct {
	Extractors []radar.Extractor
	Converter  radar.Converter
}

// NewGenericAdapter creates a GenericAdapter. converter may be nil.
func NewGenericAdapter(converter radar.Converter, extractors ...radar.Extractor) *GenericAdapter {
	return &GenericAdapter{
		Extractors: extractors,
		Converter:  converter,
	}
}

// Platform returns radar.PlatformGeneric.
func (a *GenericAdapter) Platform() radar.Platform {
	return radar.PlatformGeneric
}

// CanHandle always returns true.
func (a *GenericAdapter) CanHandle(string) bool {
	return true
}

// Extract extracts the page's main content and descriptive meta tags.
func (a *GenericAdapter) Extract(snapshot *radar.Snapshot) *radar.ExtractionResult {
	return extract(radar.PlatformGeneric, snapshot, a.extract)
}

func (a *GenericAdapter) extract(doc *goquery.Document, pageURL string) (radar.PageContent, error) {
	content := radar.PageContent{
		Title:    documentTitle(doc),
		Metadata: pageMetadata(doc, pageURL),
	}

	if len(a.Extractors) == 0 {
		content.Body = firstText(doc, "main", "article", `[role="main"]`, ".content", "body")
		return content, nil
	}

	rawHTML, err := goquery.OuterHtml(doc.Selection)
	if err != nil {
		return radar.PageContent{}, err
	}

	var lastErr error
	for _, e := range a.Extractors {
		res, err := e.Extract(rawHTML)
		if err != nil {
			lastErr = err
			continue
		}
		if res == nil || strings.TrimSpace(res.ContentHTML) == "" {
			continue
		}

		body, err := a.body(res.ContentHTML)
		if err != nil {
			lastErr = err
			continue
		}
		if body == "" {
			continue
		}

		content.Body = body
		content.Comments = res.Comments
		if content.Title == "" {
			content.Title = res.Title
		}
		if content.Metadata.Author == "" {
			content.Metadata.Author = res.Author
		}
		return content, nil
	}

	if lastErr != nil {
		return radar.PageContent{}, lastErr
	}
	return radar.PageContent{}, radar.Errorf(radar.EEXTRACTION, "no main content found")
}

// body turns extracted content HTML into text.
func (a *GenericAdapter) body(contentHTML string) (string, error) {
	if a.Converter != nil {
		md, err := a.Converter.Convert(contentHTML)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(md), nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(contentHTML))
	if err != nil {
		return "", err
	}
	return blockText(doc.Find("body")), nil
}

// pageMetadata reads author, publication time and description meta tags.
func pageMetadata(doc *goquery.Document, pageURL string) radar.PageMetadata {
	md := radar.PageMetadata{
		Author: firstNonEmpty(
			metaContent(doc, `meta[name="author"]`),
			metaContent(doc, `meta[property="article:author"]`),
		),
		Timestamp: firstNonEmpty(
			metaContent(doc, `meta[property="article:published_time"]`),
			metaContent(doc, `meta[name="date"]`),
		),
		URL: pageURL,
	}

	extra := map[string]string{}
	if canonical, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok && strings.HasPrefix(canonical, "http") {
		extra["canonical"] = canonical
	}
	if d := firstNonEmpty(metaContent(doc, `meta[name="description"]`), metaContent(doc, `meta[property="og:description"]`)); d != "" {
		extra["description"] = d
	}
	if s := metaContent(doc, `meta[property="og:site_name"]`); s != "" {
		extra["siteName"] = s
	}
	if len(extra) > 0 {
		md.Extra = extra
	}
	return md
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
