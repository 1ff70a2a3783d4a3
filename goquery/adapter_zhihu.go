package goquery

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/chen893/radar"
)

var _ radar.Adapter = (*ZhihuAdapter)(nil)

// ZhihuAdapter extracts questions, answers and columns from Zhihu.
// Answers are reported as comments.
type ZhihuAdapter struct{}

// NewZhihuAdapter creates a new ZhihuAdapter.
func NewZhihuAdapter() *ZhihuAdapter {
	return &ZhihuAdapter{}
}

// Platform returns radar.PlatformZhihu.
func (a *ZhihuAdapter) Platform() radar.Platform {
	return radar.PlatformZhihu
}

// CanHandle reports whether rawURL is on zhihu.com or a subdomain.
func (a *ZhihuAdapter) CanHandle(rawURL string) bool {
	return hostMatches(rawURL, "zhihu.com")
}

// Extract extracts the question or article and its answers.
func (a *ZhihuAdapter) Extract(snapshot *radar.Snapshot) *radar.ExtractionResult {
	return extract(radar.PlatformZhihu, snapshot, a.extract)
}

func (a *ZhihuAdapter) extract(doc *goquery.Document, pageURL string) (radar.PageContent, error) {
	switch {
	case doc.Find(".Post-Title").Length() > 0:
		return a.column(doc, pageURL), nil
	case doc.Find(".QuestionHeader-title").Length() > 0 && isAnswerURL(pageURL):
		return a.answer(doc, pageURL), nil
	case doc.Find(".QuestionHeader-title").Length() > 0:
		return a.question(doc, pageURL), nil
	}
	return radar.PageContent{}, radar.Errorf(radar.EEXTRACTION, "no zhihu question or article found")
}

// question handles /question/<id> pages listing many answers.
func (a *ZhihuAdapter) question(doc *goquery.Document, pageURL string) radar.PageContent {
	return radar.PageContent{
		Title:    normalizeLine(doc.Find(".QuestionHeader-title").First().Text()),
		Body:     firstText(doc, ".QuestionRichText", ".QuestionHeader-detail"),
		Comments: collectTexts(doc.Find(".AnswerItem .RichContent-inner")),
		Metadata: radar.PageMetadata{
			URL:   pageURL,
			Extra: answerCount(doc),
		},
	}
}

// answer handles /question/<id>/answer/<id> pages focused on one answer.
// The answer is the body; remaining answers and comments follow.
func (a *ZhihuAdapter) answer(doc *goquery.Document, pageURL string) radar.PageContent {
	first := doc.Find(".AnswerItem").First()

	body := blockText(first.Find(".RichContent-inner").First())
	if body == "" {
		body = firstText(doc, ".QuestionRichText")
	}

	var comments []string
	if items := doc.Find(".AnswerItem"); items.Length() > 1 {
		comments = collectTexts(items.Slice(1, goquery.ToEnd).Find(".RichContent-inner"))
	}
	if len(comments) < radar.MaxComments {
		comments = append(comments, collectTexts(doc.Find(".CommentContent"))...)
	}

	timestamp, _ := first.Find(`meta[itemprop="dateCreated"]`).First().Attr("content")

	return radar.PageContent{
		Title:    normalizeLine(doc.Find(".QuestionHeader-title").First().Text()),
		Body:     body,
		Comments: comments,
		Metadata: radar.PageMetadata{
			Author:    normalizeLine(first.Find(".AuthorInfo-name").First().Text()),
			Timestamp: strings.TrimSpace(timestamp),
			URL:       pageURL,
			Extra:     answerCount(doc),
		},
	}
}

// column handles zhuanlan.zhihu.com articles.
func (a *ZhihuAdapter) column(doc *goquery.Document, pageURL string) radar.PageContent {
	timestamp := normalizeLine(doc.Find(".ContentItem-time").First().Text())

	return radar.PageContent{
		Title:    normalizeLine(doc.Find(".Post-Title").First().Text()),
		Body:     firstText(doc, ".Post-RichText", ".RichText"),
		Comments: collectTexts(doc.Find(".CommentContent")),
		Metadata: radar.PageMetadata{
			Author:    normalizeLine(doc.Find(".AuthorInfo-name").First().Text()),
			Timestamp: timestamp,
			URL:       pageURL,
		},
	}
}

var answerPath = regexp.MustCompile(`/question/\d+/answer/\d+`)

func isAnswerURL(pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	return answerPath.MatchString(u.Path)
}

var digits = regexp.MustCompile(`\d[\d,]*`)

func answerCount(doc *goquery.Document) map[string]string {
	if v, ok := doc.Find(`meta[itemprop="answerCount"]`).First().Attr("content"); ok && strings.TrimSpace(v) != "" {
		return map[string]string{"answerCount": strings.TrimSpace(v)}
	}
	if m := digits.FindString(doc.Find(".List-headerText").First().Text()); m != "" {
		return map[string]string{"answerCount": strings.ReplaceAll(m, ",", "")}
	}
	return nil
}
