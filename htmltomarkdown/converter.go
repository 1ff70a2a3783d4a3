package htmltomarkdown

import (
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/chen893/radar"
	"github.com/microcosm-cc/bluemonday"
)

var _ radar.Converter = (*Converter)(nil)

var blankLines = regexp.MustCompile(`\n{3,}`)

// Converter wraps html-to-markdown. Input is first reduced by a bluemonday
// policy to text-bearing markup, since only the text reaches the model.
type Converter struct {
	policy *bluemonday.Policy
	conv   *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{policy: textPolicy(), conv: conv}
}

// textPolicy keeps structural and inline text elements plus link targets.
// Media, forms and embedded documents are dropped along with their content.
func textPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "hr", "div", "span", "section", "article", "main",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "dl", "dt", "dd",
		"blockquote", "pre", "code", "kbd", "samp",
		"b", "strong", "i", "em", "u", "s", "del", "ins", "mark", "sub", "sup", "small",
		"table", "thead", "tbody", "tfoot", "tr", "th", "td", "caption",
		"figure", "figcaption",
	)
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.RequireParseableURLs(true)
	p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("td", "th")
	p.SkipElementsContent(
		"script", "style", "noscript", "template", "iframe", "object", "embed",
		"svg", "canvas", "video", "audio", "picture",
		"button", "form", "select", "textarea",
	)
	return p
}

// Convert transforms HTML content into Markdown.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", radar.Errorf(radar.EINVALID, "empty HTML input")
	}

	cleaned := c.policy.Sanitize(html)

	result, err := c.conv.ConvertString(cleaned)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(blankLines.ReplaceAllString(result, "\n\n")), nil
}
