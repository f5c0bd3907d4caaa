package utils

import (
	"bytes"
	"html/template"
	"regexp"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdParser = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	policy = bluemonday.UGCPolicy()

	// Hive account names: 3-16 chars, lowercase, dots and dashes inside
	mention = regexp.MustCompile(`(^|[\s(])@([a-z][a-z0-9.-]{1,14}[a-z0-9])\b`)
)

func init() {
	policy.AllowImages()
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)
}

// RenderMarkdown converts comment markup to sanitized, enhanced HTML.
func RenderMarkdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(linkMentions(source)), &buf); err != nil {
		// never hand unsanitized source to a template
		return template.HTML(template.HTMLEscapeString(source))
	}

	sanitized := policy.SanitizeBytes(buf.Bytes())

	return EnhanceHTMLContent(string(sanitized))
}

// MarkdownRenderer is the render engine handed to discussion sessions.
type MarkdownRenderer struct{}

func (MarkdownRenderer) Render(source string) template.HTML {
	return RenderMarkdown(source)
}

// linkMentions turns @account mentions into profile links.
func linkMentions(source string) string {
	return mention.ReplaceAllString(source, "$1[@$2](/@$2)")
}
