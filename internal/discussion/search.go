package discussion

import (
	"html/template"
	"regexp"
	"strings"

	"threadkit/internal/models"
)

// Filter keeps the records whose body or author contains query, ignoring case.
// It runs before tree assembly, so a match whose parent did not match surfaces
// as an orphan under the root. A blank query returns a copy of the whole set.
func Filter(query string, set []models.Comment) []models.Comment {
	out := make([]models.Comment, 0, len(set))
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append(out, set...)
	}
	for _, c := range set {
		if strings.Contains(strings.ToLower(c.Body), q) || strings.Contains(strings.ToLower(c.Author), q) {
			out = append(out, c)
		}
	}
	return out
}

// Highlight escapes the sanitized source and wraps every match in <mark>. The render
// engine is bypassed, so markup in the source is shown literally while searching.
func Highlight(source, query string) template.HTML {
	q := strings.TrimSpace(query)
	if q == "" {
		return template.HTML(template.HTMLEscapeString(source))
	}
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(q))
	var b strings.Builder
	last := 0
	for _, m := range re.FindAllStringIndex(source, -1) {
		b.WriteString(template.HTMLEscapeString(source[last:m[0]]))
		b.WriteString("<mark>")
		b.WriteString(template.HTMLEscapeString(source[m[0]:m[1]]))
		b.WriteString("</mark>")
		last = m[1]
	}
	b.WriteString(template.HTMLEscapeString(source[last:]))
	return template.HTML(b.String())
}
