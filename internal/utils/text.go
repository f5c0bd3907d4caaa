package utils

import (
	"regexp"
	"strings"
)

// A tag footer line holds nothing but #tag tokens. "# Heading" does not qualify
// because a token needs at least one character right after the hash.
var tagFooterLine = regexp.MustCompile(`(?m)^[ \t]*#[\p{L}\p{N}_-]+(?:[ \t]+#[\p{L}\p{N}_-]+)*[ \t]*(?:\r?\n|$)`)

// StripTagFooter removes whole lines made only of hashtags, keeping in-sentence tags.
func StripTagFooter(body string) string {
	if !strings.Contains(body, "#") {
		return body
	}
	stripped := tagFooterLine.ReplaceAllString(body, "")
	if stripped == body {
		return body
	}
	return strings.TrimRight(stripped, " \t\r\n")
}

// Truncate cuts s to at most n runes, appending an ellipsis when it cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n])) + "…"
}

// RuneLen is the display length used for truncation decisions.
func RuneLen(s string) int {
	return len([]rune(s))
}
