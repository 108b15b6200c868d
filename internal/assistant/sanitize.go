// Package assistant runs prompt turns end to end: accept speech or typed
// input, call the language model, sanitize the reply, and drive the glasses
// display through the paginated result.
package assistant

import (
	"regexp"
	"strings"
)

// The glasses render a plain text wall, so markdown decoration from the model
// only wastes columns. Strip the markers but keep their inner text.
var (
	reBold      = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	reItalic    = regexp.MustCompile(`\*([^*]+)\*`)
	reCode      = regexp.MustCompile("`([^`]+)`")
	reHeading   = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	reBullet    = regexp.MustCompile(`(?m)^\s*[-*]\s+`)
	reNumbered  = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	reBlankRuns = regexp.MustCompile(`\n{3,}`)
)

// StripMarkdown flattens common markdown decoration to plain text and
// collapses runs of blank lines down to a single blank line.
func StripMarkdown(text string) string {
	text = reBold.ReplaceAllString(text, "$1")
	text = reItalic.ReplaceAllString(text, "$1")
	text = reCode.ReplaceAllString(text, "$1")
	text = reHeading.ReplaceAllString(text, "")
	text = reBullet.ReplaceAllString(text, "")
	text = reNumbered.ReplaceAllString(text, "")
	text = reBlankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Truncate shortens text to at most max runes of output, replacing the tail
// with "..." when it does not fit.
func Truncate(text string, max int) string {
	if max <= 3 {
		max = 4
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-3]) + "..."
}
