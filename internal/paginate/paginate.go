// Package paginate splits response text into display-sized pages for the
// glasses text wall. The split is deterministic: downstream page numbering
// and navigation depend on stable boundaries.
package paginate

import "strings"

const (
	DefaultCharsPerLine = 38
	DefaultLinesPerPage = 5

	// EmptyPage is rendered when the input produces no lines at all.
	EmptyPage = "(empty)"
)

// Pages wraps text into lines of at most charsPerLine characters and groups
// them into pages of at most linesPerPage lines. Wrapping is greedy on
// whitespace-delimited words; a single word longer than the line limit is
// hard-truncated to the limit, never hyphenated. Non-positive limits fall
// back to the defaults. Empty input yields exactly one placeholder page.
func Pages(text string, charsPerLine, linesPerPage int) []string {
	if charsPerLine <= 0 {
		charsPerLine = DefaultCharsPerLine
	}
	if linesPerPage <= 0 {
		linesPerPage = DefaultLinesPerPage
	}

	var lines []string
	cur := ""
	for _, word := range strings.Fields(text) {
		candidate := word
		if cur != "" {
			candidate = cur + " " + word
		}
		if len(candidate) <= charsPerLine {
			cur = candidate
			continue
		}
		if cur != "" {
			lines = append(lines, cur)
		}
		if len(word) > charsPerLine {
			word = word[:charsPerLine]
		}
		cur = word
	}
	if cur != "" {
		lines = append(lines, cur)
	}

	if len(lines) == 0 {
		return []string{EmptyPage}
	}

	pages := make([]string, 0, (len(lines)+linesPerPage-1)/linesPerPage)
	for i := 0; i < len(lines); i += linesPerPage {
		end := i + linesPerPage
		if end > len(lines) {
			end = len(lines)
		}
		pages = append(pages, strings.Join(lines[i:end], "\n"))
	}
	return pages
}
