package apis

import (
	"html"
	"regexp"
	"strings"
)

// =============================================================================
// HTML CLEANING
// =============================================================================

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
	blockCloseTag     = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr)>`)
	lineBreakTag      = regexp.MustCompile(`(?i)<br\s*/?>`)
	multiSpacePattern = regexp.MustCompile(`[ \t]{2,}`)
	multiBlankPattern = regexp.MustCompile(`\n{3,}`)
)

// StripHTML removes tags and decodes entities from an HTML body, keeping
// paragraph breaks so section structure survives into chunking.
func StripHTML(raw string) string {
	// Block-level closers become newlines before tags are dropped.
	text := blockCloseTag.ReplaceAllString(raw, "\n")
	text = lineBreakTag.ReplaceAllString(text, "\n")
	text = htmlTagPattern.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	text = multiSpacePattern.ReplaceAllString(text, " ")
	text = multiBlankPattern.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// LooksLikeHTML reports whether a body needs stripping before use.
func LooksLikeHTML(body string) bool {
	probe := body
	if len(probe) > 1024 {
		probe = probe[:1024]
	}
	probe = strings.ToLower(probe)
	return strings.Contains(probe, "<html") || strings.Contains(probe, "<!doctype") ||
		strings.Contains(probe, "<body") || strings.Contains(probe, "<div")
}
