package chunking

import (
	"regexp"
	"strings"

	"govreporter/internal/logging"
)

// =============================================================================
// EXECUTIVE ORDER GRAMMAR
// =============================================================================

var (
	// "Section 1." / "Sec. 2." at the start of a paragraph.
	eoSectionPattern = regexp.MustCompile(`(?mi)^\s*(Sec(?:tion)?\.?\s*(\d+[A-Za-z\-]*)\.)`)

	// "Sec. 1. Purpose." - the short title following the section number.
	eoTitlePattern = regexp.MustCompile(`(?i)^Sec(?:tion)?\.?\s*\d+[A-Za-z\-]*\.\s*([^.]+)\.`)

	// Lettered subsections "(a)", "(b)" at the start of a line. These never
	// open a new section; they only refine the label.
	eoSubsectionPattern = regexp.MustCompile(`(?m)^\s*\(([a-z])\)\s*`)
)

// chunkEO splits an Executive Order into preamble and numbered sections and
// chunks each independently. Overlap never crosses a section boundary: an
// EO section is the legally operative unit.
func (c *Chunker) chunkEO(text string) []Chunk {
	matches := eoSectionPattern.FindAllStringSubmatchIndex(text, -1)

	if len(matches) == 0 {
		logging.Get(logging.CategoryChunking).Warn("no section markers found in Executive Order")
		return reindex(chunkSection(text, "Executive Order", c.cfg, c.counter))
	}

	var chunks []Chunk

	// Preamble: everything before the first section heading.
	if preamble := strings.TrimSpace(text[:matches[0][0]]); preamble != "" {
		chunks = append(chunks, chunkSection(preamble, "Preamble", c.cfg, c.counter)...)
	}

	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		sectionText := strings.TrimSpace(text[m[0]:end])
		if sectionText == "" {
			continue
		}

		number := text[m[4]:m[5]]
		title := ""
		if tm := eoTitlePattern.FindStringSubmatch(sectionText); tm != nil {
			title = strings.TrimSpace(tm[1])
		}

		chunks = append(chunks, chunkEOSection(sectionText, number, title, c)...)
	}

	logging.Chunking("chunked Executive Order into %d chunks", len(chunks))
	return reindex(chunks)
}

// chunkEOSection chunks one numbered section. When the section carries
// multiple lettered subsections, each is chunked on its own with the letter
// attached to the section number, e.g. "Sec. 2(a) - Policy".
func chunkEOSection(sectionText, number, title string, c *Chunker) []Chunk {
	subs := eoSubsectionPattern.FindAllStringSubmatchIndex(sectionText, -1)
	if len(subs) < 2 {
		return chunkSection(sectionText, eoLabel(number, "", title), c.cfg, c.counter)
	}

	var chunks []Chunk

	// The section heading and any text before "(a)" stay under the base label.
	if head := strings.TrimSpace(sectionText[:subs[0][0]]); head != "" {
		chunks = append(chunks, chunkSection(head, eoLabel(number, "", title), c.cfg, c.counter)...)
	}

	for i, m := range subs {
		end := len(sectionText)
		if i+1 < len(subs) {
			end = subs[i+1][0]
		}
		subText := strings.TrimSpace(sectionText[m[0]:end])
		if subText == "" {
			continue
		}
		letter := sectionText[m[2]:m[3]]
		chunks = append(chunks, chunkSection(subText, eoLabel(number, letter, title), c.cfg, c.counter)...)
	}

	return chunks
}

// eoLabel renders a section label: the subsection letter binds to the
// number, the short title follows.
func eoLabel(number, letter, title string) string {
	label := "Sec. " + number
	if letter != "" {
		label += "(" + letter + ")"
	}
	if title != "" {
		label += " - " + title
	}
	return label
}
