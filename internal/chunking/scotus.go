package chunking

import (
	"regexp"
	"strings"

	"govreporter/internal/logging"
	"govreporter/internal/tokens"
)

// =============================================================================
// SCOTUS OPINION GRAMMAR
// =============================================================================

var (
	// "Syllabus" heading on its own line after the case caption. Anchoring
	// to the line keeps prose mentions of the word from opening the section.
	syllabusPattern = regexp.MustCompile(`(?mi)^[ \t]*Syllabus[ \t]*$`)

	// "JUSTICE THOMAS delivered the opinion of the Court."
	majorityPattern = regexp.MustCompile(`(?i)(?:CHIEF\s+)?JUSTICE\s+([A-Za-z'\-]+)\s+delivered\s+the\s+opinion\s+of\s+the\s+Court`)

	// "Per Curiam" opinions carry no authoring justice.
	perCuriamPattern = regexp.MustCompile(`(?i)\bPer\s+Curiam\b`)

	// "JUSTICE SOTOMAYOR, with whom JUSTICE KAGAN joins, concurring in part
	// and dissenting in part." The trailing qualifier decides the label.
	separatePattern = regexp.MustCompile(`(?i)(?:CHIEF\s+)?JUSTICE\s+([A-Za-z'\-]+),\s+(?:with\s+whom.*?joins?,\s+)?(concurring|dissenting)((?:\s+in\s+(?:part|the\s+judgment))?(?:\s+and\s+dissenting\s+in\s+part)?)`)

	// Roman numeral part headings on their own line (I, II, III ...).
	romanPartPattern = regexp.MustCompile(`(?m)^\s*([IVX]+)\s*$`)
)

// sectionMark is one detected section opening.
type sectionMark struct {
	start int
	label string
}

// chunkSCOTUS splits a Supreme Court opinion into labeled sections and
// chunks each independently. The Syllabus text (minus its heading) is
// returned separately so callers can feed it to the metadata extractor.
func (c *Chunker) chunkSCOTUS(text string) ([]Chunk, string) {
	marks := detectSCOTUSSections(text)

	if len(marks) == 0 {
		logging.Get(logging.CategoryChunking).Warn("no section markers found in Supreme Court opinion")
		return reindex(chunkSection(text, "Opinion", c.cfg, c.counter)), ""
	}

	var chunks []Chunk
	var syllabus string

	for i, mark := range marks {
		end := len(text)
		if i+1 < len(marks) {
			end = marks[i+1].start
		}
		sectionText := strings.TrimSpace(text[mark.start:end])
		if sectionText == "" {
			continue
		}

		if mark.label == "Syllabus" {
			// Content after the heading line; the heading itself stays in
			// the chunk text.
			if _, body, found := strings.Cut(sectionText, "\n"); found {
				syllabus = strings.TrimSpace(body)
			}
		}

		chunks = append(chunks, chunkOpinionSection(sectionText, mark.label, c.cfg, c.counter)...)
	}

	logging.Chunking("chunked Supreme Court opinion into %d chunks across %d sections", len(chunks), len(marks))
	return reindex(chunks), syllabus
}

// detectSCOTUSSections locates every recognized section opening, sorted by
// position. Opinion text before the first marker is caption/reporter
// boilerplate and is not chunked.
func detectSCOTUSSections(text string) []sectionMark {
	var marks []sectionMark

	if m := syllabusPattern.FindStringIndex(text); m != nil {
		marks = append(marks, sectionMark{m[0], "Syllabus"})
	}

	if m := majorityPattern.FindStringSubmatchIndex(text); m != nil {
		name := justiceName(text[m[2]:m[3]])
		marks = append(marks, sectionMark{m[0], "Majority Opinion (" + name + ")"})
	} else if m := perCuriamPattern.FindStringIndex(text); m != nil {
		marks = append(marks, sectionMark{m[0], "Per Curiam Opinion"})
	}

	for _, m := range separatePattern.FindAllStringSubmatchIndex(text, -1) {
		name := justiceName(text[m[2]:m[3]])
		verb := strings.ToLower(text[m[4]:m[5]])
		tail := strings.ToLower(text[m[6]:m[7]])

		var label string
		switch {
		case verb == "concurring" && strings.Contains(tail, "dissenting in part"):
			label = "Concurring in Part, Dissenting in Part (" + name + ")"
		case verb == "concurring":
			label = "Concurring Opinion (" + name + ")"
		default:
			label = "Dissenting Opinion (" + name + ")"
		}
		marks = append(marks, sectionMark{m[0], label})
	}

	// Insertion sort by position; section lists are tiny.
	for i := 1; i < len(marks); i++ {
		for j := i; j > 0 && marks[j].start < marks[j-1].start; j-- {
			marks[j], marks[j-1] = marks[j-1], marks[j]
		}
	}

	return marks
}

// chunkOpinionSection chunks one opinion section, splitting on roman
// numeral part headings when the opinion uses them. Parts are chunked
// independently with " - Part <N>" appended to the label.
func chunkOpinionSection(sectionText, label string, cfg Config, counter tokens.Counter) []Chunk {
	parts := romanPartPattern.FindAllStringSubmatchIndex(sectionText, -1)
	if len(parts) < 2 {
		return chunkSection(sectionText, label, cfg, counter)
	}

	var chunks []Chunk

	// Opening text before the first part heading stays under the base label.
	if intro := strings.TrimSpace(sectionText[:parts[0][0]]); intro != "" {
		chunks = append(chunks, chunkSection(intro, label, cfg, counter)...)
	}

	for i, m := range parts {
		end := len(sectionText)
		if i+1 < len(parts) {
			end = parts[i+1][0]
		}
		partText := strings.TrimSpace(sectionText[m[0]:end])
		if partText == "" {
			continue
		}
		numeral := sectionText[m[2]:m[3]]
		chunks = append(chunks, chunkSection(partText, label+" - Part "+numeral, cfg, counter)...)
	}

	return chunks
}

// justiceName normalizes an all-caps justice surname to title case.
func justiceName(s string) string {
	s = strings.ToLower(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
