// Package citations extracts legal citations from opinion and order text
// and formats Bluebook case citations from CourtListener cluster data.
//
// Extraction is pure regex over text - no network, no LLM. Three families
// are recognized: the Code of Federal Regulations, the United States Code,
// and the U.S. Constitution (both abbreviated Bluebook forms and spelled-out
// amendment names). Formatters mirror the parsers and are the inverse up to
// the FullCitation field.
package citations

import (
	"fmt"
	"regexp"
	"strings"
)

// =============================================================================
// CITATION PATTERNS
// =============================================================================

var (
	// 29 C.F.R. § 1910.147, 40 CFR 261, 40 C.F.R. Part 261
	cfrPattern = regexp.MustCompile(`(?i)(\d+)\s+C\.?\s?F\.?\s?R\.?\s+(?:§{1,2}|Part)?\s*(\d+(?:\.\d+)?)`)

	// 42 U.S.C. § 1983, 18 U.S.C. § 924(c)(1)
	uscPattern = regexp.MustCompile(`(?i)(\d+)\s+U\.?\s?S\.?\s?C\.?\s+§{0,2}\s*(\d+(?:\([a-zA-Z0-9]+\))*)`)

	// U.S. Const. art. III, § 2, cl. 3
	constArticlePattern = regexp.MustCompile(`U\.?\s?S\.?\s+Const\.?,?\s+[Aa]rt\.?\s+([IVXLC]+|\d+)(?:,?\s*§\s*(\d+))?(?:,?\s*cl\.?\s*(\d+))?`)

	// U.S. Const. amend. XIV, § 1
	constAmendPattern = regexp.MustCompile(`U\.?\s?S\.?\s+Const\.?,?\s+[Aa]mend\.?\s+([IVXLC]+|\d+)(?:,?\s*§\s*(\d+))?`)

	// "the Fourteenth Amendment" and friends
	spelledAmendPattern = regexp.MustCompile(`\b(Twenty-[A-Z][a-z]+|First|Second|Third|Fourth|Fifth|Sixth|Seventh|Eighth|Ninth|Tenth|Eleventh|Twelfth|Thirteenth|Fourteenth|Fifteenth|Sixteenth|Seventeenth|Eighteenth|Nineteenth|Twentieth)\s+Amendment\b`)
)

// ordinalToRoman maps spelled-out amendment ordinals to roman numerals.
var ordinalToRoman = map[string]string{
	"First": "I", "Second": "II", "Third": "III", "Fourth": "IV",
	"Fifth": "V", "Sixth": "VI", "Seventh": "VII", "Eighth": "VIII",
	"Ninth": "IX", "Tenth": "X", "Eleventh": "XI", "Twelfth": "XII",
	"Thirteenth": "XIII", "Fourteenth": "XIV", "Fifteenth": "XV",
	"Sixteenth": "XVI", "Seventeenth": "XVII", "Eighteenth": "XVIII",
	"Nineteenth": "XIX", "Twentieth": "XX",
	"Twenty-First": "XXI", "Twenty-Second": "XXII", "Twenty-Third": "XXIII",
	"Twenty-Fourth": "XXIV", "Twenty-Fifth": "XXV", "Twenty-Sixth": "XXVI",
	"Twenty-Seventh": "XXVII",
}

// =============================================================================
// CITATION RECORDS
// =============================================================================

// CFRCitation is a parsed Code of Federal Regulations citation.
type CFRCitation struct {
	Title        string `json:"title"`
	Section      string `json:"section"`
	FullCitation string `json:"full_citation"`
}

// USCCitation is a parsed United States Code citation.
type USCCitation struct {
	Title        string `json:"title"`
	Section      string `json:"section"`
	FullCitation string `json:"full_citation"`
}

// Constitution citation kinds.
const (
	KindArticle   = "article"
	KindAmendment = "amendment"
)

// ConstitutionCitation is a parsed U.S. Constitution citation.
type ConstitutionCitation struct {
	Kind         string `json:"type"` // article or amendment
	Number       string `json:"number"`
	Section      string `json:"section,omitempty"`
	Clause       string `json:"clause,omitempty"`
	FullCitation string `json:"full_citation"`
}

// FormatCFR renders the canonical citation string for a CFR record.
func FormatCFR(c CFRCitation) string {
	return fmt.Sprintf("%s CFR %s", c.Title, c.Section)
}

// FormatUSC renders the canonical citation string for a USC record.
func FormatUSC(c USCCitation) string {
	return fmt.Sprintf("%s U.S.C. § %s", c.Title, c.Section)
}

// FormatConstitution renders the canonical Bluebook string for a
// Constitution record.
func FormatConstitution(c ConstitutionCitation) string {
	var b strings.Builder
	if c.Kind == KindArticle {
		fmt.Fprintf(&b, "U.S. Const. art. %s", c.Number)
	} else {
		fmt.Fprintf(&b, "U.S. Const. amend. %s", c.Number)
	}
	if c.Section != "" {
		fmt.Fprintf(&b, ", § %s", c.Section)
	}
	if c.Clause != "" {
		fmt.Fprintf(&b, ", cl. %s", c.Clause)
	}
	return b.String()
}

// =============================================================================
// EXTRACTION
// =============================================================================

// ExtractCFR returns parsed CFR citations in first-seen order, deduplicated
// on the normalized citation string. Empty input yields nil.
func ExtractCFR(text string) []CFRCitation {
	var out []CFRCitation
	seen := make(map[string]bool)
	for _, m := range cfrPattern.FindAllStringSubmatch(text, -1) {
		c := CFRCitation{Title: m[1], Section: m[2]}
		c.FullCitation = FormatCFR(c)
		if seen[c.FullCitation] {
			continue
		}
		seen[c.FullCitation] = true
		out = append(out, c)
	}
	return out
}

// ExtractUSC returns parsed USC citations in first-seen order.
func ExtractUSC(text string) []USCCitation {
	var out []USCCitation
	seen := make(map[string]bool)
	for _, m := range uscPattern.FindAllStringSubmatch(text, -1) {
		c := USCCitation{Title: m[1], Section: m[2]}
		c.FullCitation = FormatUSC(c)
		if seen[c.FullCitation] {
			continue
		}
		seen[c.FullCitation] = true
		out = append(out, c)
	}
	return out
}

// ExtractConstitution returns parsed constitutional citations. Spelled-out
// amendment names ("Fourteenth Amendment") normalize to roman numerals.
func ExtractConstitution(text string) []ConstitutionCitation {
	var out []ConstitutionCitation
	seen := make(map[string]bool)

	add := func(c ConstitutionCitation) {
		c.FullCitation = FormatConstitution(c)
		if seen[c.FullCitation] {
			return
		}
		seen[c.FullCitation] = true
		out = append(out, c)
	}

	for _, m := range constArticlePattern.FindAllStringSubmatch(text, -1) {
		add(ConstitutionCitation{Kind: KindArticle, Number: m[1], Section: m[2], Clause: m[3]})
	}
	for _, m := range constAmendPattern.FindAllStringSubmatch(text, -1) {
		add(ConstitutionCitation{Kind: KindAmendment, Number: m[1], Section: m[2]})
	}
	for _, m := range spelledAmendPattern.FindAllStringSubmatch(text, -1) {
		roman, ok := ordinalToRoman[m[1]]
		if !ok {
			continue
		}
		add(ConstitutionCitation{Kind: KindAmendment, Number: roman})
	}

	return out
}

// ExtractAllStrings returns the normalized citation strings for every
// recognized family, grouped for payload metadata.
func ExtractAllStrings(text string) (cfr, usc, constitution []string) {
	for _, c := range ExtractCFR(text) {
		cfr = append(cfr, c.FullCitation)
	}
	for _, c := range ExtractUSC(text) {
		usc = append(usc, c.FullCitation)
	}
	for _, c := range ExtractConstitution(text) {
		constitution = append(constitution, c.FullCitation)
	}
	return cfr, usc, constitution
}

// =============================================================================
// BLUEBOOK CASE CITATIONS
// =============================================================================

// ClusterCitation is one reporter citation from a CourtListener cluster.
// Type 1 marks the official (primary) citation; other types are parallel
// citations.
type ClusterCitation struct {
	Type     int    `json:"type"`
	Volume   string `json:"volume"`
	Reporter string `json:"reporter"`
	Page     string `json:"page"`
}

// BuildBluebookCitation formats "Volume Reporter Page (Year)" from cluster
// citations and a YYYY-MM-DD filing date, e.g. "601 U.S. 416 (2024)".
// Returns "" when any required component is missing.
func BuildBluebookCitation(cites []ClusterCitation, dateFiled string) string {
	if len(cites) == 0 || dateFiled == "" {
		return ""
	}

	// Prefer the official citation, fall back to the first parallel one.
	primary := cites[0]
	for _, c := range cites {
		if c.Type == 1 {
			primary = c
			break
		}
	}

	if primary.Volume == "" || primary.Reporter == "" || primary.Page == "" {
		return ""
	}

	year := dateFiled
	if i := strings.IndexByte(dateFiled, '-'); i > 0 {
		year = dateFiled[:i]
	}
	if len(year) != 4 {
		return ""
	}

	return fmt.Sprintf("%s %s %s (%s)", primary.Volume, primary.Reporter, primary.Page, year)
}
