package payload

import (
	"testing"
	"time"

	"govreporter/internal/chunking"
	"govreporter/internal/llm"
	"govreporter/internal/models"
)

func scotusDoc() models.Document {
	return models.Document{
		ID:    "cl-12345",
		Title: "Smith v. Jones",
		Date:  "2024-03-15",
		Kind:  models.KindSCOTUS,
		URL:   "https://www.courtlistener.com/opinion/12345/",
		Metadata: map[string]any{
			"docket_number":   "22-451",
			"majority_author": "Roberts",
			"vote_majority":   6,
			"vote_minority":   3,
			"case_name_short": "Smith",
			"effective_date":  "", // empty, must be omitted
		},
	}
}

func scotusFields() *llm.SCOTUSFields {
	return &llm.SCOTUSFields{
		PlainLanguageSummary: "The Court held that the statute applies.",
		HoldingPlain:         "The statute applies.",
		OutcomeSimple:        "Affirmed",
		IssuePlain:           "Does the statute apply?",
		Reasoning:            "The text is unambiguous.",
		FederalStatutesCited: []string{"42 U.S.C. § 1983"},
		TopicsOrPolicyAreas:  []string{"a", "b", "c", "d", "e"},
	}
}

func testChunks() []chunking.Chunk {
	return []chunking.Chunk{
		{Text: "First chunk text.", SectionLabel: "Syllabus", TokenCount: 120, Index: 0},
		{Text: "Second chunk text.", SectionLabel: "Majority Opinion (Roberts)", TokenCount: 450, Index: 1},
	}
}

func TestBuildSCOTUS(t *testing.T) {
	payloads := BuildSCOTUS(scotusDoc(), testChunks(), scotusFields())
	if len(payloads) != 2 {
		t.Fatalf("expected 2 payloads, got %d", len(payloads))
	}

	p := payloads[0]
	if p.ID != "cl-12345_chunk_0" {
		t.Errorf("id = %q, want cl-12345_chunk_0", p.ID)
	}
	if p.Text != "First chunk text." {
		t.Errorf("text = %q", p.Text)
	}

	m := p.Metadata
	if m["document_id"] != "cl-12345" || m["source"] != "CourtListener" || m["type"] != "Supreme Court Opinion" {
		t.Errorf("document metadata wrong: %+v", m)
	}
	if m["year"] != 2024 {
		t.Errorf("year = %v, want 2024", m["year"])
	}
	if m["chunk_index"] != 0 || m["section_label"] != "Syllabus" || m["chunk_token_count"] != 120 {
		t.Errorf("chunk metadata wrong: %+v", m)
	}
	if m["holding_plain"] != "The statute applies." {
		t.Errorf("llm fields not merged: %+v", m)
	}
	if m["docket_number"] != "22-451" {
		t.Errorf("source metadata not carried: %+v", m)
	}
}

func TestEmptyValuesOmitted(t *testing.T) {
	payloads := BuildSCOTUS(scotusDoc(), testChunks(), scotusFields())
	m := payloads[0].Metadata

	if _, ok := m["effective_date"]; ok {
		t.Error("empty source field should be omitted")
	}
	// Empty LLM lists are omitted too.
	if _, ok := m["constitution_cited"]; ok {
		t.Error("empty llm list should be omitted")
	}
	// Non-empty lists survive.
	if _, ok := m["federal_statutes_cited"]; !ok {
		t.Error("non-empty llm list should be present")
	}
}

func TestYearFallbackOnBadDate(t *testing.T) {
	doc := scotusDoc()
	doc.Date = "March 15, 2024"

	payloads := BuildSCOTUS(doc, testChunks(), scotusFields())
	if got := payloads[0].Metadata["year"]; got != time.Now().Year() {
		t.Errorf("year = %v, want current year fallback", got)
	}
}

func TestSlashDateAccepted(t *testing.T) {
	doc := scotusDoc()
	doc.Date = "2023/11/02"

	payloads := BuildSCOTUS(doc, testChunks(), scotusFields())
	if got := payloads[0].Metadata["year"]; got != 2023 {
		t.Errorf("year = %v, want 2023", got)
	}
}

func TestInvalidChunksDropped(t *testing.T) {
	chunks := append(testChunks(), chunking.Chunk{Text: "", SectionLabel: "Opinion", TokenCount: 0, Index: 2})

	payloads := BuildSCOTUS(scotusDoc(), chunks, scotusFields())
	if len(payloads) != 2 {
		t.Errorf("empty-text chunk should be dropped, got %d payloads", len(payloads))
	}
}

func TestBuildEO(t *testing.T) {
	doc := models.Document{
		ID:    "2024-01234",
		Title: "Strengthening Infrastructure Resilience",
		Date:  "2024-06-01",
		Kind:  models.KindExecutiveOrder,
		URL:   "https://www.federalregister.gov/d/2024-01234",
		Metadata: map[string]any{
			"executive_order_number": "14123",
			"president":              "Biden",
			"signing_date":           "2024-05-28",
		},
	}
	fields := &llm.EOFields{
		PlainSummary:        "Establishes new requirements.",
		ActionPlain:         "Requires climate review.",
		ImpactSimple:        "Agencies must change approvals.",
		AgenciesOrEntities:  []string{"Department of Transportation"},
		TopicsOrPolicyAreas: []string{"a", "b", "c", "d", "e"},
	}

	payloads := BuildEO(doc, testChunks()[:1], fields)
	if len(payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(payloads))
	}
	m := payloads[0].Metadata
	if m["source"] != "Federal Register" || m["type"] != "Executive Order" {
		t.Errorf("document metadata wrong: %+v", m)
	}
	if m["executive_order_number"] != "14123" || m["president"] != "Biden" {
		t.Errorf("source metadata not carried: %+v", m)
	}
	if m["plain_summary"] != "Establishes new requirements." {
		t.Errorf("llm fields not merged: %+v", m)
	}
}
