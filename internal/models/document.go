// Package models holds the core data types shared across the ingestion
// pipeline: documents fetched from upstream APIs and the payloads stored
// in the vector database.
package models

// =============================================================================
// DOCUMENT
// =============================================================================

// DocumentKind tags the document union. The chunker and extractor select
// their grammar and prompt by matching the tag.
type DocumentKind int

const (
	KindSCOTUS DocumentKind = iota
	KindExecutiveOrder
)

// String returns the canonical type identifier.
func (k DocumentKind) String() string {
	switch k {
	case KindSCOTUS:
		return "supreme_court_opinion"
	case KindExecutiveOrder:
		return "executive_order"
	default:
		return "unknown"
	}
}

// SourceName returns the upstream source identifier.
func (k DocumentKind) SourceName() string {
	switch k {
	case KindSCOTUS:
		return "court_listener"
	case KindExecutiveOrder:
		return "federal_register"
	default:
		return "unknown"
	}
}

// DisplaySource is the human-readable source name stored in payloads.
func (k DocumentKind) DisplaySource() string {
	switch k {
	case KindSCOTUS:
		return "CourtListener"
	case KindExecutiveOrder:
		return "Federal Register"
	default:
		return "Unknown"
	}
}

// DisplayType is the human-readable document type stored in payloads.
func (k DocumentKind) DisplayType() string {
	switch k {
	case KindSCOTUS:
		return "Supreme Court Opinion"
	case KindExecutiveOrder:
		return "Executive Order"
	default:
		return "Unknown"
	}
}

// Document is the canonical pipeline input, constructed by an API client
// and consumed by the orchestrator. It is never persisted whole; only its
// derived chunks are stored.
type Document struct {
	ID      string
	Title   string
	Date    string // YYYY-MM-DD
	Kind    DocumentKind
	Content string
	URL     string

	// Metadata carries source-specific fields that travel verbatim into
	// payloads: docket numbers, vote counts, president, signing date.
	Metadata map[string]any
}

// =============================================================================
// PAYLOAD
// =============================================================================

// Payload is one stored record per chunk: the chunk text plus merged
// document metadata and extracted fields.
type Payload struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}
