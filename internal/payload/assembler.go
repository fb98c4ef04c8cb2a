// Package payload assembles vector-store payloads from a document, its
// chunks, and the metadata the extractor produced for it.
package payload

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"govreporter/internal/chunking"
	"govreporter/internal/llm"
	"govreporter/internal/logging"
	"govreporter/internal/models"
)

// =============================================================================
// PAYLOAD ASSEMBLY
// =============================================================================

// BuildSCOTUS produces one payload per chunk of a Supreme Court opinion.
// Invalid payloads are dropped with a warning, never raised.
func BuildSCOTUS(doc models.Document, chunks []chunking.Chunk, fields *llm.SCOTUSFields) []models.Payload {
	return build(doc, chunks, fieldsToMap(fields))
}

// BuildEO produces one payload per chunk of an Executive Order.
func BuildEO(doc models.Document, chunks []chunking.Chunk, fields *llm.EOFields) []models.Payload {
	return build(doc, chunks, fieldsToMap(fields))
}

func build(doc models.Document, chunks []chunking.Chunk, llmFields map[string]any) []models.Payload {
	base := documentMetadata(doc)
	for k, v := range llmFields {
		base[k] = v
	}

	payloads := make([]models.Payload, 0, len(chunks))
	for _, ch := range chunks {
		meta := make(map[string]any, len(base)+3)
		for k, v := range base {
			meta[k] = v
		}
		meta["chunk_index"] = ch.Index
		meta["section_label"] = ch.SectionLabel
		meta["chunk_token_count"] = ch.TokenCount

		p := models.Payload{
			ID:       doc.ID + "_chunk_" + strconv.Itoa(ch.Index),
			Text:     ch.Text,
			Metadata: meta,
		}
		if err := validate(p, doc.ID); err != nil {
			logging.IngestWarn("dropping invalid payload for document %s: %v", doc.ID, err)
			continue
		}
		payloads = append(payloads, p)
	}
	return payloads
}

// documentMetadata flattens document-level fields into the fixed payload
// schema. Source-specific fields travel verbatim from the document's
// metadata map; empty values are omitted.
func documentMetadata(doc models.Document) map[string]any {
	meta := map[string]any{
		"document_id":      doc.ID,
		"title":            doc.Title,
		"publication_date": doc.Date,
		"year":             yearOf(doc.Date, doc.ID),
		"source":           doc.Kind.DisplaySource(),
		"type":             doc.Kind.DisplayType(),
		"url":              doc.URL,
	}
	for k, v := range doc.Metadata {
		if !isEmptyValue(v) {
			meta[k] = v
		}
	}
	for k, v := range meta {
		if isEmptyValue(v) {
			delete(meta, k)
		}
	}
	return meta
}

// yearOf extracts the year from a YYYY-MM-DD or YYYY/MM/DD date. A date
// that parses as neither defaults to the current year with a warning.
func yearOf(date, docID string) int {
	for _, layout := range []string{"2006-01-02", "2006/01/02"} {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Year()
		}
	}
	year := time.Now().Year()
	logging.IngestWarn("document %s has unparseable date %q, defaulting year to %d", docID, date, year)
	return year
}

// fieldsToMap converts a typed fields struct to a flat map via its JSON
// tags, dropping empty strings and empty lists.
func fieldsToMap(fields any) map[string]any {
	data, err := json.Marshal(fields)
	if err != nil {
		logging.IngestWarn("failed to flatten llm fields: %v", err)
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		logging.IngestWarn("failed to flatten llm fields: %v", err)
		return nil
	}
	for k, v := range m {
		if isEmptyValue(v) {
			delete(m, k)
		}
	}
	return m
}

func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	default:
		return false
	}
}

func validate(p models.Payload, docID string) error {
	if p.ID == "" || docID == "" {
		return fmt.Errorf("payload has no id")
	}
	if p.Text == "" {
		return fmt.Errorf("payload %s has empty text", p.ID)
	}
	if p.Metadata == nil {
		return fmt.Errorf("payload %s has no metadata", p.ID)
	}
	return nil
}
