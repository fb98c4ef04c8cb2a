package chunking

import (
	"fmt"

	"govreporter/internal/models"
	"govreporter/internal/tokens"
)

// =============================================================================
// CHUNKER
// =============================================================================

// Chunker splits documents of one kind under one token budget.
type Chunker struct {
	kind    models.DocumentKind
	cfg     Config
	counter tokens.Counter
}

// New creates a chunker for the given document kind. The budget is
// validated here; an invalid budget is a construction-time error.
func New(kind models.DocumentKind, cfg Config, counter tokens.Counter) (*Chunker, error) {
	if kind != models.KindSCOTUS && kind != models.KindExecutiveOrder {
		return nil, fmt.Errorf("unknown document kind: %d", kind)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chunking config: %w", err)
	}
	if counter == nil {
		counter = tokens.NewCounter()
	}
	return &Chunker{kind: kind, cfg: cfg, counter: counter}, nil
}

// Config returns the chunker's token budget.
func (c *Chunker) Config() Config {
	return c.cfg
}

// Chunk splits text per the chunker's grammar. Empty content yields zero
// chunks, not an error. For SCOTUS opinions the second return value is the
// Syllabus body when one was detected; it is always "" for Executive Orders.
func (c *Chunker) Chunk(text string) ([]Chunk, string) {
	if normalizeWhitespace(text) == "" {
		return nil, ""
	}
	switch c.kind {
	case models.KindExecutiveOrder:
		return c.chunkEO(text), ""
	default:
		return c.chunkSCOTUS(text)
	}
}
