// Package embedding generates vector embeddings for document chunks and
// search queries. The production backend is the OpenAI embeddings API;
// the Engine interface keeps callers decoupled from it.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

// =============================================================================
// EMBEDDING ENGINE INTERFACE
// =============================================================================

// DefaultDimensions is the vector size of text-embedding-3-small, and the
// size every collection in the vector store is created with.
const DefaultDimensions = 1536

// Engine generates vector embeddings for text.
type Engine interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts. The result is
	// positionally aligned with the input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of embeddings.
	Dimensions() int

	// Name returns the engine name.
	Name() string
}

// ErrDimensionMismatch reports a vector of unexpected size coming back from
// the provider. It is fatal: the collection schema is fixed at creation,
// so a mismatched vector can never be stored.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

func validateDimensions(vec []float32, want int) error {
	if len(vec) != want {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), want)
	}
	return nil
}
