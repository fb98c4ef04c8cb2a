// Package tokens provides token counting for chunk budget enforcement.
// The primary counter uses the cl100k_base encoding (the tokenizer behind
// text-embedding-3-small and the GPT-4o family); when the encoding cannot
// be initialized, an approximate character-based counter takes over so the
// pipeline never blocks on tokenizer availability.
package tokens

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"govreporter/internal/logging"
)

// CharsPerToken is the approximation ratio used by the fallback counter
// and by the chunker when converting token budgets to character offsets.
const CharsPerToken = 4

// Counter counts tokens in text.
type Counter interface {
	// Count returns the number of tokens in text. Never fails;
	// implementations must degrade rather than error.
	Count(text string) int

	// Name returns the counter name for logging.
	Name() string
}

// NewCounter returns a cl100k_base counter, falling back to the
// approximate counter if the encoding cannot be loaded.
func NewCounter() Counter {
	c, err := NewTiktokenCounter()
	if err != nil {
		logging.Get(logging.CategoryChunking).Warn("cl100k_base unavailable, using approximate counter: %v", err)
		return ApproxCounter{}
	}
	return c
}

// =============================================================================
// TIKTOKEN COUNTER (cl100k_base)
// =============================================================================

// TiktokenCounter counts tokens using the cl100k_base encoding.
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the cl100k_base encoding.
func NewTiktokenCounter() (*TiktokenCounter, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to load cl100k_base encoding: %w", err)
	}
	return &TiktokenCounter{encoding: enc}, nil
}

// Count returns the exact cl100k_base token count.
func (c *TiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.encoding.Encode(text, nil, nil))
}

// Name returns the counter name.
func (c *TiktokenCounter) Name() string {
	return "cl100k_base"
}

// =============================================================================
// APPROXIMATE COUNTER
// =============================================================================

// ApproxCounter estimates tokens as len(text)/4. English prose averages
// roughly four characters per token under cl100k_base.
type ApproxCounter struct{}

// Count returns the approximate token count.
func (ApproxCounter) Count(text string) int {
	return len(text) / CharsPerToken
}

// Name returns the counter name.
func (ApproxCounter) Name() string {
	return "approx"
}
