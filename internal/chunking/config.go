// Package chunking splits government documents into token-budgeted,
// section-aware chunks for embedding. Two document grammars are supported:
// Supreme Court opinions (Syllabus / majority / concurrence / dissent) and
// Executive Orders (preamble / numbered sections / subsections). Each grammar
// carries its own token budget; the shared sliding-window algorithm in
// window.go does the actual cutting.
package chunking

import (
	"fmt"
	"os"
	"strconv"

	"govreporter/internal/logging"
)

// =============================================================================
// CHUNKING CONFIGURATION
// =============================================================================

// Config holds the token budget for one document type.
type Config struct {
	MinTokens    int     `yaml:"min_tokens"`    // Minimum tokens per chunk (avoid tiny chunks)
	TargetTokens int     `yaml:"target_tokens"` // Target window size for sliding window
	MaxTokens    int     `yaml:"max_tokens"`    // Maximum tokens per chunk (hard limit)
	OverlapRatio float64 `yaml:"overlap_ratio"` // Fraction of TargetTokens to overlap [0, 1)
}

// Validate checks budget sanity. Violation is a construction-time error.
func (c Config) Validate() error {
	if c.MinTokens <= 0 || c.TargetTokens <= 0 || c.MaxTokens <= 0 {
		return fmt.Errorf("token counts must be positive: min=%d target=%d max=%d",
			c.MinTokens, c.TargetTokens, c.MaxTokens)
	}
	if c.MinTokens > c.TargetTokens || c.TargetTokens > c.MaxTokens {
		return fmt.Errorf("budget must satisfy min <= target <= max: min=%d target=%d max=%d",
			c.MinTokens, c.TargetTokens, c.MaxTokens)
	}
	if c.OverlapRatio < 0 || c.OverlapRatio >= 1 {
		return fmt.Errorf("overlap_ratio must be in [0, 1): %v", c.OverlapRatio)
	}
	return nil
}

// OverlapTokens returns the number of tokens overlapping adjacent chunks.
func (c Config) OverlapTokens() int {
	ov := int(float64(c.TargetTokens) * c.OverlapRatio)
	if ov < 0 {
		return 0
	}
	return ov
}

// DefaultSCOTUSConfig is the budget for Supreme Court opinions.
func DefaultSCOTUSConfig() Config {
	return Config{MinTokens: 500, TargetTokens: 600, MaxTokens: 800, OverlapRatio: 0.15}
}

// DefaultEOConfig is the budget for Executive Orders. EO sections are the
// legally operative unit, so the budget is tighter and the overlap smaller.
func DefaultEOConfig() Config {
	return Config{MinTokens: 240, TargetTokens: 340, MaxTokens: 400, OverlapRatio: 0.10}
}

// SCOTUSConfig returns the SCOTUS budget with SCOTUS_* env overrides applied.
func SCOTUSConfig() Config {
	return loadConfig("SCOTUS", DefaultSCOTUSConfig())
}

// EOConfig returns the Executive Order budget with EO_* env overrides applied.
func EOConfig() Config {
	return loadConfig("EO", DefaultEOConfig())
}

// loadConfig applies <PREFIX>_MIN_TOKENS, <PREFIX>_TARGET_TOKENS,
// <PREFIX>_MAX_TOKENS and <PREFIX>_OVERLAP_RATIO overrides. Unparseable
// values are ignored and the defaults kept.
func loadConfig(prefix string, defaults Config) Config {
	cfg := defaults
	cfg.MinTokens = envInt(prefix+"_MIN_TOKENS", cfg.MinTokens)
	cfg.TargetTokens = envInt(prefix+"_TARGET_TOKENS", cfg.TargetTokens)
	cfg.MaxTokens = envInt(prefix+"_MAX_TOKENS", cfg.MaxTokens)
	cfg.OverlapRatio = envFloat(prefix+"_OVERLAP_RATIO", cfg.OverlapRatio)

	if err := cfg.Validate(); err != nil {
		logging.Get(logging.CategoryChunking).Warn("invalid %s_* chunking overrides, using defaults: %v", prefix, err)
		return defaults
	}
	return cfg
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logging.Get(logging.CategoryChunking).Warn("ignoring %s=%q: %v", key, v, err)
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logging.Get(logging.CategoryChunking).Warn("ignoring %s=%q: %v", key, v, err)
		return def
	}
	return f
}
