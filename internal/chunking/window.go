package chunking

import (
	"regexp"
	"strings"

	"govreporter/internal/logging"
	"govreporter/internal/tokens"
)

// =============================================================================
// CHUNK TYPE
// =============================================================================

// Chunk is one token-budgeted slice of a document.
type Chunk struct {
	Text         string `json:"text"`
	SectionLabel string `json:"section_label"`
	TokenCount   int    `json:"token_count"`
	Index        int    `json:"chunk_index"` // 0-based across the whole document
}

// =============================================================================
// WHITESPACE NORMALIZATION
// =============================================================================

var blankRunPattern = regexp.MustCompile(`\n\s*\n+`)

// normalizeWhitespace collapses runs of blank lines to a single paragraph
// break and strips leading/trailing whitespace. Inline whitespace is
// preserved; legal documents carry formatting meaning.
func normalizeWhitespace(text string) string {
	text = strings.TrimSpace(text)
	return blankRunPattern.ReplaceAllString(text, "\n\n")
}

// =============================================================================
// SLIDING WINDOW
// =============================================================================

// sentence enders recognized when snapping a window edge.
var sentenceEnders = []string{". ", "? ", "! "}

// chunkSection slides a token-budgeted window over one section of text.
//
// Windows are approximated in characters (tokens.CharsPerToken per token)
// and each edge is snapped to a sentence boundary when one exists between
// 90% of the target and the max budget. The final remainder merges into the
// previous chunk when the merged size stays within max*1.25 tokens;
// otherwise the short tail is kept as its own chunk. Overlap tokens repeat
// at the start of every chunk after the first, never across sections.
func chunkSection(text, label string, cfg Config, counter tokens.Counter) []Chunk {
	text = normalizeWhitespace(text)
	if text == "" {
		return nil
	}

	overlap := cfg.OverlapTokens()
	if overlap >= cfg.TargetTokens {
		// Forward progress requires a step of at least one token.
		logging.Get(logging.CategoryChunking).Warn("overlap %d >= target %d, clamping", overlap, cfg.TargetTokens)
		overlap = cfg.TargetTokens - 1
	}

	total := counter.Count(text)
	if total <= cfg.MaxTokens {
		return []Chunk{{Text: text, SectionLabel: label, TokenCount: total}}
	}

	windowChars := cfg.TargetTokens * tokens.CharsPerToken
	maxChars := cfg.MaxTokens * tokens.CharsPerToken
	stepChars := (cfg.TargetTokens - overlap) * tokens.CharsPerToken
	overlapChars := overlap * tokens.CharsPerToken

	var chunks []Chunk
	start := 0

	for start < len(text) {
		end := start + windowChars
		if end > len(text) {
			end = len(text)
		}

		if end < len(text) {
			end = snapToBoundary(text, start, end, start+maxChars)
		}

		chunkText := strings.TrimSpace(text[start:end])

		// Remainder merge: when the tail after this window is below the
		// minimum, fold it into the current chunk if the merged size stays
		// within max*1.25 tokens.
		remaining := strings.TrimSpace(text[end:])
		if remaining != "" && len(chunks) > 0 {
			remTokens := counter.Count(remaining)
			if remTokens < cfg.MinTokens {
				merged := strings.TrimSpace(text[start:])
				mergedTokens := counter.Count(merged)
				if float64(mergedTokens) <= float64(cfg.MaxTokens)*1.25 {
					chunks = append(chunks, Chunk{Text: merged, SectionLabel: label, TokenCount: mergedTokens})
				} else {
					chunks = append(chunks,
						Chunk{Text: chunkText, SectionLabel: label, TokenCount: counter.Count(chunkText)},
						Chunk{Text: remaining, SectionLabel: label, TokenCount: remTokens})
				}
				break
			}
		}

		chunks = append(chunks, Chunk{Text: chunkText, SectionLabel: label, TokenCount: counter.Count(chunkText)})

		if remaining == "" {
			break
		}

		// Advance, pulling back by the overlap so the next chunk opens with
		// the tail of this one.
		if overlap > 0 {
			next := end - overlapChars
			if min := start + stepChars; next < min {
				next = min
			}
			start = next
		} else {
			start = end
		}
	}

	return chunks
}

// snapToBoundary adjusts a window edge to the nearest sentence ending.
// It first looks backward within the last 10% of the window, then forward
// up to the max budget. With no sentence ending in range, it cuts at the
// max budget on a word boundary, never inside a word.
func snapToBoundary(text string, start, end, maxEnd int) int {
	if maxEnd > len(text) {
		maxEnd = len(text)
	}

	window := text[start:end]
	floor := int(float64(len(window)) * 0.9)

	// Backward: rightmost sentence ender in the snap zone.
	best := -1
	for _, ender := range sentenceEnders {
		if i := strings.LastIndex(window, ender); i >= floor && i > best {
			best = i
		}
	}
	if best >= 0 {
		return start + best + 2 // include punctuation and space
	}

	// Forward: first sentence ender before the max budget.
	if end < maxEnd {
		ahead := text[end:maxEnd]
		fwd := -1
		for _, ender := range sentenceEnders {
			if i := strings.Index(ahead, ender); i >= 0 && (fwd < 0 || i < fwd) {
				fwd = i
			}
		}
		if fwd >= 0 {
			return end + fwd + 2
		}
	}

	// No sentence boundary: cut at the max budget on a word boundary.
	cut := maxEnd
	if cut >= len(text) {
		return len(text)
	}
	if i := strings.LastIndexByte(text[start:cut], ' '); i > 0 {
		return start + i + 1
	}
	return cut
}

// reindex assigns contiguous 0-based indices across the whole document.
func reindex(chunks []Chunk) []Chunk {
	for i := range chunks {
		chunks[i].Index = i
	}
	return chunks
}
