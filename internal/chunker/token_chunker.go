// Package chunker splits normalized text into overlapping token windows.
package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"pdfrag/internal/domain"
)

// TokenChunker slides a fixed-size token window across the encoded text,
// advancing by size-overlap tokens per step. Output is deterministic for a
// fixed tokenizer, which keeps chunk identifiers stable across runs.
type TokenChunker struct {
	tok       domain.Tokenizer
	size      int
	overlap   int
	maxTokens int
	splitter  *regexp.Regexp
}

// NewTokenChunker validates the chunking parameters up front. overlap >= size
// would make the window stop advancing, so it is rejected before any
// tokenization work happens.
func NewTokenChunker(tok domain.Tokenizer, size, overlap, maxTokens int) (*TokenChunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrConfig, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must be non-negative, got %d", domain.ErrConfig, overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", domain.ErrConfig, overlap, size)
	}
	if maxTokens <= 0 {
		return nil, fmt.Errorf("%w: max tokens must be positive, got %d", domain.ErrConfig, maxTokens)
	}
	return &TokenChunker{
		tok:       tok,
		size:      size,
		overlap:   overlap,
		maxTokens: maxTokens,
		splitter:  regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}, nil
}

// Chunk encodes text and decodes each window back to a string. Windows whose
// decode/re-encode round trip exceeds maxTokens are split at a sentence
// boundary and retried, so no returned chunk is ever oversized. Empty input
// yields no chunks and no error.
func (c *TokenChunker) Chunk(text string) ([]string, error) {
	tokens := c.tok.Encode(text)
	if len(tokens) == 0 {
		return nil, nil
	}
	step := c.size - c.overlap
	var chunks []string
	for start := 0; start < len(tokens); start += step {
		end := start + c.size
		if end > len(tokens) {
			end = len(tokens)
		}
		decoded := c.tok.Decode(tokens[start:end])
		chunks = append(chunks, c.fit(decoded, 0)...)
		if end == len(tokens) {
			break
		}
	}
	return chunks, nil
}

// maxFitDepth bounds the recursive re-split; 16 halvings is far beyond any
// realistic decode instability.
const maxFitDepth = 16

// fit returns piece(s) of decoded text that each count at most maxTokens.
// Decode/re-encode is not token-stable for every tokenizer, so a window cut
// at size tokens can re-encode slightly larger.
func (c *TokenChunker) fit(text string, depth int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if c.tok.Count(text) <= c.maxTokens || depth >= maxFitDepth {
		return []string{text}
	}
	left, right := c.splitMid(text)
	if right == "" {
		// No usable boundary; fall back to a rune midpoint cut.
		runes := []rune(text)
		mid := len(runes) / 2
		if mid == 0 {
			return []string{text}
		}
		left, right = string(runes[:mid]), string(runes[mid:])
	}
	out := c.fit(left, depth+1)
	return append(out, c.fit(right, depth+1)...)
}

// splitMid splits text at the sentence boundary closest to its midpoint.
// Returns ("", "") equivalent when fewer than two sentences exist.
func (c *TokenChunker) splitMid(text string) (string, string) {
	locs := c.splitter.FindAllStringIndex(text, -1)
	if len(locs) < 2 {
		return text, ""
	}
	mid := len(text) / 2
	best := locs[0][1]
	for _, loc := range locs {
		if abs(loc[1]-mid) < abs(best-mid) {
			best = loc[1]
		}
	}
	if best <= 0 || best >= len(text) {
		return text, ""
	}
	return text[:best], text[best:]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
