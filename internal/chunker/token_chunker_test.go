package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfrag/internal/domain"
)

// wordTok is a deterministic whitespace tokenizer for tests: each distinct
// word is one token, decode joins with single spaces.
type wordTok struct {
	words []string
	ids   map[string]int
}

func newWordTok() *wordTok { return &wordTok{ids: map[string]int{}} }

func (t *wordTok) Encode(text string) []int {
	var out []int
	for _, w := range strings.Fields(text) {
		id, ok := t.ids[w]
		if !ok {
			id = len(t.words)
			t.ids[w] = id
			t.words = append(t.words, w)
		}
		out = append(out, id)
	}
	return out
}

func (t *wordTok) Decode(tokens []int) string {
	parts := make([]string, len(tokens))
	for i, id := range tokens {
		parts[i] = t.words[id]
	}
	return strings.Join(parts, " ")
}

func (t *wordTok) Count(text string) int { return len(t.Encode(text)) }

func sentenceCorpus(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "word%d ", i)
	}
	return strings.TrimSpace(b.String())
}

func TestNewTokenChunkerValidation(t *testing.T) {
	tok := newWordTok()

	_, err := NewTokenChunker(tok, 100, 150, 512)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfig))

	_, err = NewTokenChunker(tok, 100, 100, 512)
	assert.True(t, errors.Is(err, domain.ErrConfig))

	_, err = NewTokenChunker(tok, 0, 0, 512)
	assert.True(t, errors.Is(err, domain.ErrConfig))

	_, err = NewTokenChunker(tok, 100, -1, 512)
	assert.True(t, errors.Is(err, domain.ErrConfig))

	_, err = NewTokenChunker(tok, 100, 10, 0)
	assert.True(t, errors.Is(err, domain.ErrConfig))

	_, err = NewTokenChunker(tok, 100, 10, 512)
	assert.NoError(t, err)
}

func TestChunkEmptyInput(t *testing.T) {
	c, err := NewTokenChunker(newWordTok(), 5, 1, 10)
	require.NoError(t, err)

	chunks, err := c.Chunk("")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkDeterminism(t *testing.T) {
	tok := newWordTok()
	c, err := NewTokenChunker(tok, 7, 2, 16)
	require.NoError(t, err)

	text := sentenceCorpus(40)
	first, err := c.Chunk(text)
	require.NoError(t, err)
	second, err := c.Chunk(text)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestChunkTokenBound(t *testing.T) {
	tok := newWordTok()
	c, err := NewTokenChunker(tok, 5, 1, 5)
	require.NoError(t, err)

	chunks, err := c.Chunk(sentenceCorpus(33))
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for i, ch := range chunks {
		assert.LessOrEqual(t, tok.Count(ch), 5, "chunk %d over budget", i)
		assert.Positive(t, tok.Count(ch), "chunk %d empty", i)
	}
}

func TestChunkOverlapInvariant(t *testing.T) {
	tok := newWordTok()
	const overlap = 2
	c, err := NewTokenChunker(tok, 5, overlap, 10)
	require.NoError(t, err)

	chunks, err := c.Chunk(sentenceCorpus(23))
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i := 0; i < len(chunks)-1; i++ {
		cur := tok.Encode(chunks[i])
		next := tok.Encode(chunks[i+1])
		require.GreaterOrEqual(t, len(cur), overlap)
		require.GreaterOrEqual(t, len(next), overlap)
		assert.Equal(t, cur[len(cur)-overlap:], next[:overlap],
			"chunks %d/%d do not share an overlap window", i, i+1)
	}
}

func TestChunkCoverage(t *testing.T) {
	tok := newWordTok()
	const overlap = 1
	c, err := NewTokenChunker(tok, 5, overlap, 10)
	require.NoError(t, err)

	text := sentenceCorpus(23)
	chunks, err := c.Chunk(text)
	require.NoError(t, err)

	// Dropping each chunk's leading overlap tokens reconstructs the
	// original token stream exactly.
	var rebuilt []int
	for i, ch := range chunks {
		toks := tok.Encode(ch)
		if i > 0 {
			toks = toks[overlap:]
		}
		rebuilt = append(rebuilt, toks...)
	}
	assert.Equal(t, tok.Encode(text), rebuilt)
}

func TestChunkOversizeResplit(t *testing.T) {
	tok := newWordTok()
	// maxTokens below the window size forces every window through the
	// sentence re-split path.
	c, err := NewTokenChunker(tok, 10, 0, 4)
	require.NoError(t, err)

	text := "one two three. four five six. seven eight nine. ten eleven twelve."
	chunks, err := c.Chunk(text)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for i, ch := range chunks {
		assert.LessOrEqual(t, tok.Count(ch), 4, "chunk %d over budget", i)
	}
}

func TestChunkSingleWindow(t *testing.T) {
	tok := newWordTok()
	c, err := NewTokenChunker(tok, 50, 10, 100)
	require.NoError(t, err)

	chunks, err := c.Chunk("short text only")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text only", chunks[0])
}
