package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndRate(t *testing.T) {
	l := NewLog()
	idx := l.Append("what is choice?", "teaching", "an answer")
	assert.Equal(t, 0, idx)
	assert.Equal(t, 1, l.Len())

	entries := l.Entries()
	assert.Equal(t, NotRated, entries[0].Feedback)

	l.Rate(idx, "Highly Resonant")
	assert.Equal(t, "Highly Resonant", l.Entries()[0].Feedback)

	// Out-of-range ratings are ignored.
	l.Rate(99, "x")
	l.Rate(-1, "x")
	assert.Equal(t, 1, l.Len())
}

func TestTranscriptFormat(t *testing.T) {
	l := NewLog()
	l.Append("q1", "scriptural", "a1")
	l.Append("q2", "teaching", "a2")

	tr := l.Transcript()
	assert.Contains(t, tr, "Question: q1")
	assert.Contains(t, tr, "Tone: teaching")
	assert.Contains(t, tr, "Answer: a2")
	assert.Contains(t, tr, "Resonance: Not Rated")
	assert.Equal(t, 2, strings.Count(tr, strings.Repeat("-", 40)))
}

func TestExport(t *testing.T) {
	l := NewLog()
	l.Append("q", "personal", "a")
	path := filepath.Join(t.TempDir(), "session.txt")
	require.NoError(t, l.Export(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Question: q")
}
