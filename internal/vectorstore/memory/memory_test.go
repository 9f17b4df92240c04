package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfrag/internal/domain"
)

func TestUpsertOverwritesByID(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, []domain.Record{
		{ID: "doc_0", Vector: []float64{1, 0}, Metadata: map[string]any{"text": "old"}},
	}))
	require.NoError(t, s.Upsert(ctx, []domain.Record{
		{ID: "doc_0", Vector: []float64{1, 0}, Metadata: map[string]any{"text": "new"}},
	}))

	assert.Equal(t, 1, s.Len())
	r, ok := s.Get("doc_0")
	require.True(t, ok)
	assert.Equal(t, "new", r.Metadata["text"])
}

func TestQueryRanksBySimilarity(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []domain.Record{
		{ID: "a", Vector: []float64{1, 0}, Metadata: map[string]any{"text": "aligned"}},
		{ID: "b", Vector: []float64{0, 1}, Metadata: map[string]any{"text": "orthogonal"}},
		{ID: "c", Vector: []float64{0.9, 0.1}, Metadata: map[string]any{"text": "close"}},
	}))

	matches, err := s.Query(ctx, []float64{1, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].ID)
	assert.Equal(t, "c", matches[1].ID)
	assert.Equal(t, "aligned", matches[0].Text)
}

func TestQueryEqualityFilter(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []domain.Record{
		{ID: "a", Vector: []float64{1, 0}, Metadata: map[string]any{"type": "law"}},
		{ID: "b", Vector: []float64{1, 0}, Metadata: map[string]any{"type": "doctrine"}},
	}))

	matches, err := s.Query(ctx, []float64{1, 0}, 10, map[string]any{"type": "law"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].ID)
}

func TestQueryInFilter(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []domain.Record{
		{ID: "a", Vector: []float64{1, 0}, Metadata: map[string]any{"type": "law"}},
		{ID: "b", Vector: []float64{1, 0}, Metadata: map[string]any{"type": "doctrine"}},
		{ID: "c", Vector: []float64{1, 0}, Metadata: map[string]any{"type": "dialogue"}},
	}))

	matches, err := s.Query(ctx, []float64{1, 0}, 10, map[string]any{
		"type": map[string]any{"$in": []any{"law", "doctrine"}},
	})
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestQueryMissingMetadataKeyExcluded(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, []domain.Record{
		{ID: "a", Vector: []float64{1, 0}, Metadata: map[string]any{}},
	}))

	matches, err := s.Query(ctx, []float64{1, 0}, 10, map[string]any{"type": "law"})
	require.NoError(t, err)
	assert.Empty(t, matches)
}
