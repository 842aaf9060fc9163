//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/rag-indexer/internal/document"
)

// Requires a running qdrant instance on localhost:6334.
func TestQdrantStore_Integration(t *testing.T) {
	ctx := context.Background()

	s, err := NewQdrantStore(QdrantConfig{
		Collection: "rag_chunks_test",
		Dimensions: 4,
	})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Health(ctx))

	docs := []document.Document{
		document.New("alpha chunk", map[string]any{"path": "alpha.txt", "type": "txt", "chunk": 0}),
		document.New("beta chunk", map[string]any{"path": "beta.txt", "type": "txt", "chunk": 0}),
	}
	vectors := [][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
	}
	require.NoError(t, s.Add(ctx, docs, vectors))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 2)

	results, err := s.Search(ctx, []float32{1, 0, 0, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "alpha chunk", results[0].Content)
	assert.Equal(t, "alpha.txt", results[0].Metadata["path"])

	filtered, err := s.Search(ctx, []float32{1, 0, 0, 0}, 5, map[string]any{"path": "beta.txt"})
	require.NoError(t, err)
	require.NotEmpty(t, filtered)
	for _, r := range filtered {
		assert.Equal(t, "beta.txt", r.Metadata["path"])
	}
}
