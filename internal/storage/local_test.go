package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/rag-indexer/internal/document"
)

func newTestStore(t *testing.T) (*LocalStore, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewLocalStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, dir
}

func TestLocalStore_AddAndSearch(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	docs := []document.Document{
		document.New("cats are mammals", map[string]any{"path": "animals.txt"}),
		document.New("go is a language", map[string]any{"path": "code.txt"}),
	}
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
	}
	require.NoError(t, s.Add(ctx, docs, vectors))

	results, err := s.Search(ctx, []float32{1, 0, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "cats are mammals", results[0].Content)
	assert.Equal(t, "animals.txt", results[0].Metadata["path"])
	assert.InDelta(t, 1.0, results[0].Score, 1e-6, "identical vector should score 1")
}

func TestLocalStore_SearchWithFilter(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	docs := []document.Document{
		document.New("first", map[string]any{"path": "a.txt", "type": "txt"}),
		document.New("second", map[string]any{"path": "b.txt", "type": "txt"}),
		document.New("third", map[string]any{"path": "a.txt", "type": "txt"}),
	}
	vectors := [][]float32{
		{1, 0},
		{0.9, 0.1},
		{0.8, 0.2},
	}
	require.NoError(t, s.Add(ctx, docs, vectors))

	results, err := s.Search(ctx, []float32{1, 0}, 3, map[string]any{"path": "a.txt"})
	require.NoError(t, err)

	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "a.txt", r.Metadata["path"])
	}
}

func TestLocalStore_SearchEmpty(t *testing.T) {
	s, _ := newTestStore(t)

	results, err := s.Search(context.Background(), []float32{1, 0}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestLocalStore_DimensionMismatch(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx,
		[]document.Document{document.New("a", nil)},
		[][]float32{{1, 0, 0}}))

	err := s.Add(ctx,
		[]document.Document{document.New("b", nil)},
		[][]float32{{1, 0}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = s.Search(ctx, []float32{1, 0}, 1, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestLocalStore_LengthMismatch(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.Add(context.Background(),
		[]document.Document{document.New("a", nil), document.New("b", nil)},
		[][]float32{{1, 0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "length mismatch")
}

func TestLocalStore_Count(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, s.Add(ctx,
		[]document.Document{document.New("a", nil), document.New("b", nil)},
		[][]float32{{1, 0}, {0, 1}}))

	count, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestLocalStore_PersistenceReload(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewLocalStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx,
		[]document.Document{document.New("persisted chunk", map[string]any{"path": "p.txt"})},
		[][]float32{{0.5, 0.5}}))
	require.NoError(t, s.Close())

	// Both index files should be on disk.
	_, err = os.Stat(filepath.Join(dir, indexFileName))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, metaFileName))
	require.NoError(t, err)

	reopened, err := NewLocalStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := reopened.Search(ctx, []float32{0.5, 0.5}, 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "persisted chunk", results[0].Content)
	assert.Equal(t, "p.txt", results[0].Metadata["path"])
}

func TestLocalStore_Closed(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Close())
	ctx := context.Background()

	err := s.Add(ctx, []document.Document{document.New("a", nil)}, [][]float32{{1}})
	assert.ErrorIs(t, err, ErrStoreClosed)

	_, err = s.Search(ctx, []float32{1}, 1, nil)
	assert.ErrorIs(t, err, ErrStoreClosed)

	_, err = s.Count(ctx)
	assert.ErrorIs(t, err, ErrStoreClosed)

	assert.ErrorIs(t, s.Health(ctx), ErrStoreClosed)
}

func TestLocalStore_Health(t *testing.T) {
	s, _ := newTestStore(t)
	assert.NoError(t, s.Health(context.Background()))
}

func TestNewFactory(t *testing.T) {
	dir := t.TempDir()

	s, err := New(Config{PersistDir: dir})
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &LocalStore{}, s)

	_, err = New(Config{Backend: "bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}
