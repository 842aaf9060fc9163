// Package storage persists embedded chunks and serves nearest-neighbor
// similarity lookups. Two backends implement the Store contract: a local
// HNSW index persisted on disk, and a remote Qdrant collection.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/bull/rag-indexer/internal/document"
)

var (
	// ErrDimensionMismatch is returned when a vector's length does not
	// match the index dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrStoreClosed is returned by operations on a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrUnreachable is returned when a remote backend cannot be reached.
	ErrUnreachable = errors.New("vector store unreachable")
)

// Store is the vector store contract the indexing engine commits to and
// searches against. Implementations are append-only from the indexing side.
type Store interface {
	// Add persists documents with their embedding vectors. docs and
	// vectors must have equal length.
	Add(ctx context.Context, docs []document.Document, vectors [][]float32) error

	// Search returns up to k documents nearest to the query vector,
	// best first. A non-nil filter restricts results to documents whose
	// metadata matches every key exactly.
	Search(ctx context.Context, vector []float32, k int, filter map[string]any) ([]document.Scored, error)

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Health reports whether the backend is usable.
	Health(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Config selects and configures the store backend.
type Config struct {
	// Backend is "local" (default) or "qdrant".
	Backend string

	// PersistDir is where the local backend keeps its index files.
	PersistDir string

	Qdrant QdrantConfig
}

// New creates the store named by cfg.Backend.
func New(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStore(cfg.PersistDir)
	case "qdrant":
		return NewQdrantStore(cfg.Qdrant)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
