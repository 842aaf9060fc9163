package storage

import (
	"bufio"
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/coder/hnsw"
	"github.com/google/uuid"

	"github.com/bull/rag-indexer/internal/document"
)

// Index file names under the persist directory.
const (
	indexFileName = "vectors.hnsw"
	metaFileName  = "vectors.hnsw.meta"
)

func init() {
	// Metadata values travel through a map[string]any, so their concrete
	// types must be registered for gob.
	gob.Register("")
	gob.Register(0)
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register(false)
}

// LocalStore is an on-disk vector store built on a pure Go HNSW graph.
// The graph holds vectors keyed by uint64; document payloads live in a
// side table persisted with gob. Every Add saves both files atomically so a
// committed chunk set survives the process.
type LocalStore struct {
	dir     string
	graph   *hnsw.Graph[uint64]
	docs    map[uint64]storedDoc
	nextKey uint64
	dims    int
	closed  bool
}

// storedDoc is the persisted payload for one chunk.
type storedDoc struct {
	ID       string
	Content  string
	Metadata map[string]any
}

// localMeta is the gob-encoded side table.
type localMeta struct {
	Docs    map[uint64]storedDoc
	NextKey uint64
	Dims    int
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore opens (or creates) a local store under dir. An existing
// index is loaded; a missing one starts empty.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("local store requires a persist directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create persist directory: %w", err)
	}

	s := &LocalStore{
		dir:   dir,
		graph: newGraph(),
		docs:  make(map[uint64]storedDoc),
	}

	if _, err := os.Stat(filepath.Join(dir, metaFileName)); err == nil {
		if err := s.load(); err != nil {
			return nil, fmt.Errorf("load index from %s: %w", dir, err)
		}
	}

	return s, nil
}

func newGraph() *hnsw.Graph[uint64] {
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = 16
	g.EfSearch = 20
	g.Ml = 0.25
	return g
}

// Add inserts documents with their vectors and persists the index.
func (s *LocalStore) Add(ctx context.Context, docs []document.Document, vectors [][]float32) error {
	if s.closed {
		return ErrStoreClosed
	}
	if len(docs) != len(vectors) {
		return fmt.Errorf("docs and vectors length mismatch: %d vs %d", len(docs), len(vectors))
	}
	if len(docs) == 0 {
		return nil
	}

	for i, vec := range vectors {
		if s.dims == 0 {
			s.dims = len(vec)
		}
		if len(vec) != s.dims {
			return fmt.Errorf("%w: vector %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(vec), s.dims)
		}
	}

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}

		key := s.nextKey
		s.nextKey++

		s.graph.Add(hnsw.MakeNode(key, vectors[i]))
		s.docs[key] = storedDoc{
			ID:       uuid.NewString(),
			Content:  doc.Content,
			Metadata: document.CloneMetadata(doc.Metadata),
		}
	}

	return s.save()
}

// Search returns the k nearest documents. Filters are exact-match over
// metadata and applied after the vector search, over-fetching to compensate.
func (s *LocalStore) Search(ctx context.Context, vector []float32, k int, filter map[string]any) ([]document.Scored, error) {
	if s.closed {
		return nil, ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.graph.Len() == 0 {
		return []document.Scored{}, nil
	}
	if s.dims != 0 && len(vector) != s.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), s.dims)
	}

	fetch := k
	if len(filter) > 0 {
		fetch = k * 4
	}
	if fetch > s.graph.Len() {
		fetch = s.graph.Len()
	}

	nodes := s.graph.Search(vector, fetch)

	results := make([]document.Scored, 0, k)
	for _, node := range nodes {
		stored, ok := s.docs[node.Key]
		if !ok {
			continue
		}
		if !matchesFilter(stored.Metadata, filter) {
			continue
		}

		distance := s.graph.Distance(vector, node.Value)
		results = append(results, document.Scored{
			Document: document.Document{
				Content:  stored.Content,
				Metadata: document.CloneMetadata(stored.Metadata),
			},
			Score: float64(1 - distance),
		})
		if len(results) == k {
			break
		}
	}

	return results, nil
}

// Count returns the number of stored documents.
func (s *LocalStore) Count(ctx context.Context) (int, error) {
	if s.closed {
		return 0, ErrStoreClosed
	}
	return len(s.docs), nil
}

// Health verifies the persist directory is still present.
func (s *LocalStore) Health(ctx context.Context) error {
	if s.closed {
		return ErrStoreClosed
	}
	if _, err := os.Stat(s.dir); err != nil {
		return fmt.Errorf("persist directory unavailable: %w", err)
	}
	return nil
}

// Close marks the store unusable. The index is already on disk.
func (s *LocalStore) Close() error {
	s.closed = true
	return nil
}

func matchesFilter(metadata, filter map[string]any) bool {
	for k, want := range filter {
		if got, ok := metadata[k]; !ok || got != want {
			return false
		}
	}
	return true
}

// save persists the graph and the payload table with temp-file + rename.
func (s *LocalStore) save() error {
	indexPath := filepath.Join(s.dir, indexFileName)
	tmpIndex := indexPath + ".tmp"

	f, err := os.Create(tmpIndex)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	if err := s.graph.Export(f); err != nil {
		f.Close()
		os.Remove(tmpIndex)
		return fmt.Errorf("export graph: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpIndex)
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmpIndex, indexPath); err != nil {
		os.Remove(tmpIndex)
		return fmt.Errorf("rename index file: %w", err)
	}

	metaPath := filepath.Join(s.dir, metaFileName)
	tmpMeta := metaPath + ".tmp"

	mf, err := os.Create(tmpMeta)
	if err != nil {
		return fmt.Errorf("create metadata file: %w", err)
	}
	meta := localMeta{Docs: s.docs, NextKey: s.nextKey, Dims: s.dims}
	if err := gob.NewEncoder(mf).Encode(meta); err != nil {
		mf.Close()
		os.Remove(tmpMeta)
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := mf.Close(); err != nil {
		os.Remove(tmpMeta)
		return fmt.Errorf("close metadata file: %w", err)
	}
	return os.Rename(tmpMeta, metaPath)
}

// load restores the graph and payload table written by save.
func (s *LocalStore) load() error {
	mf, err := os.Open(filepath.Join(s.dir, metaFileName))
	if err != nil {
		return fmt.Errorf("open metadata file: %w", err)
	}
	defer mf.Close()

	var meta localMeta
	if err := gob.NewDecoder(mf).Decode(&meta); err != nil {
		return fmt.Errorf("decode metadata: %w", err)
	}
	s.docs = meta.Docs
	s.nextKey = meta.NextKey
	s.dims = meta.Dims

	f, err := os.Open(filepath.Join(s.dir, indexFileName))
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	// hnsw Import requires an io.ByteReader.
	if err := s.graph.Import(bufio.NewReader(f)); err != nil {
		return fmt.Errorf("import graph: %w", err)
	}
	return nil
}
