// Package indexer orchestrates the indexing pipeline: file validation,
// loading, chunking, embedding, and vector storage, with per-file state
// tracking and a typed error taxonomy.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bull/rag-indexer/internal/chunker"
	"github.com/bull/rag-indexer/internal/document"
	"github.com/bull/rag-indexer/internal/embedding"
	"github.com/bull/rag-indexer/internal/loader"
	"github.com/bull/rag-indexer/internal/storage"
)

// Engine defaults.
const (
	DefaultPersistDir = "./rag_index"
	DefaultChunkSize  = chunker.DefaultChunkSize
	DefaultOverlap    = chunker.DefaultOverlap
)

// Config configures the indexing engine.
type Config struct {
	// PersistDir is the directory backing the vector index.
	PersistDir string
	// ChunkSize is the chunk window size in characters.
	ChunkSize int
	// Overlap is the number of characters shared between adjacent chunks.
	Overlap int
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		PersistDir: DefaultPersistDir,
		ChunkSize:  DefaultChunkSize,
		Overlap:    DefaultOverlap,
	}
}

// HistoryEntry records one indexing attempt.
type HistoryEntry struct {
	Path      string    `json:"path"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Chunks    int       `json:"chunks"`
	Error     string    `json:"error,omitempty"`
}

// Attempt statuses recorded in history.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Statistics summarizes the engine's indexing activity, configuration and
// store contents.
type Statistics struct {
	Indexing struct {
		TotalIndexed int `json:"total_indexed"`
		TotalFailed  int `json:"total_failed"`
		Succeeded    int `json:"succeeded"`
		Failed       int `json:"failed"`
		Skipped      int `json:"skipped"`
	} `json:"indexing"`
	Configuration struct {
		PersistDir string `json:"persist_dir"`
		ChunkSize  int    `json:"chunk_size"`
		Overlap    int    `json:"overlap"`
	} `json:"configuration"`
	VectorStore struct {
		Documents int `json:"documents"`
	} `json:"vector_store"`
	// Loaders reports per-format document counters from the loader
	// registry.
	Loaders map[string]string `json:"loaders"`
}

// Engine ties loaders, the chunker, an embedder and a vector store into a
// single indexing pipeline. It is not safe for concurrent use.
type Engine struct {
	cfg      Config
	registry *loader.Registry
	chunker  *chunker.Chunker
	embedder embedding.Embedder
	store    storage.Store
	logger   *slog.Logger

	indexed map[string]struct{}
	failed  map[string]string
	history []HistoryEntry
}

// New creates an indexing engine. ChunkSize must be positive, Overlap
// non-negative and smaller than ChunkSize; violations wrap ErrConfig.
// A zero ChunkSize selects the default window settings; an explicit
// ChunkSize with Overlap 0 is honored as written. The persist
// directory is created if missing.
func New(cfg Config, embedder embedding.Embedder, store storage.Store, logger *slog.Logger) (*Engine, error) {
	if cfg.PersistDir == "" {
		cfg.PersistDir = DefaultPersistDir
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = DefaultChunkSize
		if cfg.Overlap == 0 {
			cfg.Overlap = DefaultOverlap
		}
	}
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk_size must be a positive integer", ErrConfig)
	}
	if cfg.Overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must be non-negative", ErrConfig)
	}
	if cfg.Overlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("%w: overlap must be smaller than chunk_size", ErrConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(cfg.PersistDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create persist dir: %v", ErrConfig, err)
	}

	return &Engine{
		cfg:      cfg,
		registry: loader.NewRegistry(nil),
		chunker:  chunker.New(cfg.ChunkSize, cfg.Overlap),
		embedder: embedder,
		store:    store,
		logger:   logger,
		indexed:  make(map[string]struct{}),
		failed:   make(map[string]string),
	}, nil
}

// indexOptions collects per-call Index settings.
type indexOptions struct {
	metadata     map[string]any
	forceReindex bool
	stopOnError  bool
}

// Option customizes an Index or BatchIndex call.
type Option func(*indexOptions)

// WithMetadata merges m into the metadata of every chunk produced by the
// call.
func WithMetadata(m map[string]any) Option {
	return func(o *indexOptions) { o.metadata = m }
}

// WithForceReindex indexes the file even if it was indexed before.
func WithForceReindex() Option {
	return func(o *indexOptions) { o.forceReindex = true }
}

// WithStopOnError makes BatchIndex return on the first failure instead of
// continuing with the remaining files.
func WithStopOnError() Option {
	return func(o *indexOptions) { o.stopOnError = true }
}

// Index validates, loads, chunks, embeds and stores a single file. It
// returns the stored chunks. Re-indexing an already indexed file is a
// no-op returning an empty slice unless WithForceReindex is given.
func (e *Engine) Index(ctx context.Context, path string, opts ...Option) ([]document.Document, error) {
	var o indexOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := e.validateFile(path); err != nil {
		e.recordFailure(path, err)
		return nil, err
	}

	abs := absPath(path)
	if _, ok := e.indexed[abs]; ok && !o.forceReindex {
		e.logger.Info("File already indexed, skipping", "path", path)
		e.history = append(e.history, HistoryEntry{
			Path:      path,
			Status:    StatusSkipped,
			Timestamp: time.Now(),
		})
		return []document.Document{}, nil
	}

	ldr, err := e.registry.ForPath(path)
	if err != nil {
		err = fmt.Errorf("%w for %s", ErrNoLoader, path)
		e.recordFailure(path, err)
		return nil, err
	}

	docs, err := ldr.Load(ctx, []string{path})
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrLoad, path, err)
		e.recordFailure(path, err)
		return nil, err
	}

	chunks, err := e.chunker.ChunkDocs(docs)
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrChunk, path, err)
		e.recordFailure(path, err)
		return nil, err
	}
	for i := range chunks {
		chunks[i].Metadata = document.MergeMetadata(chunks[i].Metadata, o.metadata)
	}

	if err := e.storeChunks(ctx, chunks); err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrStore, path, err)
		e.recordFailure(path, err)
		return nil, err
	}

	e.indexed[abs] = struct{}{}
	delete(e.failed, path)
	delete(e.failed, abs)
	e.history = append(e.history, HistoryEntry{
		Path:      path,
		Status:    StatusSuccess,
		Timestamp: time.Now(),
		Chunks:    len(chunks),
	})
	e.logger.Info("Indexed file", "path", path, "chunks", len(chunks))
	return chunks, nil
}

// BatchIndex indexes multiple files sequentially and maps each path to the
// chunks it produced. By default a failed file is recorded and mapped to an
// empty slice; WithStopOnError returns the first error instead. A nil path
// slice is rejected; an empty one yields an empty map.
func (e *Engine) BatchIndex(ctx context.Context, paths []string, opts ...Option) (map[string][]document.Document, error) {
	if paths == nil {
		return nil, fmt.Errorf("%w: file paths must not be nil", ErrInvalidArgument)
	}

	var o indexOptions
	for _, opt := range opts {
		opt(&o)
	}

	results := make(map[string][]document.Document, len(paths))
	for _, path := range paths {
		chunks, err := e.Index(ctx, path, opts...)
		if err != nil {
			if o.stopOnError {
				return nil, err
			}
			e.logger.Warn("Skipping failed file", "path", path, "error", err)
			results[path] = []document.Document{}
			continue
		}
		results[path] = chunks
	}
	return results, nil
}

// Search embeds the query and returns up to k matching documents,
// optionally restricted by a metadata equality filter.
func (e *Engine) Search(ctx context.Context, query string, k int, filter map[string]any) ([]document.Document, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: Number of requested results must be positive", ErrInvalidArgument)
	}

	vector, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := e.store.Search(ctx, vector, k, filter)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	docs := make([]document.Document, len(scored))
	for i, s := range scored {
		docs[i] = s.Document
	}
	return docs, nil
}

// SearchWithScores is Search returning similarity scores alongside the
// documents.
func (e *Engine) SearchWithScores(ctx context.Context, query string, k int) ([]document.Scored, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: Number of requested results must be positive", ErrInvalidArgument)
	}

	vector, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return e.store.Search(ctx, vector, k, nil)
}

// IndexedFiles returns the absolute paths of all indexed files, sorted.
func (e *Engine) IndexedFiles() []string {
	paths := make([]string, 0, len(e.indexed))
	for p := range e.indexed {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// FailedFiles returns a copy of the failed-file map, keyed by the path as
// originally given with the last error message.
func (e *Engine) FailedFiles() map[string]string {
	out := make(map[string]string, len(e.failed))
	for k, v := range e.failed {
		out[k] = v
	}
	return out
}

// History returns a copy of the attempt history in order.
func (e *Engine) History() []HistoryEntry {
	out := make([]HistoryEntry, len(e.history))
	copy(out, e.history)
	return out
}

// IsIndexed reports whether the file was successfully indexed.
func (e *Engine) IsIndexed(path string) bool {
	_, ok := e.indexed[absPath(path)]
	return ok
}

// Statistics reports indexing counters, the active configuration, and the
// vector store document count.
func (e *Engine) Statistics(ctx context.Context) (Statistics, error) {
	var stats Statistics
	stats.Indexing.TotalIndexed = len(e.indexed)
	stats.Indexing.TotalFailed = len(e.failed)
	for _, h := range e.history {
		switch h.Status {
		case StatusSuccess:
			stats.Indexing.Succeeded++
		case StatusFailed:
			stats.Indexing.Failed++
		case StatusSkipped:
			stats.Indexing.Skipped++
		}
	}
	stats.Configuration.PersistDir = e.cfg.PersistDir
	stats.Configuration.ChunkSize = e.cfg.ChunkSize
	stats.Configuration.Overlap = e.cfg.Overlap
	stats.Loaders = e.registry.Summaries()

	count, err := e.store.Count(ctx)
	if err != nil {
		return stats, fmt.Errorf("count documents: %w", err)
	}
	stats.VectorStore.Documents = count
	return stats, nil
}

// ResetHistory clears the attempt history and failed-file map. The set of
// indexed files is kept.
func (e *Engine) ResetHistory() {
	e.history = nil
	e.failed = make(map[string]string)
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// validateFile checks that path names a non-empty regular file with a
// supported extension. Failures wrap ErrValidation.
func (e *Engine) validateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: File not found: %s", ErrValidation, path)
	}
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", ErrValidation, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: Path is not a file: %s", ErrValidation, path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: File is empty: %s", ErrValidation, path)
	}
	if !e.registry.Supported(path) {
		return fmt.Errorf("%w: Unsupported file extension: %s", ErrValidation, filepath.Ext(path))
	}
	return nil
}

// storeChunks embeds chunk contents and adds them to the vector store.
func (e *Engine) storeChunks(ctx context.Context, chunks []document.Document) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}
	return e.store.Add(ctx, chunks, vectors)
}

// recordFailure tracks a failed attempt under the path as given.
func (e *Engine) recordFailure(path string, err error) {
	e.failed[path] = err.Error()
	e.history = append(e.history, HistoryEntry{
		Path:      path,
		Status:    StatusFailed,
		Timestamp: time.Now(),
		Error:     err.Error(),
	})
	e.logger.Error("Indexing failed", "path", path, "error", err)
}

// absPath resolves path for duplicate tracking, falling back to the input
// when resolution fails.
func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
