package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/rag-indexer/internal/indexer"
)

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, indexer.DefaultPersistDir, cfg.PersistDir)
	assert.Equal(t, indexer.DefaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, indexer.DefaultOverlap, cfg.Overlap)
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, indexer.DefaultChunkSize, cfg.ChunkSize)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
persist_dir: /tmp/custom_index
chunk_size: 500
overlap: 50
embedding:
  provider: ollama
  ollama:
    base_url: http://ollama:11434
    model: custom-embed
storage:
  backend: qdrant
  qdrant:
    host: qdrant.local
    port: 7000
    collection: custom_chunks
    dimensions: 1024
generator:
  base_url: http://ollama:11434
  model: llama3.1
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom_index", cfg.PersistDir)
	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, 50, cfg.Overlap)

	ec := cfg.EmbedderConfig()
	assert.Equal(t, "ollama", ec.Provider)
	assert.Equal(t, "http://ollama:11434", ec.Ollama.BaseURL)
	assert.Equal(t, "custom-embed", ec.Ollama.Model)

	sc := cfg.StoreConfig()
	assert.Equal(t, "qdrant", sc.Backend)
	assert.Equal(t, "/tmp/custom_index", sc.PersistDir)
	assert.Equal(t, "qdrant.local", sc.Qdrant.Host)
	assert.Equal(t, 7000, sc.Qdrant.Port)
	assert.Equal(t, "custom_chunks", sc.Qdrant.Collection)
	assert.Equal(t, 1024, sc.Qdrant.Dimensions)

	gc := cfg.GeneratorClientConfig()
	assert.Equal(t, "llama3.1", gc.Model)
}

func TestLoad_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("overlap: 10\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, indexer.DefaultPersistDir, cfg.PersistDir)
	assert.Equal(t, indexer.DefaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, 10, cfg.Overlap)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunk_size: [not an int\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
