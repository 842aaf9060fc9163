// Package config loads application configuration from a YAML file with
// sensible defaults for every field.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bull/rag-indexer/internal/embedding"
	"github.com/bull/rag-indexer/internal/generator"
	"github.com/bull/rag-indexer/internal/indexer"
	"github.com/bull/rag-indexer/internal/storage"
)

// App is the top-level application configuration.
type App struct {
	// PersistDir is where the local vector index lives.
	PersistDir string `yaml:"persist_dir"`
	// ChunkSize is the chunk window size in characters.
	ChunkSize int `yaml:"chunk_size"`
	// Overlap is the number of characters shared between adjacent chunks.
	Overlap int `yaml:"overlap"`

	Embedding EmbeddingConfig `yaml:"embedding"`
	Storage   StorageConfig   `yaml:"storage"`
	Generator GeneratorConfig `yaml:"generator"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"`
	Ollama   struct {
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"ollama"`
	OpenAI struct {
		Model string `yaml:"model"`
	} `yaml:"openai"`
}

// StorageConfig selects and configures the vector store backend.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Qdrant  struct {
		Host       string `yaml:"host"`
		Port       int    `yaml:"port"`
		Collection string `yaml:"collection"`
		Dimensions int    `yaml:"dimensions"`
	} `yaml:"qdrant"`
}

// GeneratorConfig configures the answer-generation model.
type GeneratorConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// Default returns the configuration used when no file is given.
func Default() App {
	return App{
		PersistDir: indexer.DefaultPersistDir,
		ChunkSize:  indexer.DefaultChunkSize,
		Overlap:    indexer.DefaultOverlap,
	}
}

// Load reads configuration from path. A missing or empty path yields the
// defaults; unset fields in the file fall back to defaults too.
func Load(path string) (App, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.PersistDir == "" {
		cfg.PersistDir = indexer.DefaultPersistDir
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = indexer.DefaultChunkSize
	}
	return cfg, nil
}

// EmbedderConfig converts the embedding section into the wiring config
// used by the embedding package.
func (a App) EmbedderConfig() embedding.Config {
	cfg := embedding.Config{Provider: a.Embedding.Provider}
	cfg.Ollama.BaseURL = a.Embedding.Ollama.BaseURL
	cfg.Ollama.Model = a.Embedding.Ollama.Model
	cfg.OpenAI.Model = a.Embedding.OpenAI.Model
	return cfg
}

// StoreConfig converts the storage section into the wiring config used
// by the storage package.
func (a App) StoreConfig() storage.Config {
	cfg := storage.Config{
		Backend:    a.Storage.Backend,
		PersistDir: a.PersistDir,
	}
	cfg.Qdrant.Host = a.Storage.Qdrant.Host
	cfg.Qdrant.Port = a.Storage.Qdrant.Port
	cfg.Qdrant.Collection = a.Storage.Qdrant.Collection
	cfg.Qdrant.Dimensions = a.Storage.Qdrant.Dimensions
	return cfg
}

// GeneratorClientConfig converts the generator section into the Ollama
// client config.
func (a App) GeneratorClientConfig() generator.ClientConfig {
	return generator.ClientConfig{
		BaseURL: a.Generator.BaseURL,
		Model:   a.Generator.Model,
	}
}
