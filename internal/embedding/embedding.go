// Package embedding turns text into vectors through a local Ollama service
// or the OpenAI API. Both backends sit behind the Embedder interface so the
// engine's tests can substitute a deterministic stand-in.
package embedding

import (
	"context"
	"fmt"
)

// Embedder generates embedding vectors for queries and document batches.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Config selects and configures the embedding backend.
type Config struct {
	// Provider is "ollama" (default) or "openai".
	Provider string
	Ollama   OllamaConfig
	OpenAI   OpenAIConfig
}

// New creates the embedder named by cfg.Provider.
func New(cfg Config) (Embedder, error) {
	switch cfg.Provider {
	case "", "ollama":
		return NewOllamaEmbedder(cfg.Ollama), nil
	case "openai":
		return NewOpenAIEmbedder(cfg.OpenAI)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
