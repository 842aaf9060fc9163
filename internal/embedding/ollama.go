package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Default configuration for the Ollama backend.
const (
	DefaultOllamaBaseURL = "http://localhost:11434"
	DefaultOllamaModel   = "nomic-embed-text"
	DefaultOllamaTimeout = 30 * time.Second
)

// OllamaConfig configures the Ollama embedding backend.
type OllamaConfig struct {
	// BaseURL is the Ollama API endpoint (default http://localhost:11434).
	BaseURL string
	// Model is the embedding model (default nomic-embed-text).
	Model string
	// Timeout bounds each embedding request (default 30s).
	Timeout time.Duration
}

// OllamaEmbedder generates embeddings through Ollama's HTTP API. Server-side
// failures are retried with exponential backoff; client errors fail
// immediately.
type OllamaEmbedder struct {
	client  *http.Client
	baseURL string
	model   string
}

var _ Embedder = (*OllamaEmbedder)(nil)

// embedRequest is the /api/embeddings request body.
type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// embedResponse is the /api/embeddings response body.
type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewOllamaEmbedder creates an Ollama embedder, applying defaults for any
// zero-valued config field.
func NewOllamaEmbedder(cfg OllamaConfig) *OllamaEmbedder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultOllamaTimeout
	}

	return &OllamaEmbedder{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// EmbedQuery embeds a single text. Empty text is forwarded as-is; whether an
// empty prompt is embeddable is the model's concern.
func (e *OllamaEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	var embedding []float32

	operation := func() error {
		vec, err := e.embed(ctx, text)
		if err != nil {
			return err
		}
		embedding = vec
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(newBackoff(), ctx)); err != nil {
		return nil, err
	}
	return embedding, nil
}

// EmbedDocuments embeds each text in order. Ollama has no batch endpoint, so
// texts are embedded one request at a time.
func (e *OllamaEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.EmbedQuery(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed document %d: %w", i, err)
		}
		embeddings[i] = vec
	}
	return embeddings, nil
}

func (e *OllamaEmbedder) embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		// Connection failures are retryable transport errors.
		return nil, fmt.Errorf("failed to connect to Ollama at %s: %w", e.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, msg)
		if resp.StatusCode >= 500 {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}

	embedding := make([]float32, len(result.Embedding))
	for i, v := range result.Embedding {
		embedding[i] = float32(v)
	}
	return embedding, nil
}

// Ping checks that the Ollama server is reachable without running inference.
func (e *OllamaEmbedder) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to Ollama at %s: %w", e.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}
	return nil
}

// newBackoff builds the retry policy shared by the embedding backends:
// 500ms initial interval, 10s max interval, 30s max elapsed.
func newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return b
}
