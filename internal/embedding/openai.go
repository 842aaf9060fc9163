package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

const (
	// DefaultOpenAIModel is the embedding model used unless overridden.
	DefaultOpenAIModel = "text-embedding-3-small"

	// DefaultOpenAIBatchSize balances requests-per-minute vs
	// tokens-per-minute rate limits. The API accepts up to 2048 texts per
	// batch, but smaller batches reduce TPM pressure.
	DefaultOpenAIBatchSize = 500
)

// OpenAIConfig configures the OpenAI embedding backend.
type OpenAIConfig struct {
	// Model is the embedding model (default text-embedding-3-small).
	Model string
	// BatchSize caps the number of texts per request (default 500).
	BatchSize int
}

// OpenAIEmbedder generates embeddings with the OpenAI API. Requests are
// batched and rate limit errors retried with exponential backoff.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	batchSize int
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder creates an OpenAI embedder. The API key is read from
// OPENAI_API_KEY; a missing key is an error.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultOpenAIBatchSize
	}

	// openai-go reads OPENAI_API_KEY from the environment.
	client := openai.NewClient()

	return &OpenAIEmbedder{
		client:    &client,
		model:     cfg.Model,
		batchSize: cfg.BatchSize,
	}, nil
}

// EmbedQuery embeds a single text.
func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedDocuments embeds the given texts, batching requests and retrying
// rate limit errors.
func (e *OpenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	var all [][]float32

	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))
		batch, err := e.embedBatchWithRetry(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		all = append(all, batch...)
	}

	return all, nil
}

func (e *OpenAIEmbedder) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32

	operation := func() error {
		resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}

		embeddings = make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			embeddings[i] = toFloat32(data.Embedding)
		}
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(newBackoff(), ctx))
	return embeddings, err
}

// isRateLimitError checks for HTTP 429.
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// toFloat32 converts the API's float64 vectors to the float32 form the
// stores persist.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
