package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmbedServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestOllamaEmbedder_EmbedQuery(t *testing.T) {
	var gotReq embedRequest
	srv := newEmbedServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embeddings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{0.1, 0.2, 0.3}})
	})

	e := NewOllamaEmbedder(OllamaConfig{BaseURL: srv.URL, Model: "test-model"})
	vec, err := e.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, "test-model", gotReq.Model)
	assert.Equal(t, "hello", gotReq.Prompt)
}

func TestOllamaEmbedder_EmbedDocumentsOrder(t *testing.T) {
	srv := newEmbedServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// Encode the prompt length so order is observable in the output.
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{float64(len(req.Prompt))}})
	})

	e := NewOllamaEmbedder(OllamaConfig{BaseURL: srv.URL})
	vecs, err := e.EmbedDocuments(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)

	require.Len(t, vecs, 3)
	assert.Equal(t, float32(1), vecs[0][0])
	assert.Equal(t, float32(2), vecs[1][0])
	assert.Equal(t, float32(3), vecs[2][0])
}

func TestOllamaEmbedder_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := newEmbedServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{1}})
	})

	e := NewOllamaEmbedder(OllamaConfig{BaseURL: srv.URL})
	vec, err := e.EmbedQuery(context.Background(), "retry me")
	require.NoError(t, err)

	assert.Equal(t, []float32{1}, vec)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOllamaEmbedder_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := newEmbedServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "model not found", http.StatusNotFound)
	})

	e := NewOllamaEmbedder(OllamaConfig{BaseURL: srv.URL})
	_, err := e.EmbedQuery(context.Background(), "missing model")
	require.Error(t, err)

	assert.Contains(t, err.Error(), "status 404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestOllamaEmbedder_Ping(t *testing.T) {
	srv := newEmbedServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	e := NewOllamaEmbedder(OllamaConfig{BaseURL: srv.URL})
	assert.NoError(t, e.Ping(context.Background()))
}

func TestOllamaEmbedder_PingUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // force connection refused

	e := NewOllamaEmbedder(OllamaConfig{BaseURL: srv.URL})
	err := e.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect")
}

func TestNewFactory(t *testing.T) {
	e, err := New(Config{})
	require.NoError(t, err)
	assert.IsType(t, &OllamaEmbedder{}, e)

	e, err = New(Config{Provider: "ollama"})
	require.NoError(t, err)
	assert.IsType(t, &OllamaEmbedder{}, e)

	_, err = New(Config{Provider: "bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}
