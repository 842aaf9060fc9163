// Package mcp exposes the indexing engine over the Model Context Protocol.
package mcp

import "time"

// SearchDocsInput defines the input parameters for the search_docs tool.
type SearchDocsInput struct {
	// Query is the semantic search query.
	Query string `json:"query" jsonschema:"required,description=The semantic search query for finding relevant content"`
	// MaxResults is the maximum number of chunks to return.
	MaxResults int `json:"max_results,omitempty" jsonschema:"minimum=1,maximum=20,default=5,description=Maximum number of chunks to return"`
	// Path restricts results to chunks from a single indexed file.
	Path string `json:"path,omitempty" jsonschema:"description=Restrict results to chunks from this file path"`
}

// SearchDocsOutput contains the search results.
type SearchDocsOutput struct {
	// Results is the list of matching chunks with scores.
	Results []SearchResult `json:"results"`
	// Message provides informational context (e.g., "No matching documents found").
	Message string `json:"message,omitempty"`
}

// SearchResult represents a single chunk match from semantic search.
type SearchResult struct {
	// Content is the chunk text.
	Content string `json:"content"`
	// Score is the similarity score (0-1).
	Score float64 `json:"score"`
	// Metadata carries the chunk's source metadata (path, type, chunk index).
	Metadata map[string]any `json:"metadata"`
}

// IndexFileInput defines the input parameters for the index_file tool.
type IndexFileInput struct {
	// Path is the file to index.
	Path string `json:"path" jsonschema:"required,description=Path of the file to index"`
	// Force re-indexes the file even if it was indexed before.
	Force bool `json:"force,omitempty" jsonschema:"description=Re-index even if the file was indexed before"`
}

// IndexFileOutput reports the outcome of an index_file call.
type IndexFileOutput struct {
	// Path is the file that was indexed.
	Path string `json:"path"`
	// Chunks is the number of chunks stored.
	Chunks int `json:"chunks"`
	// Skipped indicates the file was already indexed and left untouched.
	Skipped bool `json:"skipped"`
}

// ListIndexedInput defines the input parameters for the list_indexed tool.
// This tool takes no parameters.
type ListIndexedInput struct{}

// ListIndexedOutput contains the indexed file paths.
type ListIndexedOutput struct {
	// Paths is all indexed file paths, sorted.
	Paths []string `json:"paths"`
	// Count is the total number of indexed files.
	Count int `json:"count"`
}

// StatusInput defines the input parameters for the get_index_status tool.
// This tool takes no parameters.
type StatusInput struct{}

// StatusOutput reports index counters, configuration and store contents.
type StatusOutput struct {
	// TotalIndexed is the number of files indexed this session.
	TotalIndexed int `json:"total_indexed"`
	// TotalFailed is the number of files whose last attempt failed.
	TotalFailed int `json:"total_failed"`
	// Succeeded, Failed and Skipped count history entries by outcome.
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	// Documents is the number of chunks in the vector store.
	Documents int `json:"documents"`
	// PersistDir, ChunkSize and Overlap echo the engine configuration.
	PersistDir string `json:"persist_dir"`
	ChunkSize  int    `json:"chunk_size"`
	Overlap    int    `json:"overlap"`
	// LastAttempt is the timestamp of the most recent indexing attempt.
	LastAttempt time.Time `json:"last_attempt,omitzero"`
}

// AskDocsInput defines the input parameters for the ask_docs tool.
type AskDocsInput struct {
	// Question is the natural language question to answer.
	Question string `json:"question" jsonschema:"required,description=The question to answer from indexed content"`
	// MaxContext is the number of chunks retrieved as context.
	MaxContext int `json:"max_context,omitempty" jsonschema:"minimum=1,maximum=20,default=5,description=Number of chunks retrieved as context"`
}

// AskDocsOutput contains the generated answer.
type AskDocsOutput struct {
	// Answer is the model-generated answer.
	Answer string `json:"answer"`
	// Sources lists the file paths of the chunks used as context.
	Sources []string `json:"sources"`
}
