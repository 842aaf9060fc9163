// Package chunker splits documents into overlapping fixed-size windows for
// embedding. Windows are cut at character positions, not sentence or word
// boundaries: deterministic slicing is preferred over linguistic accuracy.
package chunker

import (
	"github.com/bull/rag-indexer/internal/document"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of characters shared between
// consecutive chunks.
const DefaultOverlap = 200

// Chunker produces chunks of at most chunkSize characters, advancing by
// chunkSize-overlap per window. It trusts its caller for bounds; the engine
// that owns it validates overlap < chunkSize at construction.
type Chunker struct {
	chunkSize int
	overlap   int
}

// New creates a chunker with the given window size and overlap.
func New(chunkSize, overlap int) *Chunker {
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// ChunkOne splits a single document. Each chunk copies the source metadata
// and records its position under the "chunk" key, starting at 0. A document
// shorter than the chunk size yields exactly one chunk; empty content yields
// none.
func (c *Chunker) ChunkOne(doc document.Document) ([]document.Document, error) {
	runes := []rune(doc.Content)

	var chunks []document.Document
	for start := 0; start < len(runes); start += c.chunkSize - c.overlap {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}

		meta := document.CloneMetadata(doc.Metadata)
		meta["chunk"] = len(chunks)

		chunks = append(chunks, document.Document{
			Content:  string(runes[start:end]),
			Metadata: meta,
		})
	}

	return chunks, nil
}

// ChunkDocs splits each document in order and concatenates the results,
// preserving input order and intra-document chunk order.
func (c *Chunker) ChunkDocs(docs []document.Document) ([]document.Document, error) {
	var out []document.Document
	for _, doc := range docs {
		chunks, err := c.ChunkOne(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, chunks...)
	}
	return out, nil
}

// SetSize changes the window size for subsequent calls.
func (c *Chunker) SetSize(n int) {
	c.chunkSize = n
}

// Size returns the current window size.
func (c *Chunker) Size() int {
	return c.chunkSize
}

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int {
	return c.overlap
}
