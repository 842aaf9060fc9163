// Package document defines the normalized unit of ingested content shared
// by loaders, the chunker, the indexing engine and the vector store.
package document

// Document is an immutable (content, metadata) pair. Loaders set provenance
// keys ("name", "path", "type", and "row" for tabular sources); the chunker
// adds a "chunk" sequence number.
type Document struct {
	Content  string
	Metadata map[string]any
}

// Scored pairs a document with its similarity score from a vector search.
type Scored struct {
	Document
	Score float64
}

// New creates a document with its own copy of the metadata map.
func New(content string, metadata map[string]any) Document {
	return Document{Content: content, Metadata: CloneMetadata(metadata)}
}

// CloneMetadata returns a shallow copy of a metadata map. Values are scalars
// by convention, so a shallow copy is sufficient.
func CloneMetadata(metadata map[string]any) map[string]any {
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	return out
}

// MergeMetadata copies base and overlays extra on top of it. Keys in extra
// override keys in base.
func MergeMetadata(base, extra map[string]any) map[string]any {
	out := CloneMetadata(base)
	for k, v := range extra {
		out[k] = v
	}
	return out
}
