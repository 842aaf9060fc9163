package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/bull/rag-indexer/internal/document"
)

// Completer is the minimal LLM surface the generator needs. *Client
// satisfies it.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Generator turns retrieved documents into answers, summaries and
// relevance ratings.
type Generator struct {
	llm Completer
}

// New creates a Generator backed by the given completer.
func New(llm Completer) *Generator {
	return &Generator{llm: llm}
}

// GenerateAnswer answers a question grounded in the given context documents.
func (g *Generator) GenerateAnswer(ctx context.Context, question string, contextDocs []document.Document) (string, error) {
	parts := make([]string, 0, len(contextDocs))
	for _, doc := range contextDocs {
		parts = append(parts, fmt.Sprintf("Source: %v\nContent: %s", doc.Metadata, doc.Content))
	}
	contextStr := strings.Join(parts, "\n\n")

	prompt := fmt.Sprintf("Use the following context to answer the question:\n\n%s\n\nQuestion: %s\nAnswer:", contextStr, question)
	return g.llm.Complete(ctx, prompt)
}

// SummarizeDocs produces a bullet-point summary of the given documents.
func (g *Generator) SummarizeDocs(ctx context.Context, docs []document.Document) (string, error) {
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		parts = append(parts, doc.Content)
	}
	contextStr := strings.Join(parts, "\n\n")

	prompt := fmt.Sprintf("Summarize the following text in concise bullet points:\n\n%s\n\nSummary:", contextStr)
	return g.llm.Complete(ctx, prompt)
}

// EvaluateRelevance asks the model to rate how well an answer addresses
// a question on a 1-10 scale.
func (g *Generator) EvaluateRelevance(ctx context.Context, question, answer string) (string, error) {
	prompt := fmt.Sprintf(
		"Question: %s\nAnswer: %s\n\nRate the relevance of the answer to the question on a scale of 1 to 10. Provide a brief explanation for your rating.",
		question, answer)
	return g.llm.Complete(ctx, prompt)
}
