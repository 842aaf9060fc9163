package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/rag-indexer/internal/generator"
	"github.com/bull/rag-indexer/internal/indexer"
)

// makeSearchHandler creates the search_docs tool handler.
func makeSearchHandler(engine *indexer.Engine) func(
	context.Context, *mcp.CallToolRequest, SearchDocsInput,
) (*mcp.CallToolResult, SearchDocsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchDocsInput) (
		*mcp.CallToolResult, SearchDocsOutput, error,
	) {
		maxResults := input.MaxResults
		if maxResults <= 0 {
			maxResults = 5
		}

		// Path restrictions go through the filtered search, which does not
		// report scores.
		if input.Path != "" {
			docs, err := engine.Search(ctx, input.Query, maxResults, map[string]any{"path": input.Path})
			if err != nil {
				return nil, SearchDocsOutput{}, fmt.Errorf("search failed: %w", err)
			}
			results := make([]SearchResult, 0, len(docs))
			for _, d := range docs {
				results = append(results, SearchResult{
					Content:  d.Content,
					Metadata: d.Metadata,
				})
			}
			return nil, searchOutput(results), nil
		}

		scored, err := engine.SearchWithScores(ctx, input.Query, maxResults)
		if err != nil {
			return nil, SearchDocsOutput{}, fmt.Errorf("search failed: %w", err)
		}
		results := make([]SearchResult, 0, len(scored))
		for _, s := range scored {
			results = append(results, SearchResult{
				Content:  s.Content,
				Score:    s.Score,
				Metadata: s.Metadata,
			})
		}
		return nil, searchOutput(results), nil
	}
}

func searchOutput(results []SearchResult) SearchDocsOutput {
	if len(results) == 0 {
		return SearchDocsOutput{
			Results: []SearchResult{},
			Message: "No matching documents found. Try broader search terms.",
		}
	}
	return SearchDocsOutput{Results: results}
}

// makeIndexHandler creates the index_file tool handler.
func makeIndexHandler(engine *indexer.Engine) func(
	context.Context, *mcp.CallToolRequest, IndexFileInput,
) (*mcp.CallToolResult, IndexFileOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input IndexFileInput) (
		*mcp.CallToolResult, IndexFileOutput, error,
	) {
		var opts []indexer.Option
		if input.Force {
			opts = append(opts, indexer.WithForceReindex())
		}

		chunks, err := engine.Index(ctx, input.Path, opts...)
		if err != nil {
			if errors.Is(err, indexer.ErrValidation) {
				return nil, IndexFileOutput{}, err
			}
			return nil, IndexFileOutput{}, fmt.Errorf("indexing failed: %w", err)
		}

		return nil, IndexFileOutput{
			Path:    input.Path,
			Chunks:  len(chunks),
			Skipped: len(chunks) == 0 && engine.IsIndexed(input.Path) && !input.Force,
		}, nil
	}
}

// makeListHandler creates the list_indexed tool handler.
func makeListHandler(engine *indexer.Engine) func(
	context.Context, *mcp.CallToolRequest, ListIndexedInput,
) (*mcp.CallToolResult, ListIndexedOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListIndexedInput) (
		*mcp.CallToolResult, ListIndexedOutput, error,
	) {
		paths := engine.IndexedFiles()
		return nil, ListIndexedOutput{
			Paths: paths,
			Count: len(paths),
		}, nil
	}
}

// makeStatusHandler creates the get_index_status tool handler.
func makeStatusHandler(engine *indexer.Engine) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		stats, err := engine.Statistics(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("statistics failed: %w", err)
		}

		out := StatusOutput{
			TotalIndexed: stats.Indexing.TotalIndexed,
			TotalFailed:  stats.Indexing.TotalFailed,
			Succeeded:    stats.Indexing.Succeeded,
			Failed:       stats.Indexing.Failed,
			Skipped:      stats.Indexing.Skipped,
			Documents:    stats.VectorStore.Documents,
			PersistDir:   stats.Configuration.PersistDir,
			ChunkSize:    stats.Configuration.ChunkSize,
			Overlap:      stats.Configuration.Overlap,
		}
		if history := engine.History(); len(history) > 0 {
			out.LastAttempt = history[len(history)-1].Timestamp
		}
		return nil, out, nil
	}
}

// makeAskHandler creates the ask_docs tool handler. It retrieves context
// chunks for the question and asks the generator for an answer.
func makeAskHandler(engine *indexer.Engine, gen *generator.Generator) func(
	context.Context, *mcp.CallToolRequest, AskDocsInput,
) (*mcp.CallToolResult, AskDocsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskDocsInput) (
		*mcp.CallToolResult, AskDocsOutput, error,
	) {
		maxContext := input.MaxContext
		if maxContext <= 0 {
			maxContext = 5
		}

		docs, err := engine.Search(ctx, input.Question, maxContext, nil)
		if err != nil {
			return nil, AskDocsOutput{}, fmt.Errorf("retrieve context: %w", err)
		}

		answer, err := gen.GenerateAnswer(ctx, input.Question, docs)
		if err != nil {
			return nil, AskDocsOutput{}, fmt.Errorf("generate answer: %w", err)
		}

		seen := make(map[string]struct{})
		sources := make([]string, 0, len(docs))
		for _, d := range docs {
			path, _ := d.Metadata["path"].(string)
			if path == "" {
				continue
			}
			if _, ok := seen[path]; ok {
				continue
			}
			seen[path] = struct{}{}
			sources = append(sources, path)
		}

		return nil, AskDocsOutput{Answer: answer, Sources: sources}, nil
	}
}
