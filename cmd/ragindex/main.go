// Package main provides the ragindex CLI for indexing and searching local
// documents.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/rag-indexer/internal/config"
	"github.com/bull/rag-indexer/internal/embedding"
	"github.com/bull/rag-indexer/internal/generator"
	"github.com/bull/rag-indexer/internal/indexer"
	"github.com/bull/rag-indexer/internal/storage"
)

var (
	configPath string

	indexForce    bool
	indexContinue bool
	indexMeta     []string
	searchK       int
	searchFilter  []string
	searchScores  bool
	askContext    int
)

var rootCmd = &cobra.Command{
	Use:   "ragindex",
	Short: "Document indexing and semantic search tool",
	Long: `CLI tool for indexing local documents (txt, csv, pdf, md) into a
vector store and searching them semantically.

Environment variables:
  OLLAMA_BASE_URL  Ollama endpoint for embeddings and generation
  OPENAI_API_KEY   OpenAI API key (only with the openai embedding provider)
  QDRANT_HOST      Qdrant hostname (only with the qdrant storage backend)`,
}

var indexCmd = &cobra.Command{
	Use:   "index <file> [file...]",
	Short: "Index one or more files into the vector store",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIndex,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed documents semantically",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from indexed content",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	indexCmd.Flags().BoolVar(&indexForce, "force", false, "re-index files even if already indexed")
	indexCmd.Flags().BoolVar(&indexContinue, "continue-on-error", true, "keep indexing remaining files after a failure")
	indexCmd.Flags().StringArrayVar(&indexMeta, "meta", nil, "extra metadata as key=value (repeatable)")

	searchCmd.Flags().IntVarP(&searchK, "top", "k", 5, "number of results to return")
	searchCmd.Flags().StringArrayVar(&searchFilter, "filter", nil, "metadata filter as key=value (repeatable)")
	searchCmd.Flags().BoolVar(&searchScores, "scores", false, "print similarity scores")

	askCmd.Flags().IntVar(&askContext, "context", 5, "number of chunks retrieved as context")

	rootCmd.AddCommand(indexCmd, searchCmd, askCmd, statsCmd)
}

func main() {
	// Load .env if present for local development, ignore if missing.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildEngine wires the embedder, store and engine from configuration.
func buildEngine() (*indexer.Engine, storage.Store, config.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, cfg, err
	}

	embedder, err := embedding.New(cfg.EmbedderConfig())
	if err != nil {
		return nil, nil, cfg, fmt.Errorf("create embedder: %w", err)
	}

	store, err := storage.New(cfg.StoreConfig())
	if err != nil {
		return nil, nil, cfg, fmt.Errorf("create store: %w", err)
	}

	engine, err := indexer.New(indexer.Config{
		PersistDir: cfg.PersistDir,
		ChunkSize:  cfg.ChunkSize,
		Overlap:    cfg.Overlap,
	}, embedder, store, slog.Default())
	if err != nil {
		store.Close()
		return nil, nil, cfg, err
	}
	return engine, store, cfg, nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	engine, store, _, err := buildEngine()
	if err != nil {
		return err
	}
	defer store.Close()

	meta, err := parsePairs(indexMeta)
	if err != nil {
		return err
	}

	opts := []indexer.Option{}
	if len(meta) > 0 {
		opts = append(opts, indexer.WithMetadata(meta))
	}
	if indexForce {
		opts = append(opts, indexer.WithForceReindex())
	}
	if !indexContinue {
		opts = append(opts, indexer.WithStopOnError())
	}

	results, err := engine.BatchIndex(ctx, args, opts...)
	if err != nil {
		return err
	}

	total := 0
	for _, path := range args {
		chunks := results[path]
		total += len(chunks)
		fmt.Printf("  %s: %d chunks\n", path, len(chunks))
	}
	fmt.Printf("Indexed %d chunks from %d files\n", total, len(args))

	if failed := engine.FailedFiles(); len(failed) > 0 {
		fmt.Println()
		fmt.Println("Failed files:")
		for path, reason := range failed {
			fmt.Printf("  - %s: %s\n", path, reason)
		}
	}
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	engine, store, _, err := buildEngine()
	if err != nil {
		return err
	}
	defer store.Close()

	if searchScores {
		results, err := engine.SearchWithScores(ctx, args[0], searchK)
		if err != nil {
			return err
		}
		for i, r := range results {
			fmt.Printf("%d. [%.3f] %s\n", i+1, r.Score, snippet(r.Content))
		}
		return nil
	}

	filter, err := parsePairs(searchFilter)
	if err != nil {
		return err
	}
	if len(filter) == 0 {
		filter = nil
	}

	docs, err := engine.Search(ctx, args[0], searchK, filter)
	if err != nil {
		return err
	}
	for i, d := range docs {
		fmt.Printf("%d. %s\n", i+1, snippet(d.Content))
		if path, ok := d.Metadata["path"].(string); ok {
			fmt.Printf("   source: %s\n", path)
		}
	}
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	engine, store, cfg, err := buildEngine()
	if err != nil {
		return err
	}
	defer store.Close()

	docs, err := engine.Search(ctx, args[0], askContext, nil)
	if err != nil {
		return err
	}

	gen := generator.New(generator.NewClient(cfg.GeneratorClientConfig()))
	answer, err := gen.GenerateAnswer(ctx, args[0], docs)
	if err != nil {
		return err
	}

	fmt.Println(answer)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	engine, store, _, err := buildEngine()
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := engine.Statistics(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Indexing:")
	fmt.Printf("  indexed files: %d\n", stats.Indexing.TotalIndexed)
	fmt.Printf("  failed files:  %d\n", stats.Indexing.TotalFailed)
	fmt.Printf("  attempts:      %d succeeded, %d failed, %d skipped\n",
		stats.Indexing.Succeeded, stats.Indexing.Failed, stats.Indexing.Skipped)
	fmt.Println("Configuration:")
	fmt.Printf("  persist dir: %s\n", stats.Configuration.PersistDir)
	fmt.Printf("  chunk size:  %d\n", stats.Configuration.ChunkSize)
	fmt.Printf("  overlap:     %d\n", stats.Configuration.Overlap)
	fmt.Println("Vector store:")
	fmt.Printf("  documents: %d\n", stats.VectorStore.Documents)
	return nil
}

// parsePairs converts repeated key=value flags into a metadata map.
func parsePairs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid key=value pair: %q", p)
		}
		out[key] = value
	}
	return out, nil
}

// snippet shortens chunk content for terminal output.
func snippet(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	const max = 160
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
