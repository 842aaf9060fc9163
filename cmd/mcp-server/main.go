// Package main provides the MCP server entry point for the document index.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/bull/rag-indexer/internal/config"
	"github.com/bull/rag-indexer/internal/embedding"
	"github.com/bull/rag-indexer/internal/generator"
	"github.com/bull/rag-indexer/internal/indexer"
	mcpserver "github.com/bull/rag-indexer/internal/mcp"
	"github.com/bull/rag-indexer/internal/storage"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load(getEnv("RAGINDEX_CONFIG", ""))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	port := getEnv("PORT", "8080")

	embedder, err := embedding.New(cfg.EmbedderConfig())
	if err != nil {
		log.Fatalf("failed to create embedder: %v", err)
	}

	store, err := storage.New(cfg.StoreConfig())
	if err != nil {
		log.Fatalf("failed to create vector store: %v", err)
	}
	defer store.Close()

	engine, err := indexer.New(indexer.Config{
		PersistDir: cfg.PersistDir,
		ChunkSize:  cfg.ChunkSize,
		Overlap:    cfg.Overlap,
	}, embedder, store, slog.Default())
	if err != nil {
		log.Fatalf("failed to create indexing engine: %v", err)
	}

	gen := generator.New(generator.NewClient(cfg.GeneratorClientConfig()))

	// Create MCP server
	server := mcpserver.NewServer(&mcpserver.Config{
		Engine:    engine,
		Generator: gen,
	})

	// Create HTTP server with multiple endpoints
	mux := http.NewServeMux()

	mux.HandleFunc("/", mcpserver.NewLandingHandler())
	mux.HandleFunc("/health", mcpserver.NewHealthHandler(store))
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(server, nil))

	// Check if running in server mode (HTTP) or stdio mode (local development)
	serverMode := getEnv("SERVER_MODE", "false") == "true"

	if serverMode {
		// HTTP mode: serve MCP over HTTP for remote clients
		addr := "0.0.0.0:" + port
		log.Printf("Starting HTTP server on %s (MCP at /mcp, health at /health)", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	} else {
		// Stdio mode: run MCP server over stdin/stdout for local clients
		// Also start HTTP health endpoint in background for local testing
		go func() {
			addr := "0.0.0.0:" + port
			log.Printf("Starting health server on %s", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Printf("Health server error: %v", err)
			}
		}()

		log.Println("Starting document index MCP server (stdio mode)...")
		if err := server.Run(ctx); err != nil {
			log.Printf("server error: %v", err)
			os.Exit(1)
		}
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
