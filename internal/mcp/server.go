package mcp

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/rag-indexer/internal/generator"
	"github.com/bull/rag-indexer/internal/indexer"
)

// Server wraps the MCP server with its dependencies.
type Server struct {
	server    *mcp.Server
	engine    *indexer.Engine
	generator *generator.Generator
}

// Config holds server dependencies. Generator is optional; without it the
// ask_docs tool is not registered.
type Config struct {
	Engine    *indexer.Engine
	Generator *generator.Generator
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "rag-indexer-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_docs",
		Description: "Search indexed documents semantically. Returns matching chunks with similarity scores, optionally restricted to one file.",
	}, makeSearchHandler(cfg.Engine))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "index_file",
		Description: "Index a file (txt, csv, pdf, md) into the vector store. Already indexed files are skipped unless force is set.",
	}, makeIndexHandler(cfg.Engine))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_indexed",
		Description: "List the paths of all files indexed in this session.",
	}, makeListHandler(cfg.Engine))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_index_status",
		Description: "Get index status: file and chunk counts, attempt outcomes, and the active configuration.",
	}, makeStatusHandler(cfg.Engine))

	if cfg.Generator != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        "ask_docs",
			Description: "Answer a question from indexed content. Retrieves relevant chunks and generates a grounded answer.",
		}, makeAskHandler(cfg.Engine, cfg.Generator))
	}

	return &Server{
		server:    server,
		engine:    cfg.Engine,
		generator: cfg.Generator,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}

// HTTPHandlerOptions configures the streamable HTTP transport.
type HTTPHandlerOptions struct {
	// Stateless disables session management. The index tools are plain
	// request/response so stateless mode is safe for remote deployments.
	Stateless bool
}

// NewHTTPHandler wraps the server in a Streamable HTTP handler, mountable
// on any mux path (e.g. "/mcp"). A nil opts uses stateful sessions.
func NewHTTPHandler(server *Server, opts *HTTPHandlerOptions) http.Handler {
	if opts == nil {
		opts = &HTTPHandlerOptions{}
	}

	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server.MCPServer()
	}, &mcp.StreamableHTTPOptions{Stateless: opts.Stateless})
}
