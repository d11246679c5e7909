// Package mcpserver exposes read-only episode inspection, plus
// stage-matched replay, as MCP tools over the same Postgres-backed
// episode store the three pipeline workers write to. It is an operator
// debugging surface, not part of the processing pipeline: it never
// writes to an episode directly, only onto the same durable queues a
// worker would redeliver a message through. Generalized from the
// teacher's podcast-generation MCP server (server.go/tools.go), which
// exposed mutating generate_podcast/get_podcast tools over DynamoDB —
// that store and its generation task manager are dropped entirely (see
// DESIGN.md) since this server only ever reads and replays episodes a
// worker already produced.
package mcpserver

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/server"

	"github.com/apresai/podcasto-pipeline/internal/admin"
)

// Config holds server configuration.
type Config struct {
	Port int
}

// Server is the MCP server for episode inspection.
type Server struct {
	cfg      Config
	mcp      *server.MCPServer
	handlers *Handlers
	log      *slog.Logger
}

// New creates and configures the MCP server.
func New(cfg Config, store admin.Store, senders admin.Senders, logger *slog.Logger) *Server {
	handlers := NewHandlers(store, senders, logger)

	mcpServer := server.NewMCPServer(
		"podcast-admin",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	tools := ToolDefs()
	mcpServer.AddTool(tools[0], handlers.HandleGetEpisode)
	mcpServer.AddTool(tools[1], handlers.HandleListStuckEpisodes)
	mcpServer.AddTool(tools[2], handlers.HandleReplayEpisode)

	return &Server{cfg: cfg, mcp: mcpServer, handlers: handlers, log: logger}
}

// Start runs the HTTP MCP server, blocking until it exits.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.log.Info("starting episode-inspection MCP server", "addr", addr)

	mcpHandler := server.NewStreamableHTTPServer(s.mcp, server.WithStateLess(true))

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpHandler)
	mux.Handle("/mcp/", mcpHandler)

	httpSrv := &http.Server{Addr: addr, Handler: mux}
	return httpSrv.ListenAndServe()
}
