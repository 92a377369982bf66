// Package mcp exposes the recommendation engine over the Model Context
// Protocol: the full pipeline as one tool, the content searches as direct
// tools, and cache statistics for diagnostics. The server speaks stdio for
// CLI-spawned clients and optionally SSE on a configured address.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/MediaScout/internal/domain/recommendation"
	"github.com/Strob0t/MediaScout/internal/domain/request"
	"github.com/Strob0t/MediaScout/internal/port/agentrunner"
	"github.com/Strob0t/MediaScout/internal/port/cache"
	"github.com/Strob0t/MediaScout/internal/service"
)

// ServerConfig configures the MCP server identity and transports.
type ServerConfig struct {
	Addr    string // SSE listen address; empty serves stdio only
	APIKey  string // bearer token for the SSE transport; empty disables auth
	Name    string
	Version string
}

// Recommender is the orchestrator slice the MCP tools consume.
type Recommender interface {
	Run(ctx context.Context, req request.Request) ([]recommendation.Recommendation, error)
	ActiveRuns() []service.RunInfo
}

// ToolCaller executes one content-provider tool call and renders the result
// as text.
type ToolCaller interface {
	Call(ctx context.Context, call agentrunner.ToolCall) string
}

// ServerDeps are the services the MCP tools and resources read from. A nil
// dependency turns its tools into a "not configured" error result.
type ServerDeps struct {
	Recommender Recommender
	Tools       ToolCaller
	Cache       cache.Maintainer
}

// Server wraps the MCP protocol server and its optional SSE transport.
type Server struct {
	cfg       ServerConfig
	deps      ServerDeps
	mcpServer *mcpserver.MCPServer
	httpSrv   *http.Server
}

// NewServer creates the MCP server and registers all tools and resources.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying protocol server for transports and tests.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Start serves the SSE transport in the background when an address is
// configured. Without one it is a no-op; stdio clients use ServeStdio.
func (s *Server) Start() error {
	if s.cfg.Addr == "" {
		return nil
	}

	sse := mcpserver.NewSSEServer(s.mcpServer)
	s.httpSrv = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           AuthMiddleware(s.cfg.APIKey, sse),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("mcp sse server listening", "addr", s.cfg.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("mcp sse server failed", "error", err)
		}
	}()
	return nil
}

// Stop shuts down the SSE transport, if one was started.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// ServeStdio blocks serving the protocol over stdin/stdout until the client
// disconnects.
func (s *Server) ServeStdio() error {
	return mcpserver.ServeStdio(s.mcpServer)
}
