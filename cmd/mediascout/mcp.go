package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Strob0t/MediaScout/internal/adapter/mcp"
	"github.com/Strob0t/MediaScout/internal/config"
)

// runMCPStdio serves the MCP protocol over stdin/stdout, the transport MCP
// hosts spawn the binary with. Blocks until the host disconnects.
func runMCPStdio(args []string) error {
	flags, err := config.ParseFlags(args)
	if err != nil {
		return err
	}
	cfg, _, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// stdout carries the protocol; all logging goes to stderr.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	core, err := buildCore(context.Background(), cfg, nil, nil)
	if err != nil {
		return err
	}
	defer core.close()

	srv := mcp.NewServer(mcp.ServerConfig{
		Name:    "mediascout",
		Version: version,
	}, mcp.ServerDeps{
		Recommender: core.orch,
		Tools:       core.tools,
		Cache:       core.caches.maint,
	})
	return srv.ServeStdio()
}
