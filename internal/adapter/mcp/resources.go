package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"mediascout://runs",
			"Active Runs",
			mcplib.WithResourceDescription("Recommendation runs currently in flight"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleRunsResource,
	)

	s.mcpServer.AddResource(
		mcplib.NewResource(
			"mediascout://cache/stats",
			"Cache Statistics",
			mcplib.WithResourceDescription("Entry count and on-disk footprint of the API response cache"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleCacheStatsResource,
	)
}

func (s *Server) handleRunsResource(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Recommender == nil {
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     `{"error":"recommender not configured"}`,
			},
		}, nil
	}
	data, err := json.Marshal(s.deps.Recommender.ActiveRuns())
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleCacheStatsResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Cache == nil {
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     `{"error":"cache maintenance not configured"}`,
			},
		}, nil
	}
	stats, err := s.deps.Cache.Stats(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
