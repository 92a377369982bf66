package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/MediaScout/internal/domain/pipeline"
	"github.com/Strob0t/MediaScout/internal/domain/recommendation"
	"github.com/Strob0t/MediaScout/internal/domain/request"
	"github.com/Strob0t/MediaScout/internal/port/agentrunner"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.recommendMediaTool(),
		s.searchMoviesTool(),
		s.searchTVTool(),
		s.searchBooksTool(),
		s.cacheStatsTool(),
	)
}

func (s *Server) recommendMediaTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("recommend_media",
		mcplib.WithDescription("Run the full recommendation pipeline and return personalized movie, book, or TV suggestions"),
		mcplib.WithString("user_request",
			mcplib.Required(),
			mcplib.Description("What the user is in the mood for, in their own words"),
		),
		mcplib.WithString("media_type",
			mcplib.Required(),
			mcplib.Description("One of movie, book, tv"),
		),
		mcplib.WithString("genre",
			mcplib.Description("Preferred genre"),
		),
		mcplib.WithString("mood",
			mcplib.Description("Current mood, e.g. 'uplifting' or 'dark'"),
		),
		mcplib.WithString("timeframe",
			mcplib.Description("Era or recency preference, e.g. 'recent' or '1990s'"),
		),
		mcplib.WithNumber("num_recommendations",
			mcplib.Description("How many titles to return (1-10, default 3)"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleRecommendMedia,
	}
}

func (s *Server) searchMoviesTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("search_movies",
		mcplib.WithDescription("Search for movies by title or keywords"),
		mcplib.WithString("query",
			mcplib.Required(),
			mcplib.Description("Search query for movies"),
		),
		mcplib.WithString("year",
			mcplib.Description("Release year filter"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.searchHandler(pipeline.ToolSearchMovies),
	}
}

func (s *Server) searchTVTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("search_tv",
		mcplib.WithDescription("Search for TV shows by title or keywords"),
		mcplib.WithString("query",
			mcplib.Required(),
			mcplib.Description("Search query for TV shows"),
		),
		mcplib.WithString("year",
			mcplib.Description("First air date year filter"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.searchHandler(pipeline.ToolSearchTV),
	}
}

func (s *Server) searchBooksTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("search_books",
		mcplib.WithDescription("Search for books by title, author, or keywords"),
		mcplib.WithString("query",
			mcplib.Required(),
			mcplib.Description("Search query for books"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.searchHandler(pipeline.ToolSearchBooks),
	}
}

func (s *Server) cacheStatsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("cache_stats",
		mcplib.WithDescription("Report entry count and on-disk footprint of the API response cache"),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleCacheStats,
	}
}

func (s *Server) handleRecommendMedia(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Recommender == nil {
		return mcplib.NewToolResultError("recommender not configured"), nil
	}
	args := req.GetArguments()

	// Validation is the orchestrator's job; an unparseable media type is
	// passed through so the run surfaces the canonical constraint message.
	media, _ := recommendation.ParseMediaType(stringArg(args, "media_type"))
	r := request.Request{
		UserRequest: stringArg(args, "user_request"),
		MediaType:   media,
		Genre:       stringArg(args, "genre"),
		Mood:        stringArg(args, "mood"),
		Timeframe:   stringArg(args, "timeframe"),
		Count:       intArg(args, "num_recommendations", 3),
	}

	recs, err := s.deps.Recommender.Run(ctx, r)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("recommendation run failed", err), nil
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal recommendations", err), nil
	}
	return toolResultJSON(string(data)), nil
}

// searchHandler adapts one named content tool to the MCP handler signature.
// The tool service renders results and expected failures as text, which maps
// directly onto a text tool result.
func (s *Server) searchHandler(toolName string) func(context.Context, mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	return func(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
		if s.deps.Tools == nil {
			return mcplib.NewToolResultError("content tools not configured"), nil
		}
		args := req.GetArguments()
		query := stringArg(args, "query")
		if query == "" {
			return mcplib.NewToolResultError("query is required"), nil
		}

		callArgs := map[string]string{"query": query}
		if year := stringArg(args, "year"); year != "" {
			callArgs["year"] = year
		}
		data, err := json.Marshal(callArgs)
		if err != nil {
			return mcplib.NewToolResultErrorFromErr("failed to encode arguments", err), nil
		}

		text := s.deps.Tools.Call(ctx, agentrunner.ToolCall{
			ID:   "mcp-" + toolName,
			Name: toolName,
			Args: string(data),
		})
		return mcplib.NewToolResultText(text), nil
	}
}

func (s *Server) handleCacheStats(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Cache == nil {
		return mcplib.NewToolResultError("cache maintenance not configured"), nil
	}
	stats, err := s.deps.Cache.Stats(ctx)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to read cache stats", err), nil
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal cache stats", err), nil
	}
	return toolResultJSON(string(data)), nil
}

// toolResultJSON wraps pre-encoded JSON as a text tool result.
func toolResultJSON(data string) *mcplib.CallToolResult {
	return mcplib.NewToolResultText(data)
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// intArg reads a numeric argument, tolerating the float64 JSON decoding
// produces. Zero and absent both resolve to the default.
func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		if n := int(v); n != 0 {
			return n
		}
	case int:
		if v != 0 {
			return v
		}
	}
	return def
}
