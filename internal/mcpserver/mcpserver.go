package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/spigell/toolmatch/internal/catalog"
	"github.com/spigell/toolmatch/internal/recommender"
)

const (
	ToolName = "recommend_ai_tools"

	toolDescription = "Recommend AI tools for a task described in plain language. " +
		"Returns up to 10 tools ranked by compatibility, each with a score, reasons and limitations."
	noRecommendationsMsg = "no recommendations available"
)

// Matcher answers recommendation queries.
type Matcher interface {
	Match(ctx context.Context, query string) (*recommender.Response, error)
}

type recommendArgs struct {
	Query string `json:"query" jsonschema:"what the user wants to achieve, in plain language"`
}

// New creates an MCP server exposing the recommendation tool.
func New(name, version string, matcher Matcher, logger *zap.Logger) *mcp.Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	server := mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolName,
		Description: toolDescription,
	}, recommendHandler(matcher, logger))

	return server
}

// Run serves the tool over stdio until the client disconnects or ctx is cancelled.
func Run(ctx context.Context, server *mcp.Server) error {
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func recommendHandler(matcher Matcher, logger *zap.Logger) mcp.ToolHandlerFor[recommendArgs, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, args recommendArgs) (*mcp.CallToolResult, any, error) {
		query := strings.TrimSpace(args.Query)
		if query == "" {
			return errorResult("query is required"), nil, nil
		}

		resp, err := matcher.Match(ctx, query)
		if err != nil {
			if errors.Is(err, catalog.ErrDataUnavailable) {
				return errorResult(noRecommendationsMsg), nil, nil
			}
			logger.Error("mcp recommendation failed", zap.Error(err))
			return errorResult("recommendation failed"), nil, nil
		}

		payload, err := json.Marshal(resp)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal response: %w", err)
		}

		logger.Debug("mcp recommendation served",
			zap.String("request_id", resp.RequestID),
			zap.String("mode", string(resp.Mode)),
			zap.Int("results", len(resp.Results)),
		)

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
		}, nil, nil
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}
