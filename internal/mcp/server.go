// Package mcpserver exposes board tools to agents over the Model Context
// Protocol. Every tool acts as one configured user and goes through the
// same access checks and element validation as the HTTP API.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sketchboard/sketchboard/backend-go/internal/document"
	"github.com/sketchboard/sketchboard/backend-go/internal/engine"
)

// Boards is the slice of the board service the tools need.
type Boards interface {
	List(ctx context.Context, userID string) ([]document.BoardMetadata, error)
	Get(ctx context.Context, boardID, userID string) (*document.Board, error)
	UpdateElements(ctx context.Context, boardID, userID string, elements []document.Element) ([]document.Element, error)
}

type Server struct {
	mcp     *server.MCPServer
	boards  Boards
	userID  string
	ids     *engine.ClockIDs
	measure engine.TextMeasurer
}

// New builds the MCP server acting as userID. A nil measurer falls back to
// the approximate one.
func New(boards Boards, userID, version string, measure engine.TextMeasurer) *Server {
	if measure == nil {
		measure = engine.ApproxMeasurer{}
	}
	s := &Server{
		boards:  boards,
		userID:  userID,
		ids:     engine.NewClockIDs(),
		measure: measure,
	}
	s.mcp = server.NewMCPServer(
		"sketchboard-mcp",
		version,
		server.WithToolCapabilities(true),
	)
	s.registerBoardTools()
	s.registerElementTools()
	return s
}

// ServeStdio serves MCP on stdin/stdout until the client goes away.
func (s *Server) ServeStdio() error {
	slog.Info("mcp stdio server starting", "user", s.userID)
	return server.ServeStdio(s.mcp)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func numberArg(args map[string]any, key string) (float64, error) {
	v, ok := args[key].(float64)
	if !ok {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	if !document.Finite(v) {
		return 0, fmt.Errorf("%s: %w", key, document.ErrInvalidCoordinate)
	}
	return v, nil
}

func optionalNumber(args map[string]any, key string, def float64) (float64, error) {
	if _, ok := args[key]; !ok {
		return def, nil
	}
	return numberArg(args, key)
}

func elementIDArg(args map[string]any) (int64, error) {
	v, err := numberArg(args, "elementId")
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

func boolPtr(b bool) *bool { return &b }
