// Package mcpserver serves a tool registry over the Model Context Protocol,
// so MCP clients can call the same tools the agent uses.
package mcpserver

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/logger"
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/tools"
)

const serverName = "adp"

// Server exposes every definition in a registry as an MCP tool.
type Server struct {
	mcp    *mcp.Server
	logger *zap.Logger
}

func New(reg *tools.Registry, version string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		mcp:    mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil),
		logger: log,
	}
	for _, def := range reg.Definitions() {
		s.mcp.AddTool(&mcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, s.handler(def))
	}
	return s
}

// handler adapts a tool function. Tool failures are reported to the client
// as error results, not protocol errors.
func (s *Server) handler(def tools.Definition) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		out, err := def.Function(ctx, req.Params.Arguments)
		if err != nil {
			s.logger.Warn("mcp tool failed",
				zap.String("tool_name", def.Name),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + err.Error()}},
			}, nil
		}

		s.logger.Debug("mcp tool called",
			zap.String("tool_name", def.Name),
			zap.Duration("duration", time.Since(start)),
			zap.String("output_preview", logger.Preview(out, 80)),
		)
		return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: out}}}, nil
	}
}

// Connect serves a single session over t.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcp.Connect(ctx, t, nil)
}

// Run serves on stdin/stdout until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("serving tools over MCP stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}
