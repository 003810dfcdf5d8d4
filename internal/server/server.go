// Package server exposes the git service as MCP tools over stdio.
// Every tool handler runs through the same wrapper: rate limit check,
// facade call, JSON result. Typed git errors marshal to their wire
// form so callers can branch on error codes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/gitmcp/gitmcp/internal/giterr"
	"github.com/gitmcp/gitmcp/internal/logfields"
	"github.com/gitmcp/gitmcp/internal/ratelimit"
	"github.com/gitmcp/gitmcp/internal/service"
	"github.com/gitmcp/gitmcp/internal/version"
)

// Name identifies the server in the MCP handshake.
const Name = "gitmcp"

// handlerFunc is a tool implementation returning a JSON-serializable
// result.
type handlerFunc func(ctx context.Context, req mcp.CallToolRequest) (any, error)

// registeredTool pairs a tool definition with its handler.
type registeredTool struct {
	def     mcp.Tool
	handler handlerFunc
}

// Server owns the MCP server and the tool registry.
type Server struct {
	svc     *service.Service
	limiter *ratelimit.Limiter
	mcp     *mcpserver.MCPServer
	log     *slog.Logger

	registry []registeredTool
}

// New builds the server and registers the full tool surface.
func New(svc *service.Service, limiter *ratelimit.Limiter) *Server {
	s := &Server{
		svc:     svc,
		limiter: limiter,
		log:     slog.Default().With("component", "server"),
	}

	s.mcp = mcpserver.NewMCPServer(Name, version.Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)

	s.register(s.workspaceTools())
	s.register(s.gitTools())
	s.register(s.refTools())
	s.register(s.extraTools())
	s.register(s.taskTools())
	return s
}

// ServeStdio blocks serving MCP requests on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.log.Info("serving MCP over stdio", logfields.Count(len(s.registry)))
	return mcpserver.ServeStdio(s.mcp)
}

// ToolNames returns the registered tool names.
func (s *Server) ToolNames() []string {
	names := make([]string, 0, len(s.registry))
	for _, t := range s.registry {
		names = append(names, t.def.Name)
	}
	return names
}

func (s *Server) register(tools []registeredTool) {
	for _, t := range tools {
		s.registry = append(s.registry, t)
		s.mcp.AddTool(t.def, s.wrap(t.def.Name, t.handler))
	}
}

// wrap applies the rate limit and converts results and errors to MCP
// tool results. Handler errors never propagate as protocol errors.
func (s *Server) wrap(name string, fn handlerFunc) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := s.limiter.Allow("stdio"); err != nil {
			return errorResult(err), nil
		}

		result, err := fn(ctx, req)
		if err != nil {
			s.log.Debug("tool call failed", logfields.Operation(name), logfields.Error(err))
			return errorResult(err), nil
		}
		return textResult(result)
	}
}

// textResult marshals v to a JSON text result.
func textResult(v any) (*mcp.CallToolResult, error) {
	if v == nil {
		v = map[string]any{"ok": true}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// errorResult renders an error as an MCP error result. Typed errors
// carry their structured wire form.
func errorResult(err error) *mcp.CallToolResult {
	var gitErr *giterr.Error
	if errors.As(err, &gitErr) {
		if b, marshalErr := json.Marshal(gitErr.ToMap()); marshalErr == nil {
			return mcp.NewToolResultError(string(b))
		}
	}
	return mcp.NewToolResultError(err.Error())
}
