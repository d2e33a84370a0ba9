// Package server hosts the pennywise MCP server and its transports.
package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/pennywise/internal/services/expense/mcp/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName = "pennywise"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// Transport names the transport the MCP server listens on.
type Transport string

// TransportStdio serves MCP over stdin/stdout.
const TransportStdio Transport = "stdio"

// Config defines how the MCP server is served.
type Config struct {
	Transport Transport
}

// Server wraps the MCP server and its tool registrations.
type Server struct {
	mcpServer *mcp.Server
}

type registration struct {
	tool     *mcp.Tool
	register func(*mcp.Server, *mcp.Tool)
}

func toolRegistration[I, O any](tool *mcp.Tool, handler mcp.ToolHandlerFor[I, O]) registration {
	return registration{
		tool: tool,
		register: func(server *mcp.Server, tool *mcp.Tool) {
			mcp.AddTool(server, tool, handler)
		},
	}
}

// New creates an MCP server exposing the expense tools over svc.
func New(svc tools.ExpenseService) (*Server, error) {
	if svc == nil {
		return nil, errors.New("expense service is required")
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	registrations := []registration{
		toolRegistration(tools.ExpenseAddTool(), tools.ExpenseAddHandler(svc)),
		toolRegistration(tools.ExpenseListTool(), tools.ExpenseListHandler(svc)),
		toolRegistration(tools.ExpenseDeleteTool(), tools.ExpenseDeleteHandler(svc)),
		toolRegistration(tools.SpendingSummaryTool(), tools.SpendingSummaryHandler(svc)),
		toolRegistration(tools.SpendingForecastTool(), tools.SpendingForecastHandler(svc)),
		toolRegistration(tools.AssistantAskTool(), tools.AssistantAskHandler(svc)),
	}
	for _, r := range registrations {
		r.register(mcpServer, r.tool)
	}
	return &Server{mcpServer: mcpServer}, nil
}

// Run serves the MCP server over the configured transport until ctx ends.
func Run(ctx context.Context, svc tools.ExpenseService, cfg Config) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}
	if cfg.Transport != TransportStdio {
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
	server, err := New(svc)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the MCP server on stdio and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
