// Package mcp exposes the intellihide daemon as MCP tools over stdio.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/intellihide/internal/ipc"
)

const (
	ServerName    = "intellihide"
	ServerVersion = "0.1.0"
)

// Daemon is the part of the IPC client the tools use.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	GetMonitors() (*ipc.MonitorsData, error)
	Suspend() error
	Resume() error
	SetOnlyActive(active bool) error
	Reload() error
}

// Server is the MCP server forwarding tool calls to a running daemon.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
}

// NewServer creates a server talking to daemon.
func NewServer(daemon Daemon) *Server {
	s := &Server{daemon: daemon}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report whether the dock is showing or hidden, whether automatic hiding is suspended, the focused application and decision counters.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_monitors",
		Description: "List the monitors known to the daemon with their geometry.",
	}, s.handleListMonitors)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "suspend",
		Description: "Show the dock and stop hiding it until resume is called.",
	}, s.handleSuspend)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "resume",
		Description: "Resume automatic hiding after suspend.",
	}, s.handleResume)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_only_active_window",
		Description: "When active is true only windows of the focused application can hide the dock. When false any overlapping window can.",
	}, s.handleSetOnlyActiveWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "reload_config",
		Description: "Reload the daemon configuration file. Invalid configuration is rejected and the running configuration is kept.",
	}, s.handleReloadConfig)
}
