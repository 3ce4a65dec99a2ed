// Package mcp exposes live workout sessions to MCP clients.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/pullupcoach/internal/session"
)

// New creates an MCP server with all tools and resources registered.
func New(sessions *session.Manager, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("PullUpCoach", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Live pull-up coaching server. Inspect and reset in-progress workout sessions. No historical data is kept beyond the current run."),
	)

	h := &handlers{sessions: sessions, version: version, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetStatus, Handler: h.getStatus},
		server.ServerTool{Tool: toolListSessions, Handler: h.listSessions},
		server.ServerTool{Tool: toolGetSession, Handler: h.getSession},
		server.ServerTool{Tool: toolResetSession, Handler: h.resetSession},
	)

	s.AddResources(
		server.ServerResource{Resource: resLiveSessions, Handler: h.liveSessions},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	sessions *session.Manager
	version  string
	log      *slog.Logger
}
