package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/pullupcoach/internal/session"
)

var resLiveSessions = mcp.NewResource(
	"pullupcoach://live_sessions",
	"Live Sessions",
	mcp.WithResourceDescription("Summaries of every in-progress workout session: reps, position, direction, and rep pace"),
	mcp.WithMIMEType("application/json"),
)

func (h *handlers) liveSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	summaries := make([]session.Summary, 0)
	for _, id := range h.sessions.List() {
		if s, ok := h.sessions.Get(id); ok {
			summaries = append(summaries, s.Summarize())
		}
	}

	data, err := json.Marshal(summaries)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
