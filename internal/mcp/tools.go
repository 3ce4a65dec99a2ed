package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolGetStatus = mcp.NewTool("get_status",
	mcp.WithDescription("Get server status: version and the number of live workout sessions."),
)

var toolListSessions = mcp.NewTool("list_sessions",
	mcp.WithDescription("List the IDs of all live workout sessions with their current rep counts."),
)

var toolGetSession = mcp.NewTool("get_session",
	mcp.WithDescription("Get live state for one session: reps, display position, confirmed motion direction, frame count, and rep pace statistics."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Session ID")),
)

var toolResetSession = mcp.NewTool("reset_session",
	mcp.WithDescription("Reset a session's rep count and motion state to initial values."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Session ID")),
)

// --- Tool handlers ---

func (h *handlers) getStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(map[string]any{
		"status":   "online",
		"version":  h.version,
		"sessions": h.sessions.Len(),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listSessions(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type entry struct {
		ID   string `json:"id"`
		Reps int    `json:"reps"`
	}
	entries := make([]entry, 0)
	for _, id := range h.sessions.List() {
		if s, ok := h.sessions.Get(id); ok {
			entries = append(entries, entry{ID: id, Reps: s.Snapshot().Count})
		}
	}

	result, err := mcp.NewToolResultJSON(entries)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	s, ok := h.sessions.Get(id)
	if !ok {
		return mcp.NewToolResultError("session not found: " + id), nil
	}

	result, err := mcp.NewToolResultJSON(s.Summarize())
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) resetSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	s, ok := h.sessions.Get(id)
	if !ok {
		return mcp.NewToolResultError("session not found: " + id), nil
	}

	s.Reset()
	h.log.Info("mcp reset_session", "session", id)
	return mcp.NewToolResultText("session " + id + " reset"), nil
}
