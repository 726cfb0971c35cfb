package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/trackline/internal/models"
	"github.com/claude/trackline/internal/results"
)

// --- Tool definitions ---

var toolListSessions = mcp.NewTool("list_sessions",
	mcp.WithDescription("List all stored training sessions with their ids, names, start/end timestamps, and which one (if any) is active."),
)

var toolGetSessionResults = mcp.NewTool("get_session_results",
	mcp.WithDescription("Get the result table for a session: one column per (block, rep), one row per active athlete, times in seconds with 0.1s resolution. Uncaptured cells are null."),
	mcp.WithString("session_id", mcp.Description("Session id. Defaults to the active session.")),
)

var toolGetSessionLog = mcp.NewTool("get_session_log",
	mcp.WithDescription("Get a session's capture log (audit trail), most recent first. Each entry records who was tapped, in which block and rep, and the captured time."),
	mcp.WithString("session_id", mcp.Description("Session id. Defaults to the active session.")),
)

var toolExportSessionTSV = mcp.NewTool("export_session_tsv",
	mcp.WithDescription("Export a session's result table as tab-separated text with M:SS.T formatted times, ready to paste into a spreadsheet."),
	mcp.WithString("session_id", mcp.Description("Session id. Defaults to the active session.")),
)

var toolGetRoster = mcp.NewTool("get_roster",
	mcp.WithDescription("List the global athlete roster with default group assignments."),
)

var toolGetTemplates = mcp.NewTool("get_templates",
	mcp.WithDescription("List the stored session templates and their block/joiner sequences."),
)

// session resolves the optional session_id argument, defaulting to the
// active session.
func (h *handlers) session(ctx context.Context, req mcp.CallToolRequest) (*models.LiveSession, error) {
	if id := req.GetString("session_id", ""); id != "" {
		return h.ds.GetSession(ctx, id)
	}
	return h.ds.GetActiveSession(ctx)
}

// --- Tool handlers ---

type sessionSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Location  string `json:"location,omitempty"`
	StartedAt string `json:"startedAt"`
	EndedAt   string `json:"endedAt,omitempty"`
	Athletes  int    `json:"athletes"`
	Captures  int    `json:"captures"`
}

func (h *handlers) listSessions(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, activeID, err := h.ds.ListSessions(ctx)
	if err != nil {
		h.log.Error("mcp list_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	summaries := make([]sessionSummary, len(sessions))
	for i, s := range sessions {
		summaries[i] = sessionSummary{
			ID:        s.ID,
			Name:      s.Name,
			Location:  s.Location,
			StartedAt: s.StartedAtISO,
			EndedAt:   s.EndedAtISO,
			Athletes:  len(s.Roster),
			Captures:  len(s.Results.Log),
		}
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"sessions":          summaries,
		"active_session_id": activeID,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSessionResults(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := h.session(ctx, req)
	if err != nil {
		return mcp.NewToolResultError("session lookup failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(results.Project(sess))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSessionLog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := h.session(ctx, req)
	if err != nil {
		return mcp.NewToolResultError("session lookup failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(results.Audit(sess))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) exportSessionTSV(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := h.session(ctx, req)
	if err != nil {
		return mcp.NewToolResultError("session lookup failed: " + err.Error()), nil
	}
	return mcp.NewToolResultText(results.Project(sess).TSV()), nil
}

func (h *handlers) getRoster(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	athletes, err := h.ds.GetRoster(ctx)
	if err != nil {
		h.log.Error("mcp get_roster", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(athletes)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTemplates(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templates, err := h.ds.GetTemplates(ctx)
	if err != nil {
		h.log.Error("mcp get_templates", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(templates)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
