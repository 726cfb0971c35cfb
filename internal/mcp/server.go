package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("Trackline", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Trackline session timing server for a running squad. Query stored sessions, result matrices, capture logs, the athlete roster, and session templates. All times are seconds with 0.1s resolution."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListSessions, Handler: h.listSessions},
		server.ServerTool{Tool: toolGetSessionResults, Handler: h.getSessionResults},
		server.ServerTool{Tool: toolGetSessionLog, Handler: h.getSessionLog},
		server.ServerTool{Tool: toolExportSessionTSV, Handler: h.exportSessionTSV},
		server.ServerTool{Tool: toolGetRoster, Handler: h.getRoster},
		server.ServerTool{Tool: toolGetTemplates, Handler: h.getTemplates},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resActiveSession, Handler: h.activeSession},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resActiveSession = mcp.NewResource(
	"trackline://active_session",
	"Active Session",
	mcp.WithResourceDescription("The full state of the currently running session: roster, sequence, per-group timers, and captured results"),
	mcp.WithMIMEType("application/json"),
)

func (h *handlers) activeSession(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	sess, err := h.ds.GetActiveSession(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(sess)
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
