package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/trackline/internal/engine"
	"github.com/claude/trackline/internal/models"
	"github.com/claude/trackline/internal/storage"
)

func newTestHandlers(t *testing.T) (*handlers, *engine.Engine) {
	t.Helper()
	ctx := context.Background()
	log := slog.New(slog.DiscardHandler)

	eng, err := engine.New(ctx, storage.NewMemory(), log)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.AddAthlete(ctx, "Ruby", "Hill", models.GroupA); err != nil {
		t.Fatal(err)
	}
	tpl, err := eng.SaveTemplate(ctx, models.TemplateSession{
		Name: "Track",
		Sequence: []models.SequenceItem{
			{ID: "b1", Type: models.ItemBlock, Label: "400s", DistanceM: 400,
				Reps: 2, Mode: models.ModeManual, RestSeconds: 60},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.StartSession(ctx, tpl.ID); err != nil {
		t.Fatal(err)
	}
	return &handlers{ds: Local{Engine: eng}, log: log}, eng
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result.IsError {
		t.Fatalf("tool returned error: %+v", result.Content)
	}
	if len(result.Content) == 0 {
		t.Fatal("tool returned no content")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type %T, want TextContent", result.Content[0])
	}
	return tc.Text
}

// TestListSessionsTool verifies the session summaries and active pointer.
func TestListSessionsTool(t *testing.T) {
	h, eng := newTestHandlers(t)

	result, err := h.listSessions(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatal(err)
	}
	var resp struct {
		Sessions []sessionSummary `json:"sessions"`
		ActiveID string           `json:"active_session_id"`
	}
	if err := json.Unmarshal([]byte(textOf(t, result)), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Sessions) != 1 || resp.Sessions[0].Name != "Track" {
		t.Errorf("sessions = %+v", resp.Sessions)
	}
	if resp.ActiveID != eng.ActiveSessionID() {
		t.Errorf("active id = %q, want %q", resp.ActiveID, eng.ActiveSessionID())
	}
}

// TestGetSessionResultsDefaultsToActive verifies the session_id argument is
// optional.
func TestGetSessionResultsDefaultsToActive(t *testing.T) {
	h, _ := newTestHandlers(t)

	result, err := h.getSessionResults(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatal(err)
	}
	text := textOf(t, result)
	if !strings.Contains(text, "400s - 400m R1") {
		t.Errorf("results = %q, want column headers", text)
	}
	if !strings.Contains(text, "Hill, Ruby") {
		t.Errorf("results = %q, want roster row", text)
	}
}

// TestGetSessionResultsUnknownID verifies lookup failures surface as tool
// errors, not transport errors.
func TestGetSessionResultsUnknownID(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"session_id": "nope"}
	result, err := h.getSessionResults(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("expected a tool error for an unknown session id")
	}
}

// TestExportSessionTSVTool verifies the TSV tool returns plain text.
func TestExportSessionTSVTool(t *testing.T) {
	h, _ := newTestHandlers(t)

	result, err := h.exportSessionTSV(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatal(err)
	}
	text := textOf(t, result)
	if !strings.HasPrefix(text, "Athlete\tGroup\t") {
		t.Errorf("tsv = %q, want Athlete/Group header", text)
	}
}

// TestGetRosterTool verifies the roster listing.
func TestGetRosterTool(t *testing.T) {
	h, _ := newTestHandlers(t)

	result, err := h.getRoster(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatal(err)
	}
	var athletes []models.Athlete
	if err := json.Unmarshal([]byte(textOf(t, result)), &athletes); err != nil {
		t.Fatal(err)
	}
	if len(athletes) != 1 || athletes[0].LastName != "Hill" {
		t.Errorf("athletes = %+v", athletes)
	}
}

// TestActiveSessionResource verifies the resource handler serves the full
// session state.
func TestActiveSessionResource(t *testing.T) {
	h, eng := newTestHandlers(t)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "trackline://active_session"
	contents, err := h.activeSession(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents type %T", contents[0])
	}
	var sess models.LiveSession
	if err := json.Unmarshal([]byte(tc.Text), &sess); err != nil {
		t.Fatal(err)
	}
	if sess.ID != eng.ActiveSessionID() {
		t.Errorf("session id = %q, want active", sess.ID)
	}

	// no active session -> resource read fails
	if _, err := eng.EndSession(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := h.activeSession(context.Background(), req); err == nil {
		t.Error("expected error with no active session")
	}
}
