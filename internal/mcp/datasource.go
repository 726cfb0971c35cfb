package mcp

import (
	"context"

	"github.com/claude/trackline/internal/engine"
	"github.com/claude/trackline/internal/models"
)

// DataSource abstracts the session data behind the MCP tools. Local (over the
// in-process engine) and HTTPClient (remote via REST API) both satisfy it.
type DataSource interface {
	ListSessions(ctx context.Context) ([]*models.LiveSession, string, error)
	GetSession(ctx context.Context, id string) (*models.LiveSession, error)
	GetActiveSession(ctx context.Context) (*models.LiveSession, error)
	GetRoster(ctx context.Context) ([]models.Athlete, error)
	GetTemplates(ctx context.Context) ([]models.TemplateSession, error)
}

// Local adapts the in-process engine to the DataSource interface.
type Local struct {
	Engine *engine.Engine
}

var _ DataSource = Local{}

func (l Local) ListSessions(ctx context.Context) ([]*models.LiveSession, string, error) {
	return l.Engine.Sessions(), l.Engine.ActiveSessionID(), nil
}

func (l Local) GetSession(ctx context.Context, id string) (*models.LiveSession, error) {
	return l.Engine.Session(id)
}

func (l Local) GetActiveSession(ctx context.Context) (*models.LiveSession, error) {
	return l.Engine.ActiveSession()
}

func (l Local) GetRoster(ctx context.Context) ([]models.Athlete, error) {
	return l.Engine.Athletes(), nil
}

func (l Local) GetTemplates(ctx context.Context) ([]models.TemplateSession, error) {
	return l.Engine.Templates(), nil
}
