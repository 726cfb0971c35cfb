// Package storage persists the four top-level application records — roster,
// templates, sessions, and the active-session pointer — as whole-record JSON
// snapshots. Saves are idempotent; the engine calls them after every
// mutation.
package storage

import (
	"context"
	"errors"

	"github.com/claude/trackline/internal/models"
)

// ErrNotFound is returned when a record has never been saved.
var ErrNotFound = errors.New("record not found")

// Record keys shared by the sqlite and postgres backends.
const (
	keyAthletes        = "athletes"
	keyTemplates       = "templates"
	keySessions        = "sessions"
	keyActiveSessionID = "active_session_id"
)

// Store is the whole-state persistence collaborator.
type Store interface {
	LoadAthletes(ctx context.Context) ([]models.Athlete, error)
	SaveAthletes(ctx context.Context, athletes []models.Athlete) error

	LoadTemplates(ctx context.Context) ([]models.TemplateSession, error)
	SaveTemplates(ctx context.Context, templates []models.TemplateSession) error

	LoadSessions(ctx context.Context) ([]*models.LiveSession, error)
	SaveSessions(ctx context.Context, sessions []*models.LiveSession) error

	// LoadActiveSessionID returns "" (not ErrNotFound) when no session is
	// active.
	LoadActiveSessionID(ctx context.Context) (string, error)
	SaveActiveSessionID(ctx context.Context, id string) error

	Close() error
}
