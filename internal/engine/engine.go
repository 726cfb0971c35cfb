// Package engine owns the session run-time state machine: per-group
// progression through the sequence, clock semantics, the capture protocol,
// and the single-active-session rule. All operations run under one mutex, so
// the periodic tick and coach intents apply as discrete, serialized
// transactions; none of them blocks. Every successful mutation is saved to
// the store as a fire-and-forget side effect — a failed save is surfaced as
// *SaveError but never rolls the mutation back.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/claude/trackline/internal/models"
	"github.com/claude/trackline/internal/storage"
	"github.com/claude/trackline/internal/timefmt"
)

// Engine holds the in-memory state tree and applies all valid transitions.
type Engine struct {
	mu    sync.Mutex
	store storage.Store
	log   *slog.Logger
	now   func() time.Time

	athletes  []models.Athlete
	templates []models.TemplateSession
	sessions  []*models.LiveSession
	activeID  string
}

// New loads the state tree from the store. Records that were never saved
// start empty.
func New(ctx context.Context, store storage.Store, log *slog.Logger) (*Engine, error) {
	e := &Engine{store: store, log: log, now: time.Now}

	var err error
	if e.athletes, err = store.LoadAthletes(ctx); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if e.templates, err = store.LoadTemplates(ctx); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if e.sessions, err = store.LoadSessions(ctx); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if e.activeID, err = store.LoadActiveSessionID(ctx); err != nil {
		return nil, err
	}
	// A dangling pointer (session deleted out from under it) must not wedge
	// the single-active-session rule.
	if e.activeID != "" && e.findSession(e.activeID) == nil {
		log.Warn("active session pointer is dangling, clearing", "id", e.activeID)
		e.activeID = ""
	}
	return e, nil
}

func (e *Engine) nowMs() int64 {
	return e.now().UnixMilli()
}

func (e *Engine) findSession(id string) *models.LiveSession {
	for _, s := range e.sessions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// active returns the mutable active session. Callers hold e.mu.
func (e *Engine) active() (*models.LiveSession, error) {
	if e.activeID == "" {
		return nil, &NotFoundError{Kind: "active session"}
	}
	s := e.findSession(e.activeID)
	if s == nil {
		return nil, &NotFoundError{Kind: "session", ID: e.activeID}
	}
	return s, nil
}

// runtime returns the runtime for a group of the active session.
func (e *Engine) runtime(s *models.LiveSession, gid models.GroupID) (*models.GroupRuntime, error) {
	s.EnsureGroupState()
	gs := s.GroupState[gid]
	if gs == nil {
		return nil, &NotFoundError{Kind: "group", ID: string(gid)}
	}
	return gs, nil
}

func (e *Engine) persistSessions(ctx context.Context) error {
	if err := e.store.SaveSessions(ctx, e.sessions); err != nil {
		e.log.Error("saving sessions", "error", err)
		return &SaveError{Err: err}
	}
	return nil
}

func (e *Engine) persistActiveID(ctx context.Context) error {
	if err := e.store.SaveActiveSessionID(ctx, e.activeID); err != nil {
		e.log.Error("saving active session id", "error", err)
		return &SaveError{Err: err}
	}
	return nil
}

func (e *Engine) persistAthletes(ctx context.Context) error {
	if err := e.store.SaveAthletes(ctx, e.athletes); err != nil {
		e.log.Error("saving athletes", "error", err)
		return &SaveError{Err: err}
	}
	return nil
}

func (e *Engine) persistTemplates(ctx context.Context) error {
	if err := e.store.SaveTemplates(ctx, e.templates); err != nil {
		e.log.Error("saving templates", "error", err)
		return &SaveError{Err: err}
	}
	return nil
}

// StartSession builds a live session from a template: fresh roster snapshot,
// deep copy of the sequence, one idle runtime per group in use. Fails with
// ConflictError while another session is active.
func (e *Engine) StartSession(ctx context.Context, templateID string) (*models.LiveSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.activeID != "" {
		return nil, &ConflictError{Msg: "a session is already active; end it first"}
	}
	var tpl *models.TemplateSession
	for i := range e.templates {
		if e.templates[i].ID == templateID {
			tpl = &e.templates[i]
			break
		}
	}
	if tpl == nil {
		return nil, &NotFoundError{Kind: "template", ID: templateID}
	}

	roster := make([]models.AthleteSnapshot, 0, len(e.athletes))
	for _, a := range e.athletes {
		roster = append(roster, a.Snapshot())
	}

	s := &models.LiveSession{
		ID:           uuid.NewString(),
		TemplateID:   tpl.ID,
		Name:         tpl.Name,
		StartedAtISO: timefmt.NowISO(e.now()),
		Roster:       roster,
		Sequence:     models.CloneSequence(tpl.Sequence),
		Results:      models.SessionResults{Matrices: []*models.BlockResultMatrix{}, Log: []models.ResultEntry{}},
	}
	s.EnsureGroupState()

	e.sessions = append(e.sessions, s)
	e.activeID = s.ID

	if err := e.persistSessions(ctx); err != nil {
		return s.Clone(), err
	}
	if err := e.persistActiveID(ctx); err != nil {
		return s.Clone(), err
	}
	e.log.Info("session started", "session", s.ID, "template", tpl.Name, "groups", len(s.GroupState))
	return s.Clone(), nil
}

// ResumeSession makes a stored, un-ended session the active one.
func (e *Engine) ResumeSession(ctx context.Context, sessionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.activeID != "" && e.activeID != sessionID {
		return &ConflictError{Msg: "a session is already active; end it first"}
	}
	s := e.findSession(sessionID)
	if s == nil {
		return &NotFoundError{Kind: "session", ID: sessionID}
	}
	if s.Ended() {
		return &InvalidStateError{Msg: "session has ended; it is read-only"}
	}
	e.activeID = sessionID
	return e.persistActiveID(ctx)
}

// EndSession stamps endedAtISO and clears the active pointer. The session
// becomes read-only; NotFoundError when nothing is active.
func (e *Engine) EndSession(ctx context.Context) (*models.LiveSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.active()
	if err != nil {
		return nil, err
	}
	s.EndedAtISO = timefmt.NowISO(e.now())
	e.activeID = ""

	if err := e.persistSessions(ctx); err != nil {
		return s.Clone(), err
	}
	if err := e.persistActiveID(ctx); err != nil {
		return s.Clone(), err
	}
	e.log.Info("session ended", "session", s.ID)
	return s.Clone(), nil
}

// DeleteSession removes a stored session entirely. Result history goes with
// it; this is the coach's explicit cleanup, not part of normal flow.
func (e *Engine) DeleteSession(ctx context.Context, sessionID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := -1
	for i, s := range e.sessions {
		if s.ID == sessionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &NotFoundError{Kind: "session", ID: sessionID}
	}
	e.sessions = append(e.sessions[:idx], e.sessions[idx+1:]...)
	if e.activeID == sessionID {
		e.activeID = ""
		if err := e.persistActiveID(ctx); err != nil {
			return err
		}
	}
	return e.persistSessions(ctx)
}

// ToggleAllIn merges every active athlete into the synthetic "All" group, or
// restores the saved assignments when switching back. Runtimes are
// reconciled; the open rep's capture progress in dropped groups is lost,
// committed cells are kept.
func (e *Engine) ToggleAllIn(ctx context.Context) (*models.LiveSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.active()
	if err != nil {
		return nil, err
	}
	s.AllInMode = !s.AllInMode
	for i := range s.Roster {
		a := &s.Roster[i]
		if !a.Active {
			continue
		}
		if s.AllInMode {
			a.SavedGroupID = a.GroupID
			a.GroupID = models.GroupAll
		} else {
			if a.SavedGroupID != "" {
				a.GroupID = a.SavedGroupID
			}
			a.SavedGroupID = ""
		}
	}
	s.EnsureGroupState()

	if err := e.persistSessions(ctx); err != nil {
		return s.Clone(), err
	}
	return s.Clone(), nil
}

// ToggleFastCapture flips the capture-UI density flag. Pure preference, but
// session-scoped, so it lives on the session and persists with it.
func (e *Engine) ToggleFastCapture(ctx context.Context) (*models.LiveSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.active()
	if err != nil {
		return nil, err
	}
	s.FastCaptureMode = !s.FastCaptureMode
	if err := e.persistSessions(ctx); err != nil {
		return s.Clone(), err
	}
	return s.Clone(), nil
}

// SetSessionName renames the active session.
func (e *Engine) SetSessionName(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Msg: "session name is required"}
	}
	s, err := e.active()
	if err != nil {
		return err
	}
	s.Name = name
	return e.persistSessions(ctx)
}

// SetSessionLocation updates the active session's location (may be cleared).
func (e *Engine) SetSessionLocation(ctx context.Context, loc string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.active()
	if err != nil {
		return err
	}
	s.Location = strings.TrimSpace(loc)
	return e.persistSessions(ctx)
}

// --- read accessors; all return deep copies ---

// Sessions lists every stored session, newest last.
func (e *Engine) Sessions() []*models.LiveSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*models.LiveSession, len(e.sessions))
	for i, s := range e.sessions {
		out[i] = s.Clone()
	}
	return out
}

// Session returns one stored session.
func (e *Engine) Session(id string) (*models.LiveSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.findSession(id)
	if s == nil {
		return nil, &NotFoundError{Kind: "session", ID: id}
	}
	return s.Clone(), nil
}

// ActiveSessionID returns the active pointer ("" when idle).
func (e *Engine) ActiveSessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeID
}

// ActiveSession returns the active session, or NotFoundError.
func (e *Engine) ActiveSession() (*models.LiveSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.active()
	if err != nil {
		return nil, err
	}
	return s.Clone(), nil
}

// Athletes returns the global roster.
func (e *Engine) Athletes() []models.Athlete {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Athlete, len(e.athletes))
	copy(out, e.athletes)
	return out
}

// Templates returns the template list.
func (e *Engine) Templates() []models.TemplateSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.TemplateSession, len(e.templates))
	for i, t := range e.templates {
		out[i] = t
		out[i].Sequence = models.CloneSequence(t.Sequence)
	}
	return out
}
