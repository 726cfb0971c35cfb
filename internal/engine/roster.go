package engine

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/claude/trackline/internal/models"
)

// SetAthleteActive flips an athlete's session-scoped participation flag.
// Scratching an athlete never deletes cells already captured for them.
func (e *Engine) SetAthleteActive(ctx context.Context, athleteID string, active bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.active()
	if err != nil {
		return err
	}
	a := s.RosterEntry(athleteID)
	if a == nil {
		return &NotFoundError{Kind: "athlete", ID: athleteID}
	}
	a.Active = active
	s.EnsureGroupState()
	return e.persistSessions(ctx)
}

// SetAthleteGroup reassigns an athlete within the session. The synthetic
// "All" group cannot be assigned directly; it only exists via all-in mode.
func (e *Engine) SetAthleteGroup(ctx context.Context, athleteID string, gid models.GroupID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gid == models.GroupAll || !models.ValidGroup(gid) {
		return &ValidationError{Msg: "group must be one of A-D"}
	}
	s, err := e.active()
	if err != nil {
		return err
	}
	if s.AllInMode {
		return &InvalidStateError{Msg: "turn all-in mode off before reassigning groups"}
	}
	a := s.RosterEntry(athleteID)
	if a == nil {
		return &NotFoundError{Kind: "athlete", ID: athleteID}
	}
	a.GroupID = gid
	s.EnsureGroupState()
	return e.persistSessions(ctx)
}

// AddAthlete appends to the global roster. Sessions already running keep
// their own snapshots and are unaffected.
func (e *Engine) AddAthlete(ctx context.Context, first, last string, gid models.GroupID) (models.Athlete, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	if first == "" && last == "" {
		return models.Athlete{}, &ValidationError{Msg: "athlete name is required"}
	}
	if gid == models.GroupAll || !models.ValidGroup(gid) {
		return models.Athlete{}, &ValidationError{Msg: "group must be one of A-D"}
	}
	a := models.Athlete{
		ID:             uuid.NewString(),
		FirstName:      first,
		LastName:       last,
		DefaultGroupID: gid,
		Active:         true,
	}
	e.athletes = append(e.athletes, a)
	return a, e.persistAthletes(ctx)
}

// UpdateAthlete replaces a global roster entry by id.
func (e *Engine) UpdateAthlete(ctx context.Context, a models.Athlete) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if a.DefaultGroupID == models.GroupAll || !models.ValidGroup(a.DefaultGroupID) {
		return &ValidationError{Msg: "group must be one of A-D"}
	}
	for i := range e.athletes {
		if e.athletes[i].ID == a.ID {
			e.athletes[i] = a
			return e.persistAthletes(ctx)
		}
	}
	return &NotFoundError{Kind: "athlete", ID: a.ID}
}

// RemoveAthlete deletes from the global roster. Session snapshots and result
// history keep the id and stay intact.
func (e *Engine) RemoveAthlete(ctx context.Context, athleteID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.athletes {
		if e.athletes[i].ID == athleteID {
			e.athletes = append(e.athletes[:i], e.athletes[i+1:]...)
			return e.persistAthletes(ctx)
		}
	}
	return &NotFoundError{Kind: "athlete", ID: athleteID}
}

// SaveTemplate validates and upserts a template. A blank id means create.
func (e *Engine) SaveTemplate(ctx context.Context, t models.TemplateSession) (models.TemplateSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	for i := range t.Sequence {
		if t.Sequence[i].ID == "" {
			t.Sequence[i].ID = uuid.NewString()
		}
	}
	if err := t.Validate(); err != nil {
		return models.TemplateSession{}, &ValidationError{Msg: err.Error()}
	}
	for i := range e.templates {
		if e.templates[i].ID == t.ID {
			e.templates[i] = t
			return t, e.persistTemplates(ctx)
		}
	}
	e.templates = append(e.templates, t)
	return t, e.persistTemplates(ctx)
}

// DeleteTemplate removes a template. Running sessions hold their own copy of
// the sequence and are unaffected.
func (e *Engine) DeleteTemplate(ctx context.Context, templateID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.templates {
		if e.templates[i].ID == templateID {
			e.templates = append(e.templates[:i], e.templates[i+1:]...)
			return e.persistTemplates(ctx)
		}
	}
	return &NotFoundError{Kind: "template", ID: templateID}
}
