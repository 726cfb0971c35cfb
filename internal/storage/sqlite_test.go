package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/claude/trackline/internal/models"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestSQLiteMissingRecords verifies never-saved records surface ErrNotFound,
// except the active pointer which defaults to "".
func TestSQLiteMissingRecords(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.LoadAthletes(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadAthletes err = %v, want ErrNotFound", err)
	}
	if _, err := s.LoadSessions(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadSessions err = %v, want ErrNotFound", err)
	}
	id, err := s.LoadActiveSessionID(ctx)
	if err != nil || id != "" {
		t.Errorf("LoadActiveSessionID = (%q, %v), want (\"\", nil)", id, err)
	}
}

// TestSQLiteRoundTrip verifies the four records survive save/load, including
// nested runtime state, and that redundant saves overwrite cleanly.
func TestSQLiteRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	athletes := []models.Athlete{
		{ID: "a1", FirstName: "Ruby", LastName: "Hill", DefaultGroupID: models.GroupA, Active: true},
	}
	if err := s.SaveAthletes(ctx, athletes); err != nil {
		t.Fatalf("save athletes: %v", err)
	}
	if err := s.SaveAthletes(ctx, athletes); err != nil {
		t.Fatalf("redundant save athletes: %v", err)
	}

	templates := []models.TemplateSession{{
		ID: "t1", Name: "Track",
		Sequence: []models.SequenceItem{
			{ID: "b1", Type: models.ItemBlock, Label: "800s", DistanceM: 800, Reps: 2, Mode: models.ModeCycle, WorkSeconds: 180, RestSeconds: 60},
		},
	}}
	if err := s.SaveTemplates(ctx, templates); err != nil {
		t.Fatalf("save templates: %v", err)
	}

	sess := &models.LiveSession{ID: "s1", TemplateID: "t1", Name: "Track",
		Roster:   []models.AthleteSnapshot{{ID: "a1", GroupID: models.GroupA, Active: true}},
		Sequence: templates[0].Sequence,
	}
	sess.EnsureGroupState()
	start := int64(1000)
	sess.GroupState[models.GroupA].Status = models.StatusRunningWork
	sess.GroupState[models.GroupA].Work.StartMs = &start
	if err := s.SaveSessions(ctx, []*models.LiveSession{sess}); err != nil {
		t.Fatalf("save sessions: %v", err)
	}
	if err := s.SaveActiveSessionID(ctx, "s1"); err != nil {
		t.Fatalf("save active id: %v", err)
	}

	gotAthletes, err := s.LoadAthletes(ctx)
	if err != nil || len(gotAthletes) != 1 || gotAthletes[0].ID != "a1" {
		t.Errorf("LoadAthletes = (%v, %v)", gotAthletes, err)
	}
	gotTemplates, err := s.LoadTemplates(ctx)
	if err != nil || len(gotTemplates) != 1 || gotTemplates[0].Sequence[0].WorkSeconds != 180 {
		t.Errorf("LoadTemplates = (%v, %v)", gotTemplates, err)
	}
	gotSessions, err := s.LoadSessions(ctx)
	if err != nil || len(gotSessions) != 1 {
		t.Fatalf("LoadSessions = (%v, %v)", gotSessions, err)
	}
	gs := gotSessions[0].GroupState[models.GroupA]
	if gs == nil || gs.Status != models.StatusRunningWork || gs.Work.StartMs == nil || *gs.Work.StartMs != 1000 {
		t.Errorf("runtime did not round-trip: %+v", gs)
	}
	gotID, err := s.LoadActiveSessionID(ctx)
	if err != nil || gotID != "s1" {
		t.Errorf("LoadActiveSessionID = (%q, %v)", gotID, err)
	}

	// clearing the active pointer persists as ""
	if err := s.SaveActiveSessionID(ctx, ""); err != nil {
		t.Fatalf("clear active id: %v", err)
	}
	gotID, err = s.LoadActiveSessionID(ctx)
	if err != nil || gotID != "" {
		t.Errorf("cleared LoadActiveSessionID = (%q, %v)", gotID, err)
	}
}
