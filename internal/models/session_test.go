package models

import "testing"

func testRoster() []AthleteSnapshot {
	return []AthleteSnapshot{
		{ID: "p1", FirstName: "Ruby", LastName: "Hill", GroupID: GroupA, Active: true},
		{ID: "p2", FirstName: "Fin", LastName: "Cole", GroupID: GroupB, Active: true},
		{ID: "p3", FirstName: "Sky", LastName: "Bell", GroupID: GroupB, Active: false},
	}
}

// TestGroupsInUseDerived verifies the group set is derived from active
// roster assignments, in fixed A-D order.
func TestGroupsInUseDerived(t *testing.T) {
	s := &LiveSession{Roster: testRoster()}
	got := s.GroupsInUse()
	if len(got) != 2 || got[0] != GroupA || got[1] != GroupB {
		t.Errorf("groups = %v, want [A B]", got)
	}
}

// TestGroupsInUseAllIn verifies all-in mode collapses the set to {All}.
func TestGroupsInUseAllIn(t *testing.T) {
	s := &LiveSession{Roster: testRoster(), AllInMode: true}
	got := s.GroupsInUse()
	if len(got) != 1 || got[0] != GroupAll {
		t.Errorf("groups = %v, want [All]", got)
	}
}

// TestGroupsInUseDefault verifies an empty/inactive roster still yields a
// single default group so the session screen always has one clock.
func TestGroupsInUseDefault(t *testing.T) {
	s := &LiveSession{}
	got := s.GroupsInUse()
	if len(got) != 1 || got[0] != GroupA {
		t.Errorf("groups = %v, want [A]", got)
	}
}

// TestEnsureGroupStateReconciles verifies runtimes are created for new
// groups and dropped for groups no longer in use.
func TestEnsureGroupStateReconciles(t *testing.T) {
	s := &LiveSession{Roster: testRoster()}
	s.EnsureGroupState()
	if s.GroupState[GroupA] == nil || s.GroupState[GroupB] == nil {
		t.Fatal("expected runtimes for A and B")
	}
	if s.GroupState[GroupA].Status != StatusIdle {
		t.Errorf("status = %q, want idle", s.GroupState[GroupA].Status)
	}

	s.AllInMode = true
	s.EnsureGroupState()
	if s.GroupState[GroupAll] == nil {
		t.Fatal("expected runtime for All")
	}
	if s.GroupState[GroupA] != nil || s.GroupState[GroupB] != nil {
		t.Error("expected A/B runtimes to be removed in all-in mode")
	}
}

// TestMatrixSetCellGrows verifies SetCell allocates the rep slice lazily and
// keeps earlier cells intact.
func TestMatrixSetCellGrows(t *testing.T) {
	block := &SequenceItem{ID: "b1", Type: ItemBlock, Label: "800s", DistanceM: 800, Reps: 3, Mode: ModeManual}
	var res SessionResults
	m := res.Matrix(block)
	m.SetCell(GroupA, "p1", 0, &ResultCell{TimeSeconds: 150.2})
	m.SetCell(GroupA, "p1", 2, &ResultCell{TimeSeconds: 148.9})

	if c := m.Cell(GroupA, "p1", 0); c == nil || c.TimeSeconds != 150.2 {
		t.Errorf("rep 0 cell = %+v", c)
	}
	if c := m.Cell(GroupA, "p1", 1); c != nil {
		t.Errorf("rep 1 cell = %+v, want nil", c)
	}
	if c := m.Cell(GroupA, "p1", 2); c == nil || c.TimeSeconds != 148.9 {
		t.Errorf("rep 2 cell = %+v", c)
	}
	// second lookup must not create a duplicate matrix
	if res.Matrix(block) != m {
		t.Error("Matrix created a duplicate for the same block")
	}
}

// TestSequenceValidation verifies block/joiner invariants.
func TestSequenceValidation(t *testing.T) {
	good := TemplateSession{
		Name: "Track",
		Sequence: []SequenceItem{
			{ID: "b1", Type: ItemBlock, Label: "800s", DistanceM: 800, Reps: 8, Mode: ModeManual, RestSeconds: 90},
			{ID: "j1", Type: ItemJoiner, Label: "Water", JoinerType: JoinerRest, DurationSeconds: 300},
			{ID: "b2", Type: ItemBlock, Label: "200s", DistanceM: 200, Reps: 4, Mode: ModeCycle, WorkSeconds: 60, RestSeconds: 60},
		},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []SequenceItem{
		{Type: ItemBlock, Label: "zero reps", Reps: 0, Mode: ModeManual},
		{Type: ItemBlock, Label: "cycle no work", Reps: 2, Mode: ModeCycle},
		{Type: ItemBlock, Label: "neg rest", Reps: 2, Mode: ModeManual, RestSeconds: -1},
		{Type: ItemJoiner, Label: "bad joiner", JoinerType: "nap"},
		{Type: "mystery", Label: "bad type"},
	}
	for _, it := range bad {
		if err := it.Validate(); err == nil {
			t.Errorf("item %q: expected validation error", it.Label)
		}
	}
}

// TestCloneIsDeep verifies a cloned session shares no mutable state with the
// original.
func TestCloneIsDeep(t *testing.T) {
	s := &LiveSession{ID: "s1", Roster: testRoster()}
	s.EnsureGroupState()
	c := s.Clone()
	c.GroupState[GroupA].RepIndex = 5
	c.Roster[0].GroupID = GroupD
	if s.GroupState[GroupA].RepIndex != 0 {
		t.Error("clone shares group state with original")
	}
	if s.Roster[0].GroupID != GroupA {
		t.Error("clone shares roster with original")
	}
}
