package models

import "encoding/json"

// GroupStatus is the per-group state machine position.
type GroupStatus string

const (
	StatusIdle        GroupStatus = "idle"
	StatusRunningWork GroupStatus = "runningWork"
	StatusResting     GroupStatus = "resting"
	StatusComplete    GroupStatus = "complete"
)

// WorkTimer tracks the running clock for the current rep. ElapsedMs is a
// cached derivation of now-StartMs; the authoritative value is always
// recomputable from StartMs.
type WorkTimer struct {
	StartMs       *int64 `json:"startMs"`
	ElapsedMs     int64  `json:"elapsedMs"`
	TargetSeconds int    `json:"targetSeconds,omitempty"`
}

// RestTimer tracks the recovery countdown between reps or across a joiner.
type RestTimer struct {
	StartMs         *int64 `json:"startMs"`
	DurationSeconds int    `json:"durationSeconds"`
}

// LastCapture is the undo pointer: the most recent tap since the rep opened.
type LastCapture struct {
	AthleteID string `json:"athleteId"`
	BlockID   string `json:"blockId"`
	RepIndex  int    `json:"repIndex"`
}

// GroupRuntime is one group's progression through the session sequence.
// SequenceIndex and RepIndex only move forward; undo removes a captured time
// but never rewinds them.
type GroupRuntime struct {
	GroupID             GroupID      `json:"groupId"`
	SequenceIndex       int          `json:"sequenceIndex"`
	RepIndex            int          `json:"repIndex"`
	Status              GroupStatus  `json:"status"`
	Work                WorkTimer    `json:"work"`
	Rest                RestTimer    `json:"rest"`
	CapturedAthleteIDs  []string     `json:"capturedAthleteIds"`
	SortOrderAthleteIDs []string     `json:"sortOrderAthleteIds,omitempty"`
	LastCapture         *LastCapture `json:"lastCapture,omitempty"`
}

// NewGroupRuntime returns an idle runtime positioned at the top of the
// sequence.
func NewGroupRuntime(gid GroupID) *GroupRuntime {
	return &GroupRuntime{
		GroupID:            gid,
		Status:             StatusIdle,
		CapturedAthleteIDs: []string{},
	}
}

// Captured reports whether the athlete has already been tapped this rep.
func (gs *GroupRuntime) Captured(athleteID string) bool {
	for _, id := range gs.CapturedAthleteIDs {
		if id == athleteID {
			return true
		}
	}
	return false
}

// ResultCell is one captured (or manually entered) time. Nil cells mean "not
// captured". Cells are never implicitly deleted by roster or group changes.
type ResultCell struct {
	TimeSeconds   float64 `json:"timeSeconds"`
	CapturedAtISO string  `json:"capturedAtISO"`
	Edited        bool    `json:"edited,omitempty"`
}

// BlockResultMatrix stores one block's captures keyed
// group -> athlete -> rep index.
type BlockResultMatrix struct {
	BlockID    string                               `json:"blockId"`
	BlockLabel string                               `json:"blockLabel"`
	DistanceM  int                                  `json:"distanceM"`
	Reps       int                                  `json:"reps"`
	Data       map[GroupID]map[string][]*ResultCell `json:"data"`
}

// Cell returns the cell at (group, athlete, rep), or nil.
func (m *BlockResultMatrix) Cell(gid GroupID, athleteID string, rep int) *ResultCell {
	reps := m.Data[gid][athleteID]
	if rep < 0 || rep >= len(reps) {
		return nil
	}
	return reps[rep]
}

// SetCell writes (or clears, for nil) the cell at (group, athlete, rep),
// growing the rep slice as needed.
func (m *BlockResultMatrix) SetCell(gid GroupID, athleteID string, rep int, cell *ResultCell) {
	if m.Data == nil {
		m.Data = map[GroupID]map[string][]*ResultCell{}
	}
	if m.Data[gid] == nil {
		m.Data[gid] = map[string][]*ResultCell{}
	}
	reps := m.Data[gid][athleteID]
	if len(reps) < m.Reps {
		grown := make([]*ResultCell, m.Reps)
		copy(grown, reps)
		reps = grown
	}
	for len(reps) <= rep {
		reps = append(reps, nil)
	}
	reps[rep] = cell
	m.Data[gid][athleteID] = reps
}

// ResultEntry is one line of the append-only audit log.
type ResultEntry struct {
	ID            string  `json:"id"`
	SessionID     string  `json:"sessionId"`
	AthleteID     string  `json:"athleteId"`
	AthleteName   string  `json:"athleteName"`
	GroupID       GroupID `json:"groupId"`
	SequenceIndex int     `json:"sequenceIndex"`
	ItemLabel     string  `json:"itemLabel"`
	RepIndex      int     `json:"repIndex"`
	TimeSeconds   float64 `json:"timeSeconds"`
	CapturedAtISO string  `json:"capturedAtISO"`
}

// SessionResults is the matrix source of truth plus its flat audit
// projection.
type SessionResults struct {
	Matrices []*BlockResultMatrix `json:"matrices"`
	Log      []ResultEntry        `json:"log"`
}

// Matrix returns the matrix for a block, creating it from the sequence item
// on first use.
func (r *SessionResults) Matrix(block *SequenceItem) *BlockResultMatrix {
	for _, m := range r.Matrices {
		if m.BlockID == block.ID {
			return m
		}
	}
	m := &BlockResultMatrix{
		BlockID:    block.ID,
		BlockLabel: block.Label,
		DistanceM:  block.DistanceM,
		Reps:       block.Reps,
		Data:       map[GroupID]map[string][]*ResultCell{},
	}
	r.Matrices = append(r.Matrices, m)
	return m
}

// LiveSession is the aggregate root for one training session.
type LiveSession struct {
	ID           string `json:"id"`
	TemplateID   string `json:"templateId"`
	Name         string `json:"name"`
	Location     string `json:"location"`
	StartedAtISO string `json:"startedAtISO"`
	EndedAtISO   string `json:"endedAtISO,omitempty"`

	AllInMode       bool `json:"allInMode"`
	FastCaptureMode bool `json:"fastCaptureMode"`

	Roster   []AthleteSnapshot `json:"roster"`
	Sequence []SequenceItem    `json:"sequence"`

	GroupState map[GroupID]*GroupRuntime `json:"groupState"`
	Results    SessionResults            `json:"results"`
}

// Ended reports whether the session has been closed for mutation.
func (s *LiveSession) Ended() bool {
	return s.EndedAtISO != ""
}

// GroupsInUse derives the set of groups with a clock. The set is never
// stored: it is the distinct active roster groups, {All} in all-in mode,
// and {A} when nobody is active.
func (s *LiveSession) GroupsInUse() []GroupID {
	if s.AllInMode {
		return []GroupID{GroupAll}
	}
	present := map[GroupID]bool{}
	for _, a := range s.Roster {
		if a.Active {
			present[a.GroupID] = true
		}
	}
	var out []GroupID
	for _, g := range GroupOrder {
		if present[g] {
			out = append(out, g)
		}
	}
	if len(out) == 0 {
		return []GroupID{GroupA}
	}
	return out
}

// EnsureGroupState reconciles GroupState with GroupsInUse: fresh idle
// runtimes for newly relevant groups, removal of runtimes no longer in use.
// Committed result cells survive removal; only the open rep's capture
// progress is lost.
func (s *LiveSession) EnsureGroupState() {
	if s.GroupState == nil {
		s.GroupState = map[GroupID]*GroupRuntime{}
	}
	groups := s.GroupsInUse()
	inUse := map[GroupID]bool{}
	for _, gid := range groups {
		inUse[gid] = true
		if s.GroupState[gid] == nil {
			s.GroupState[gid] = NewGroupRuntime(gid)
		}
	}
	for gid := range s.GroupState {
		if !inUse[gid] {
			delete(s.GroupState, gid)
		}
	}
}

// CurrentItem returns the sequence item a runtime points at, or nil when the
// index has run off the sequence.
func (s *LiveSession) CurrentItem(gs *GroupRuntime) *SequenceItem {
	if gs.SequenceIndex < 0 || gs.SequenceIndex >= len(s.Sequence) {
		return nil
	}
	return &s.Sequence[gs.SequenceIndex]
}

// ActiveIDsInGroup lists the active roster members assigned to a group.
func (s *LiveSession) ActiveIDsInGroup(gid GroupID) []string {
	var ids []string
	for _, a := range s.Roster {
		if a.Active && a.GroupID == gid {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

// RosterEntry finds a roster snapshot by athlete id.
func (s *LiveSession) RosterEntry(athleteID string) *AthleteSnapshot {
	for i := range s.Roster {
		if s.Roster[i].ID == athleteID {
			return &s.Roster[i]
		}
	}
	return nil
}

// Clone returns a deep copy, used at API boundaries so callers can never
// mutate engine-owned state.
func (s *LiveSession) Clone() *LiveSession {
	raw, err := json.Marshal(s)
	if err != nil {
		panic("session clone: " + err.Error())
	}
	var out LiveSession
	if err := json.Unmarshal(raw, &out); err != nil {
		panic("session clone: " + err.Error())
	}
	return &out
}
