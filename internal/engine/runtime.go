package engine

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/claude/trackline/internal/models"
	"github.com/claude/trackline/internal/timefmt"
)

// atFinalPosition reports whether a runtime sits on the last rep of the last
// sequence item — the terminal boundary.
func atFinalPosition(s *models.LiveSession, gs *models.GroupRuntime) bool {
	if gs.SequenceIndex != len(s.Sequence)-1 {
		return false
	}
	it := s.CurrentItem(gs)
	if it == nil {
		return true
	}
	if it.Type == models.ItemJoiner {
		return true
	}
	return gs.RepIndex >= it.Reps-1
}

func resetTimers(gs *models.GroupRuntime) {
	gs.Work = models.WorkTimer{}
	gs.Rest = models.RestTimer{}
	gs.CapturedAthleteIDs = []string{}
	gs.LastCapture = nil
}

func markComplete(gs *models.GroupRuntime) {
	gs.Status = models.StatusComplete
	gs.Rest = models.RestTimer{}
	gs.CapturedAthleteIDs = []string{}
	gs.LastCapture = nil
}

// advanceRuntime moves a runtime past its current rep or item: rep++ inside
// a block, otherwise sequence++; at the very end the group goes terminal.
// Indices only ever move forward.
func advanceRuntime(s *models.LiveSession, gs *models.GroupRuntime) {
	it := s.CurrentItem(gs)
	if it == nil {
		markComplete(gs)
		return
	}
	if it.Type == models.ItemBlock && gs.RepIndex < it.Reps-1 {
		gs.RepIndex++
	} else if gs.SequenceIndex >= len(s.Sequence)-1 {
		markComplete(gs)
		return
	} else {
		gs.SequenceIndex++
		gs.RepIndex = 0
	}
	gs.Status = models.StatusIdle
	resetTimers(gs)
}

// recomputeSortOrder derives the fastest-to-slowest athlete ordering from
// whatever cells exist for the rep that just finished. It biases the capture
// buttons for the next rep; missing athletes simply aren't listed.
func recomputeSortOrder(s *models.LiveSession, gs *models.GroupRuntime, block *models.SequenceItem) {
	matrix := s.Results.Matrix(block)
	type timed struct {
		id  string
		sec float64
	}
	var order []timed
	for _, a := range s.Roster {
		if cell := matrix.Cell(gs.GroupID, a.ID, gs.RepIndex); cell != nil {
			order = append(order, timed{id: a.ID, sec: cell.TimeSeconds})
		}
	}
	slices.SortStableFunc(order, func(a, b timed) int {
		switch {
		case a.sec < b.sec:
			return -1
		case a.sec > b.sec:
			return 1
		default:
			return 0
		}
	})
	ids := make([]string, len(order))
	for i, t := range order {
		ids[i] = t.id
	}
	gs.SortOrderAthleteIDs = ids
}

// StartWork starts the group's current item. From resting it first advances
// the rep/sequence pointer (the rep "commits" on resume, per the reference
// behavior), then either opens a work clock for a block or a countdown for a
// joiner.
func (e *Engine) StartWork(ctx context.Context, gid models.GroupID) (*models.GroupRuntime, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.active()
	if err != nil {
		return nil, err
	}
	gs, err := e.runtime(s, gid)
	if err != nil {
		return nil, err
	}
	if gs.Status == models.StatusComplete {
		return nil, &InvalidStateError{Msg: fmt.Sprintf("group %s has completed the sequence", gid)}
	}
	if s.CurrentItem(gs) == nil {
		return nil, &InvalidStateError{Msg: fmt.Sprintf("group %s has no current sequence item", gid)}
	}

	if gs.Status == models.StatusResting {
		advanceRuntime(s, gs)
		if gs.Status == models.StatusComplete {
			err := e.persistSessions(ctx)
			return cloneRuntime(gs), err
		}
	}

	now := e.nowMs()
	it := s.CurrentItem(gs)
	switch it.Type {
	case models.ItemJoiner:
		gs.Status = models.StatusResting
		gs.Work = models.WorkTimer{}
		gs.Rest = models.RestTimer{StartMs: &now, DurationSeconds: it.RestDuration()}
		gs.CapturedAthleteIDs = []string{}
		gs.LastCapture = nil
	case models.ItemBlock:
		gs.Status = models.StatusRunningWork
		gs.Work = models.WorkTimer{StartMs: &now}
		if it.Mode == models.ModeCycle {
			gs.Work.TargetSeconds = it.WorkSeconds
		}
		gs.Rest = models.RestTimer{DurationSeconds: it.RestSeconds}
		gs.CapturedAthleteIDs = []string{}
		gs.LastCapture = nil
	}

	err = e.persistSessions(ctx)
	return cloneRuntime(gs), err
}

// Tick re-derives time-dependent state for the active session at the given
// wall-clock instant. It is pure re-derivation from startMs, so calling it
// redundantly, at any interval, or after a long gap yields the same state
// for the same now. Only cycle-boundary transitions are persisted; the
// cached elapsed value is recomputable and not worth a write per tick.
func (e *Engine) Tick(ctx context.Context, now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.activeID == "" {
		return nil
	}
	s := e.findSession(e.activeID)
	if s == nil || s.Ended() {
		return nil
	}
	s.EnsureGroupState()

	nowMs := now.UnixMilli()
	changed := false
	for _, gid := range s.GroupsInUse() {
		gs := s.GroupState[gid]
		if gs.Status != models.StatusRunningWork || gs.Work.StartMs == nil {
			continue
		}
		it := s.CurrentItem(gs)
		if it == nil {
			continue
		}
		gs.Work.ElapsedMs = nowMs - *gs.Work.StartMs

		if it.Type != models.ItemBlock || it.Mode != models.ModeCycle {
			continue
		}
		targetMs := int64(it.WorkSeconds) * 1000
		if gs.Work.ElapsedMs < targetMs {
			continue
		}

		// Cycle boundary. Rest is anchored to the theoretical boundary, not
		// to when this tick happened to run.
		gs.Work.ElapsedMs = targetMs
		recomputeSortOrder(s, gs, it)
		if atFinalPosition(s, gs) {
			markComplete(gs)
			e.log.Info("group complete", "session", s.ID, "group", gid)
		} else {
			boundary := *gs.Work.StartMs + targetMs
			gs.Status = models.StatusResting
			gs.Rest = models.RestTimer{StartMs: &boundary, DurationSeconds: it.RestSeconds}
			gs.CapturedAthleteIDs = []string{}
			gs.LastCapture = nil
		}
		changed = true
	}

	if !changed {
		return nil
	}
	return e.persistSessions(ctx)
}

// TapAthlete records the tapped athlete's elapsed time for the current rep.
// A repeat tap for an already-captured athlete is a silent no-op: coaches
// double-tap under pressure and that must not interrupt flow. In manual mode
// the rep closes once every active group member has a cell.
func (e *Engine) TapAthlete(ctx context.Context, gid models.GroupID, athleteID string) (*models.ResultEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.active()
	if err != nil {
		return nil, err
	}
	gs, err := e.runtime(s, gid)
	if err != nil {
		return nil, err
	}
	if gs.Status == models.StatusComplete {
		return nil, &InvalidStateError{Msg: fmt.Sprintf("group %s has completed the sequence", gid)}
	}
	it := s.CurrentItem(gs)
	if it == nil || it.Type != models.ItemBlock {
		return nil, &InvalidStateError{Msg: "current item is not a block"}
	}
	if gs.Status != models.StatusRunningWork || gs.Work.StartMs == nil {
		return nil, &InvalidStateError{Msg: "start the rep before capturing"}
	}
	if gs.Captured(athleteID) {
		return nil, ErrNoOp
	}
	athlete := s.RosterEntry(athleteID)
	if athlete == nil {
		return nil, &NotFoundError{Kind: "athlete", ID: athleteID}
	}

	now := e.now()
	elapsedMs := now.UnixMilli() - *gs.Work.StartMs
	gs.Work.ElapsedMs = elapsedMs
	timeSeconds := math.Round(float64(elapsedMs)/100) / 10

	matrix := s.Results.Matrix(it)
	matrix.SetCell(gid, athleteID, gs.RepIndex, &models.ResultCell{
		TimeSeconds:   timeSeconds,
		CapturedAtISO: timefmt.NowISO(now),
	})
	gs.CapturedAthleteIDs = append(gs.CapturedAthleteIDs, athleteID)
	gs.LastCapture = &models.LastCapture{AthleteID: athleteID, BlockID: it.ID, RepIndex: gs.RepIndex}

	entry := models.ResultEntry{
		ID:            uuid.NewString(),
		SessionID:     s.ID,
		AthleteID:     athleteID,
		AthleteName:   athlete.FirstName + " " + athlete.LastName,
		GroupID:       gid,
		SequenceIndex: gs.SequenceIndex,
		ItemLabel:     it.Label,
		RepIndex:      gs.RepIndex,
		TimeSeconds:   timeSeconds,
		CapturedAtISO: timefmt.NowISO(now),
	}
	s.Results.Log = append(s.Results.Log, entry)

	if it.Mode == models.ModeManual {
		active := s.ActiveIDsInGroup(gid)
		done := len(active) > 0
		for _, id := range active {
			if !gs.Captured(id) {
				done = false
				break
			}
		}
		if done {
			// Manual-mode analogue of the cycle boundary.
			recomputeSortOrder(s, gs, it)
			if atFinalPosition(s, gs) {
				markComplete(gs)
				e.log.Info("group complete", "session", s.ID, "group", gid)
			} else {
				startMs := now.UnixMilli()
				gs.Status = models.StatusResting
				gs.Rest = models.RestTimer{StartMs: &startMs, DurationSeconds: it.RestSeconds}
				gs.LastCapture = nil
			}
		}
	}

	err = e.persistSessions(ctx)
	return &entry, err
}

// UndoLastCapture reverses the most recent tap while the rep's capture
// window is still open. Once the group has moved on, the pointer is gone and
// corrections go through SetResultCell instead.
func (e *Engine) UndoLastCapture(ctx context.Context, gid models.GroupID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.active()
	if err != nil {
		return err
	}
	gs, err := e.runtime(s, gid)
	if err != nil {
		return err
	}
	last := gs.LastCapture
	if last == nil {
		return ErrNoOp
	}

	for _, m := range s.Results.Matrices {
		if m.BlockID == last.BlockID {
			m.SetCell(gid, last.AthleteID, last.RepIndex, nil)
			break
		}
	}
	kept := gs.CapturedAthleteIDs[:0]
	for _, id := range gs.CapturedAthleteIDs {
		if id != last.AthleteID {
			kept = append(kept, id)
		}
	}
	gs.CapturedAthleteIDs = kept

	// Most recent matching audit entry, scanned from the end.
	for i := len(s.Results.Log) - 1; i >= 0; i-- {
		r := s.Results.Log[i]
		if r.GroupID == gid && r.AthleteID == last.AthleteID && r.RepIndex == last.RepIndex {
			s.Results.Log = append(s.Results.Log[:i], s.Results.Log[i+1:]...)
			break
		}
	}
	gs.LastCapture = nil

	return e.persistSessions(ctx)
}

// SetResultCell is the out-of-band manual correction: overwrite or clear any
// cell, marked edited, with a fresh timestamp. No status or sort-order
// recomputation. Allowed any time the session is active.
func (e *Engine) SetResultCell(ctx context.Context, blockID string, gid models.GroupID, athleteID string, repIndex int, timeSeconds *float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.active()
	if err != nil {
		return err
	}
	var block *models.SequenceItem
	for i := range s.Sequence {
		if s.Sequence[i].Type == models.ItemBlock && s.Sequence[i].ID == blockID {
			block = &s.Sequence[i]
			break
		}
	}
	if block == nil {
		return &NotFoundError{Kind: "block", ID: blockID}
	}
	if repIndex < 0 || repIndex >= block.Reps {
		return &ValidationError{Msg: fmt.Sprintf("rep index %d out of range for %d reps", repIndex, block.Reps)}
	}
	if timeSeconds != nil && (*timeSeconds < 0 || math.IsNaN(*timeSeconds) || math.IsInf(*timeSeconds, 0)) {
		return &ValidationError{Msg: "time must be a non-negative number of seconds"}
	}

	matrix := s.Results.Matrix(block)
	if timeSeconds == nil {
		matrix.SetCell(gid, athleteID, repIndex, nil)
	} else {
		matrix.SetCell(gid, athleteID, repIndex, &models.ResultCell{
			TimeSeconds:   timefmt.RoundTenth(*timeSeconds),
			CapturedAtISO: timefmt.NowISO(e.now()),
			Edited:        true,
		})
	}
	return e.persistSessions(ctx)
}

// Next force-advances a group past the current rep or item, bypassing timers
// and capture entirely. Athletes who never finished keep null cells.
func (e *Engine) Next(ctx context.Context, gid models.GroupID) (*models.GroupRuntime, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.active()
	if err != nil {
		return nil, err
	}
	gs, err := e.runtime(s, gid)
	if err != nil {
		return nil, err
	}
	if gs.Status == models.StatusComplete {
		return nil, &InvalidStateError{Msg: fmt.Sprintf("group %s has completed the sequence", gid)}
	}
	advanceRuntime(s, gs)

	err = e.persistSessions(ctx)
	return cloneRuntime(gs), err
}

func cloneRuntime(gs *models.GroupRuntime) *models.GroupRuntime {
	out := *gs
	out.CapturedAthleteIDs = slices.Clone(gs.CapturedAthleteIDs)
	out.SortOrderAthleteIDs = slices.Clone(gs.SortOrderAthleteIDs)
	if gs.Work.StartMs != nil {
		v := *gs.Work.StartMs
		out.Work.StartMs = &v
	}
	if gs.Rest.StartMs != nil {
		v := *gs.Rest.StartMs
		out.Rest.StartMs = &v
	}
	if gs.LastCapture != nil {
		v := *gs.LastCapture
		out.LastCapture = &v
	}
	return &out
}
