package models

import "strings"

// GroupID identifies a timing group. The usable set is fixed (A-D) plus the
// synthetic "All" used while all-in mode merges every active athlete into a
// single clock.
type GroupID string

const (
	GroupA   GroupID = "A"
	GroupB   GroupID = "B"
	GroupC   GroupID = "C"
	GroupD   GroupID = "D"
	GroupAll GroupID = "All"
)

// GroupOrder is the display ordering of real (non-synthetic) groups.
var GroupOrder = []GroupID{GroupA, GroupB, GroupC, GroupD}

// ValidGroup reports whether g is an assignable group for an athlete.
func ValidGroup(g GroupID) bool {
	for _, k := range GroupOrder {
		if g == k {
			return true
		}
	}
	return g == GroupAll
}

// Athlete is a member of the global roster.
type Athlete struct {
	ID             string  `json:"id"`
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	DefaultGroupID GroupID `json:"defaultGroupId"`
	Active         bool    `json:"active"`
}

// AthleteSnapshot is a session-scoped copy of an athlete. GroupID and Active
// are per-session; SavedGroupID holds the pre-all-in assignment so toggling
// the mode off restores it.
type AthleteSnapshot struct {
	ID           string  `json:"id"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	GroupID      GroupID `json:"groupId"`
	Active       bool    `json:"active"`
	SavedGroupID GroupID `json:"savedGroupId,omitempty"`
}

// DisplayName renders "Last, First", falling back to whichever part exists.
func (a AthleteSnapshot) DisplayName() string {
	ln := strings.TrimSpace(a.LastName)
	fn := strings.TrimSpace(a.FirstName)
	if ln == "" {
		return fn
	}
	if fn == "" {
		return ln
	}
	return ln + ", " + fn
}

// Snapshot copies a global athlete into a session roster entry. Every
// athlete joins the session active; the coach scratches no-shows from the
// session screen without touching the global flag.
func (a Athlete) Snapshot() AthleteSnapshot {
	return AthleteSnapshot{
		ID:        a.ID,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		GroupID:   a.DefaultGroupID,
		Active:    true,
	}
}
