package engine

import (
	"errors"
	"fmt"
)

// ErrNoOp marks operations the coach triggered redundantly — double taps,
// undo with nothing captured. They leave state untouched and are not
// failures; the shell shows at most a passive toast.
var ErrNoOp = errors.New("no-op")

// ConflictError: the operation collides with the single-active-session rule.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// NotFoundError: the referenced session/template/athlete/block is unknown.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return "no " + e.Kind
	}
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// InvalidStateError: the operation is illegal for the group's current status
// or sequence position.
type InvalidStateError struct {
	Msg string
}

func (e *InvalidStateError) Error() string { return e.Msg }

// ValidationError: malformed input, rejected before any state changes.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// SaveError wraps a persistence failure that happened after the in-memory
// mutation was applied. The mutation stands; memory stays authoritative
// until the next successful save.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string { return "state save failed: " + e.Err.Error() }
func (e *SaveError) Unwrap() error { return e.Err }
