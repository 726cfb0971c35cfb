package models

import "fmt"

// ItemType discriminates the two kinds of sequence item.
type ItemType string

const (
	ItemBlock  ItemType = "block"
	ItemJoiner ItemType = "joiner"
)

// BlockMode selects how a block's reps complete.
type BlockMode string

const (
	// ModeManual completes a rep once every active athlete has been tapped.
	ModeManual BlockMode = "manual"
	// ModeCycle completes a rep automatically after WorkSeconds.
	ModeCycle BlockMode = "cycle"
)

// JoinerType classifies a non-repeated item between blocks.
type JoinerType string

const (
	JoinerRest JoinerType = "rest"
	JoinerNote JoinerType = "note"
)

// SequenceItem is a tagged union: Type selects which field group is
// meaningful. Block items carry distance/reps/mode/work/rest, joiner items
// carry JoinerType/DurationSeconds/Text. Joiners are always skippable.
type SequenceItem struct {
	ID    string   `json:"id"`
	Type  ItemType `json:"type"`
	Label string   `json:"label"`

	// Block fields
	DistanceM   int       `json:"distanceM,omitempty"`
	Reps        int       `json:"reps,omitempty"`
	Mode        BlockMode `json:"mode,omitempty"`
	WorkSeconds int       `json:"workSeconds,omitempty"`
	RestSeconds int       `json:"restSeconds,omitempty"`

	// Joiner fields
	JoinerType      JoinerType `json:"joinerType,omitempty"`
	DurationSeconds int        `json:"durationSeconds,omitempty"`
	Text            string     `json:"text,omitempty"`
}

// Validate checks the invariants of a single sequence item.
func (it *SequenceItem) Validate() error {
	switch it.Type {
	case ItemBlock:
		if it.Reps < 1 {
			return fmt.Errorf("block %q: reps must be positive, got %d", it.Label, it.Reps)
		}
		if it.RestSeconds < 0 {
			return fmt.Errorf("block %q: restSeconds must be >= 0, got %d", it.Label, it.RestSeconds)
		}
		switch it.Mode {
		case ModeManual:
			// WorkSeconds ignored
		case ModeCycle:
			if it.WorkSeconds <= 0 {
				return fmt.Errorf("block %q: cycle mode requires workSeconds > 0", it.Label)
			}
		default:
			return fmt.Errorf("block %q: unknown mode %q", it.Label, it.Mode)
		}
	case ItemJoiner:
		switch it.JoinerType {
		case JoinerRest, JoinerNote:
		default:
			return fmt.Errorf("joiner %q: unknown joinerType %q", it.Label, it.JoinerType)
		}
		if it.DurationSeconds < 0 {
			return fmt.Errorf("joiner %q: durationSeconds must be >= 0", it.Label)
		}
	default:
		return fmt.Errorf("item %q: unknown type %q", it.Label, it.Type)
	}
	return nil
}

// RestDuration returns the countdown to show after this item starts a rest
// phase: the joiner duration for rest joiners, zero for note joiners.
func (it *SequenceItem) RestDuration() int {
	if it.Type == ItemJoiner && it.JoinerType == JoinerRest {
		return it.DurationSeconds
	}
	return 0
}

// TemplateSession is a named reusable plan. A started session stores its own
// deep copy of the sequence, so templates stay editable independently.
type TemplateSession struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Sequence    []SequenceItem `json:"sequence"`
}

// Validate checks the whole template.
func (t *TemplateSession) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("template name is required")
	}
	if len(t.Sequence) == 0 {
		return fmt.Errorf("template %q: sequence is empty", t.Name)
	}
	for i := range t.Sequence {
		if err := t.Sequence[i].Validate(); err != nil {
			return fmt.Errorf("template %q item %d: %w", t.Name, i, err)
		}
	}
	return nil
}

// CloneSequence returns a deep copy of a sequence.
func CloneSequence(seq []SequenceItem) []SequenceItem {
	out := make([]SequenceItem, len(seq))
	copy(out, seq)
	return out
}
