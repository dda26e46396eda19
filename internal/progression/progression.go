// Package progression tracks collected treasure keys and gates the treasure chamber.
package progression

import "github.com/samdwyer/caves/internal/faults"

// State is the position in the chamber unlock sequence.
type State int

const (
	// NoKeys means no treasure key has been collected yet.
	NoKeys State = iota
	// PartialKeys means some but not all treasure keys are collected.
	PartialKeys
	// ChamberUnlocked means every treasure key is collected. It is terminal.
	ChamberUnlocked
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case NoKeys:
		return "no-keys"
	case PartialKeys:
		return "partial-keys"
	case ChamberUnlocked:
		return "chamber-unlocked"
	default:
		return "unknown"
	}
}

// Tracker counts treasure keys. The count only ever grows, and the chamber
// unlocks exactly when it reaches the total. A Tracker is not safe for
// concurrent use; the world model serializes access.
type Tracker struct {
	total     int
	collected int
}

// New creates a tracker for a game that places total treasure keys.
func New(total int) (*Tracker, error) {
	if total < 1 {
		return nil, faults.InvalidConfigf("a game needs at least one treasure key, got %d", total)
	}
	return &Tracker{total: total}, nil
}

// RecordTreasureKey registers one picked-up treasure key and returns the new
// state. Collecting more keys than were placed means the caller lost track of
// what it handed out and is reported as inconsistent progression.
func (t *Tracker) RecordTreasureKey() (State, error) {
	if t.collected >= t.total {
		return t.State(), faults.Inconsistentf("treasure key %d collected, only %d placed", t.collected+1, t.total)
	}
	t.collected++
	return t.State(), nil
}

// State returns the current state.
func (t *Tracker) State() State {
	switch {
	case t.collected == 0:
		return NoKeys
	case t.collected < t.total:
		return PartialKeys
	default:
		return ChamberUnlocked
	}
}

// IsChamberUnlocked reports whether every treasure key is collected.
func (t *Tracker) IsChamberUnlocked() bool {
	return t.collected == t.total
}

// KeysRemaining returns how many treasure keys are still to be found.
func (t *Tracker) KeysRemaining() int {
	return t.total - t.collected
}

// Collected returns the number of treasure keys collected so far.
func (t *Tracker) Collected() int {
	return t.collected
}

// Total returns the number of treasure keys in the game.
func (t *Tracker) Total() int {
	return t.total
}

// Restore sets the collected count from a saved session. It never lowers the
// count, so progression stays monotonic even across a bad restore.
func (t *Tracker) Restore(collected int) error {
	if collected < 0 || collected > t.total {
		return faults.Inconsistentf("saved treasure key count %d outside [0,%d]", collected, t.total)
	}
	if collected < t.collected {
		return faults.Inconsistentf("saved treasure key count %d is below the current %d", collected, t.collected)
	}
	t.collected = collected
	return nil
}
