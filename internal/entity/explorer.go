package entity

import "github.com/samdwyer/caves/internal/world"

// Explorer represents the player walking the caves in the viewer.
type Explorer struct {
	Pos    world.Pos // Current position on the level
	Level  int       // Index of the level the explorer is on
	Symbol rune      // Display symbol
}

// NewExplorer creates a new explorer at the given position.
func NewExplorer(level int, pos world.Pos) *Explorer {
	return &Explorer{
		Pos:    pos,
		Level:  level,
		Symbol: '@',
	}
}

// Move updates the explorer position by the given delta.
func (e *Explorer) Move(dx, dy int) {
	e.Pos.X += dx
	e.Pos.Y += dy
}

// Target returns the position one step away by the given delta.
func (e *Explorer) Target(dx, dy int) world.Pos {
	return world.Pos{X: e.Pos.X + dx, Y: e.Pos.Y + dy}
}

// Position returns the current x, y coordinates.
func (e *Explorer) Position() (int, int) {
	return e.Pos.X, e.Pos.Y
}
