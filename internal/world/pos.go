package world

import "fmt"

// Pos is a grid coordinate. Levels use grid units only; display scaling is the
// renderer's concern.
type Pos struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Directions used for 4-directional adjacency.
var directions = [4]Pos{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}}

// Add returns the sum of two positions.
func (p Pos) Add(o Pos) Pos {
	return Pos{X: p.X + o.X, Y: p.Y + o.Y}
}

// Neighbors returns the four orthogonally adjacent positions (north, east, south, west).
func (p Pos) Neighbors() [4]Pos {
	var n [4]Pos
	for i, d := range directions {
		n[i] = p.Add(d)
	}
	return n
}

// Manhattan returns the taxicab distance between two positions.
func (p Pos) Manhattan(o Pos) int {
	return abs(p.X-o.X) + abs(p.Y-o.Y)
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
