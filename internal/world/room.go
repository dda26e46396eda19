package world

// Room represents a rectangular room in the level. The rectangle covers the
// floor only; the wall ring lies one tile outside it.
type Room struct {
	X, Y          int // Top-left floor tile
	Width, Height int // Floor dimensions
}

// Center returns the center coordinates of the room.
func (r Room) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// CenterPos returns the center as a Pos.
func (r Room) CenterPos() Pos {
	x, y := r.Center()
	return Pos{X: x, Y: y}
}

// Contains returns true if the given point is inside the room.
func (r Room) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Intersects returns true if this room overlaps with another room.
func (r Room) Intersects(other Room) bool {
	return r.X < other.X+other.Width &&
		r.X+r.Width > other.X &&
		r.Y < other.Y+other.Height &&
		r.Y+r.Height > other.Y
}

// Expand returns the room grown by n tiles on every side.
func (r Room) Expand(n int) Room {
	return Room{X: r.X - n, Y: r.Y - n, Width: r.Width + 2*n, Height: r.Height + 2*n}
}

// Area returns the number of floor tiles in the rectangle.
func (r Room) Area() int {
	return r.Width * r.Height
}

// OnRing returns true if the point is part of the wall ring around the room.
func (r Room) OnRing(x, y int) bool {
	return r.Expand(1).Contains(x, y) && !r.Contains(x, y)
}

// IsRingCorner returns true for the four corners of the wall ring.
func (r Room) IsRingCorner(x, y int) bool {
	left, right := r.X-1, r.X+r.Width
	top, bottom := r.Y-1, r.Y+r.Height
	return (x == left || x == right) && (y == top || y == bottom)
}

// RingPositions returns every ring tile in clockwise order starting at the top-left corner.
func (r Room) RingPositions() []Pos {
	left, right := r.X-1, r.X+r.Width
	top, bottom := r.Y-1, r.Y+r.Height

	ring := make([]Pos, 0, 2*(r.Width+r.Height)+4)
	for x := left; x <= right; x++ {
		ring = append(ring, Pos{X: x, Y: top})
	}
	for y := top + 1; y <= bottom; y++ {
		ring = append(ring, Pos{X: right, Y: y})
	}
	for x := right - 1; x >= left; x-- {
		ring = append(ring, Pos{X: x, Y: bottom})
	}
	for y := bottom - 1; y > top; y-- {
		ring = append(ring, Pos{X: left, Y: y})
	}
	return ring
}

// distance returns the Manhattan distance between room centers.
func (r Room) distance(other Room) int {
	return r.CenterPos().Manhattan(other.CenterPos())
}
