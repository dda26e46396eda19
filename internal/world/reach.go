package world

// Region is a set of grid positions backed by a flat bitmap.
type Region struct {
	width int
	cells []bool
	size  int
}

func newRegion(width, height int) *Region {
	return &Region{width: width, cells: make([]bool, width*height)}
}

// Contains reports whether p is in the region.
func (r *Region) Contains(p Pos) bool {
	if p.X < 0 || p.Y < 0 || p.X >= r.width {
		return false
	}
	i := p.Y*r.width + p.X
	return i < len(r.cells) && r.cells[i]
}

// Len returns the number of positions in the region.
func (r *Region) Len() int {
	return r.size
}

// Positions returns the region's positions in row-major order.
func (r *Region) Positions() []Pos {
	out := make([]Pos, 0, r.size)
	for i, in := range r.cells {
		if in {
			out = append(out, Pos{X: i % r.width, Y: i / r.width})
		}
	}
	return out
}

func (r *Region) add(p Pos) {
	i := p.Y*r.width + p.X
	if !r.cells[i] {
		r.cells[i] = true
		r.size++
	}
}

// Reachable flood-fills open tiles from start using 4-directional adjacency.
// Positions for which blocked returns true are treated as walls; blocked may be nil.
// If start itself is a wall or blocked the region is empty.
func (l *Level) Reachable(start Pos, blocked func(Pos) bool) *Region {
	seen := newRegion(l.Width, l.Height)
	if !l.InBounds(start) || !l.TileAt(start).IsOpen() || (blocked != nil && blocked(start)) {
		return seen
	}

	queue := []Pos{start}
	seen.add(start)
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, n := range p.Neighbors() {
			if !l.InBounds(n) || seen.Contains(n) || !l.TileAt(n).IsOpen() {
				continue
			}
			if blocked != nil && blocked(n) {
				continue
			}
			seen.add(n)
			queue = append(queue, n)
		}
	}
	return seen
}

// Components returns the number of connected components of open tiles.
func (l *Level) Components() int {
	visited := newRegion(l.Width, l.Height)
	count := 0
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			p := Pos{X: x, Y: y}
			if !l.TileAt(p).IsOpen() || visited.Contains(p) {
				continue
			}
			count++
			for _, q := range l.Reachable(p, nil).Positions() {
				visited.add(q)
			}
		}
	}
	return count
}

// Distances returns the BFS step count from start to every reachable open tile,
// treating blocked positions as walls. Unreachable tiles are -1.
func (l *Level) Distances(start Pos, blocked func(Pos) bool) [][]int {
	dist := make([][]int, l.Height)
	for y := range dist {
		dist[y] = make([]int, l.Width)
		for x := range dist[y] {
			dist[y][x] = -1
		}
	}
	if !l.InBounds(start) || !l.TileAt(start).IsOpen() {
		return dist
	}

	dist[start.Y][start.X] = 0
	queue := []Pos{start}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, n := range p.Neighbors() {
			if !l.InBounds(n) || dist[n.Y][n.X] >= 0 || !l.TileAt(n).IsOpen() {
				continue
			}
			if blocked != nil && blocked(n) {
				continue
			}
			dist[n.Y][n.X] = dist[p.Y][p.X] + 1
			queue = append(queue, n)
		}
	}
	return dist
}
