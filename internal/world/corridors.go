package world

import (
	"container/heap"
	"math"

	"github.com/samdwyer/caves/internal/faults"
)

// Corridor step costs. Crossing a wall ring is expensive so paths enter a room
// once, through a single doorway, and prefer reusing carved tiles.
const (
	costOpen = 1
	costWall = 2
	costRing = 40
)

// spanningTree links every room with a minimum spanning tree over the
// Manhattan distance between room centers (Prim's algorithm). Ties go to
// the lower room index, so the tree only depends on the room list.
func (b *build) spanningTree() []Connection {
	rooms := b.level.Rooms
	in := make([]bool, len(rooms))
	in[0] = true

	tree := make([]Connection, 0, len(rooms)-1)
	for len(tree) < len(rooms)-1 {
		best := Connection{A: NoRoom, B: NoRoom}
		bestDist := 0
		for i := range rooms {
			if !in[i] {
				continue
			}
			for j := range rooms {
				if in[j] {
					continue
				}
				d := rooms[i].distance(rooms[j])
				if best.A == NoRoom || d < bestDist {
					best, bestDist = Connection{A: i, B: j}, d
				}
			}
		}
		in[best.B] = true
		tree = append(tree, best)
	}
	return tree
}

// extraConnections adds loops: each room may get a corridor to its nearest
// room it is not yet linked with. The treasure chamber never gets one.
func (b *build) extraConnections(tree []Connection) []Connection {
	if b.cfg.ExtraConnections <= 0 {
		return nil
	}

	rooms := b.level.Rooms
	linked := make(map[Connection]bool, len(tree))
	for _, c := range tree {
		linked[pairKey(c.A, c.B)] = true
	}

	sealed := func(i int) bool {
		return b.level.HasChamber && i == b.level.ChamberRoom
	}

	var extra []Connection
	for i := range rooms {
		if !b.layout.Chance(b.cfg.ExtraConnections) || sealed(i) {
			continue
		}
		best, bestDist := NoRoom, 0
		for j := range rooms {
			if j == i || sealed(j) || linked[pairKey(i, j)] {
				continue
			}
			if d := rooms[i].distance(rooms[j]); best == NoRoom || d < bestDist {
				best, bestDist = j, d
			}
		}
		if best == NoRoom {
			continue
		}
		linked[pairKey(i, best)] = true
		extra = append(extra, Connection{A: i, B: best})
	}
	return extra
}

func pairKey(a, b int) Connection {
	if a > b {
		a, b = b, a
	}
	return Connection{A: a, B: b}
}

// carveCorridor digs the cheapest path between the centers of two rooms.
// The path may only cross the wall rings of the two rooms it joins, never at
// a ring corner and never right beside an existing doorway. Ring tiles it
// crosses become doorways.
func (b *build) carveCorridor(c Connection) error {
	lvl := b.level
	start := b.idx(lvl.Rooms[c.A].CenterPos())
	goal := b.idx(lvl.Rooms[c.B].CenterPos())

	dist := make([]int, len(b.region))
	prev := make([]int, len(b.region))
	for i := range dist {
		dist[i] = math.MaxInt
		prev[i] = -1
	}
	dist[start] = 0

	pq := &stepQueue{{idx: start}}
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(step)
		if cur.cost > dist[cur.idx] {
			continue
		}
		if cur.idx == goal {
			break
		}
		p := b.pos(cur.idx)
		for _, n := range p.Neighbors() {
			cost, ok := b.stepCost(n, c)
			if !ok {
				continue
			}
			ni := b.idx(n)
			if next := cur.cost + cost; next < dist[ni] {
				dist[ni] = next
				prev[ni] = cur.idx
				heap.Push(pq, step{idx: ni, cost: next})
			}
		}
	}

	if dist[goal] == math.MaxInt {
		return faults.Generationf(lvl.Index, "no corridor route between rooms %d and %d", c.A, c.B)
	}

	for i := goal; i != start; i = prev[i] {
		b.carve(b.pos(i), b.pos(prev[i]))
	}
	return nil
}

// stepCost returns the cost of stepping onto n while joining the rooms of c,
// and false if the tile may not be used.
func (b *build) stepCost(n Pos, c Connection) (int, bool) {
	if !b.level.InBounds(n) || b.onBorder(n) {
		return 0, false
	}
	ni := b.idx(n)
	switch r := b.region[ni]; {
	case r == c.A || r == c.B || r == regionCorridor:
		return costOpen, true
	case r >= 0:
		return 0, false
	case r == regionDoor:
		owner := b.ringOwner[ni]
		return costOpen, owner == c.A || owner == c.B
	}

	owner := b.ringOwner[ni]
	if owner == NoRoom {
		return costWall, true
	}
	if owner != c.A && owner != c.B {
		return 0, false
	}
	if b.level.Rooms[owner].IsRingCorner(n.X, n.Y) || b.besideDoor(n) {
		return 0, false
	}
	return costRing, true
}

// besideDoor reports whether any orthogonal neighbor is a doorway.
func (b *build) besideDoor(p Pos) bool {
	for _, n := range p.Neighbors() {
		if b.level.InBounds(n) && b.region[b.idx(n)] == regionDoor {
			return true
		}
	}
	return false
}

// carve opens one path tile. from is the previous tile on the path and
// decides which side a two-wide tunnel grows to.
func (b *build) carve(p, from Pos) {
	i := b.idx(p)
	if b.region[i] != regionWall {
		return
	}
	if b.ringOwner[i] != NoRoom {
		b.region[i] = regionDoor
		b.level.setTile(p, TileDoorUnlocked)
		return
	}
	b.region[i] = regionCorridor
	b.level.setTile(p, TileFloor)

	if b.cfg.TunnelWidth < 2 {
		return
	}
	side := Pos{X: 0, Y: 1}
	if p.X == from.X {
		side = Pos{X: 1, Y: 0}
	}
	w := p.Add(side)
	wi := b.idx(w)
	if b.onBorder(w) || b.region[wi] != regionWall || b.ringOwner[wi] != NoRoom || b.besideDoor(w) {
		return
	}
	b.region[wi] = regionCorridor
	b.level.setTile(w, TileFloor)
}

func (b *build) pos(i int) Pos {
	return Pos{X: i % b.level.Width, Y: i / b.level.Width}
}

// step is a frontier entry for the corridor search.
type step struct {
	idx  int
	cost int
}

// stepQueue is a min-heap of steps, ordered by cost then tile index so the
// search is fully deterministic.
type stepQueue []step

func (q stepQueue) Len() int { return len(q) }

func (q stepQueue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	return q[i].idx < q[j].idx
}

func (q stepQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *stepQueue) Push(x any) { *q = append(*q, x.(step)) }

func (q *stepQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
