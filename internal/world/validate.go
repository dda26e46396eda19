package world

import (
	"fmt"
	"strings"

	"github.com/samdwyer/caves/internal/faults"
)

// Validate checks the structural guarantees of a level:
//   - the outer border is wall
//   - all open tiles form a single connected component
//   - every door and the chamber entrance is a chokepoint, walled on both flanks
//   - the entrance and exit are walkable floor
//
// Violations are reported together as one generation failure.
func (l *Level) Validate() error {
	var problems []string

	for x := 0; x < l.Width; x++ {
		if l.Tiles[0][x] != TileWall || l.Tiles[l.Height-1][x] != TileWall {
			problems = append(problems, fmt.Sprintf("border open at column %d", x))
			break
		}
	}
	for y := 0; y < l.Height; y++ {
		if l.Tiles[y][0] != TileWall || l.Tiles[y][l.Width-1] != TileWall {
			problems = append(problems, fmt.Sprintf("border open at row %d", y))
			break
		}
	}

	if n := l.Components(); n != 1 {
		problems = append(problems, fmt.Sprintf("open tiles form %d components, want 1", n))
	}

	for _, d := range l.Doors {
		if !l.TileAt(d.Pos).IsDoor() {
			problems = append(problems, fmt.Sprintf("door %s is %s", d.Pos, l.TileAt(d.Pos)))
			continue
		}
		if !l.isChokepoint(d.Pos) {
			problems = append(problems, fmt.Sprintf("door %s is not a chokepoint", d.Pos))
		}
	}
	if l.HasChamber {
		if l.TileAt(l.ChamberEntrance) != TileChamberEntrance {
			problems = append(problems, fmt.Sprintf("chamber entrance %s missing", l.ChamberEntrance))
		} else if !l.isChokepoint(l.ChamberEntrance) {
			problems = append(problems, fmt.Sprintf("chamber entrance %s is not a chokepoint", l.ChamberEntrance))
		}
	}

	if l.TileAt(l.Entrance) != TileFloor {
		problems = append(problems, fmt.Sprintf("entrance %s is not floor", l.Entrance))
	}
	if l.HasExit && l.TileAt(l.Exit) != TileFloor {
		problems = append(problems, fmt.Sprintf("exit %s is not floor", l.Exit))
	}

	if len(problems) > 0 {
		return faults.Generationf(l.Index, "invalid layout: %s", strings.Join(problems, "; "))
	}
	return nil
}

// isChokepoint reports whether p joins exactly two open tiles on opposite
// sides while both remaining sides are wall.
func (l *Level) isChokepoint(p Pos) bool {
	n := p.Neighbors()
	open := func(q Pos) bool { return l.TileAt(q).IsOpen() }

	// Neighbors are ordered north, east, south, west
	vertical := open(n[0]) && open(n[2]) && !open(n[1]) && !open(n[3])
	horizontal := open(n[1]) && open(n[3]) && !open(n[0]) && !open(n[2])
	return vertical || horizontal
}
