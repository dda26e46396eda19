package placer

import (
	"github.com/google/uuid"

	"github.com/samdwyer/caves/internal/entity"
	"github.com/samdwyer/caves/internal/faults"
	"github.com/samdwyer/caves/internal/world"
)

// Solvable walks the level the way a player would: explore everything
// reachable from the entrance, pick up the keys found there, open their
// doors and repeat. Monsters cannot be passed, so their tiles count as walls.
// The level is solvable when every locked door opens and the exit, every
// collectible and the approach to the chamber entrance end up reachable. The
// chamber entrance stays shut throughout; it opens through progression, not
// through this level.
func Solvable(lvl *world.Level, pl *Placement) error {
	return solvable(lvl, pl.Entities, lvl.LockedDoors(), nil)
}

// solvable checks the level as if locked were the locked doors and the tiles
// in extra held monsters too.
func solvable(lvl *world.Level, entities []*entity.Entity, locked []world.Door, extra map[world.Pos]bool) error {
	keyAt := make(map[uuid.UUID]world.Pos)
	monster := make(map[world.Pos]bool, len(extra))
	for p := range extra {
		monster[p] = true
	}
	for _, e := range entities {
		switch e.Kind {
		case entity.KindKey:
			keyAt[e.Unlocks] = e.Pos
		case entity.KindMonster:
			monster[e.Pos] = true
		}
	}

	shut := make(map[world.Pos]bool, len(locked))
	for _, d := range locked {
		if _, ok := keyAt[d.ID]; !ok {
			return faults.Unsolvablef(lvl.Index, "locked door %s has no key", d.Pos)
		}
		shut[d.Pos] = true
	}

	opened := make(map[world.Pos]bool, len(locked))
	blocked := func(p world.Pos) bool {
		if lvl.HasChamber && p == lvl.ChamberEntrance {
			return true
		}
		return monster[p] || (shut[p] && !opened[p])
	}

	region := lvl.Reachable(lvl.Entrance, blocked)
	for {
		progress := false
		for _, d := range locked {
			if !opened[d.Pos] && region.Contains(keyAt[d.ID]) {
				opened[d.Pos] = true
				progress = true
			}
		}
		if !progress {
			break
		}
		region = lvl.Reachable(lvl.Entrance, blocked)
	}

	for _, d := range locked {
		if !opened[d.Pos] {
			return faults.Unsolvablef(lvl.Index, "key for door %s cannot be reached", d.Pos)
		}
	}
	for _, e := range entities {
		if e.IsCollectible() && !region.Contains(e.Pos) {
			return faults.Unsolvablef(lvl.Index, "%s cannot be reached", e)
		}
	}
	if lvl.HasExit && !region.Contains(lvl.Exit) {
		return faults.Unsolvablef(lvl.Index, "exit %s cannot be reached", lvl.Exit)
	}
	if lvl.HasChamber && !touches(region, lvl.ChamberEntrance) {
		return faults.Unsolvablef(lvl.Index, "chamber entrance %s cannot be approached", lvl.ChamberEntrance)
	}
	return nil
}

// touches reports whether a neighbour of p lies in region.
func touches(region *world.Region, p world.Pos) bool {
	for _, n := range p.Neighbors() {
		if region.Contains(n) {
			return true
		}
	}
	return false
}
