// Package world provides cave level generation and map management.
package world

// Tile represents a single map tile.
type Tile rune

const (
	// TileWall represents an impassable wall tile.
	TileWall Tile = '#'
	// TileFloor represents a passable floor tile.
	TileFloor Tile = '.'
	// TileDoorLocked represents a door that needs its paired key.
	TileDoorLocked Tile = '+'
	// TileDoorUnlocked represents an open doorway.
	TileDoorUnlocked Tile = '\''
	// TileChamberEntrance is the gate of the treasure chamber on the final level.
	// It opens once every treasure key has been collected.
	TileChamberEntrance Tile = '&'
)

// IsPassable returns true if the tile can be walked on without any key.
func (t Tile) IsPassable() bool {
	return t == TileFloor || t == TileDoorUnlocked
}

// IsOpen returns true for every tile that is not a wall. Open tiles form the
// level's single connected component.
func (t Tile) IsOpen() bool {
	return t != TileWall
}

// IsDoor returns true for locked and unlocked doors.
func (t Tile) IsDoor() bool {
	return t == TileDoorLocked || t == TileDoorUnlocked
}

// IsChokepoint returns true for tiles that gate passage between regions.
func (t Tile) IsChokepoint() bool {
	return t.IsDoor() || t == TileChamberEntrance
}

// Rune returns the tile's display character.
func (t Tile) Rune() rune {
	return rune(t)
}

// String returns a human-readable tile name.
func (t Tile) String() string {
	switch t {
	case TileWall:
		return "wall"
	case TileFloor:
		return "floor"
	case TileDoorLocked:
		return "door-locked"
	case TileDoorUnlocked:
		return "door-unlocked"
	case TileChamberEntrance:
		return "chamber-entrance"
	default:
		return "unknown"
	}
}
