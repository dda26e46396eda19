package world

import (
	"encoding/binary"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/samdwyer/caves/internal/faults"
)

// NoRoom marks a room index that is not set.
const NoRoom = -1

// Door is a chokepoint in a room's wall ring. Its state lives in the tile grid.
type Door struct {
	ID   uuid.UUID
	Pos  Pos
	Room int // Index of the room whose ring holds the door
}

// Connection records a corridor carved between two rooms.
type Connection struct {
	A, B int
}

// Level represents one generated cave floor.
type Level struct {
	Index  int
	Width  int
	Height int
	Tiles  [][]Tile
	Rooms  []Room
	Doors  []Door

	Connections []Connection

	// Entrance is where the player arrives: the start position on level 0 and
	// the stairs up on every other level.
	Entrance     Pos
	EntranceRoom int
	// Exit is the stairs down. Only set when HasExit is true (every level but the last).
	Exit     Pos
	ExitRoom int
	HasExit  bool

	// Treasure chamber, final level only.
	HasChamber      bool
	ChamberRoom     int
	ChamberEntrance Pos

	// Attempt is the regeneration counter the level was built with.
	Attempt int
}

// newLevel creates a level filled with walls.
func newLevel(index, width, height int) *Level {
	tiles := make([][]Tile, height)
	for y := range tiles {
		tiles[y] = make([]Tile, width)
		for x := range tiles[y] {
			tiles[y][x] = TileWall
		}
	}

	return &Level{
		Index:        index,
		Width:        width,
		Height:       height,
		Tiles:        tiles,
		Rooms:        make([]Room, 0),
		EntranceRoom: NoRoom,
		ExitRoom:     NoRoom,
		ChamberRoom:  NoRoom,
	}
}

// InBounds reports whether the position lies on the grid.
func (l *Level) InBounds(p Pos) bool {
	return p.X >= 0 && p.X < l.Width && p.Y >= 0 && p.Y < l.Height
}

// IsPassable returns true if the given position can be walked on without a key.
// The chamber entrance is not passable here; the world model decides that.
func (l *Level) IsPassable(x, y int) bool {
	if x < 0 || x >= l.Width || y < 0 || y >= l.Height {
		return false
	}
	return l.Tiles[y][x].IsPassable()
}

// GetTile returns the tile at the given position. Out-of-bounds positions are walls.
func (l *Level) GetTile(x, y int) Tile {
	if x < 0 || x >= l.Width || y < 0 || y >= l.Height {
		return TileWall
	}
	return l.Tiles[y][x]
}

// TileAt is GetTile for a Pos.
func (l *Level) TileAt(p Pos) Tile {
	return l.GetTile(p.X, p.Y)
}

func (l *Level) setTile(p Pos, t Tile) {
	l.Tiles[p.Y][p.X] = t
}

// RoomIndexAt returns the index of the room containing the position, or NoRoom.
func (l *Level) RoomIndexAt(x, y int) int {
	for i, room := range l.Rooms {
		if room.Contains(x, y) {
			return i
		}
	}
	return NoRoom
}

// DoorAt returns the door at the given position.
func (l *Level) DoorAt(p Pos) (Door, bool) {
	for _, d := range l.Doors {
		if d.Pos == p {
			return d, true
		}
	}
	return Door{}, false
}

// DoorByID returns the door with the given id.
func (l *Level) DoorByID(id uuid.UUID) (Door, bool) {
	for _, d := range l.Doors {
		if d.ID == id {
			return d, true
		}
	}
	return Door{}, false
}

// LockedDoors returns the doors whose tile is currently locked.
func (l *Level) LockedDoors() []Door {
	var locked []Door
	for _, d := range l.Doors {
		if l.TileAt(d.Pos) == TileDoorLocked {
			locked = append(locked, d)
		}
	}
	return locked
}

// LockDoor turns an open door into a locked one.
func (l *Level) LockDoor(p Pos) error {
	if _, ok := l.DoorAt(p); !ok {
		return faults.NotFoundf(l.Index, "no door at %s", p)
	}
	if l.TileAt(p) == TileDoorLocked {
		return faults.Inconsistentf("level %d: door at %s is already locked", l.Index, p)
	}
	l.setTile(p, TileDoorLocked)
	return nil
}

// UnlockDoor opens a locked door. Opening an open door is reported, not ignored.
func (l *Level) UnlockDoor(p Pos) error {
	if _, ok := l.DoorAt(p); !ok {
		return faults.NotFoundf(l.Index, "no door at %s", p)
	}
	if l.TileAt(p) == TileDoorUnlocked {
		return faults.AlreadyUnlockedf(l.Index, "door at %s is already open", p)
	}
	l.setTile(p, TileDoorUnlocked)
	return nil
}

// FloorCount returns the number of open tiles.
func (l *Level) FloorCount() int {
	n := 0
	for y := range l.Tiles {
		for _, t := range l.Tiles[y] {
			if t.IsOpen() {
				n++
			}
		}
	}
	return n
}

// Fingerprint hashes the tile grid. Equal grids have equal fingerprints.
func (l *Level) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [4]byte
	for y := range l.Tiles {
		for _, t := range l.Tiles[y] {
			binary.LittleEndian.PutUint32(buf[:], uint32(t))
			_, _ = d.Write(buf[:])
		}
	}
	return d.Sum64()
}

// Clone returns a deep copy of the level.
func (l *Level) Clone() *Level {
	c := *l
	c.Tiles = make([][]Tile, len(l.Tiles))
	for y := range l.Tiles {
		c.Tiles[y] = append([]Tile(nil), l.Tiles[y]...)
	}
	c.Rooms = append([]Room(nil), l.Rooms...)
	c.Doors = append([]Door(nil), l.Doors...)
	c.Connections = append([]Connection(nil), l.Connections...)
	return &c
}

// Render draws the level as text. Overlay runes replace tiles at their positions;
// stairs are drawn as '<' and '>'.
func (l *Level) Render(overlay map[Pos]rune) string {
	var sb strings.Builder
	sb.Grow((l.Width + 1) * l.Height)
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			p := Pos{X: x, Y: y}
			if r, ok := overlay[p]; ok {
				sb.WriteRune(r)
				continue
			}
			switch {
			case l.Index > 0 && p == l.Entrance:
				sb.WriteRune('<')
			case l.HasExit && p == l.Exit:
				sb.WriteRune('>')
			default:
				sb.WriteRune(l.Tiles[y][x].Rune())
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (l *Level) String() string {
	return l.Render(nil)
}
