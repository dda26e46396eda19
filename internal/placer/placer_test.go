package placer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdwyer/caves/internal/entity"
	"github.com/samdwyer/caves/internal/faults"
	"github.com/samdwyer/caves/internal/gamedata"
	"github.com/samdwyer/caves/internal/logger"
	"github.com/samdwyer/caves/internal/rng"
	"github.com/samdwyer/caves/internal/world"
)

func newPlacer(t *testing.T, cfg Config) *Placer {
	t.Helper()
	monsters, err := gamedata.LoadMonsterRegistry()
	require.NoError(t, err)
	items, err := gamedata.LoadItemRegistry()
	require.NoError(t, err)
	return New(cfg, monsters, items).WithLogger(logger.Discard())
}

// populate generates and populates a level, retrying attempts the way the
// world model does.
func populate(t *testing.T, layout world.LayoutConfig, cfg Config, seed rng.Seed, index int) (*world.Level, *Placement) {
	t.Helper()

	g, err := world.NewGenerator(layout)
	require.NoError(t, err)
	g = g.WithLogger(logger.Discard())
	p := newPlacer(t, cfg)
	svc := rng.New(seed)

	var last error
	for attempt := 0; attempt < 10; attempt++ {
		lvl, err := g.Generate(context.Background(), svc, index, attempt)
		if err != nil {
			last = err
			continue
		}
		pl, err := p.Place(context.Background(), lvl, svc, attempt)
		if err != nil {
			require.True(t, errors.Is(err, faults.ErrUnsolvableLevel), "unexpected error: %v", err)
			last = err
			continue
		}
		return lvl, pl
	}
	t.Fatalf("level %d never populated: %v", index, last)
	return nil, nil
}

func TestPlaceDeterministic(t *testing.T) {
	layout := world.DefaultLayoutConfig()
	cfg := DefaultConfig(layout.Levels)

	l1, p1 := populate(t, layout, cfg, 2024, 3)
	l2, p2 := populate(t, layout, cfg, 2024, 3)

	require.Equal(t, len(p1.Entities), len(p2.Entities))
	for i := range p1.Entities {
		assert.Equal(t, p1.Entities[i].ID, p2.Entities[i].ID)
		assert.Equal(t, p1.Entities[i].Pos, p2.Entities[i].Pos)
		assert.Equal(t, p1.Entities[i].Kind, p2.Entities[i].Kind)
	}
	assert.Equal(t, p1.LockedDoors, p2.LockedDoors)
	assert.Equal(t, l1.Fingerprint(), l2.Fingerprint())
}

func TestPlacementDoesNotDisturbLayout(t *testing.T) {
	layout := world.DefaultLayoutConfig()
	g, err := world.NewGenerator(layout)
	require.NoError(t, err)
	g = g.WithLogger(logger.Discard())
	svc := rng.New(77)

	bare, err := g.Generate(context.Background(), svc, 1, 0)
	if err != nil {
		t.Skipf("attempt 0 failed for this seed: %v", err)
	}

	// Different placement settings must leave the layout alone
	cfg := DefaultConfig(layout.Levels)
	cfg.Items = rng.Bounds{Min: 6, Max: 6}
	lvl, err := g.Generate(context.Background(), svc, 1, 0)
	require.NoError(t, err)
	_, err = newPlacer(t, cfg).Place(context.Background(), lvl, svc, 0)
	require.NoError(t, err)

	assert.Equal(t, bare.Rooms, lvl.Rooms)
	assert.Equal(t, bare.Doors, lvl.Doors)
}

func TestPlaceKeysReachableWithoutTheirDoor(t *testing.T) {
	layout := world.DefaultLayoutConfig()
	cfg := DefaultConfig(layout.Levels)
	cfg.LockedDoorsBase = 2
	cfg.LockedDoorsMax = 6

	for _, seed := range []rng.Seed{1, 5, 42, 31337} {
		for index := 0; index < layout.Levels; index++ {
			lvl, pl := populate(t, layout, cfg, seed, index)

			require.NoError(t, Solvable(lvl, pl))
			assert.Len(t, lvl.LockedDoors(), len(pl.LockedDoors))

			for _, id := range pl.LockedDoors {
				door, ok := lvl.DoorByID(id)
				require.True(t, ok)

				var key *entity.Entity
				for _, e := range pl.Entities {
					if e.Kind == entity.KindKey && e.Unlocks == id {
						require.Nil(t, key, "door %s has two keys", door.Pos)
						key = e
					}
				}
				require.NotNil(t, key, "door %s has no key", door.Pos)

				region := lvl.Reachable(lvl.Entrance, func(p world.Pos) bool {
					return p == door.Pos || (lvl.HasChamber && p == lvl.ChamberEntrance)
				})
				assert.True(t, region.Contains(key.Pos),
					"seed %d level %d: key for %s is behind it", seed, index, door.Pos)
			}
		}
	}
}

func TestPlaceTreasureKeys(t *testing.T) {
	layout := world.DefaultLayoutConfig()
	cfg := DefaultConfig(layout.Levels)

	total := 0
	for index := 0; index < layout.Levels; index++ {
		_, pl := populate(t, layout, cfg, 9, index)
		n := pl.Count(entity.KindTreasureKey)
		if cfg.HoldsTreasureKey(index) {
			assert.Equal(t, 1, n, "level %d", index)
		} else {
			assert.Zero(t, n, "level %d", index)
		}
		total += n
	}
	assert.Equal(t, cfg.TotalTreasureKeys(), total)
}

func TestPlaceNoSharedTiles(t *testing.T) {
	layout := world.DefaultLayoutConfig()
	cfg := DefaultConfig(layout.Levels)
	cfg.Items = rng.Bounds{Min: 8, Max: 10}

	for index := 0; index < layout.Levels; index++ {
		lvl, pl := populate(t, layout, cfg, 13, index)

		seen := make(map[world.Pos]bool)
		for _, e := range pl.Entities {
			assert.False(t, seen[e.Pos], "level %d: two entities on %s", index, e.Pos)
			seen[e.Pos] = true

			assert.Equal(t, world.TileFloor, lvl.TileAt(e.Pos))
			assert.NotEqual(t, lvl.Entrance, e.Pos)
			if lvl.HasExit {
				assert.NotEqual(t, lvl.Exit, e.Pos)
			}
			for _, n := range e.Pos.Neighbors() {
				assert.False(t, lvl.TileAt(n).IsChokepoint(), "level %d: %s next to a doorway", index, e)
			}
		}
	}
}

func TestPlaceKeepsChamberEmpty(t *testing.T) {
	layout := world.DefaultLayoutConfig()
	cfg := DefaultConfig(layout.Levels)

	lvl, pl := populate(t, layout, cfg, 4, layout.FinalLevel())
	require.True(t, lvl.HasChamber)

	outside := lvl.Reachable(lvl.Entrance, func(p world.Pos) bool { return p == lvl.ChamberEntrance })
	for _, e := range pl.Entities {
		assert.True(t, outside.Contains(e.Pos), "%s is inside the chamber", e)
	}
}

func TestPlaceMonsters(t *testing.T) {
	layout := world.DefaultLayoutConfig()
	cfg := DefaultConfig(layout.Levels)

	lvl, pl := populate(t, layout, cfg, 17, 5)
	monsters := 0
	perRoom := make(map[int]int)
	for _, e := range pl.Entities {
		if e.Kind != entity.KindMonster {
			continue
		}
		monsters++
		require.NotNil(t, e.Monster)
		assert.Greater(t, e.Monster.HP, 0)

		room := lvl.RoomIndexAt(e.Pos.X, e.Pos.Y)
		require.NotEqual(t, world.NoRoom, room)
		assert.NotEqual(t, lvl.EntranceRoom, room)
		perRoom[room]++
	}
	assert.LessOrEqual(t, monsters, cfg.MonsterCount(5))
	for room, n := range perRoom {
		limit := int(float64(lvl.Rooms[room].Area()) * cfg.MaxRoomMonsterArea)
		assert.LessOrEqual(t, n, limit)
	}
}

func TestMonsterCountMonotone(t *testing.T) {
	cfg := DefaultConfig(10)
	cfg.MonstersPerLevel = 0.7

	prev := cfg.MonsterCount(0)
	for depth := 1; depth < 40; depth++ {
		n := cfg.MonsterCount(depth)
		assert.GreaterOrEqual(t, n, prev, "depth %d", depth)
		assert.LessOrEqual(t, n, cfg.MonstersMax)
		prev = n
	}
	assert.Equal(t, cfg.MonstersMax, cfg.MonsterCount(100))
}

func TestSeed42SmallRoomRange(t *testing.T) {
	layout := world.DefaultLayoutConfig()
	layout.RoomCount = rng.Bounds{Min: 3, Max: 6}
	cfg := DefaultConfig(layout.Levels)

	lvl, pl := populate(t, layout, cfg, 42, 0)

	assert.GreaterOrEqual(t, len(lvl.Rooms), 3)
	assert.Equal(t, 1, lvl.Components())
	assert.LessOrEqual(t, pl.Count(entity.KindTreasureKey), 1)
	assert.Equal(t, 1, pl.Count(entity.KindTreasureKey), "level 0 holds a treasure key by default")
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig(10)
	require.NoError(t, cfg.Validate(10))
	assert.Equal(t, []int{0, 2, 4, 6, 8}, cfg.TreasureKeyLevels)
	assert.Equal(t, []int{0}, DefaultTreasureKeyLevels(1))

	bad := cfg
	bad.TreasureKeyLevels = []int{0, 10}
	assert.True(t, errors.Is(bad.Validate(10), faults.ErrInvalidConfig))

	bad = cfg
	bad.TreasureKeyLevels = []int{2, 2}
	assert.True(t, errors.Is(bad.Validate(10), faults.ErrInvalidConfig))

	bad = cfg
	bad.MaxRoomMonsterArea = 0
	assert.True(t, errors.Is(bad.Validate(10), faults.ErrInvalidConfig))

	bad = cfg
	bad.MonstersMax = 1
	assert.True(t, errors.Is(bad.Validate(10), faults.ErrInvalidConfig))
}

// handLevel builds a level from text rows. '+' is a locked door and '\'' an
// open one; the entrance is the first floor tile and the exit the last.
func handLevel(rows ...string) *world.Level {
	lvl := &world.Level{
		Width:        len(rows[0]),
		Height:       len(rows),
		EntranceRoom: 0,
		ExitRoom:     world.NoRoom,
		ChamberRoom:  world.NoRoom,
	}
	first, last := true, world.Pos{}
	for y, row := range rows {
		tiles := make([]world.Tile, len(row))
		for x, r := range row {
			p := world.Pos{X: x, Y: y}
			tiles[x] = world.Tile(r)
			switch world.Tile(r) {
			case world.TileDoorLocked, world.TileDoorUnlocked:
				lvl.Doors = append(lvl.Doors, world.Door{ID: uuid.New(), Pos: p})
			case world.TileFloor:
				if first {
					lvl.Entrance, first = p, false
				}
				last = p
			}
		}
		lvl.Tiles = append(lvl.Tiles, tiles)
	}
	lvl.Exit, lvl.HasExit = last, true
	lvl.Rooms = []world.Room{{X: 1, Y: 1, Width: 1, Height: 1}}
	return lvl
}

func TestSolvableDetectsKeyBehindDoor(t *testing.T) {
	lvl := handLevel(
		"###########",
		"#....+....#",
		"###########",
	)
	door := lvl.Doors[0]

	behind := &Placement{Entities: []*entity.Entity{{Kind: entity.KindKey, Unlocks: door.ID, Pos: world.Pos{X: 8, Y: 1}}}}
	err := Solvable(lvl, behind)
	assert.True(t, errors.Is(err, faults.ErrUnsolvableLevel))

	before := &Placement{Entities: []*entity.Entity{{Kind: entity.KindKey, Unlocks: door.ID, Pos: world.Pos{X: 2, Y: 1}}}}
	assert.NoError(t, Solvable(lvl, before))

	assert.True(t, errors.Is(Solvable(lvl, &Placement{}), faults.ErrUnsolvableLevel))
}

func TestPlaceReportsUnsolvable(t *testing.T) {
	// No floor tile is clear of the stairs and the doorway, so a key has nowhere to go
	lvl := handLevel(
		"#########",
		"#...'...#",
		"#########",
	)
	cfg := DefaultConfig(1)
	cfg.MaxPlacementAttempts = 3

	_, err := newPlacer(t, cfg).Place(context.Background(), lvl, rng.New(1), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, faults.ErrUnsolvableLevel))
	assert.Empty(t, lvl.LockedDoors(), "failed placement must not lock doors")
}

func TestMonstersNeverCutOffTheLevel(t *testing.T) {
	if testing.Short() {
		t.Skip("seed sweep")
	}
	layout := world.DefaultLayoutConfig()
	cfg := DefaultConfig(layout.Levels)

	for seed := rng.Seed(1); seed <= 170; seed++ {
		for index := 0; index < layout.Levels; index++ {
			lvl, pl := populate(t, layout, cfg, seed, index)

			monster := make(map[world.Pos]bool)
			for _, e := range pl.Entities {
				if e.Kind == entity.KindMonster {
					monster[e.Pos] = true
				}
			}
			region := lvl.Reachable(lvl.Entrance, func(p world.Pos) bool {
				return monster[p] || (lvl.HasChamber && p == lvl.ChamberEntrance)
			})

			for _, e := range pl.Entities {
				if e.IsCollectible() {
					assert.True(t, region.Contains(e.Pos), "seed %d level %d: %s walled in by monsters", seed, index, e)
				}
			}
			if lvl.HasExit {
				assert.True(t, region.Contains(lvl.Exit), "seed %d level %d: exit walled in by monsters", seed, index)
			}
			if lvl.HasChamber {
				assert.True(t, touches(region, lvl.ChamberEntrance), "seed %d level %d: chamber entrance walled in", seed, index)
			}
		}
	}
}

func TestSolvableTreatsMonstersAsWalls(t *testing.T) {
	lvl := handLevel(
		"#########",
		"#.......#",
		"#########",
	)
	gem := &entity.Entity{Kind: entity.KindItem, Name: "Gem", Pos: world.Pos{X: 5, Y: 1}}
	goblin := &entity.Entity{Kind: entity.KindMonster, Name: "Goblin", Pos: world.Pos{X: 3, Y: 1}}

	assert.NoError(t, Solvable(lvl, &Placement{Entities: []*entity.Entity{gem}}))

	err := Solvable(lvl, &Placement{Entities: []*entity.Entity{gem, goblin}})
	assert.True(t, errors.Is(err, faults.ErrUnsolvableLevel))
}
