package ui

import (
	"context"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdwyer/caves/internal/entity"
	"github.com/samdwyer/caves/internal/game"
	"github.com/samdwyer/caves/internal/gamedata"
	"github.com/samdwyer/caves/internal/logger"
	"github.com/samdwyer/caves/internal/rng"
	"github.com/samdwyer/caves/internal/world"
)

func newViewer(t *testing.T, seed rng.Seed) (*Viewer, *game.World) {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	screen, err := NewScreenFrom(sim)
	require.NoError(t, err)
	sim.SetSize(80, 30)
	t.Cleanup(screen.Close)

	w, err := game.NewWorld(seed, game.DefaultConfig(), game.WithLogger(logger.Discard()))
	require.NoError(t, err)

	renderer := NewRenderer(screen, gamedata.DefaultPalette(), gamedata.MustLoadItemRegistry(), 1)
	v, err := NewViewer(context.Background(), w, screen, renderer, 0)
	require.NoError(t, err)
	v.WithLogger(logger.Discard())
	return v, w
}

// stepToward places the explorer on a passable tile next to target and
// returns the delta that steps onto target.
func stepToward(t *testing.T, v *Viewer, lvl *world.Level, target world.Pos) (int, int) {
	t.Helper()
	for _, n := range target.Neighbors() {
		if lvl.InBounds(n) && lvl.IsPassable(n.X, n.Y) {
			v.explorer.Pos = n
			return target.X - n.X, target.Y - n.Y
		}
	}
	t.Fatalf("no passable tile next to %s", target)
	return 0, 0
}

func findEntity(t *testing.T, w *game.World, index int, kind entity.Kind) *entity.Entity {
	t.Helper()
	ents, err := w.Entities(context.Background(), index)
	require.NoError(t, err)
	for _, e := range ents {
		if e.Kind == kind {
			return e
		}
	}
	t.Fatalf("no %s on level %d", kind, index)
	return nil
}

func TestViewerStartsAtEntrance(t *testing.T) {
	v, w := newViewer(t, 42)
	lvl, err := w.GetLevel(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 0, v.Explorer().Level)
	assert.Equal(t, lvl.Entrance, v.Explorer().Pos)
	require.NoError(t, v.render(context.Background()))
}

func TestMoveIntoWallIsIgnored(t *testing.T) {
	v, w := newViewer(t, 42)
	ctx := context.Background()
	lvl, err := w.GetLevel(ctx, 0)
	require.NoError(t, err)

	for y := 1; y < lvl.Height-1; y++ {
		for x := 1; x < lvl.Width-1; x++ {
			if lvl.GetTile(x, y) != world.TileFloor || lvl.GetTile(x+1, y) != world.TileWall {
				continue
			}
			v.explorer.Pos = world.Pos{X: x, Y: y}
			v.tryMove(ctx, 1, 0)
			assert.Equal(t, world.Pos{X: x, Y: y}, v.explorer.Pos)
			return
		}
	}
	t.Fatal("no floor tile next to a wall")
}

func TestPickUpKeyAndOpenDoor(t *testing.T) {
	v, w := newViewer(t, 42)
	ctx := context.Background()
	lvl, err := w.GetLevel(ctx, 0)
	require.NoError(t, err)

	key := findEntity(t, w, 0, entity.KindKey)
	door, ok := lvl.DoorByID(key.Unlocks)
	require.True(t, ok)

	// Without the key the door stays shut.
	dx, dy := stepToward(t, v, lvl, door.Pos)
	before := v.explorer.Pos
	v.tryMove(ctx, dx, dy)
	assert.Equal(t, "The door is locked.", v.message)
	assert.Equal(t, world.TileDoorLocked, lvl.TileAt(door.Pos))
	assert.Equal(t, before, v.explorer.Pos)

	dx, dy = stepToward(t, v, lvl, key.Pos)
	v.tryMove(ctx, dx, dy)
	assert.Equal(t, key.Pos, v.explorer.Pos)
	require.Len(t, w.Inventory().Keys, 1)
	_, there, err := w.EntityAt(ctx, 0, key.Pos)
	require.NoError(t, err)
	assert.False(t, there)

	dx, dy = stepToward(t, v, lvl, door.Pos)
	v.tryMove(ctx, dx, dy)
	assert.Equal(t, "You unlock the door.", v.message)
	assert.Equal(t, world.TileDoorUnlocked, lvl.TileAt(door.Pos))
	assert.Empty(t, w.Inventory().Keys)
}

func TestMonsterBlocksTheWay(t *testing.T) {
	v, w := newViewer(t, 42)
	ctx := context.Background()
	lvl, err := w.GetLevel(ctx, 0)
	require.NoError(t, err)

	m := findEntity(t, w, 0, entity.KindMonster)
	dx, dy := stepToward(t, v, lvl, m.Pos)
	before := v.explorer.Pos
	v.tryMove(ctx, dx, dy)

	assert.Equal(t, before, v.explorer.Pos)
	assert.Contains(t, v.message, m.Name)
}

func TestStairs(t *testing.T) {
	v, w := newViewer(t, 42)
	ctx := context.Background()
	first, err := w.GetLevel(ctx, 0)
	require.NoError(t, err)

	v.ascend(ctx)
	assert.Equal(t, 0, v.explorer.Level)

	v.descend(ctx)
	assert.Equal(t, 0, v.explorer.Level, "not standing on the stairs")

	v.explorer.Pos = first.Exit
	v.descend(ctx)
	second, err := w.GetLevel(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, v.explorer.Level)
	assert.Equal(t, second.Entrance, v.explorer.Pos)

	v.ascend(ctx)
	assert.Equal(t, 0, v.explorer.Level)
	assert.Equal(t, first.Exit, v.explorer.Pos)
}

func TestSaveSession(t *testing.T) {
	v, w := newViewer(t, 42)

	v.saveSession()
	assert.Equal(t, "Saving is not configured.", v.message)

	var saved *game.Snapshot
	v.WithSaver(func(snap *game.Snapshot) error {
		saved = snap
		return nil
	})
	v.saveSession()
	require.NotNil(t, saved)
	assert.Equal(t, w.Seed(), saved.Seed)
	assert.Equal(t, "Game saved.", v.message)
}

func TestRenderScaledAndScrolled(t *testing.T) {
	v, w := newViewer(t, 42)
	v.renderer = NewRenderer(v.screen, nil, nil, 2)

	lvl, err := w.GetLevel(context.Background(), 0)
	require.NoError(t, err)
	v.explorer.Pos = lvl.Exit
	assert.NotPanics(t, func() {
		require.NoError(t, v.render(context.Background()))
	})
}

func TestScroll(t *testing.T) {
	assert.Equal(t, 0, scroll(10, 60, 80), "level fits")
	assert.Equal(t, 0, scroll(5, 120, 80))
	assert.Equal(t, 20, scroll(60, 120, 80))
	assert.Equal(t, 40, scroll(119, 120, 80))
}
