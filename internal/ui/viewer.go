package ui

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/caves/internal/entity"
	"github.com/samdwyer/caves/internal/game"
	"github.com/samdwyer/caves/internal/logger"
	"github.com/samdwyer/caves/internal/telemetry"
	"github.com/samdwyer/caves/internal/world"
)

// SaveFunc stores a snapshot of the session.
type SaveFunc func(snap *game.Snapshot) error

// Viewer lets an explorer walk the caves: collect keys and items, open
// locked doors with held keys and take the stairs between levels.
type Viewer struct {
	world    *game.World
	screen   *Screen
	renderer *Renderer
	explorer *entity.Explorer
	save     SaveFunc
	log      logrus.FieldLogger

	message string
	running bool
}

// NewViewer places the explorer on the entrance of the given level.
func NewViewer(ctx context.Context, w *game.World, screen *Screen, renderer *Renderer, level int) (*Viewer, error) {
	lvl, err := w.GetLevel(ctx, level)
	if err != nil {
		return nil, err
	}
	return &Viewer{
		world:    w,
		screen:   screen,
		renderer: renderer,
		explorer: entity.NewExplorer(level, lvl.Entrance),
		log:      logger.Log,
		running:  true,
	}, nil
}

// WithSaver enables the save key.
func (v *Viewer) WithSaver(save SaveFunc) *Viewer {
	v.save = save
	return v
}

// WithLogger sets the viewer's logger.
func (v *Viewer) WithLogger(log logrus.FieldLogger) *Viewer {
	v.log = log
	return v
}

// Explorer returns the explorer.
func (v *Viewer) Explorer() *entity.Explorer {
	return v.explorer
}

// Run executes the main loop until the explorer quits.
func (v *Viewer) Run(ctx context.Context) error {
	tracer := telemetry.Tracer("ui")
	_, span := tracer.Start(ctx, "viewer.init")
	span.SetAttributes(
		attribute.Int("explorer.level", v.explorer.Level),
		attribute.Int("explorer.x", v.explorer.Pos.X),
		attribute.Int("explorer.y", v.explorer.Pos.Y),
	)
	span.End()

	v.message = "Arrows move, < and > take stairs, s saves, q quits."
	for v.running {
		if err := v.render(ctx); err != nil {
			v.screen.Close()
			return err
		}
		v.handleInput(ctx)
	}

	v.screen.Close()
	return nil
}

func (v *Viewer) render(ctx context.Context) error {
	lvl, err := v.world.GetLevel(ctx, v.explorer.Level)
	if err != nil {
		return err
	}
	ents, err := v.world.Entities(ctx, v.explorer.Level)
	if err != nil {
		return err
	}
	v.renderer.Render(View{
		Level:    lvl,
		Entities: ents,
		Explorer: v.explorer,
		Status:   v.status(),
		Message:  v.message,
	})
	return nil
}

func (v *Viewer) status() string {
	inv := v.world.Inventory()
	return fmt.Sprintf("Level %d/%d  Keys %d  Items %d  Treasure %d/%d  Chamber %s",
		v.explorer.Level+1, v.world.LevelCount(),
		len(inv.Keys), len(inv.Items),
		inv.TreasureKeys, v.world.TotalTreasureKeys(),
		v.world.ProgressionState())
}

// handleInput processes a single input event.
func (v *Viewer) handleInput(ctx context.Context) {
	ev := v.screen.PollEvent()

	switch ev := ev.(type) {
	case *tcell.EventKey:
		v.handleKeyEvent(ctx, ev)
	case *tcell.EventResize:
		v.screen.Sync()
	case nil:
		// The screen was finalized.
		v.running = false
	}
}

// handleKeyEvent processes keyboard input.
func (v *Viewer) handleKeyEvent(ctx context.Context, ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		v.running = false

	case tcell.KeyUp:
		v.tryMove(ctx, 0, -1)
	case tcell.KeyDown:
		v.tryMove(ctx, 0, 1)
	case tcell.KeyLeft:
		v.tryMove(ctx, -1, 0)
	case tcell.KeyRight:
		v.tryMove(ctx, 1, 0)

	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			v.running = false
		case 'k':
			v.tryMove(ctx, 0, -1)
		case 'j':
			v.tryMove(ctx, 0, 1)
		case 'h':
			v.tryMove(ctx, -1, 0)
		case 'l':
			v.tryMove(ctx, 1, 0)
		case '>':
			v.descend(ctx)
		case '<':
			v.ascend(ctx)
		case 's':
			v.saveSession()
		}
	}
}

// tryMove attempts to move the explorer by the given delta. Bumping a locked
// door with its key in hand opens it.
func (v *Viewer) tryMove(ctx context.Context, dx, dy int) {
	index := v.explorer.Level
	lvl, err := v.world.GetLevel(ctx, index)
	if err != nil {
		v.fail(err)
		return
	}

	target := v.explorer.Target(dx, dy)
	if !lvl.InBounds(target) {
		return
	}

	switch lvl.TileAt(target) {
	case world.TileDoorLocked:
		v.openDoor(ctx, lvl, target)
		return
	case world.TileChamberEntrance:
		if !v.world.IsPassable(index, target.X, target.Y) {
			v.message = fmt.Sprintf("The chamber is sealed. %d treasure keys remain.", v.world.KeysRemaining())
			return
		}
	}

	if !v.world.IsPassable(index, target.X, target.Y) {
		return
	}

	e, ok, err := v.world.EntityAt(ctx, index, target)
	if err != nil {
		v.fail(err)
		return
	}
	if ok && e.Kind == entity.KindMonster {
		v.message = fmt.Sprintf("A %s blocks the way.", e.Name)
		return
	}

	v.explorer.Move(dx, dy)
	v.message = ""
	if ok {
		v.pickUp(ctx, e)
	}
}

func (v *Viewer) openDoor(ctx context.Context, lvl *world.Level, pos world.Pos) {
	door, ok := lvl.DoorAt(pos)
	if !ok {
		return
	}
	key, ok := v.world.KeyFor(door.ID)
	if !ok {
		v.message = "The door is locked."
		return
	}
	if err := v.world.UnlockDoor(ctx, lvl.Index, pos, key.ID); err != nil {
		v.fail(err)
		return
	}
	v.message = "You unlock the door."
}

func (v *Viewer) pickUp(ctx context.Context, e *entity.Entity) {
	var err error
	if e.IsKey() {
		_, err = v.world.CollectKey(ctx, v.explorer.Level, e.ID)
	} else {
		_, err = v.world.CollectItem(ctx, v.explorer.Level, e.ID)
	}
	if err != nil {
		v.fail(err)
		return
	}

	switch e.Kind {
	case entity.KindTreasureKey:
		if v.world.IsChamberUnlocked() {
			v.message = "You pick up the last treasure key. The chamber is open!"
		} else {
			v.message = fmt.Sprintf("You pick up a treasure key. %d remain.", v.world.KeysRemaining())
		}
	case entity.KindKey:
		v.message = "You pick up a key."
	case entity.KindPotion:
		v.message = fmt.Sprintf("You pick up a %s (%d).", e.Name, e.Strength)
	default:
		v.message = fmt.Sprintf("You pick up %s.", e.Name)
	}
}

func (v *Viewer) descend(ctx context.Context) {
	lvl, err := v.world.GetLevel(ctx, v.explorer.Level)
	if err != nil {
		v.fail(err)
		return
	}
	if !lvl.HasExit || v.explorer.Pos != lvl.Exit {
		v.message = "There are no stairs down here."
		return
	}
	next, err := v.world.GetLevel(ctx, lvl.Index+1)
	if err != nil {
		v.fail(err)
		return
	}
	v.explorer.Level = next.Index
	v.explorer.Pos = next.Entrance
	v.message = fmt.Sprintf("You descend to level %d.", next.Index+1)
}

func (v *Viewer) ascend(ctx context.Context) {
	index := v.explorer.Level
	lvl, err := v.world.GetLevel(ctx, index)
	if err != nil {
		v.fail(err)
		return
	}
	if index == 0 || v.explorer.Pos != lvl.Entrance {
		v.message = "There are no stairs up here."
		return
	}
	prev, err := v.world.GetLevel(ctx, index-1)
	if err != nil {
		v.fail(err)
		return
	}
	v.explorer.Level = prev.Index
	v.explorer.Pos = prev.Exit
	v.message = fmt.Sprintf("You climb to level %d.", prev.Index+1)
}

func (v *Viewer) saveSession() {
	if v.save == nil {
		v.message = "Saving is not configured."
		return
	}
	if err := v.save(v.world.Snapshot()); err != nil {
		v.fail(err)
		return
	}
	v.message = "Game saved."
}

func (v *Viewer) fail(err error) {
	v.log.WithError(err).Warn("viewer action failed")
	v.message = err.Error()
}
