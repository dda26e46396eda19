// Package game provides the world model: lazily generated levels, the
// entities on them, the explorer's inventory and treasure-key progression.
package game

import (
	"context"
	"errors"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/samdwyer/caves/internal/entity"
	"github.com/samdwyer/caves/internal/faults"
	"github.com/samdwyer/caves/internal/gamedata"
	"github.com/samdwyer/caves/internal/logger"
	"github.com/samdwyer/caves/internal/placer"
	"github.com/samdwyer/caves/internal/progression"
	"github.com/samdwyer/caves/internal/rng"
	"github.com/samdwyer/caves/internal/telemetry"
	"github.com/samdwyer/caves/internal/world"
)

// levelState is a generated level together with what is on it.
type levelState struct {
	level     *world.Level
	placement *placer.Placement
}

// World owns every level of one seeded game plus the progression state.
//
// Levels are generated on first access and cached; concurrent requests for
// the same index collapse into a single generation. Mutations (collecting,
// unlocking, restoring) are serialized by one lock.
type World struct {
	seed   rng.Seed
	rng    *rng.Service
	cfg    Config
	gen    *world.Generator
	placer *placer.Placer
	log    logrus.FieldLogger

	group   singleflight.Group
	cacheMu sync.RWMutex
	levels  map[int]*levelState

	generations atomic.Int64

	mu        sync.Mutex
	progress  *progression.Tracker
	keys      []*entity.Entity // held ordinary keys
	items     []*entity.Entity // collected items and potions
	collected map[int][]uuid.UUID
	unlocked  map[int][]world.Pos
}

// Option configures a World.
type Option func(*options)

type options struct {
	log      logrus.FieldLogger
	monsters *gamedata.MonsterRegistry
	items    *gamedata.ItemRegistry
}

// WithLogger sets the logger used by the world, the generator and the placer.
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) { o.log = log }
}

// WithRegistries replaces the embedded monster and item tables.
func WithRegistries(monsters *gamedata.MonsterRegistry, items *gamedata.ItemRegistry) Option {
	return func(o *options) {
		o.monsters = monsters
		o.items = items
	}
}

// NewWorld validates the configuration and creates an empty world for seed.
// No level is generated until it is requested.
func NewWorld(seed rng.Seed, cfg Config, opts ...Option) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{log: logger.Log}
	for _, opt := range opts {
		opt(&o)
	}
	if o.monsters == nil {
		monsters, err := gamedata.LoadMonsterRegistry()
		if err != nil {
			return nil, faults.InvalidConfigf("monster table: %v", err)
		}
		o.monsters = monsters
	}
	if o.items == nil {
		items, err := gamedata.LoadItemRegistry()
		if err != nil {
			return nil, faults.InvalidConfigf("item table: %v", err)
		}
		o.items = items
	}

	gen, err := world.NewGenerator(cfg.Layout)
	if err != nil {
		return nil, err
	}
	progress, err := progression.New(cfg.Placement.TotalTreasureKeys())
	if err != nil {
		return nil, err
	}

	log := o.log.WithField("seed", seed.String())
	return &World{
		seed:      seed,
		rng:       rng.New(seed),
		cfg:       cfg,
		gen:       gen.WithLogger(log),
		placer:    placer.New(cfg.Placement, o.monsters, o.items).WithLogger(log),
		log:       log,
		levels:    make(map[int]*levelState),
		progress:  progress,
		collected: make(map[int][]uuid.UUID),
		unlocked:  make(map[int][]world.Pos),
	}, nil
}

// Seed returns the world seed.
func (w *World) Seed() rng.Seed {
	return w.seed
}

// Config returns the world configuration.
func (w *World) Config() Config {
	return w.cfg
}

// LevelCount returns the number of levels in the game.
func (w *World) LevelCount() int {
	return w.cfg.Layout.Levels
}

// GetLevel returns the level at index, generating and caching it on first
// access. The returned level is shared: treat it as read-only and change it
// only through the world's commands.
//
// Generation is retried with a fresh attempt counter up to MaxRegenerations
// times. If every attempt fails the last failure is returned and nothing is
// cached, so a later call starts over.
func (w *World) GetLevel(ctx context.Context, index int) (*world.Level, error) {
	st, err := w.state(ctx, index)
	if err != nil {
		return nil, err
	}
	return st.level, nil
}

func (w *World) state(ctx context.Context, index int) (*levelState, error) {
	if index < 0 || index >= w.cfg.Layout.Levels {
		return nil, faults.NotFoundf(index, "level index outside [0,%d)", w.cfg.Layout.Levels)
	}
	if st := w.cached(index); st != nil {
		return st, nil
	}

	v, err, _ := w.group.Do(strconv.Itoa(index), func() (interface{}, error) {
		// Another caller may have finished between the cache check and Do
		if st := w.cached(index); st != nil {
			return st, nil
		}
		st, err := w.generate(ctx, index)
		if err != nil {
			return nil, err
		}

		w.cacheMu.Lock()
		defer w.cacheMu.Unlock()
		if existing, ok := w.levels[index]; ok {
			return existing, nil
		}
		w.levels[index] = st
		return st, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*levelState), nil
}

func (w *World) cached(index int) *levelState {
	w.cacheMu.RLock()
	defer w.cacheMu.RUnlock()
	return w.levels[index]
}

// generate runs layout and placement for one level, retrying on recoverable
// generation and placement failures.
func (w *World) generate(ctx context.Context, index int) (*levelState, error) {
	tracer := telemetry.Tracer("game")
	ctx, span := tracer.Start(ctx, "world.get_level")
	defer span.End()

	var last error
	for attempt := 0; attempt < w.cfg.MaxRegenerations; attempt++ {
		lvl, err := w.gen.Generate(ctx, w.rng, index, attempt)
		if err == nil {
			var pl *placer.Placement
			pl, err = w.placer.Place(ctx, lvl, w.rng, attempt)
			if err == nil {
				w.generations.Add(1)
				span.SetAttributes(
					attribute.Int("level.index", index),
					attribute.Int("level.attempts", attempt+1),
				)
				w.log.WithFields(logrus.Fields{
					"level":    index,
					"attempt":  attempt,
					"rooms":    len(lvl.Rooms),
					"entities": len(pl.Entities),
				}).Info("level ready")
				return &levelState{level: lvl, placement: pl}, nil
			}
		}

		if !errors.Is(err, faults.ErrGeneration) && !errors.Is(err, faults.ErrUnsolvableLevel) {
			span.RecordError(err)
			return nil, err
		}
		last = err
		w.log.WithFields(logrus.Fields{
			"level":   index,
			"attempt": attempt,
		}).WithError(err).Warn("regenerating level")
	}

	err := faults.Exhausted(index, w.cfg.MaxRegenerations, last)
	span.RecordError(err)
	return nil, err
}

// Pregenerate generates the given levels in parallel, or every level when
// none are named. Levels share nothing but the seed, so each one comes out
// the same as it would on demand.
func (w *World) Pregenerate(ctx context.Context, indices ...int) error {
	if len(indices) == 0 {
		for i := 0; i < w.cfg.Layout.Levels; i++ {
			indices = append(indices, i)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, index := range indices {
		g.Go(func() error {
			_, err := w.state(ctx, index)
			return err
		})
	}
	return g.Wait()
}

// Entities returns copies of the entities still on a level.
func (w *World) Entities(ctx context.Context, index int) ([]*entity.Entity, error) {
	st, err := w.state(ctx, index)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*entity.Entity, len(st.placement.Entities))
	for i, e := range st.placement.Entities {
		out[i] = e.Clone()
	}
	return out, nil
}

// EntityAt returns a copy of the entity standing on pos, if any.
func (w *World) EntityAt(ctx context.Context, index int, pos world.Pos) (*entity.Entity, bool, error) {
	st, err := w.state(ctx, index)
	if err != nil {
		return nil, false, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := st.placement.At(pos)
	if !ok {
		return nil, false, nil
	}
	return e.Clone(), true, nil
}

// CollectKey picks up a key or treasure key. The entity leaves the level and
// the inventory or progression is updated in one step: both happen or
// neither does.
func (w *World) CollectKey(ctx context.Context, index int, id uuid.UUID) (*entity.Entity, error) {
	st, err := w.state(ctx, index)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := st.placement.ByID(id)
	if !ok {
		return nil, faults.NotFoundf(index, "no entity %s on the level", id)
	}
	if !e.IsKey() {
		return nil, faults.InvalidKeyf(index, "%s is not a key", e)
	}
	if err := w.collect(index, st, e); err != nil {
		return nil, err
	}
	return e.Clone(), nil
}

// CollectItem picks up an item or potion.
func (w *World) CollectItem(ctx context.Context, index int, id uuid.UUID) (*entity.Entity, error) {
	st, err := w.state(ctx, index)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	e, ok := st.placement.ByID(id)
	if !ok {
		return nil, faults.NotFoundf(index, "no entity %s on the level", id)
	}
	if e.Kind != entity.KindItem && e.Kind != entity.KindPotion {
		return nil, faults.NotFoundf(index, "%s is not an item", e)
	}
	if err := w.collect(index, st, e); err != nil {
		return nil, err
	}
	return e.Clone(), nil
}

// collect moves e from the level into the inventory. Progression is updated
// first so a rejected treasure key leaves the level untouched.
func (w *World) collect(index int, st *levelState, e *entity.Entity) error {
	switch e.Kind {
	case entity.KindTreasureKey:
		state, err := w.progress.RecordTreasureKey()
		if err != nil {
			return err
		}
		w.log.WithFields(logrus.Fields{
			"level":     index,
			"remaining": w.progress.KeysRemaining(),
			"state":     state.String(),
		}).Info("treasure key collected")
	case entity.KindKey:
		w.keys = append(w.keys, e)
	case entity.KindItem, entity.KindPotion:
		w.items = append(w.items, e)
	default:
		return faults.NotFoundf(index, "%s cannot be collected", e)
	}

	st.placement.Remove(e.ID)
	w.collected[index] = append(w.collected[index], e.ID)
	return nil
}

// UnlockDoor opens the locked door at pos with a held key and consumes the key.
// An already open door is reported as AlreadyUnlocked rather than ignored, and
// nothing changes. A key that is not held or opens a different door is
// reported as InvalidKey.
func (w *World) UnlockDoor(ctx context.Context, index int, pos world.Pos, keyID uuid.UUID) error {
	st, err := w.state(ctx, index)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.unlock(index, st, pos, keyID)
}

func (w *World) unlock(index int, st *levelState, pos world.Pos, keyID uuid.UUID) error {
	lvl := st.level

	door, ok := lvl.DoorAt(pos)
	if !ok {
		if lvl.HasChamber && pos == lvl.ChamberEntrance {
			return faults.InvalidKeyf(index, "the chamber entrance opens only with every treasure key")
		}
		return faults.NotFoundf(index, "no door at %s", pos)
	}
	if lvl.TileAt(pos) == world.TileDoorUnlocked {
		return faults.AlreadyUnlockedf(index, "door at %s is already open", pos)
	}

	held := -1
	for i, k := range w.keys {
		if k.ID == keyID {
			held = i
			break
		}
	}
	if held < 0 {
		return faults.InvalidKeyf(index, "key %s is not held", keyID)
	}
	if w.keys[held].Unlocks != door.ID {
		return faults.InvalidKeyf(index, "key %s does not open the door at %s", keyID, pos)
	}

	if err := lvl.UnlockDoor(pos); err != nil {
		return err
	}
	w.keys = append(w.keys[:held], w.keys[held+1:]...)
	w.unlocked[index] = append(w.unlocked[index], pos)
	return nil
}

// KeysRemaining returns how many treasure keys are still to be collected.
func (w *World) KeysRemaining() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.progress.KeysRemaining()
}

// IsChamberUnlocked reports whether every treasure key has been collected.
func (w *World) IsChamberUnlocked() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.progress.IsChamberUnlocked()
}

// ProgressionState returns the current chamber unlock state.
func (w *World) ProgressionState() progression.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.progress.State()
}

// TotalTreasureKeys returns how many treasure keys the game places in total.
func (w *World) TotalTreasureKeys() int {
	return w.progress.Total()
}

// Inventory is a copy of what the explorer carries.
type Inventory struct {
	Keys         []*entity.Entity
	Items        []*entity.Entity
	TreasureKeys int
}

// Inventory returns a copy of the explorer's inventory.
func (w *World) Inventory() Inventory {
	w.mu.Lock()
	defer w.mu.Unlock()

	inv := Inventory{TreasureKeys: w.progress.Collected()}
	for _, k := range w.keys {
		inv.Keys = append(inv.Keys, k.Clone())
	}
	for _, it := range w.items {
		inv.Items = append(inv.Items, it.Clone())
	}
	return inv
}

// KeyFor returns the held key that opens the given door.
func (w *World) KeyFor(door uuid.UUID) (*entity.Entity, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, k := range w.keys {
		if k.Unlocks == door {
			return k.Clone(), true
		}
	}
	return nil, false
}

// IsPassable reports whether (x, y) on a generated level can be walked on.
// The chamber entrance counts as passable once the chamber is unlocked.
// Levels that have not been generated yet report false.
func (w *World) IsPassable(index, x, y int) bool {
	st := w.cached(index)
	if st == nil {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	lvl := st.level
	if lvl.HasChamber && lvl.ChamberEntrance == (world.Pos{X: x, Y: y}) {
		return w.progress.IsChamberUnlocked()
	}
	return lvl.IsPassable(x, y)
}

// GeneratedLevels returns the indices of the cached levels in ascending order.
func (w *World) GeneratedLevels() []int {
	w.cacheMu.RLock()
	defer w.cacheMu.RUnlock()
	out := make([]int, 0, len(w.levels))
	for i := range w.levels {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
