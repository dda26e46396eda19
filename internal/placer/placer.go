// Package placer populates generated levels with items, potions, keys and
// monsters, and locks doors so that every level stays solvable.
package placer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samdwyer/caves/internal/entity"
	"github.com/samdwyer/caves/internal/faults"
	"github.com/samdwyer/caves/internal/gamedata"
	"github.com/samdwyer/caves/internal/logger"
	"github.com/samdwyer/caves/internal/rng"
	"github.com/samdwyer/caves/internal/telemetry"
	"github.com/samdwyer/caves/internal/world"
)

// Placement is the set of entities on one level.
type Placement struct {
	Level    int
	Entities []*entity.Entity
	// LockedDoors holds the ids of the doors locked at placement time.
	LockedDoors []uuid.UUID
}

// ByID returns the entity with the given id.
func (p *Placement) ByID(id uuid.UUID) (*entity.Entity, bool) {
	for _, e := range p.Entities {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// At returns the entity standing on pos.
func (p *Placement) At(pos world.Pos) (*entity.Entity, bool) {
	for _, e := range p.Entities {
		if e.Pos == pos {
			return e, true
		}
	}
	return nil, false
}

// Count returns the number of entities of the given kind.
func (p *Placement) Count(kind entity.Kind) int {
	n := 0
	for _, e := range p.Entities {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Remove deletes the entity with the given id and returns it.
func (p *Placement) Remove(id uuid.UUID) (*entity.Entity, bool) {
	for i, e := range p.Entities {
		if e.ID == id {
			p.Entities = append(p.Entities[:i], p.Entities[i+1:]...)
			return e, true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the placement.
func (p *Placement) Clone() *Placement {
	c := &Placement{
		Level:       p.Level,
		Entities:    make([]*entity.Entity, len(p.Entities)),
		LockedDoors: append([]uuid.UUID(nil), p.LockedDoors...),
	}
	for i, e := range p.Entities {
		c.Entities[i] = e.Clone()
	}
	return c
}

// Overlay returns the entity glyphs keyed by position, for Level.Render.
func (p *Placement) Overlay() map[world.Pos]rune {
	overlay := make(map[world.Pos]rune, len(p.Entities))
	for _, e := range p.Entities {
		overlay[e.Pos] = e.Glyph()
	}
	return overlay
}

// Placer scatters entities over generated levels.
type Placer struct {
	cfg      Config
	monsters *gamedata.MonsterRegistry
	items    *gamedata.ItemRegistry
	log      logrus.FieldLogger
}

// New creates a placer. The registries supply monster and item definitions.
func New(cfg Config, monsters *gamedata.MonsterRegistry, items *gamedata.ItemRegistry) *Placer {
	return &Placer{cfg: cfg, monsters: monsters, items: items, log: logger.Log}
}

// WithLogger returns a copy of the placer that logs to log.
func (p *Placer) WithLogger(log logrus.FieldLogger) *Placer {
	c := *p
	c.log = log
	return &c
}

// Config returns the placement configuration.
func (p *Placer) Config() Config {
	return p.cfg
}

// Place populates lvl and locks its doors. Randomness comes from the
// placement and monster streams of (level, attempt), so placement changes
// never disturb the layout of the same seed.
//
// Every key is put in the start region, the tiles reachable from the entrance
// with all locked doors and the chamber entrance shut, so no key ever sits
// behind the door it opens. When no such selection is found within the attempt
// cap the level is reported unsolvable and lvl is left unlocked.
func (p *Placer) Place(ctx context.Context, lvl *world.Level, svc *rng.Service, attempt int) (*Placement, error) {
	tracer := telemetry.Tracer("placer")
	_, span := tracer.Start(ctx, "level.place")
	defer span.End()

	startTime := time.Now()

	placement, err := p.place(lvl, svc, attempt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "placement failed")
		p.log.WithFields(logrus.Fields{
			"level":   lvl.Index,
			"attempt": attempt,
		}).WithError(err).Debug("level placement failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("level.index", lvl.Index),
		attribute.Int("level.attempt", attempt),
		attribute.Int("place.entities", len(placement.Entities)),
		attribute.Int("place.monsters", placement.Count(entity.KindMonster)),
		attribute.Int("place.locked_doors", len(placement.LockedDoors)),
		attribute.Int64("place.duration_ms", time.Since(startTime).Milliseconds()),
	)
	p.log.WithFields(logrus.Fields{
		"level":        lvl.Index,
		"entities":     len(placement.Entities),
		"locked_doors": len(placement.LockedDoors),
	}).Debug("level populated")

	return placement, nil
}

func (p *Placer) place(lvl *world.Level, svc *rng.Service, attempt int) (*Placement, error) {
	s := &session{
		cfg:      &p.cfg,
		lvl:      lvl,
		seed:     svc.Seed(),
		stream:   svc.Stream(lvl.Index, rng.PurposePlacement, attempt),
		occupied: make(map[world.Pos]bool),
		out:      &Placement{Level: lvl.Index},
	}
	s.findCandidates()

	locked, keyTiles, err := s.chooseLockedDoors()
	if err != nil {
		return nil, err
	}
	s.locked = locked

	// Nothing below can fail on a lockable layout except running out of floor,
	// so doors are locked last.
	for i, door := range locked {
		key := entity.NewKey(door.ID)
		if err := s.put(key, keyTiles[i]); err != nil {
			return nil, err
		}
	}

	if p.cfg.HoldsTreasureKey(lvl.Index) {
		tile, ok := s.pick(s.open)
		if !ok {
			return nil, faults.Unsolvablef(lvl.Index, "no free tile for the treasure key")
		}
		if err := s.put(entity.NewTreasureKey(), tile); err != nil {
			return nil, err
		}
	}

	if err := s.placeItems(p.items); err != nil {
		return nil, err
	}

	monsters := svc.Stream(lvl.Index, rng.PurposeMonsters, attempt)
	placed := s.placeMonsters(p.monsters, monsters)
	if want := p.cfg.MonsterCount(lvl.Index); placed < want {
		p.log.WithFields(logrus.Fields{
			"level":  lvl.Index,
			"placed": placed,
			"wanted": want,
		}).Debug("rooms too small for monster density")
	}

	for _, door := range locked {
		if err := lvl.LockDoor(door.Pos); err != nil {
			return nil, err
		}
		s.out.LockedDoors = append(s.out.LockedDoors, door.ID)
	}

	if err := Solvable(lvl, s.out); err != nil {
		for _, door := range locked {
			_ = lvl.UnlockDoor(door.Pos)
		}
		return nil, err
	}
	return s.out, nil
}

// session is the working state of one placement.
type session struct {
	cfg    *Config
	lvl    *world.Level
	seed   rng.Seed
	stream *rng.Stream

	occupied map[world.Pos]bool
	locked   []world.Door
	counts   [entity.KindMonster + 1]int
	out      *Placement

	// open lists every tile an entity may stand on, row-major.
	open []world.Pos
	// chamber marks the tiles behind the chamber entrance.
	chamber *world.Region
}

// findCandidates collects floor tiles that are not stairs, not inside the
// treasure chamber and not next to a chokepoint or stairs.
func (s *session) findCandidates() {
	lvl := s.lvl

	if lvl.HasChamber {
		outside := lvl.Reachable(lvl.Entrance, func(p world.Pos) bool { return p == lvl.ChamberEntrance })
		s.chamber = lvl.Reachable(lvl.Rooms[lvl.ChamberRoom].CenterPos(), func(p world.Pos) bool {
			return outside.Contains(p) || p == lvl.ChamberEntrance
		})
	}

	for y := 0; y < lvl.Height; y++ {
		for x := 0; x < lvl.Width; x++ {
			p := world.Pos{X: x, Y: y}
			if s.allowed(p) {
				s.open = append(s.open, p)
			}
		}
	}
}

func (s *session) allowed(p world.Pos) bool {
	lvl := s.lvl
	if lvl.TileAt(p) != world.TileFloor || s.isStairs(p) {
		return false
	}
	if s.chamber != nil && s.chamber.Contains(p) {
		return false
	}
	for _, n := range p.Neighbors() {
		if lvl.TileAt(n).IsChokepoint() || s.isStairs(n) {
			return false
		}
	}
	return true
}

func (s *session) isStairs(p world.Pos) bool {
	return p == s.lvl.Entrance || (s.lvl.HasExit && p == s.lvl.Exit)
}

// chooseLockedDoors picks the doors to lock and a key tile for each. A
// selection is accepted when the start region has a free tile for every key.
func (s *session) chooseLockedDoors() ([]world.Door, []world.Pos, error) {
	lvl := s.lvl
	want := s.cfg.LockedDoorCount(lvl.Index)
	if want > len(lvl.Doors) {
		want = len(lvl.Doors)
	}
	if want == 0 {
		return nil, nil, nil
	}

	order := make([]int, len(lvl.Doors))
	for attempt := 0; attempt < s.cfg.MaxPlacementAttempts; attempt++ {
		for i := range order {
			order[i] = i
		}
		s.stream.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		chosen := make([]world.Door, want)
		shut := make(map[world.Pos]bool, want+1)
		for i := 0; i < want; i++ {
			chosen[i] = lvl.Doors[order[i]]
			shut[chosen[i].Pos] = true
		}
		if lvl.HasChamber {
			shut[lvl.ChamberEntrance] = true
		}

		start := lvl.Reachable(lvl.Entrance, func(p world.Pos) bool { return shut[p] })
		var pool []world.Pos
		for _, p := range s.open {
			if start.Contains(p) {
				pool = append(pool, p)
			}
		}
		if len(pool) < want {
			continue
		}

		tiles := make([]world.Pos, want)
		for i := range tiles {
			j := s.stream.Intn(len(pool))
			tiles[i] = pool[j]
			pool[j] = pool[len(pool)-1]
			pool = pool[:len(pool)-1]
		}
		return chosen, tiles, nil
	}

	return nil, nil, faults.Unsolvablef(lvl.Index,
		"no selection of %d locked doors leaves room for their keys after %d attempts", want, s.cfg.MaxPlacementAttempts)
}

// placeItems scatters items and potions over the open tiles.
func (s *session) placeItems(items *gamedata.ItemRegistry) error {
	n := s.cfg.Items.Roll(s.stream)
	for i := 0; i < n; i++ {
		def := items.RandomItem(s.stream)
		if def == nil {
			break
		}
		if err := s.putRandom(entity.NewItem(def, 0)); err != nil {
			return err
		}
	}

	n = s.cfg.Potions.Roll(s.stream)
	for i := 0; i < n; i++ {
		def := items.RandomPotion(s.stream)
		if def == nil {
			break
		}
		if err := s.putRandom(entity.NewItem(def, s.cfg.PotionStrength.Roll(s.stream))); err != nil {
			return err
		}
	}
	return nil
}

// placeMonsters puts monsters in rooms, never in the entrance room or the
// treasure chamber, and no more per room than its area allows. It returns
// the number placed.
func (s *session) placeMonsters(registry *gamedata.MonsterRegistry, stream *rng.Stream) int {
	lvl := s.lvl
	want := s.cfg.MonsterCount(lvl.Index)

	capacity := make([]int, len(lvl.Rooms))
	for i, room := range lvl.Rooms {
		if i == lvl.EntranceRoom || (lvl.HasChamber && i == lvl.ChamberRoom) {
			continue
		}
		capacity[i] = int(float64(room.Area()) * s.cfg.MaxRoomMonsterArea)
	}

	placed := 0
	for placed < want {
		var rooms []int
		for i, c := range capacity {
			if c > 0 {
				rooms = append(rooms, i)
			}
		}
		if len(rooms) == 0 {
			break
		}

		i := rng.Choice(stream, rooms)
		room := lvl.Rooms[i]
		var tiles []world.Pos
		for _, p := range s.open {
			if room.Contains(p.X, p.Y) && !s.occupied[p] {
				tiles = append(tiles, p)
			}
		}
		tile, ok := s.monsterTile(stream, tiles)
		if !ok {
			capacity[i] = 0
			continue
		}

		def := registry.SpawnRandom(stream, lvl.Index)
		if def == nil {
			break
		}
		capacity[i]--
		if err := s.put(entity.NewMonster(def, lvl.Index), tile); err != nil {
			break
		}
		placed++
	}
	return placed
}

// monsterTile draws tiles until one can hold a monster without cutting the
// entrance off from a key, a collectible, the exit or the chamber entrance.
// Monsters never move, so a blocked path would stay blocked.
func (s *session) monsterTile(stream *rng.Stream, tiles []world.Pos) (world.Pos, bool) {
	for len(tiles) > 0 {
		j := stream.Intn(len(tiles))
		tile := tiles[j]
		if solvable(s.lvl, s.out.Entities, s.locked, map[world.Pos]bool{tile: true}) == nil {
			return tile, true
		}
		tiles[j] = tiles[len(tiles)-1]
		tiles = tiles[:len(tiles)-1]
	}
	return world.Pos{}, false
}

// pick returns a random unoccupied tile from candidates.
func (s *session) pick(candidates []world.Pos) (world.Pos, bool) {
	free := make([]world.Pos, 0, len(candidates))
	for _, p := range candidates {
		if !s.occupied[p] {
			free = append(free, p)
		}
	}
	if len(free) == 0 {
		return world.Pos{}, false
	}
	return rng.Choice(s.stream, free), true
}

func (s *session) putRandom(e *entity.Entity) error {
	tile, ok := s.pick(s.open)
	if !ok {
		return faults.Unsolvablef(s.lvl.Index, "no free tile for %s", e.Kind)
	}
	return s.put(e, tile)
}

// put assigns the entity its id and tile and records it.
func (s *session) put(e *entity.Entity, tile world.Pos) error {
	if s.occupied[tile] {
		return faults.Inconsistentf("level %d: tile %s already holds an entity", s.lvl.Index, tile)
	}
	e.ID = entity.NewID(s.seed, s.lvl.Index, e.Kind, s.counts[e.Kind])
	e.Pos = tile
	s.counts[e.Kind]++
	s.occupied[tile] = true
	s.out.Entities = append(s.out.Entities, e)
	return nil
}
