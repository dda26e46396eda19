package world

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samdwyer/caves/internal/faults"
	"github.com/samdwyer/caves/internal/logger"
	"github.com/samdwyer/caves/internal/rng"
	"github.com/samdwyer/caves/internal/telemetry"
)

// IDNamespace scopes the name-based UUIDs given to doors and entities, so the
// same seed always yields the same ids.
var IDNamespace = uuid.MustParse("6f1c2a52-8d3e-4b7a-9c41-2e5d7f0a9b13")

// Region markers for tiles that do not belong to a room interior.
const (
	regionWall     = -1
	regionCorridor = -2
	regionDoor     = -3
)

// Generator builds levels from a layout configuration. It holds no mutable
// state, so different levels can be generated concurrently.
type Generator struct {
	cfg LayoutConfig
	log logrus.FieldLogger
}

// NewGenerator validates the configuration and creates a generator.
func NewGenerator(cfg LayoutConfig) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Generator{cfg: cfg, log: logger.Log}, nil
}

// WithLogger returns a copy of the generator that logs to log.
func (g *Generator) WithLogger(log logrus.FieldLogger) *Generator {
	c := *g
	c.log = log
	return &c
}

// Config returns the layout configuration.
func (g *Generator) Config() LayoutConfig {
	return g.cfg
}

// build holds the state of a single level generation.
type build struct {
	cfg    *LayoutConfig
	level  *Level
	layout *rng.Stream
	seed   rng.Seed
	final  bool

	region    []int // per tile: room index, or one of the region markers
	ringOwner []int // per tile: room whose wall ring holds the tile, or NoRoom
}

// Generate creates the layout for one level. The same (seed, index, attempt)
// always produces the same level. A layout that cannot satisfy the constraints
// is reported as a generation failure; a partial map is never returned.
func (g *Generator) Generate(ctx context.Context, svc *rng.Service, index, attempt int) (*Level, error) {
	tracer := telemetry.Tracer("world")
	ctx, span := tracer.Start(ctx, "level.generate")
	defer span.End()

	startTime := time.Now()

	if index < 0 || index >= g.cfg.Levels {
		return nil, faults.NotFoundf(index, "level index outside [0,%d)", g.cfg.Levels)
	}

	b := &build{
		cfg:    &g.cfg,
		level:  newLevel(index, g.cfg.Width, g.cfg.Height),
		layout: svc.Stream(index, rng.PurposeLayout, attempt),
		seed:   svc.Seed(),
		final:  index == g.cfg.FinalLevel(),
	}
	b.level.Attempt = attempt
	b.region = make([]int, g.cfg.Width*g.cfg.Height)
	for i := range b.region {
		b.region[i] = regionWall
	}

	err := b.run(svc.Stream(index, rng.PurposeCaves, attempt))
	if err == nil {
		err = b.level.Validate()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		g.log.WithFields(logrus.Fields{
			"level":   index,
			"attempt": attempt,
		}).WithError(err).Debug("level generation failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("level.index", index),
		attribute.Int("level.attempt", attempt),
		attribute.Int("level.width", b.level.Width),
		attribute.Int("level.height", b.level.Height),
		attribute.Int("level.room_count", len(b.level.Rooms)),
		attribute.Int("level.door_count", len(b.level.Doors)),
		attribute.Int64("level.generation_ms", time.Since(startTime).Milliseconds()),
	)
	g.log.WithFields(logrus.Fields{
		"level":   index,
		"attempt": attempt,
		"rooms":   len(b.level.Rooms),
		"doors":   len(b.level.Doors),
	}).Debug("level generated")

	return b.level, nil
}

// run executes the generation phases in order.
func (b *build) run(caves *rng.Stream) error {
	if err := b.placeRooms(); err != nil {
		return err
	}
	b.indexRings()

	tree := b.spanningTree()
	b.chooseSpecialRooms(tree)

	connections := append(tree, b.extraConnections(tree)...)
	for _, c := range connections {
		if err := b.carveCorridor(c); err != nil {
			return err
		}
	}
	b.level.Connections = connections

	if b.cfg.CaveErosion > 0 {
		b.erode(caves)
	}
	if err := b.collectDoors(); err != nil {
		return err
	}
	b.placeStairs()
	return nil
}

// placeRooms scatters non-overlapping rooms, rejecting and retrying until the
// rolled room count is reached or the attempt cap runs out.
func (b *build) placeRooms() error {
	cfg := b.cfg
	target := cfg.RoomCount.Roll(b.layout)

	attempts := 0
	for len(b.level.Rooms) < target && attempts < cfg.MaxGenerationAttempts {
		attempts++

		w := cfg.RoomSize.Roll(b.layout)
		h := cfg.RoomSize.Roll(b.layout)

		// Floor stays off the border and the wall ring stays on the grid
		maxX := cfg.Width - 1 - w
		maxY := cfg.Height - 1 - h
		if maxX < 1 || maxY < 1 {
			continue
		}

		room := Room{
			X:      b.layout.Range(1, maxX),
			Y:      b.layout.Range(1, maxY),
			Width:  w,
			Height: h,
		}
		if b.overlaps(room) {
			continue
		}
		b.level.Rooms = append(b.level.Rooms, room)
	}

	if len(b.level.Rooms) < cfg.RoomCount.Min {
		return faults.Generationf(b.level.Index,
			"placed %d rooms, room_count_range %s needs %d (room_size_range %s, room_margin %d, grid %dx%d, %d attempts)",
			len(b.level.Rooms), cfg.RoomCount, cfg.RoomCount.Min, cfg.RoomSize, cfg.RoomMargin,
			cfg.Width, cfg.Height, attempts)
	}

	for i, room := range b.level.Rooms {
		b.carveRoom(i, room)
	}
	return nil
}

// overlaps returns true if the room comes closer than the margin to any placed room.
func (b *build) overlaps(room Room) bool {
	grown := room.Expand(b.cfg.RoomMargin)
	for _, other := range b.level.Rooms {
		if grown.Intersects(other) {
			return true
		}
	}
	return false
}

// carveRoom sets all tiles within the room to floor.
func (b *build) carveRoom(index int, room Room) {
	for y := room.Y; y < room.Y+room.Height; y++ {
		for x := room.X; x < room.X+room.Width; x++ {
			p := Pos{X: x, Y: y}
			b.level.setTile(p, TileFloor)
			b.region[b.idx(p)] = index
		}
	}
}

// indexRings records which room's wall ring each tile belongs to.
func (b *build) indexRings() {
	b.ringOwner = make([]int, len(b.region))
	for i := range b.ringOwner {
		b.ringOwner[i] = NoRoom
	}
	for i, room := range b.level.Rooms {
		for _, p := range room.RingPositions() {
			if b.level.InBounds(p) {
				b.ringOwner[b.idx(p)] = i
			}
		}
	}
}

// chooseSpecialRooms picks the entrance, exit and treasure chamber rooms.
func (b *build) chooseSpecialRooms(tree []Connection) {
	lvl := b.level
	lvl.EntranceRoom = b.layout.Intn(len(lvl.Rooms))

	if b.final {
		lvl.HasChamber = true
		lvl.ChamberRoom = b.chamberRoom(tree)
		return
	}

	// The exit goes in the room farthest from the entrance
	entrance := lvl.Rooms[lvl.EntranceRoom]
	best, bestDist := NoRoom, -1
	for i, room := range lvl.Rooms {
		if i == lvl.EntranceRoom {
			continue
		}
		if d := entrance.distance(room); d > bestDist {
			best, bestDist = i, d
		}
	}
	lvl.ExitRoom = best
	lvl.HasExit = true
}

// chamberRoom returns the largest leaf of the spanning tree that is not the
// entrance room. A leaf has a single corridor, so sealing it cannot cut off
// any other room. A tree with two or more nodes always has two leaves.
func (b *build) chamberRoom(tree []Connection) int {
	degree := make([]int, len(b.level.Rooms))
	for _, c := range tree {
		degree[c.A]++
		degree[c.B]++
	}

	best := NoRoom
	for i, room := range b.level.Rooms {
		if degree[i] != 1 || i == b.level.EntranceRoom {
			continue
		}
		if best == NoRoom || room.Area() > b.level.Rooms[best].Area() {
			best = i
		}
	}
	return best
}

// placeStairs puts the entrance and exit at their room centers.
func (b *build) placeStairs() {
	lvl := b.level
	lvl.Entrance = lvl.Rooms[lvl.EntranceRoom].CenterPos()
	if lvl.HasExit {
		lvl.Exit = lvl.Rooms[lvl.ExitRoom].CenterPos()
	}
}

// collectDoors turns every opened ring tile into a door. On the final level the
// chamber's only doorway becomes the chamber entrance instead.
func (b *build) collectDoors() error {
	lvl := b.level
	for i, room := range lvl.Rooms {
		var opened []Pos
		for _, p := range room.RingPositions() {
			if lvl.InBounds(p) && b.region[b.idx(p)] == regionDoor {
				opened = append(opened, p)
			}
		}

		if lvl.HasChamber && i == lvl.ChamberRoom {
			if len(opened) != 1 {
				return faults.Generationf(lvl.Index, "treasure chamber has %d doorways, want 1", len(opened))
			}
			lvl.ChamberEntrance = opened[0]
			lvl.setTile(opened[0], TileChamberEntrance)
			continue
		}

		for _, p := range opened {
			lvl.Doors = append(lvl.Doors, Door{ID: b.doorID(p), Pos: p, Room: i})
		}
	}
	return nil
}

// doorID derives a stable id from the seed, level and position.
func (b *build) doorID(p Pos) uuid.UUID {
	name := fmt.Sprintf("%d/level/%d/door/%d,%d", b.seed, b.level.Index, p.X, p.Y)
	return uuid.NewSHA1(IDNamespace, []byte(name))
}

func (b *build) idx(p Pos) int {
	return p.Y*b.level.Width + p.X
}

func (b *build) onBorder(p Pos) bool {
	return p.X <= 0 || p.Y <= 0 || p.X >= b.level.Width-1 || p.Y >= b.level.Height-1
}
