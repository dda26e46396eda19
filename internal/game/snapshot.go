package game

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/samdwyer/caves/internal/faults"
	"github.com/samdwyer/caves/internal/rng"
	"github.com/samdwyer/caves/internal/world"
)

// SnapshotVersion is bumped whenever the snapshot layout changes.
const SnapshotVersion = 1

// Snapshot records a session as the seed plus what the explorer changed.
// Levels are not stored: they regenerate identically from the seed.
type Snapshot struct {
	Version      int             `json:"version"`
	Seed         rng.Seed        `json:"seed"`
	Config       uint64          `json:"config"` // Config.Fingerprint of the world
	TreasureKeys int             `json:"treasureKeys"`
	Levels       []LevelSnapshot `json:"levels"`
}

// LevelSnapshot lists the changes made to one level, in the order they happened.
type LevelSnapshot struct {
	Index     int         `json:"index"`
	Collected []uuid.UUID `json:"collected,omitempty"`
	Unlocked  []world.Pos `json:"unlocked,omitempty"`
}

// Snapshot captures the current session.
func (w *World) Snapshot() *Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	touched := make(map[int]bool)
	for i := range w.collected {
		touched[i] = true
	}
	for i := range w.unlocked {
		touched[i] = true
	}
	indices := make([]int, 0, len(touched))
	for i := range touched {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	snap := &Snapshot{
		Version:      SnapshotVersion,
		Seed:         w.seed,
		Config:       w.cfg.Fingerprint(),
		TreasureKeys: w.progress.Collected(),
	}
	for _, i := range indices {
		snap.Levels = append(snap.Levels, LevelSnapshot{
			Index:     i,
			Collected: append([]uuid.UUID(nil), w.collected[i]...),
			Unlocked:  append([]world.Pos(nil), w.unlocked[i]...),
		})
	}
	return snap
}

// Restore rebuilds a world from a snapshot: it regenerates every touched
// level from the seed and replays the recorded pickups and unlocks. A snapshot
// that does not replay cleanly is reported as inconsistent progression.
func Restore(ctx context.Context, snap *Snapshot, cfg Config, opts ...Option) (*World, error) {
	if snap.Version != SnapshotVersion {
		return nil, faults.InvalidConfigf("snapshot version %d, want %d", snap.Version, SnapshotVersion)
	}
	if snap.Config != cfg.Fingerprint() {
		return nil, faults.InvalidConfigf("snapshot was taken with a different configuration")
	}

	w, err := NewWorld(snap.Seed, cfg, opts...)
	if err != nil {
		return nil, err
	}

	for _, ls := range snap.Levels {
		st, err := w.state(ctx, ls.Index)
		if err != nil {
			return nil, err
		}
		if err := w.replay(ls, st); err != nil {
			return nil, err
		}
	}

	if got := w.progress.Collected(); got != snap.TreasureKeys {
		return nil, faults.Inconsistentf("snapshot records %d treasure keys, replay found %d", snap.TreasureKeys, got)
	}
	w.log.WithField("levels", len(snap.Levels)).Info("session restored")
	return w, nil
}

func (w *World) replay(ls LevelSnapshot, st *levelState) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, id := range ls.Collected {
		e, ok := st.placement.ByID(id)
		if !ok {
			return faults.Inconsistentf("snapshot: level %d has no entity %s", ls.Index, id)
		}
		if err := w.collect(ls.Index, st, e); err != nil {
			return faults.Inconsistentf("snapshot: level %d: %v", ls.Index, err)
		}
	}

	for _, pos := range ls.Unlocked {
		door, ok := st.level.DoorAt(pos)
		if !ok {
			return faults.Inconsistentf("snapshot: level %d has no door at %s", ls.Index, pos)
		}
		var key uuid.UUID
		for _, k := range w.keys {
			if k.Unlocks == door.ID {
				key = k.ID
				break
			}
		}
		if err := w.unlock(ls.Index, st, pos, key); err != nil {
			return faults.Inconsistentf("snapshot: level %d: %v", ls.Index, err)
		}
	}
	return nil
}
