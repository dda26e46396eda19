package placer

import (
	"github.com/samdwyer/caves/internal/faults"
	"github.com/samdwyer/caves/internal/rng"
)

// Config holds placement density settings.
type Config struct {
	Items          rng.Bounds `yaml:"items"`
	Potions        rng.Bounds `yaml:"potions"`
	PotionStrength rng.Bounds `yaml:"potion_strength"`

	// Monster count on a level is min(MonstersBase + MonstersPerLevel*depth, MonstersMax).
	MonstersBase     int     `yaml:"monsters_base"`
	MonstersPerLevel float64 `yaml:"monsters_per_level"`
	MonstersMax      int     `yaml:"monsters_max"`
	// MaxRoomMonsterArea caps monsters per room as a fraction of its floor area.
	MaxRoomMonsterArea float64 `yaml:"max_room_monster_area"`

	LockedDoorsBase     int     `yaml:"locked_doors_base"`
	LockedDoorsPerLevel float64 `yaml:"locked_doors_per_level"`
	LockedDoorsMax      int     `yaml:"locked_doors_max"`

	// TreasureKeyLevels lists the levels that hold a treasure key.
	TreasureKeyLevels []int `yaml:"treasure_key_levels"`

	// MaxPlacementAttempts caps how many locked-door selections are tried
	// before the level is reported unsolvable.
	MaxPlacementAttempts int `yaml:"max_placement_attempts"`
}

// DefaultConfig returns placement settings for a game with the given number of levels.
func DefaultConfig(levels int) Config {
	return Config{
		Items:                rng.Bounds{Min: 2, Max: 4},
		Potions:              rng.Bounds{Min: 1, Max: 3},
		PotionStrength:       rng.Bounds{Min: 5, Max: 20},
		MonstersBase:         2,
		MonstersPerLevel:     1,
		MonstersMax:          12,
		MaxRoomMonsterArea:   0.4,
		LockedDoorsBase:      1,
		LockedDoorsPerLevel:  0.5,
		LockedDoorsMax:       4,
		TreasureKeyLevels:    DefaultTreasureKeyLevels(levels),
		MaxPlacementAttempts: 50,
	}
}

// DefaultTreasureKeyLevels puts a treasure key on every even level before the final one.
// A single-level game keeps its one key on level 0.
func DefaultTreasureKeyLevels(levels int) []int {
	if levels == 1 {
		return []int{0}
	}
	var out []int
	for i := 0; i < levels-1; i += 2 {
		out = append(out, i)
	}
	return out
}

// Validate checks the settings against the number of levels in the game.
func (c Config) Validate(levels int) error {
	switch {
	case !c.Items.Valid():
		return faults.InvalidConfigf("items %s must be ordered and non-negative", c.Items)
	case !c.Potions.Valid():
		return faults.InvalidConfigf("potions %s must be ordered and non-negative", c.Potions)
	case !c.PotionStrength.Valid() || c.PotionStrength.Min < 1:
		return faults.InvalidConfigf("potion_strength %s must be ordered with min >= 1", c.PotionStrength)
	case c.MonstersBase < 0 || c.MonstersPerLevel < 0 || c.MonstersMax < c.MonstersBase:
		return faults.InvalidConfigf("monster counts must be non-negative with monsters_max >= monsters_base")
	case c.MaxRoomMonsterArea <= 0 || c.MaxRoomMonsterArea > 1:
		return faults.InvalidConfigf("max_room_monster_area must be within (0,1], got %v", c.MaxRoomMonsterArea)
	case c.LockedDoorsBase < 0 || c.LockedDoorsPerLevel < 0 || c.LockedDoorsMax < c.LockedDoorsBase:
		return faults.InvalidConfigf("locked door counts must be non-negative with locked_doors_max >= locked_doors_base")
	case c.MaxPlacementAttempts < 1:
		return faults.InvalidConfigf("max_placement_attempts must be positive, got %d", c.MaxPlacementAttempts)
	}

	seen := make(map[int]bool, len(c.TreasureKeyLevels))
	for _, level := range c.TreasureKeyLevels {
		if level < 0 || level >= levels {
			return faults.InvalidConfigf("treasure_key_levels: level %d outside [0,%d)", level, levels)
		}
		if seen[level] {
			return faults.InvalidConfigf("treasure_key_levels: level %d listed twice", level)
		}
		seen[level] = true
	}
	if len(c.TreasureKeyLevels) == 0 {
		return faults.InvalidConfigf("treasure_key_levels must name at least one level")
	}
	return nil
}

// HoldsTreasureKey reports whether the level gets a treasure key.
func (c Config) HoldsTreasureKey(level int) bool {
	for _, l := range c.TreasureKeyLevels {
		if l == level {
			return true
		}
	}
	return false
}

// TotalTreasureKeys returns how many treasure keys a game places across all levels.
func (c Config) TotalTreasureKeys() int {
	return len(c.TreasureKeyLevels)
}

// MonsterCount returns the number of monsters wanted at depth. It never
// decreases as depth grows.
func (c Config) MonsterCount(depth int) int {
	return scaled(c.MonstersBase, c.MonstersPerLevel, c.MonstersMax, depth)
}

// LockedDoorCount returns the number of doors to lock at depth. It never
// decreases as depth grows.
func (c Config) LockedDoorCount(depth int) int {
	return scaled(c.LockedDoorsBase, c.LockedDoorsPerLevel, c.LockedDoorsMax, depth)
}

func scaled(base int, perLevel float64, limit, depth int) int {
	if depth < 0 {
		depth = 0
	}
	n := base + int(perLevel*float64(depth))
	if n > limit {
		return limit
	}
	return n
}
