package world

import (
	"github.com/samdwyer/caves/internal/faults"
	"github.com/samdwyer/caves/internal/rng"
)

const (
	// Default level dimensions
	DefaultWidth  = 60
	DefaultHeight = 40
	DefaultLevels = 10
)

// LayoutConfig holds the level-shape parameters shared by every level.
type LayoutConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// Levels is the number of levels in the game. The last one holds the treasure chamber.
	Levels int `yaml:"levels"`

	// RoomCount bounds how many rooms the generator aims for on each level.
	RoomCount rng.Bounds `yaml:"room_count_range"`
	// RoomSize bounds the floor width and height of each room.
	RoomSize rng.Bounds `yaml:"room_size_range"`
	// RoomMargin is the minimum number of tiles between the floors of two rooms (at least 2,
	// one wall ring each).
	RoomMargin int `yaml:"room_margin"`
	// TunnelWidth is 1 or 2.
	TunnelWidth int `yaml:"tunnel_width"`
	// ExtraConnections is the chance that a room gets a second corridor to its nearest
	// unconnected neighbor, creating loops.
	ExtraConnections float64 `yaml:"extra_connections"`
	// CaveErosion is the noise threshold (0 disables) below which room walls are worn into alcoves.
	CaveErosion float64 `yaml:"cave_erosion"`

	// MaxGenerationAttempts caps room placement tries per level.
	MaxGenerationAttempts int `yaml:"max_generation_attempts"`
}

// DefaultLayoutConfig returns the layout used when no configuration is supplied.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		Width:                 DefaultWidth,
		Height:                DefaultHeight,
		Levels:                DefaultLevels,
		RoomCount:             rng.Bounds{Min: 6, Max: 9},
		RoomSize:              rng.Bounds{Min: 4, Max: 10},
		RoomMargin:            3,
		TunnelWidth:           1,
		ExtraConnections:      0.15,
		CaveErosion:           0.3,
		MaxGenerationAttempts: 2000,
	}
}

// FinalLevel returns the index of the level holding the treasure chamber.
func (c LayoutConfig) FinalLevel() int {
	return c.Levels - 1
}

// Validate checks that the configuration can be used at all. It does not check
// that rooms fit in the grid; that is reported per level as a generation failure.
func (c LayoutConfig) Validate() error {
	switch {
	case c.Width < 8 || c.Height < 8:
		return faults.InvalidConfigf("grid %dx%d is smaller than 8x8", c.Width, c.Height)
	case c.Levels < 1:
		return faults.InvalidConfigf("levels must be at least 1, got %d", c.Levels)
	case !c.RoomCount.Valid() || c.RoomCount.Min < 2:
		// Two rooms are needed to separate the entrance from the exit or the chamber.
		return faults.InvalidConfigf("room_count_range %s must be ordered with min >= 2", c.RoomCount)
	case !c.RoomSize.Valid() || c.RoomSize.Min < 2:
		return faults.InvalidConfigf("room_size_range %s must be ordered with min >= 2", c.RoomSize)
	case c.RoomMargin < 2:
		return faults.InvalidConfigf("room_margin must be at least 2, got %d", c.RoomMargin)
	case c.TunnelWidth < 1 || c.TunnelWidth > 2:
		return faults.InvalidConfigf("tunnel_width must be 1 or 2, got %d", c.TunnelWidth)
	case c.ExtraConnections < 0 || c.ExtraConnections > 1:
		return faults.InvalidConfigf("extra_connections must be within [0,1], got %v", c.ExtraConnections)
	case c.CaveErosion < 0 || c.CaveErosion > 1:
		return faults.InvalidConfigf("cave_erosion must be within [0,1], got %v", c.CaveErosion)
	case c.MaxGenerationAttempts < 1:
		return faults.InvalidConfigf("max_generation_attempts must be positive, got %d", c.MaxGenerationAttempts)
	}
	return nil
}
