package game

import (
	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"

	"github.com/samdwyer/caves/internal/faults"
	"github.com/samdwyer/caves/internal/placer"
	"github.com/samdwyer/caves/internal/world"
)

// DefaultMaxRegenerations is how many (layout, placement) attempts a level
// gets before its failure is returned to the caller.
const DefaultMaxRegenerations = 10

// Config holds world configuration options.
type Config struct {
	Layout    world.LayoutConfig `yaml:"layout"`
	Placement placer.Config      `yaml:"placement"`

	// MaxRegenerations caps generation attempts per level. Each attempt draws
	// from fresh sub-streams, so a failed layout is not repeated.
	MaxRegenerations int `yaml:"max_regenerations"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	layout := world.DefaultLayoutConfig()
	return Config{
		Layout:           layout,
		Placement:        placer.DefaultConfig(layout.Levels),
		MaxRegenerations: DefaultMaxRegenerations,
	}
}

// Validate checks every section of the configuration.
func (c Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if err := c.Placement.Validate(c.Layout.Levels); err != nil {
		return err
	}
	if c.MaxRegenerations < 1 {
		return faults.InvalidConfigf("max_regenerations must be positive, got %d", c.MaxRegenerations)
	}
	return nil
}

// Fingerprint hashes the configuration. Snapshots record it so a session is
// never restored into a world built with different settings.
func (c Config) Fingerprint() uint64 {
	data, err := yaml.Marshal(c)
	if err != nil {
		return 0
	}
	return xxhash.Sum64(data)
}
