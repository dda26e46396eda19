// Package config loads the caves configuration from YAML, .env files and the
// environment.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/samdwyer/caves/internal/faults"
	"github.com/samdwyer/caves/internal/game"
	"github.com/samdwyer/caves/internal/placer"
	"github.com/samdwyer/caves/internal/rng"
)

// Environment variables read by the loader.
const (
	EnvConfig      = "CAVES_CONFIG"
	EnvSeed        = "CAVES_SEED"
	EnvDataDir     = "CAVES_DATA_DIR"
	EnvStoragePath = "CAVES_STORAGE_PATH"
	EnvDisplay     = "DISPLAY_SCALE"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
)

// Config is the root configuration of the application.
type Config struct {
	// Game holds the world settings: layout, placement and max_regenerations.
	Game game.Config `yaml:",inline"`

	// Seed is an integer or any string; empty means pick one at random.
	Seed string `yaml:"seed"`
	// DataDir replaces the embedded monster and item tables when set.
	DataDir string `yaml:"data_dir"`

	Storage StorageConfig `yaml:"storage"`
	Display DisplayConfig `yaml:"display"`
}

// StorageConfig selects where session snapshots are kept.
type StorageConfig struct {
	Backend  string `yaml:"backend"` // "file" or "badger"
	Path     string `yaml:"path"`
	Compress bool   `yaml:"compress"`
}

// DisplayConfig holds viewer settings. The core works in grid units only.
type DisplayConfig struct {
	Scale int `yaml:"scale"`
}

// GetScale returns the display scale with priority: config -> DISPLAY_SCALE -> 1.
func (d DisplayConfig) GetScale() int {
	return getIntWithEnvFallback(d.Scale, EnvDisplay, 1)
}

// getIntWithEnvFallback returns a positive value with priority: config -> env -> default.
func getIntWithEnvFallback(configValue int, envVar string, defaultValue int) int {
	if configValue > 0 {
		return configValue
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil && v > 0 {
			return v
		}
	}

	return defaultValue
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Game: game.DefaultConfig(),
		Storage: StorageConfig{
			Backend:  BackendFile,
			Path:     "saves",
			Compress: false,
		},
	}
}

// LoadDotEnv reads a .env file from the working directory if there is one.
func LoadDotEnv() error {
	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Load reads a YAML configuration file over the defaults and applies
// environment overrides. If path is empty CAVES_CONFIG is tried; without
// either the defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, faults.InvalidConfigf("read %s: %v", path, err)
		}
		if err := cfg.parse(data); err != nil {
			return nil, faults.InvalidConfigf("parse %s: %v", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parse decodes YAML over the current values. Unless the file lists them,
// treasure key levels follow the level count it sets.
func (c *Config) parse(data []byte) error {
	c.Game.Placement.TreasureKeyLevels = nil
	if err := yaml.Unmarshal(data, c); err != nil {
		return err
	}
	if c.Game.Placement.TreasureKeyLevels == nil {
		c.Game.Placement.TreasureKeyLevels = placer.DefaultTreasureKeyLevels(c.Game.Layout.Levels)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvSeed); v != "" {
		c.Seed = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(EnvStoragePath); v != "" {
		c.Storage.Path = v
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := c.Game.Validate(); err != nil {
		return err
	}
	switch c.Storage.Backend {
	case BackendFile, BackendBadger:
	default:
		return faults.InvalidConfigf("storage backend must be %q or %q, got %q", BackendFile, BackendBadger, c.Storage.Backend)
	}
	if c.Storage.Path == "" {
		return faults.InvalidConfigf("storage path must be set")
	}
	if c.Display.Scale < 0 {
		return faults.InvalidConfigf("display scale must be positive, got %d", c.Display.Scale)
	}
	return nil
}

// ResolveSeed picks the seed with priority: override -> config/env -> random.
func (c *Config) ResolveSeed(override string) (rng.Seed, error) {
	text := override
	if text == "" {
		text = c.Seed
	}
	if text == "" {
		return rng.RandomSeed(), nil
	}
	seed, err := rng.ParseSeed(text)
	if err != nil {
		return 0, faults.InvalidConfigf("seed %q: %v", text, err)
	}
	return seed, nil
}
