package rng

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"
)

// Seed determines all procedural randomness for a game session.
type Seed uint64

// String returns the decimal form of the seed, which ParseSeed accepts.
func (s Seed) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

// ParseSeed converts user input to a seed. Decimal integers (negative ones
// included) are used as is; any other text is hashed, so "cavern" always maps
// to the same seed.
func ParseSeed(text string) (Seed, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, errors.New("empty seed")
	}
	if v, err := strconv.ParseUint(text, 10, 64); err == nil {
		return Seed(v), nil
	}
	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		return Seed(uint64(v)), nil
	}
	return Seed(xxhash.Sum64String(text)), nil
}

// RandomSeed returns a time-based seed for sessions that did not ask for one.
func RandomSeed() Seed {
	return Seed(uint64(time.Now().UnixNano()))
}

// Bounds is an inclusive [Min, Max] range.
type Bounds struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// Roll returns a value within the bounds.
func (b Bounds) Roll(s *Stream) int {
	return s.Range(b.Min, b.Max)
}

// Valid reports whether the bounds are non-negative and ordered.
func (b Bounds) Valid() bool {
	return b.Min >= 0 && b.Min <= b.Max
}

// Contains reports whether v lies within the bounds.
func (b Bounds) Contains(v int) bool {
	return v >= b.Min && v <= b.Max
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%d,%d]", b.Min, b.Max)
}

// UnmarshalYAML accepts either {min: 3, max: 6} or the short form [3, 6].
func (b *Bounds) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var pair []int
		if err := value.Decode(&pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("bounds: expected [min, max], got %d values", len(pair))
		}
		b.Min, b.Max = pair[0], pair[1]
		return nil
	}

	type plain Bounds
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*b = Bounds(p)
	return nil
}
