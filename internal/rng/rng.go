// Package rng provides the seeded random streams used by level generation.
//
// A Service never hands out a shared generator. Each concern (layout, cave
// decoration, placement) asks for its own Stream keyed by (seed, level,
// purpose, attempt), so changing how one concern draws numbers cannot shift
// the numbers another concern sees for the same seed.
package rng

import (
	"encoding/binary"
	"math/rand"

	"github.com/cespare/xxhash/v2"
)

// Purpose tags an independent generation concern.
type Purpose string

const (
	// PurposeLayout drives room placement and corridor carving.
	PurposeLayout Purpose = "layout"
	// PurposeCaves drives the noise used to erode room walls.
	PurposeCaves Purpose = "caves"
	// PurposePlacement drives item, key and door selection.
	PurposePlacement Purpose = "placement"
	// PurposeMonsters drives monster type and position selection.
	PurposeMonsters Purpose = "monsters"
)

// Service derives streams from a single seed. It holds no mutable state and is
// safe for concurrent use.
type Service struct {
	seed Seed
}

// New creates a service for the given seed.
func New(seed Seed) *Service {
	return &Service{seed: seed}
}

// Seed returns the seed the service was created with.
func (s *Service) Seed() Seed {
	return s.seed
}

// Stream returns a fresh stream for one concern of one level generation attempt.
// Calling Stream twice with the same arguments yields streams that produce the
// same sequence.
func (s *Service) Stream(level int, purpose Purpose, attempt int) *Stream {
	key := StreamKey(s.seed, level, purpose, attempt)
	return &Stream{
		key: key,
		src: rand.New(rand.NewSource(int64(key))),
	}
}

// StreamKey mixes the stream coordinates into a 64-bit source seed.
func StreamKey(seed Seed, level int, purpose Purpose, attempt int) uint64 {
	var buf [8]byte
	d := xxhash.New()

	binary.LittleEndian.PutUint64(buf[:], uint64(seed))
	_, _ = d.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(int64(level)))
	_, _ = d.Write(buf[:])
	_, _ = d.WriteString(string(purpose))
	binary.LittleEndian.PutUint64(buf[:], uint64(int64(attempt)))
	_, _ = d.Write(buf[:])

	return d.Sum64()
}

// Stream is a deterministic sequence of random values. A Stream is not safe
// for concurrent use; each generation step owns its own.
type Stream struct {
	key   uint64
	src   *rand.Rand
	draws int64
}

// Key returns the source seed the stream was built from.
func (s *Stream) Key() uint64 {
	return s.key
}

// Draws returns the number of values drawn so far.
func (s *Stream) Draws() int64 {
	return s.draws
}

// Next returns the next raw 64-bit value.
func (s *Stream) Next() uint64 {
	s.draws++
	return s.src.Uint64()
}

// Int63 returns a non-negative 63-bit value. Used to seed noise generators.
func (s *Stream) Int63() int64 {
	s.draws++
	return s.src.Int63()
}

// Intn returns a value in [0, n). It returns 0 when n <= 0.
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	s.draws++
	return s.src.Intn(n)
}

// Range returns a value in [lo, hi], both inclusive.
func (s *Stream) Range(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + s.Intn(hi-lo+1)
}

// Float64 returns a value in [0.0, 1.0).
func (s *Stream) Float64() float64 {
	s.draws++
	return s.src.Float64()
}

// Chance returns true with probability p.
func (s *Stream) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return s.Float64() < p
}

// Shuffle pseudo-randomizes the order of n elements using swap.
func (s *Stream) Shuffle(n int, swap func(i, j int)) {
	// Fisher-Yates through Intn so every draw is counted.
	for i := n - 1; i > 0; i-- {
		j := s.Intn(i + 1)
		swap(i, j)
	}
}

// Choice returns a random element of items. It panics if items is empty.
func Choice[T any](s *Stream, items []T) T {
	if len(items) == 0 {
		panic("rng: Choice called with no items")
	}
	return items[s.Intn(len(items))]
}

// WeightedIndex returns an index chosen with probability proportional to its weight.
// Non-positive weights are never chosen. It returns -1 if no weight is positive.
func WeightedIndex(s *Stream, weights []int) int {
	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total == 0 {
		return -1
	}

	roll := s.Intn(total)
	cumulative := 0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cumulative += w
		if roll < cumulative {
			return i
		}
	}
	return len(weights) - 1
}
