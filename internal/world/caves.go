package world

import (
	"github.com/aquilax/go-perlin"

	"github.com/samdwyer/caves/internal/rng"
)

// Noise parameters for wall erosion.
const (
	caveAlpha     = 2.0 // Smoothing
	caveBeta      = 2.0 // Frequency
	caveOctaves   = int32(3)
	caveScale     = 0.15
	erosionPasses = 2
)

// erode wears room walls into irregular alcoves. A wall tile opens when the
// noise at its position falls below the erosion threshold and every open tile
// beside it belongs to the same room. That rule never joins two regions, so
// doors stay the only passages between rooms and corridors.
func (b *build) erode(caves *rng.Stream) {
	noise := perlin.NewPerlin(caveAlpha, caveBeta, caveOctaves, caves.Int63())
	threshold := b.cfg.CaveErosion

	for pass := 0; pass < erosionPasses; pass++ {
		for y := 1; y < b.level.Height-1; y++ {
			for x := 1; x < b.level.Width-1; x++ {
				p := Pos{X: x, Y: y}
				i := b.idx(p)
				if b.region[i] != regionWall {
					continue
				}
				owner := b.erosionOwner(p)
				if owner == NoRoom {
					continue
				}
				// Noise2D is within [-1,1]; map it to [0,1]
				v := (noise.Noise2D(float64(x)*caveScale, float64(y)*caveScale) + 1) / 2
				if v >= threshold {
					continue
				}
				b.region[i] = owner
				b.level.setTile(p, TileFloor)
			}
		}
	}
}

// erosionOwner returns the room that would absorb p, or NoRoom if p touches
// no room or more than one region.
func (b *build) erosionOwner(p Pos) int {
	owner := NoRoom
	for _, n := range p.Neighbors() {
		r := b.region[b.idx(n)]
		switch {
		case r == regionWall:
			continue
		case r < 0:
			// Corridors and doorways
			return NoRoom
		case owner == NoRoom:
			owner = r
		case owner != r:
			return NoRoom
		}
	}
	return owner
}
