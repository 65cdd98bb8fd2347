package world

import (
	"fmt"

	"github.com/Overload1252/wowjudo-lootboxes/internal/random"
)

// Terrain is a deterministic column heightmap derived from the world seed.
type Terrain struct {
	seed   int64
	base   int
	jitter int
}

// NewTerrain builds the heightmap for cfg.
func NewTerrain(cfg Config) Terrain {
	cfg = cfg.normalized()
	return Terrain{
		seed:   random.DeterministicSeedValue(cfg.Seed, fmt.Sprintf("terrain:%d", cfg.ID)),
		base:   cfg.BaseHeight,
		jitter: cfg.HeightJitter,
	}
}

// SurfaceY returns the height of the first air block above column (x, z).
func (t Terrain) SurfaceY(x, z int) int {
	if t.jitter == 0 {
		return t.base
	}
	h := uint64(t.seed)
	h ^= uint64(int64(x)) * 0x9E3779B97F4A7C15
	h ^= uint64(int64(z)) * 0xC2B2AE3D27D4EB4F
	h ^= h >> 33
	h *= 0xFF51AFD7ED558CCD
	h ^= h >> 33
	return t.base + int(h%uint64(t.jitter+1))
}
