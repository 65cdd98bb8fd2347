// Package spawner runs the background region scanner that decides where new
// loot containers should appear and queues placement requests for them.
package spawner

import (
	"github.com/Overload1252/wowjudo-lootboxes/internal/random"
)

// RegionSize is the horizontal edge length of a region in blocks.
const RegionSize = 16

// RegionCoord addresses a region in region units.
type RegionCoord struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// Origin returns the block coordinates of the region's minimum corner.
func (c RegionCoord) Origin() (int, int) {
	return c.X * RegionSize, c.Z * RegionSize
}

// WorldProvider lists the worlds the scanner may visit.
type WorldProvider interface {
	ActiveWorlds() []WorldHandle
}

// WorldHandle is a live world.
type WorldHandle interface {
	ID() int
	// Authoritative reports whether this process owns the world's simulation.
	// Non-authoritative worlds are never scanned.
	Authoritative() bool
	LoadedRegions() []RegionHandle
	// Random is the world's own random stream.
	Random() random.Source
}

// RegionHandle is one loaded region of a world.
type RegionHandle interface {
	Coord() RegionCoord
	// HeightAt returns the terrain height at a local offset in [0, RegionSize).
	HeightAt(x, z int) int
	CountContainers() int
}

// Validator accepts or rejects a candidate block position.
type Validator interface {
	CanSpawnHere(x, y, z int) bool
}

// ValidatorFunc adapts a function into a Validator.
type ValidatorFunc func(x, y, z int) bool

func (f ValidatorFunc) CanSpawnHere(x, y, z int) bool {
	return f(x, y, z)
}

// Settings are the per-world spawn parameters. They are owned by the world
// and read-only to the scanner.
type Settings struct {
	BoxesPerChunk int
	ChancePerTier []float64
	Validator     Validator
}

// SettingsProvider looks up spawn settings. ok is false when spawning is
// disabled for the world.
type SettingsProvider interface {
	SpawnSettings(worldID int) (Settings, bool)
}

// PlacementRequest is a queued decision to create a container.
type PlacementRequest struct {
	WorldID int `json:"world"`
	X       int `json:"x"`
	Y       int `json:"y"`
	Z       int `json:"z"`
	Tier    int `json:"tier"`
}
