// Package world simulates the block worlds the spawner scans: terrain
// height, loaded regions, placed containers and player inventories.
package world

import (
	"strings"

	"github.com/Overload1252/wowjudo-lootboxes/internal/random"
)

const (
	DefaultLoadedRadius = 4
	DefaultBaseHeight   = 64
	DefaultHeightJitter = 12
	DefaultBuildLimit   = 256
)

// Config describes one simulated world.
type Config struct {
	ID            int    `json:"id"`
	Seed          string `json:"seed"`
	Authoritative bool   `json:"authoritative"`
	// LoadedRadius is the region radius around the origin kept loaded.
	LoadedRadius int `json:"loadedRadius"`
	BaseHeight   int `json:"baseHeight"`
	HeightJitter int `json:"heightJitter"`
	BuildLimit   int `json:"buildLimit"`
}

func (cfg Config) normalized() Config {
	normalized := cfg
	normalized.Seed = strings.TrimSpace(normalized.Seed)
	if normalized.Seed == "" {
		normalized.Seed = random.DefaultSeed
	}
	if normalized.LoadedRadius < 0 {
		normalized.LoadedRadius = 0
	}
	if normalized.BaseHeight <= 0 {
		normalized.BaseHeight = DefaultBaseHeight
	}
	if normalized.HeightJitter < 0 {
		normalized.HeightJitter = 0
	}
	if normalized.BuildLimit <= 0 {
		normalized.BuildLimit = DefaultBuildLimit
	}
	if normalized.BaseHeight+normalized.HeightJitter >= normalized.BuildLimit {
		normalized.HeightJitter = max(0, normalized.BuildLimit-normalized.BaseHeight-1)
	}
	return normalized
}

// Normalized returns cfg with defaults applied.
func (cfg Config) Normalized() Config {
	return cfg.normalized()
}

// DefaultConfig returns an authoritative world with the default terrain.
func DefaultConfig(id int) Config {
	return Config{
		ID:            id,
		Seed:          random.DefaultSeed,
		Authoritative: true,
		LoadedRadius:  DefaultLoadedRadius,
		BaseHeight:    DefaultBaseHeight,
		HeightJitter:  DefaultHeightJitter,
		BuildLimit:    DefaultBuildLimit,
	}
}
