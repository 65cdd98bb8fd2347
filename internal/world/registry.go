package world

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Overload1252/wowjudo-lootboxes/internal/spawner"
)

// SpawnConfig holds the spawn parameters shared by every enabled world.
type SpawnConfig struct {
	BoxesPerChunk int
	ChancePerTier []float64
	// Disabled lists worlds that never receive containers.
	Disabled []int
}

// Registry owns the active worlds and their spawn settings. It implements
// spawner.WorldProvider and spawner.SettingsProvider.
type Registry struct {
	mu       sync.RWMutex
	worlds   map[int]*World
	spawn    SpawnConfig
	disabled map[int]bool
}

// NewRegistry returns an empty registry.
func NewRegistry(spawn SpawnConfig) *Registry {
	disabled := make(map[int]bool, len(spawn.Disabled))
	for _, id := range spawn.Disabled {
		disabled[id] = true
	}
	spawn.ChancePerTier = append([]float64(nil), spawn.ChancePerTier...)
	return &Registry{worlds: make(map[int]*World), spawn: spawn, disabled: disabled}
}

// Add registers w, replacing any world with the same id.
func (r *Registry) Add(w *World) {
	r.mu.Lock()
	r.worlds[w.ID()] = w
	r.mu.Unlock()
}

// Remove drops the world with id.
func (r *Registry) Remove(id int) {
	r.mu.Lock()
	delete(r.worlds, id)
	r.mu.Unlock()
}

// World looks up a world by id.
func (r *Registry) World(id int) (*World, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.worlds[id]
	return w, ok
}

// Worlds lists the registered worlds ordered by id.
func (r *Registry) Worlds() []*World {
	r.mu.RLock()
	out := make([]*World, 0, len(r.worlds))
	for _, w := range r.worlds {
		out = append(out, w)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (r *Registry) ActiveWorlds() []spawner.WorldHandle {
	worlds := r.Worlds()
	out := make([]spawner.WorldHandle, len(worlds))
	for i, w := range worlds {
		out[i] = w
	}
	return out
}

// SpawnSettings returns the settings for worldID, or false when the world is
// unknown or spawning is disabled there.
func (r *Registry) SpawnSettings(worldID int) (spawner.Settings, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.worlds[worldID]
	if !ok || r.disabled[worldID] {
		return spawner.Settings{}, false
	}
	return spawner.Settings{
		BoxesPerChunk: r.spawn.BoxesPerChunk,
		ChancePerTier: r.spawn.ChancePerTier,
		Validator:     w,
	}, true
}

func (r *Registry) boxesPerChunk() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.spawn.BoxesPerChunk
}

// Build creates one world per id from template, overriding the id.
func Build(ids []int, template Config, spawn SpawnConfig) (*Registry, error) {
	registry := NewRegistry(spawn)
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, fmt.Errorf("duplicate world id %d", id)
		}
		seen[id] = true
		cfg := template
		cfg.ID = id
		registry.Add(New(cfg))
	}
	return registry, nil
}

var (
	_ spawner.WorldProvider    = (*Registry)(nil)
	_ spawner.SettingsProvider = (*Registry)(nil)
)
