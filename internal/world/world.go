package world

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Overload1252/wowjudo-lootboxes/internal/random"
	"github.com/Overload1252/wowjudo-lootboxes/internal/spawner"
)

var (
	// ErrNoContainer is returned when no container exists at a position.
	ErrNoContainer = errors.New("no container at position")
	// ErrRegionNotLoaded is returned for positions in unloaded regions.
	ErrRegionNotLoaded = errors.New("region not loaded")
	// ErrUnknownWorld is returned for world ids missing from the registry.
	ErrUnknownWorld = errors.New("unknown world")
)

// BlockPos is an absolute block position.
type BlockPos struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// RegionOf returns the region containing the block column.
func RegionOf(x, z int) spawner.RegionCoord {
	return spawner.RegionCoord{X: floorDiv(x, spawner.RegionSize), Z: floorDiv(z, spawner.RegionSize)}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Container is a placed loot container.
type Container struct {
	Pos  BlockPos `json:"pos"`
	Tier int      `json:"tier"`
}

// World is one simulated world. It is safe for concurrent use by the scanner,
// the placement executor and container-open requests.
type World struct {
	cfg     Config
	terrain Terrain
	rng     *random.Locked

	mu         sync.RWMutex
	loaded     map[spawner.RegionCoord]struct{}
	containers map[BlockPos]Container
}

// New builds a world and loads the regions within its loaded radius.
func New(cfg Config) *World {
	cfg = cfg.normalized()
	w := &World{
		cfg:        cfg,
		terrain:    NewTerrain(cfg),
		rng:        random.NewLockedDeterministic(cfg.Seed, fmt.Sprintf("world:%d", cfg.ID)),
		loaded:     make(map[spawner.RegionCoord]struct{}),
		containers: make(map[BlockPos]Container),
	}
	r := cfg.LoadedRadius
	for x := -r; x <= r; x++ {
		for z := -r; z <= r; z++ {
			w.loaded[spawner.RegionCoord{X: x, Z: z}] = struct{}{}
		}
	}
	return w
}

func (w *World) ID() int { return w.cfg.ID }

func (w *World) Authoritative() bool { return w.cfg.Authoritative }

func (w *World) Random() random.Source { return w.rng }

// Config returns the normalized world configuration.
func (w *World) Config() Config { return w.cfg }

// SurfaceY returns the first air block above the column.
func (w *World) SurfaceY(x, z int) int {
	return w.terrain.SurfaceY(x, z)
}

// LoadedRegions lists the loaded regions ordered by coordinate.
func (w *World) LoadedRegions() []spawner.RegionHandle {
	w.mu.RLock()
	coords := make([]spawner.RegionCoord, 0, len(w.loaded))
	for coord := range w.loaded {
		coords = append(coords, coord)
	}
	w.mu.RUnlock()
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].X != coords[j].X {
			return coords[i].X < coords[j].X
		}
		return coords[i].Z < coords[j].Z
	})
	regions := make([]spawner.RegionHandle, len(coords))
	for i, coord := range coords {
		regions[i] = &Region{world: w, coord: coord}
	}
	return regions
}

// LoadRegion marks a region loaded.
func (w *World) LoadRegion(coord spawner.RegionCoord) {
	w.mu.Lock()
	w.loaded[coord] = struct{}{}
	w.mu.Unlock()
}

// UnloadRegion marks a region unloaded. Containers inside it are kept.
func (w *World) UnloadRegion(coord spawner.RegionCoord) {
	w.mu.Lock()
	delete(w.loaded, coord)
	w.mu.Unlock()
}

// IsLoaded reports whether the region holding the column is loaded.
func (w *World) IsLoaded(x, z int) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.loaded[RegionOf(x, z)]
	return ok
}

// CanSpawnHere accepts a position that sits directly on the terrain surface
// inside a loaded region and holds no container yet.
func (w *World) CanSpawnHere(x, y, z int) bool {
	if y < 0 || y >= w.cfg.BuildLimit {
		return false
	}
	if y != w.terrain.SurfaceY(x, z) {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if _, ok := w.loaded[RegionOf(x, z)]; !ok {
		return false
	}
	_, occupied := w.containers[BlockPos{X: x, Y: y, Z: z}]
	return !occupied
}

// PlaceContainer places a container after re-validating the position.
func (w *World) PlaceContainer(pos BlockPos, tier int) error {
	if pos.Y < 0 || pos.Y >= w.cfg.BuildLimit || pos.Y != w.terrain.SurfaceY(pos.X, pos.Z) {
		return fmt.Errorf("position %v is not on the surface", pos)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.loaded[RegionOf(pos.X, pos.Z)]; !ok {
		return ErrRegionNotLoaded
	}
	if _, occupied := w.containers[pos]; occupied {
		return fmt.Errorf("position %v is occupied", pos)
	}
	w.containers[pos] = Container{Pos: pos, Tier: tier}
	return nil
}

// ContainerAt returns the container at pos.
func (w *World) ContainerAt(pos BlockPos) (Container, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.containers[pos]
	return c, ok
}

// TakeContainer removes and returns the container at pos.
func (w *World) TakeContainer(pos BlockPos) (Container, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.containers[pos]
	if !ok {
		return Container{}, ErrNoContainer
	}
	delete(w.containers, pos)
	return c, nil
}

// Containers lists every placed container ordered by position.
func (w *World) Containers() []Container {
	w.mu.RLock()
	out := make([]Container, 0, len(w.containers))
	for _, c := range w.containers {
		out = append(out, c)
	}
	w.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Pos, out[j].Pos
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		return a.Y < b.Y
	})
	return out
}

func (w *World) countContainers(coord spawner.RegionCoord) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	count := 0
	for pos := range w.containers {
		if RegionOf(pos.X, pos.Z) == coord {
			count++
		}
	}
	return count
}

// Region is a loaded region view handed to the scanner.
type Region struct {
	world *World
	coord spawner.RegionCoord
}

func (r *Region) Coord() spawner.RegionCoord { return r.coord }

// HeightAt returns the surface height at a local offset within the region.
func (r *Region) HeightAt(x, z int) int {
	ox, oz := r.coord.Origin()
	return r.world.terrain.SurfaceY(ox+x, oz+z)
}

func (r *Region) CountContainers() int {
	return r.world.countContainers(r.coord)
}

var (
	_ spawner.WorldHandle  = (*World)(nil)
	_ spawner.RegionHandle = (*Region)(nil)
	_ spawner.Validator    = (*World)(nil)
)
