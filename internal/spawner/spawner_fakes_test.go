package spawner

import (
	"math/rand"
	"sync"
	"time"

	"github.com/Overload1252/wowjudo-lootboxes/internal/random"
)

type fakeRegion struct {
	coord      RegionCoord
	height     int
	containers int
	heightHits int
	panicMsg   string
}

func (r *fakeRegion) Coord() RegionCoord { return r.coord }

func (r *fakeRegion) HeightAt(x, z int) int {
	if r.panicMsg != "" {
		panic(r.panicMsg)
	}
	r.heightHits++
	return r.height
}

func (r *fakeRegion) CountContainers() int { return r.containers }

type fakeWorld struct {
	id            int
	authoritative bool
	regions       []*fakeRegion
	rng           random.Source
}

func newFakeWorld(id int, regions ...*fakeRegion) *fakeWorld {
	return &fakeWorld{id: id, authoritative: true, regions: regions, rng: rand.New(rand.NewSource(int64(id) + 11))}
}

func (w *fakeWorld) ID() int             { return w.id }
func (w *fakeWorld) Authoritative() bool { return w.authoritative }
func (w *fakeWorld) Random() random.Source {
	return w.rng
}

func (w *fakeWorld) LoadedRegions() []RegionHandle {
	out := make([]RegionHandle, 0, len(w.regions))
	for _, r := range w.regions {
		out = append(out, r)
	}
	return out
}

type fakeProvider struct {
	mu       sync.Mutex
	worlds   []*fakeWorld
	settings map[int]Settings
	visits   []int
}

func (p *fakeProvider) ActiveWorlds() []WorldHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]WorldHandle, 0, len(p.worlds))
	for _, w := range p.worlds {
		out = append(out, w)
	}
	return out
}

func (p *fakeProvider) SpawnSettings(worldID int) (Settings, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visits = append(p.visits, worldID)
	settings, ok := p.settings[worldID]
	return settings, ok
}

func (p *fakeProvider) visited() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.visits...)
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func acceptAll() Validator {
	return ValidatorFunc(func(x, y, z int) bool { return true })
}

func certainSettings(boxes int) Settings {
	return Settings{
		BoxesPerChunk: boxes,
		ChancePerTier: []float64{1, 1, 1, 1, 1},
		Validator:     acceptAll(),
	}
}
