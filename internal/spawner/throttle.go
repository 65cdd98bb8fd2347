package spawner

import (
	"sync"
	"time"
)

// DefaultScanDelay is the minimum time between two scans of the same region.
const DefaultScanDelay = 2 * time.Minute

// ScanThrottle remembers when each region of each world was last scanned.
// State is partitioned per world.
type ScanThrottle struct {
	delay time.Duration

	mu     sync.Mutex
	worlds map[int]map[RegionCoord]time.Time
}

// NewScanThrottle returns an empty throttle. A non-positive delay selects
// DefaultScanDelay.
func NewScanThrottle(delay time.Duration) *ScanThrottle {
	if delay <= 0 {
		delay = DefaultScanDelay
	}
	return &ScanThrottle{delay: delay, worlds: make(map[int]map[RegionCoord]time.Time)}
}

// Delay reports the configured scan delay.
func (t *ScanThrottle) Delay() time.Duration {
	return t.delay
}

// IsDue reports whether region is due for a scan at now. A region that was
// never scanned is always due.
func (t *ScanThrottle) IsDue(worldID int, region RegionCoord, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.worlds[worldID][region]
	if !ok {
		return true
	}
	return now.Sub(last).Milliseconds() >= t.delay.Milliseconds()
}

// MarkScanned records a scan of region at now.
func (t *ScanThrottle) MarkScanned(worldID int, region RegionCoord, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	regions := t.worlds[worldID]
	if regions == nil {
		regions = make(map[RegionCoord]time.Time)
		t.worlds[worldID] = regions
	}
	regions[region] = now
}

// Compact drops entries of worldID whose region is not in loaded and returns
// how many were removed.
func (t *ScanThrottle) Compact(worldID int, loaded []RegionCoord) int {
	keep := make(map[RegionCoord]struct{}, len(loaded))
	for _, coord := range loaded {
		keep[coord] = struct{}{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	removed := 0
	for coord := range t.worlds[worldID] {
		if _, ok := keep[coord]; !ok {
			delete(t.worlds[worldID], coord)
			removed++
		}
	}
	return removed
}

// Reset discards all scan history.
func (t *ScanThrottle) Reset() {
	t.mu.Lock()
	t.worlds = make(map[int]map[RegionCoord]time.Time)
	t.mu.Unlock()
}

// Len reports the number of tracked regions across every world.
func (t *ScanThrottle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0
	for _, regions := range t.worlds {
		total += len(regions)
	}
	return total
}

// WorldLen reports the number of tracked regions of one world.
func (t *ScanThrottle) WorldLen(worldID int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.worlds[worldID])
}
