package world

import (
	"context"
	"time"

	"github.com/Overload1252/wowjudo-lootboxes/internal/spawner"
	"github.com/Overload1252/wowjudo-lootboxes/logging"
	spawnerlog "github.com/Overload1252/wowjudo-lootboxes/logging/spawner"
)

// DefaultExecutorInterval is how often queued placements are applied.
const DefaultExecutorInterval = 250 * time.Millisecond

// Executor consumes the placement queue and places containers. Every request
// is re-validated because the world may have changed since it was queued.
type Executor struct {
	registry  *Registry
	queue     *spawner.PlacementQueue
	publisher logging.Publisher
	interval  time.Duration
}

// NewExecutor builds an executor polling queue every interval.
func NewExecutor(registry *Registry, queue *spawner.PlacementQueue, publisher logging.Publisher, interval time.Duration) *Executor {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	if interval <= 0 {
		interval = DefaultExecutorInterval
	}
	return &Executor{registry: registry, queue: queue, publisher: publisher, interval: interval}
}

// Run applies queued placements until ctx is cancelled.
func (e *Executor) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.ExecutePending(ctx)
		}
	}
}

// ExecutePending drains the queue once and returns how many containers were
// placed.
func (e *Executor) ExecutePending(ctx context.Context) int {
	placed := 0
	for _, req := range e.queue.Drain() {
		payload := spawnerlog.PlacementPayload{X: req.X, Y: req.Y, Z: req.Z, Tier: req.Tier}
		w, ok := e.registry.World(req.WorldID)
		if !ok {
			spawnerlog.PlacementRejected(ctx, e.publisher, req.WorldID, spawnerlog.PlacementRejectedPayload{PlacementPayload: payload, Reason: "unknown world"})
			continue
		}
		if !w.CanSpawnHere(req.X, req.Y, req.Z) {
			spawnerlog.PlacementRejected(ctx, e.publisher, req.WorldID, spawnerlog.PlacementRejectedPayload{PlacementPayload: payload, Reason: "position no longer valid"})
			continue
		}
		if limit := e.registry.boxesPerChunk(); w.countContainers(RegionOf(req.X, req.Z)) >= limit {
			spawnerlog.PlacementRejected(ctx, e.publisher, req.WorldID, spawnerlog.PlacementRejectedPayload{PlacementPayload: payload, Reason: "region full"})
			continue
		}
		if err := w.PlaceContainer(BlockPos{X: req.X, Y: req.Y, Z: req.Z}, req.Tier); err != nil {
			spawnerlog.PlacementRejected(ctx, e.publisher, req.WorldID, spawnerlog.PlacementRejectedPayload{PlacementPayload: payload, Reason: err.Error()})
			continue
		}
		placed++
		spawnerlog.PlacementExecuted(ctx, e.publisher, req.WorldID, payload)
	}
	return placed
}
