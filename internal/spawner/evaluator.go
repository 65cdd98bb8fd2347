package spawner

import (
	"context"

	"github.com/Overload1252/wowjudo-lootboxes/internal/random"
	"github.com/Overload1252/wowjudo-lootboxes/logging"
	spawnerlog "github.com/Overload1252/wowjudo-lootboxes/logging/spawner"
)

const (
	horizontalAttempts = 3
	verticalBelow      = 5
	verticalAbove      = 5
)

// Evaluator decides, per region, whether and where new containers go.
type Evaluator struct {
	tiers     int
	queue     *PlacementQueue
	publisher logging.Publisher
}

// NewEvaluator returns an evaluator that enqueues into queue.
func NewEvaluator(tiers int, queue *PlacementQueue, publisher logging.Publisher) *Evaluator {
	if tiers < 1 {
		tiers = 1
	}
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &Evaluator{tiers: tiers, queue: queue, publisher: publisher}
}

// EvaluateRegion runs the placement trials for one region and returns the
// number of requests enqueued. Regions already holding BoxesPerChunk or more
// containers are left alone.
func (e *Evaluator) EvaluateRegion(ctx context.Context, iteration uint64, worldID int, region RegionHandle, settings Settings, rng random.Source) int {
	if region.CountContainers() >= settings.BoxesPerChunk {
		return 0
	}
	queued := 0
	for trial := 0; trial < settings.BoxesPerChunk; trial++ {
		tier := rng.Intn(e.tiers)
		if !(chanceFor(settings, tier) > rng.Float64()) {
			continue
		}
		req, ok := e.findPosition(worldID, region, settings, tier, rng)
		if !ok {
			continue
		}
		payload := spawnerlog.PlacementPayload{X: req.X, Y: req.Y, Z: req.Z, Tier: req.Tier}
		if !e.queue.Push(req) {
			spawnerlog.QueueFull(ctx, e.publisher, iteration, worldID, payload)
			continue
		}
		queued++
		spawnerlog.PlacementQueued(ctx, e.publisher, iteration, worldID, payload)
	}
	return queued
}

// findPosition makes up to three horizontal attempts, each scanning ten
// heights from y-5 to y+4 around a random height below the terrain surface.
func (e *Evaluator) findPosition(worldID int, region RegionHandle, settings Settings, tier int, rng random.Source) (PlacementRequest, bool) {
	originX, originZ := region.Coord().Origin()
	for attempt := 0; attempt < horizontalAttempts; attempt++ {
		ox := rng.Intn(RegionSize)
		oz := rng.Intn(RegionSize)
		height := region.HeightAt(ox, oz)
		if height <= 0 {
			continue
		}
		y := rng.Intn(height)
		x, z := originX+ox, originZ+oz
		for candidate := y - verticalBelow; candidate < y+verticalAbove; candidate++ {
			if settings.Validator != nil && settings.Validator.CanSpawnHere(x, candidate, z) {
				return PlacementRequest{WorldID: worldID, X: x, Y: candidate, Z: z, Tier: tier}, true
			}
		}
	}
	return PlacementRequest{}, false
}

func chanceFor(settings Settings, tier int) float64 {
	if tier < 0 || tier >= len(settings.ChancePerTier) {
		return 0
	}
	return settings.ChancePerTier[tier]
}
