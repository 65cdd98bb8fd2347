package spawner

import (
	"context"
	"strconv"

	"github.com/Overload1252/wowjudo-lootboxes/logging"
)

const (
	// EventStarted is emitted when the scanner loop starts.
	EventStarted logging.EventType = "spawner.started"
	// EventStopped is emitted when the scanner loop exits.
	EventStopped logging.EventType = "spawner.stopped"
	// EventIterationRecovered is emitted when one iteration failed and the loop carried on.
	EventIterationRecovered logging.EventType = "spawner.iteration_recovered"
	// EventPlacementQueued is emitted when a placement request is enqueued.
	EventPlacementQueued logging.EventType = "spawner.placement_queued"
	// EventQueueFull is emitted when the placement queue rejects a request.
	EventQueueFull logging.EventType = "spawner.queue_full"
	// EventRegionsCompacted is emitted when stale throttle entries were removed.
	EventRegionsCompacted logging.EventType = "spawner.regions_compacted"
	// EventPlacementExecuted is emitted when a container was placed in the world.
	EventPlacementExecuted logging.EventType = "spawner.placement_executed"
	// EventPlacementRejected is emitted when a queued request was no longer valid.
	EventPlacementRejected logging.EventType = "spawner.placement_rejected"
)

// WorldRef identifies a world by id.
func WorldRef(worldID int) logging.EntityRef {
	return logging.EntityRef{ID: strconv.Itoa(worldID), Kind: logging.EntityKindWorld}
}

// SchedulerRef identifies the scanner loop.
func SchedulerRef() logging.EntityRef {
	return logging.EntityRef{ID: "scanner", Kind: logging.EntityKindScheduler}
}

// IterationRecoveredPayload carries the recovered failure.
type IterationRecoveredPayload struct {
	WorldID int    `json:"worldId"`
	Error   string `json:"error"`
}

// PlacementPayload describes a placement request.
type PlacementPayload struct {
	X    int `json:"x"`
	Y    int `json:"y"`
	Z    int `json:"z"`
	Tier int `json:"tier"`
}

// PlacementRejectedPayload describes a dropped placement request.
type PlacementRejectedPayload struct {
	PlacementPayload
	Reason string `json:"reason"`
}

// RegionsCompactedPayload reports the number of removed throttle entries.
type RegionsCompactedPayload struct {
	Removed int `json:"removed"`
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, severity logging.Severity, iteration uint64, actor logging.EntityRef, payload any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Tick:     iteration,
		Actor:    actor,
		Severity: severity,
		Category: logging.CategorySpawner,
		Payload:  payload,
	})
}

// Started publishes the scanner start.
func Started(ctx context.Context, pub logging.Publisher) {
	publish(ctx, pub, EventStarted, logging.SeverityInfo, 0, SchedulerRef(), nil)
}

// Stopped publishes the scanner exit.
func Stopped(ctx context.Context, pub logging.Publisher, iteration uint64) {
	publish(ctx, pub, EventStopped, logging.SeverityInfo, iteration, SchedulerRef(), nil)
}

// IterationRecovered publishes a recovered iteration failure.
func IterationRecovered(ctx context.Context, pub logging.Publisher, iteration uint64, payload IterationRecoveredPayload) {
	publish(ctx, pub, EventIterationRecovered, logging.SeverityError, iteration, SchedulerRef(), payload)
}

// PlacementQueued publishes an enqueued placement.
func PlacementQueued(ctx context.Context, pub logging.Publisher, iteration uint64, worldID int, payload PlacementPayload) {
	publish(ctx, pub, EventPlacementQueued, logging.SeverityDebug, iteration, WorldRef(worldID), payload)
}

// QueueFull publishes a rejected enqueue.
func QueueFull(ctx context.Context, pub logging.Publisher, iteration uint64, worldID int, payload PlacementPayload) {
	publish(ctx, pub, EventQueueFull, logging.SeverityWarn, iteration, WorldRef(worldID), payload)
}

// RegionsCompacted publishes a throttle compaction summary.
func RegionsCompacted(ctx context.Context, pub logging.Publisher, iteration uint64, worldID int, payload RegionsCompactedPayload) {
	publish(ctx, pub, EventRegionsCompacted, logging.SeverityDebug, iteration, WorldRef(worldID), payload)
}

// PlacementExecuted publishes a placed container.
func PlacementExecuted(ctx context.Context, pub logging.Publisher, worldID int, payload PlacementPayload) {
	publish(ctx, pub, EventPlacementExecuted, logging.SeverityInfo, 0, WorldRef(worldID), payload)
}

// PlacementRejected publishes a dropped placement request.
func PlacementRejected(ctx context.Context, pub logging.Publisher, worldID int, payload PlacementRejectedPayload) {
	publish(ctx, pub, EventPlacementRejected, logging.SeverityDebug, 0, WorldRef(worldID), payload)
}
