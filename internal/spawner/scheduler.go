package spawner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Overload1252/wowjudo-lootboxes/logging"
	spawnerlog "github.com/Overload1252/wowjudo-lootboxes/logging/spawner"
)

const (
	tracerName = "github.com/Overload1252/wowjudo-lootboxes/internal/spawner"

	// DefaultInterval is the pause between two scanner iterations.
	DefaultInterval = time.Second

	iterationsMetricKey     = "spawner_iterations_total"
	regionsScannedMetricKey = "spawner_regions_scanned_total"
	placementsMetricKey     = "spawner_placements_total"
	recoveredMetricKey      = "spawner_iterations_recovered_total"
)

// State is the scanner loop state.
type State int32

const (
	StateIdle State = iota
	StateScanningWorld
	StateSleeping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanningWorld:
		return "scanning_world"
	case StateSleeping:
		return "sleeping"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// TransientScanError wraps a failure raised inside one iteration. The loop
// logs it and continues with the next iteration.
type TransientScanError struct {
	Iteration uint64
	WorldID   int
	Cause     any
}

func (e *TransientScanError) Error() string {
	return fmt.Sprintf("spawner iteration %d (world %d): %v", e.Iteration, e.WorldID, e.Cause)
}

func (e *TransientScanError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}

// Clock supplies the time used for scan throttling.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Config wires a Scheduler.
type Config struct {
	Tiers    int
	Interval time.Duration
	// ScanDelay is the per-region rescan threshold.
	ScanDelay time.Duration
	// Compact drops throttle entries of regions that are no longer loaded.
	Compact   bool
	Worlds    WorldProvider
	Settings  SettingsProvider
	Queue     *PlacementQueue
	Publisher logging.Publisher
	Tracer    trace.Tracer
	Clock     Clock
	Metrics   Metrics
}

// Scheduler is the background scanner. One goroutine runs the loop and is the
// only writer of throttle state and the only producer into the queue.
type Scheduler struct {
	interval  time.Duration
	compact   bool
	worlds    WorldProvider
	settings  SettingsProvider
	queue     *PlacementQueue
	throttle  *ScanThrottle
	evaluator *Evaluator
	publisher logging.Publisher
	tracer    trace.Tracer
	clock     Clock
	metrics   Metrics

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	state     atomic.Int32
	iteration atomic.Uint64
	lastWorld atomic.Int64
	hasLast   atomic.Bool
	lastError atomic.Pointer[TransientScanError]
}

// NewScheduler constructs an idle scheduler.
func NewScheduler(cfg Config) (*Scheduler, error) {
	if cfg.Worlds == nil {
		return nil, fmt.Errorf("world provider is required")
	}
	if cfg.Settings == nil {
		return nil, fmt.Errorf("settings provider is required")
	}
	if cfg.Queue == nil {
		return nil, fmt.Errorf("placement queue is required")
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = systemClock{}
	}
	return &Scheduler{
		interval:  interval,
		compact:   cfg.Compact,
		worlds:    cfg.Worlds,
		settings:  cfg.Settings,
		queue:     cfg.Queue,
		throttle:  NewScanThrottle(cfg.ScanDelay),
		evaluator: NewEvaluator(cfg.Tiers, cfg.Queue, publisher),
		publisher: publisher,
		tracer:    tracer,
		clock:     clock,
		metrics:   cfg.Metrics,
	}, nil
}

// Throttle exposes the scan throttle.
func (s *Scheduler) Throttle() *ScanThrottle {
	return s.throttle
}

// State reports the current loop state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Running reports whether the loop goroutine is alive.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil
}

// Start launches the loop. Calling Start while the loop runs has no effect.
// The loop stops when ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.state.Store(int32(StateIdle))
	spawnerlog.Started(ctx, s.publisher)
	go s.run(loopCtx, done)
}

// Stop signals the loop and waits for it to exit. It is safe to call when the
// loop is not running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Reset stops the loop and discards all scan history.
func (s *Scheduler) Reset() {
	s.Stop()
	s.throttle.Reset()
	s.hasLast.Store(false)
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer func() {
		s.state.Store(int32(StateStopped))
		s.mu.Lock()
		if s.done == done {
			s.cancel = nil
			s.done = nil
		}
		s.mu.Unlock()
		spawnerlog.Stopped(context.WithoutCancel(ctx), s.publisher, s.iteration.Load())
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		_ = s.Step(ctx)

		s.state.Store(int32(StateSleeping))
		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// Step runs one iteration: it picks the next world round-robin and scans its
// due regions. A panic inside the iteration is recovered and returned as a
// *TransientScanError.
func (s *Scheduler) Step(ctx context.Context) (err error) {
	iteration := s.iteration.Add(1)
	if s.metrics != nil {
		s.metrics.Add(iterationsMetricKey, 1)
	}
	worldID := 0
	defer func() {
		if r := recover(); r != nil {
			scanErr := &TransientScanError{Iteration: iteration, WorldID: worldID, Cause: r}
			s.lastError.Store(scanErr)
			if s.metrics != nil {
				s.metrics.Add(recoveredMetricKey, 1)
			}
			spawnerlog.IterationRecovered(ctx, s.publisher, iteration, spawnerlog.IterationRecoveredPayload{WorldID: worldID, Error: scanErr.Error()})
			err = scanErr
		}
	}()

	world, ok := s.nextWorld()
	if !ok {
		return nil
	}
	worldID = world.ID()
	if !world.Authoritative() {
		return nil
	}
	settings, ok := s.settings.SpawnSettings(worldID)
	if !ok {
		return nil
	}
	s.state.Store(int32(StateScanningWorld))
	s.scanWorld(ctx, iteration, world, settings)
	return nil
}

// nextWorld advances the round-robin cursor over the active worlds ordered by
// id and returns the world after the last one visited.
func (s *Scheduler) nextWorld() (WorldHandle, bool) {
	worlds := s.worlds.ActiveWorlds()
	if len(worlds) == 0 {
		return nil, false
	}
	sort.Slice(worlds, func(i, j int) bool { return worlds[i].ID() < worlds[j].ID() })
	next := worlds[0]
	if s.hasLast.Load() {
		last := int(s.lastWorld.Load())
		for _, world := range worlds {
			if world.ID() > last {
				next = world
				break
			}
		}
	}
	s.lastWorld.Store(int64(next.ID()))
	s.hasLast.Store(true)
	return next, true
}

func (s *Scheduler) scanWorld(ctx context.Context, iteration uint64, world WorldHandle, settings Settings) {
	worldID := world.ID()
	ctx, span := s.tracer.Start(ctx, "spawner.scan_world", trace.WithAttributes(
		attribute.Int("spawner.world_id", worldID),
		attribute.Int64("spawner.iteration", int64(iteration)),
	))
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			span.SetStatus(codes.Error, fmt.Sprint(r))
			panic(r)
		}
	}()

	regions := world.LoadedRegions()
	rng := world.Random()
	scanned, queued := 0, 0
	for _, region := range regions {
		if ctx.Err() != nil {
			break
		}
		if region == nil {
			continue
		}
		coord := region.Coord()
		now := s.clock.Now()
		if !s.throttle.IsDue(worldID, coord, now) {
			continue
		}
		s.throttle.MarkScanned(worldID, coord, now)
		queued += s.evaluator.EvaluateRegion(ctx, iteration, worldID, region, settings, rng)
		scanned++
	}

	if s.compact && ctx.Err() == nil {
		coords := make([]RegionCoord, 0, len(regions))
		for _, region := range regions {
			if region != nil {
				coords = append(coords, region.Coord())
			}
		}
		if removed := s.throttle.Compact(worldID, coords); removed > 0 {
			spawnerlog.RegionsCompacted(ctx, s.publisher, iteration, worldID, spawnerlog.RegionsCompactedPayload{Removed: removed})
		}
	}

	if s.metrics != nil {
		s.metrics.Add(regionsScannedMetricKey, uint64(scanned))
		s.metrics.Add(placementsMetricKey, uint64(queued))
	}
	span.SetAttributes(
		attribute.Int("spawner.regions_loaded", len(regions)),
		attribute.Int("spawner.regions_scanned", scanned),
		attribute.Int("spawner.placements", queued),
	)
}

// Status is a diagnostics snapshot of the scheduler.
type Status struct {
	State          State  `json:"state"`
	Running        bool   `json:"running"`
	Iteration      uint64 `json:"iteration"`
	TrackedRegions int    `json:"trackedRegions"`
	QueueLength    int    `json:"queueLength"`
	QueueCapacity  int    `json:"queueCapacity"`
	LastError      string `json:"lastError,omitempty"`
}

// Status reports the scheduler's current diagnostics.
func (s *Scheduler) Status() Status {
	status := Status{
		State:          s.State(),
		Running:        s.Running(),
		Iteration:      s.iteration.Load(),
		TrackedRegions: s.throttle.Len(),
		QueueLength:    s.queue.Len(),
		QueueCapacity:  s.queue.Capacity(),
	}
	if last := s.lastError.Load(); last != nil {
		status.LastError = last.Error()
	}
	return status
}
