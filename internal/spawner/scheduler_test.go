package spawner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Overload1252/wowjudo-lootboxes/logging/sinks"
	spawnerlog "github.com/Overload1252/wowjudo-lootboxes/logging/spawner"
)

func newTestScheduler(t *testing.T, provider *fakeProvider, clock Clock, interval time.Duration) (*Scheduler, *PlacementQueue, *sinks.MemorySink) {
	t.Helper()
	queue := NewPlacementQueue(1024, nil)
	sink := sinks.NewMemorySink()
	scheduler, err := NewScheduler(Config{
		Tiers:     5,
		Interval:  interval,
		ScanDelay: 2 * time.Minute,
		Worlds:    provider,
		Settings:  provider,
		Queue:     queue,
		Publisher: sink,
		Clock:     clock,
	})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	return scheduler, queue, sink
}

func TestNewSchedulerRequiresCollaborators(t *testing.T) {
	if _, err := NewScheduler(Config{}); err == nil {
		t.Fatalf("expected error without collaborators")
	}
}

func TestStepThrottlesRegions(t *testing.T) {
	region := &fakeRegion{coord: RegionCoord{X: 1, Z: 1}, height: 64}
	provider := &fakeProvider{
		worlds:   []*fakeWorld{newFakeWorld(0, region)},
		settings: map[int]Settings{0: certainSettings(1)},
	}
	clock := newManualClock()
	scheduler, queue, _ := newTestScheduler(t, provider, clock, time.Second)
	ctx := context.Background()

	if err := scheduler.Step(ctx); err != nil {
		t.Fatalf("step: %v", err)
	}
	if queue.Len() != 1 {
		t.Fatalf("expected one placement, got %d", queue.Len())
	}
	clock.Advance(time.Minute)
	if err := scheduler.Step(ctx); err != nil {
		t.Fatalf("step: %v", err)
	}
	if queue.Len() != 1 {
		t.Fatalf("expected the throttled region to be skipped, got %d", queue.Len())
	}
	clock.Advance(time.Minute)
	if err := scheduler.Step(ctx); err != nil {
		t.Fatalf("step: %v", err)
	}
	if queue.Len() != 2 {
		t.Fatalf("expected a rescan once the delay elapsed, got %d", queue.Len())
	}
}

func TestStepRoundRobinsWorlds(t *testing.T) {
	provider := &fakeProvider{
		worlds:   []*fakeWorld{newFakeWorld(1), newFakeWorld(0), newFakeWorld(-1)},
		settings: map[int]Settings{},
	}
	scheduler, _, _ := newTestScheduler(t, provider, newManualClock(), time.Second)
	for i := 0; i < 4; i++ {
		if err := scheduler.Step(context.Background()); err != nil {
			t.Fatalf("step: %v", err)
		}
	}
	got := provider.visited()
	want := []int{-1, 0, 1, -1}
	if len(got) != len(want) {
		t.Fatalf("visited %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("visited %v, want %v", got, want)
		}
	}
}

func TestStepSkipsIneligibleWorlds(t *testing.T) {
	remote := newFakeWorld(0, &fakeRegion{height: 64})
	remote.authoritative = false
	disabled := newFakeWorld(1, &fakeRegion{height: 64})
	provider := &fakeProvider{
		worlds:   []*fakeWorld{remote, disabled},
		settings: map[int]Settings{0: certainSettings(1)},
	}
	scheduler, queue, _ := newTestScheduler(t, provider, newManualClock(), time.Second)
	for i := 0; i < 4; i++ {
		_ = scheduler.Step(context.Background())
	}
	if queue.Len() != 0 {
		t.Fatalf("expected no placements, got %d", queue.Len())
	}
	if scheduler.Throttle().Len() != 0 {
		t.Fatalf("expected no regions tracked")
	}
}

func TestStepRecoversFromPanics(t *testing.T) {
	broken := &fakeRegion{coord: RegionCoord{X: 5}, panicMsg: "chunk unloaded mid-scan"}
	provider := &fakeProvider{
		worlds:   []*fakeWorld{newFakeWorld(0, broken)},
		settings: map[int]Settings{0: certainSettings(1)},
	}
	scheduler, _, sink := newTestScheduler(t, provider, newManualClock(), time.Second)

	err := scheduler.Step(context.Background())
	var scanErr *TransientScanError
	if !errors.As(err, &scanErr) {
		t.Fatalf("expected TransientScanError, got %v", err)
	}
	if scanErr.WorldID != 0 || scanErr.Iteration != 1 {
		t.Fatalf("unexpected error detail %+v", scanErr)
	}
	if len(sink.EventsOfType(spawnerlog.EventIterationRecovered)) != 1 {
		t.Fatalf("expected recovery event")
	}
	if scheduler.Status().LastError == "" {
		t.Fatalf("expected status to carry the last error")
	}

	broken.panicMsg = ""
	if err := scheduler.Step(context.Background()); err != nil {
		t.Fatalf("expected next iteration to succeed, got %v", err)
	}
}

func TestCompactionDropsUnloadedRegions(t *testing.T) {
	kept := &fakeRegion{coord: RegionCoord{X: 1}, height: 64}
	gone := &fakeRegion{coord: RegionCoord{X: 2}, height: 64}
	world := newFakeWorld(0, kept, gone)
	provider := &fakeProvider{
		worlds:   []*fakeWorld{world},
		settings: map[int]Settings{0: certainSettings(1)},
	}
	queue := NewPlacementQueue(16, nil)
	scheduler, err := NewScheduler(Config{Tiers: 5, Compact: true, Worlds: provider, Settings: provider, Queue: queue, Clock: newManualClock()})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	_ = scheduler.Step(context.Background())
	if scheduler.Throttle().Len() != 2 {
		t.Fatalf("expected 2 tracked regions")
	}
	world.regions = []*fakeRegion{kept}
	_ = scheduler.Step(context.Background())
	if scheduler.Throttle().Len() != 1 {
		t.Fatalf("expected unloaded region to be compacted, got %d", scheduler.Throttle().Len())
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not reached before deadline")
}

func TestStopDuringSleepEndsLoop(t *testing.T) {
	region := &fakeRegion{height: 64}
	provider := &fakeProvider{
		worlds:   []*fakeWorld{newFakeWorld(0, region)},
		settings: map[int]Settings{0: certainSettings(1)},
	}
	clock := newManualClock()
	scheduler, queue, sink := newTestScheduler(t, provider, clock, time.Hour)

	scheduler.Start(context.Background())
	scheduler.Start(context.Background())
	waitFor(t, func() bool { return scheduler.State() == StateSleeping })

	before := queue.Len()
	clock.Advance(time.Hour)
	scheduler.Stop()

	if scheduler.Running() {
		t.Fatalf("expected loop to have exited")
	}
	if scheduler.State() != StateStopped {
		t.Fatalf("expected stopped state, got %v", scheduler.State())
	}
	if queue.Len() != before {
		t.Fatalf("expected no placements after stop")
	}
	if len(sink.EventsOfType(spawnerlog.EventStarted)) != 1 {
		t.Fatalf("expected a single start despite two Start calls")
	}
	if len(sink.EventsOfType(spawnerlog.EventStopped)) != 1 {
		t.Fatalf("expected a stop event")
	}
}

func TestResetClearsThrottleAndRestarts(t *testing.T) {
	region := &fakeRegion{height: 64}
	provider := &fakeProvider{
		worlds:   []*fakeWorld{newFakeWorld(0, region)},
		settings: map[int]Settings{0: certainSettings(1)},
	}
	scheduler, queue, _ := newTestScheduler(t, provider, newManualClock(), time.Hour)

	scheduler.Start(context.Background())
	waitFor(t, func() bool { return scheduler.Status().Iteration >= 1 && scheduler.State() == StateSleeping })
	scheduler.Reset()
	if scheduler.Throttle().Len() != 0 {
		t.Fatalf("expected reset to clear throttle")
	}

	scheduler.Start(context.Background())
	waitFor(t, func() bool { return queue.Len() >= 2 })
	scheduler.Stop()
}

func TestContextCancelStopsLoop(t *testing.T) {
	provider := &fakeProvider{settings: map[int]Settings{}}
	scheduler, _, _ := newTestScheduler(t, provider, newManualClock(), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	scheduler.Start(ctx)
	cancel()
	waitFor(t, func() bool { return !scheduler.Running() })
	if scheduler.State() != StateStopped {
		t.Fatalf("expected stopped state, got %v", scheduler.State())
	}
}
