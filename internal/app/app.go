package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Overload1252/wowjudo-lootboxes/internal/config"
	"github.com/Overload1252/wowjudo-lootboxes/internal/items"
	"github.com/Overload1252/wowjudo-lootboxes/internal/loot"
	"github.com/Overload1252/wowjudo-lootboxes/internal/loot/filestore"
	servernet "github.com/Overload1252/wowjudo-lootboxes/internal/net"
	"github.com/Overload1252/wowjudo-lootboxes/internal/net/ws"
	"github.com/Overload1252/wowjudo-lootboxes/internal/observability"
	"github.com/Overload1252/wowjudo-lootboxes/internal/spawner"
	"github.com/Overload1252/wowjudo-lootboxes/internal/storage/sqlite"
	"github.com/Overload1252/wowjudo-lootboxes/internal/telemetry"
	"github.com/Overload1252/wowjudo-lootboxes/internal/world"
	"github.com/Overload1252/wowjudo-lootboxes/logging"
	"github.com/Overload1252/wowjudo-lootboxes/logging/lifecycle"
	lootlog "github.com/Overload1252/wowjudo-lootboxes/logging/loot"
	loggingSinks "github.com/Overload1252/wowjudo-lootboxes/logging/sinks"
	spawnerlog "github.com/Overload1252/wowjudo-lootboxes/logging/spawner"
)

const shutdownTimeout = 5 * time.Second

// feedEvents are the event types streamed to websocket subscribers.
var feedEvents = []logging.EventType{
	spawnerlog.EventStarted,
	spawnerlog.EventStopped,
	spawnerlog.EventPlacementExecuted,
	lootlog.EventGranted,
	lootlog.EventGrantFailed,
	lootlog.EventOpenCommandFailed,
}

type Config struct {
	Logger telemetry.Logger
	Env    config.Config
	// Stdout receives the console sink. Defaults to os.Stdout.
	Stdout io.Writer
}

// Service is the wired set of components behind the HTTP surface.
type Service struct {
	env       config.Config
	logger    telemetry.Logger
	router    *logging.Router
	feed      *ws.Feed
	counters  *telemetry.Counters
	loot      *loot.Handler
	store     loot.Store
	registry  *world.Registry
	rewards   *world.Rewards
	queue     *spawner.PlacementQueue
	scheduler *spawner.Scheduler
	executor  *world.Executor
	handler   http.Handler
	closers   []func(context.Context) error
}

// Build wires every component without starting background work. The loot
// tables are loaded from the configured store before Build returns; per-tier
// load failures are logged and do not abort start-up.
func Build(ctx context.Context, cfg Config) (svc *Service, err error) {
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}
	fallbackLogger := log.Default()
	if provider, ok := telemetryLogger.(interface{ StandardLogger() *log.Logger }); ok {
		if candidate := provider.StandardLogger(); candidate != nil {
			fallbackLogger = candidate
		}
	}
	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	env := cfg.Env

	svc = &Service{env: env, logger: telemetryLogger, counters: telemetry.NewCounters()}
	partial := svc
	defer func() {
		if err != nil {
			partial.Close(context.Background())
		}
	}()

	obsCfg := observability.Config{
		EnablePprof:    env.Pprof,
		TraceEndpoint:  env.OTelEndpoint,
		TracingEnabled: env.OTelEnabled,
	}
	shutdownTracing, err := observability.Setup(ctx, obsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}
	svc.closers = append(svc.closers, shutdownTracing)

	svc.feed = ws.NewFeed(fallbackLogger, feedEvents...)
	sinks := map[string]logging.Sink{
		"console": loggingSinks.NewConsole(stdout),
		"feed":    svc.feed,
	}
	logConfig := env.Logging()
	logConfig.EnabledSinks = append(logConfig.EnabledSinks, "feed")
	if logConfig.HasSink("json") {
		file, err := os.OpenFile(logConfig.JSON.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open json log: %w", err)
		}
		sinks["json"] = loggingSinks.NewJSON(file, logConfig.JSON.FlushInterval)
	}
	svc.router, err = logging.NewRouter(logConfig, logging.SystemClock{}, fallbackLogger, sinks)
	if err != nil {
		return nil, fmt.Errorf("failed to construct logging router: %w", err)
	}
	svc.closers = append(svc.closers, svc.router.Close)

	catalog := items.Default()
	svc.loot = loot.NewHandler(loot.HandlerConfig{Tiers: env.Tiers, Catalog: catalog, Publisher: svc.router})

	store, closeStore, err := openStore(env)
	if err != nil {
		return nil, err
	}
	svc.store = store
	if closeStore != nil {
		svc.closers = append(svc.closers, closeStore)
	}
	if err := svc.loot.LoadAll(ctx, store); err != nil {
		telemetryLogger.Printf("loot tables loaded with errors: %v", err)
	}

	template := world.Config{
		Seed:          env.WorldSeed,
		Authoritative: true,
		LoadedRadius:  env.LoadedRadius,
	}
	svc.registry, err = world.Build(env.Worlds, template, world.SpawnConfig{
		BoxesPerChunk: env.BoxesPerChunk,
		ChancePerTier: env.ChancePerTier,
		Disabled:      env.DisabledWorlds,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build worlds: %w", err)
	}
	svc.rewards = world.NewRewards(catalog)

	svc.queue = spawner.NewPlacementQueue(env.QueueCapacity, svc.counters)
	svc.scheduler, err = spawner.NewScheduler(spawner.Config{
		Tiers:     env.Tiers,
		Interval:  env.ScanInterval,
		ScanDelay: env.ScanDelay,
		Compact:   env.CompactThrottle,
		Worlds:    svc.registry,
		Settings:  svc.registry,
		Queue:     svc.queue,
		Publisher: svc.router,
		Metrics:   svc.counters,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to construct scheduler: %w", err)
	}
	svc.executor = world.NewExecutor(svc.registry, svc.queue, svc.router, env.ExecutorInterval)

	svc.handler = servernet.NewHTTPHandler(servernet.HTTPHandlerConfig{
		Context:       ctx,
		Scheduler:     svc.scheduler,
		Queue:         svc.queue,
		Loot:          svc.loot,
		Store:         svc.store,
		Worlds:        svc.registry,
		Rewards:       svc.rewards,
		Feed:          svc.feed,
		Counters:      svc.counters,
		RouterStats:   svc.router.Stats,
		Logger:        telemetryLogger,
		Observability: obsCfg,
	})
	return svc, nil
}

func openStore(env config.Config) (loot.Store, func(context.Context) error, error) {
	switch env.TableStore {
	case config.TableStoreSQLite:
		store, err := sqlite.Open(env.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open table store: %w", err)
		}
		return store, func(context.Context) error { return store.Close() }, nil
	default:
		dir := filestore.ResolveDir(env.BaseDir, env.LootDataPath)
		if !filepath.IsAbs(dir) {
			if abs, err := filepath.Abs(dir); err == nil {
				dir = abs
			}
		}
		return filestore.New(dir), nil, nil
	}
}

// Handler returns the HTTP surface.
func (s *Service) Handler() http.Handler {
	return s.handler
}

// Scheduler exposes the spawner scheduler.
func (s *Service) Scheduler() *spawner.Scheduler {
	return s.scheduler
}

// Registry exposes the simulated worlds.
func (s *Service) Registry() *world.Registry {
	return s.registry
}

// Start launches the scheduler and the placement executor under ctx.
func (s *Service) Start(ctx context.Context) {
	s.scheduler.Start(ctx)
	go s.executor.Run(ctx)
	lifecycle.ServiceStarted(ctx, s.router, lifecycle.ServiceStartedPayload{
		Addr:       s.env.Addr,
		Tiers:      s.env.Tiers,
		TableStore: s.env.TableStore,
		Worlds:     append([]int(nil), s.env.Worlds...),
	})
}

// Close stops the scheduler and releases every resource in reverse order.
func (s *Service) Close(ctx context.Context) error {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Run builds the service, serves HTTP on cfg.Env.Addr and shuts down when ctx
// is cancelled.
func Run(ctx context.Context, cfg Config) error {
	svc, err := Build(ctx, cfg)
	if err != nil {
		return err
	}
	logger := svc.logger

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	svc.Start(runCtx)

	srv := &http.Server{Addr: svc.env.Addr, Handler: svc.handler}
	serveErr := make(chan error, 1)
	go func() {
		logger.Printf("server listening on %s", srv.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	reason := "context cancelled"
	select {
	case <-ctx.Done():
	case err = <-serveErr:
		reason = "server failed"
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		logger.Printf("failed to shut down http server: %v", serr)
	}
	if s := svc.scheduler; s != nil {
		s.Stop()
	}
	lifecycle.ServiceStopped(shutdownCtx, svc.router, lifecycle.ServiceStoppedPayload{Reason: reason})
	if cerr := svc.Close(shutdownCtx); cerr != nil {
		logger.Printf("failed to close service: %v", cerr)
	}

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
