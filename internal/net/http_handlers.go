package net

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	nethttp "net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/Overload1252/wowjudo-lootboxes/internal/loot"
	"github.com/Overload1252/wowjudo-lootboxes/internal/net/ws"
	"github.com/Overload1252/wowjudo-lootboxes/internal/observability"
	"github.com/Overload1252/wowjudo-lootboxes/internal/spawner"
	"github.com/Overload1252/wowjudo-lootboxes/internal/telemetry"
	"github.com/Overload1252/wowjudo-lootboxes/internal/world"
	"github.com/Overload1252/wowjudo-lootboxes/logging"
)

// HTTPHandlerConfig wires the control surface to the running service.
type HTTPHandlerConfig struct {
	// Context outlives individual requests; the scheduler started through
	// /spawner/start runs under it.
	Context context.Context

	Scheduler *spawner.Scheduler
	Queue     *spawner.PlacementQueue
	Loot      *loot.Handler
	Store     loot.Store
	Worlds    *world.Registry
	Rewards   *world.Rewards
	Feed      *ws.Feed

	Counters    *telemetry.Counters
	RouterStats func() logging.RouterStats

	Logger        telemetry.Logger
	Observability observability.Config
}

func NewHTTPHandler(cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.WrapLogger(log.Default())
	}
	rootCtx := cfg.Context
	if rootCtx == nil {
		rootCtx = context.Background()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, nethttp.StatusOK, diagnostics(cfg))
	})

	spawnerControl := func(action func()) nethttp.HandlerFunc {
		return func(w nethttp.ResponseWriter, r *nethttp.Request) {
			if r.Method != nethttp.MethodPost {
				httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
				return
			}
			if cfg.Scheduler == nil {
				httpError(w, "spawner unavailable", nethttp.StatusServiceUnavailable)
				return
			}
			action()
			writeJSON(w, nethttp.StatusOK, cfg.Scheduler.Status())
		}
	}
	mux.HandleFunc("/spawner/start", spawnerControl(func() { cfg.Scheduler.Start(rootCtx) }))
	mux.HandleFunc("/spawner/stop", spawnerControl(func() { cfg.Scheduler.Stop() }))
	mux.HandleFunc("/spawner/reset", spawnerControl(func() { cfg.Scheduler.Reset() }))

	mux.HandleFunc("/loot/tables/{tier}", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		if cfg.Loot == nil {
			httpError(w, "loot unavailable", nethttp.StatusServiceUnavailable)
			return
		}
		tier, err := strconv.Atoi(r.PathValue("tier"))
		if err != nil || tier < 0 || tier >= cfg.Loot.Tiers() {
			httpError(w, "unknown tier", nethttp.StatusNotFound)
			return
		}
		data, ok, err := cfg.Loot.SaveTier(tier)
		if err != nil {
			logger.Printf("failed to encode tier %d: %v", tier, err)
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		if !ok {
			httpError(w, "tier has no table", nethttp.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	storeAction := func(name string, action func(ctx context.Context) error) nethttp.HandlerFunc {
		return func(w nethttp.ResponseWriter, r *nethttp.Request) {
			if r.Method != nethttp.MethodPost {
				httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
				return
			}
			if cfg.Loot == nil || cfg.Store == nil {
				httpError(w, "loot store unavailable", nethttp.StatusServiceUnavailable)
				return
			}
			response := struct {
				Status string   `json:"status"`
				Errors []string `json:"errors,omitempty"`
			}{Status: "ok"}
			if err := action(r.Context()); err != nil {
				logger.Printf("loot %s finished with errors: %v", name, err)
				response.Status = "partial"
				response.Errors = splitJoined(err)
			}
			writeJSON(w, nethttp.StatusOK, response)
		}
	}
	mux.HandleFunc("/loot/reload", storeAction("reload", func(ctx context.Context) error {
		return cfg.Loot.LoadAll(ctx, cfg.Store)
	}))
	mux.HandleFunc("/loot/save", storeAction("save", func(ctx context.Context) error {
		return cfg.Loot.SaveAll(ctx, cfg.Store)
	}))

	mux.HandleFunc("/containers/open", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		if cfg.Worlds == nil || cfg.Loot == nil || cfg.Rewards == nil {
			httpError(w, "worlds unavailable", nethttp.StatusServiceUnavailable)
			return
		}
		var req world.OpenRequest
		if r.Body != nil {
			defer r.Body.Close()
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
				httpError(w, "invalid payload", nethttp.StatusBadRequest)
				return
			}
		}
		result, err := cfg.Worlds.OpenContainer(r.Context(), cfg.Loot, cfg.Rewards, req)
		switch {
		case errors.Is(err, world.ErrUnknownWorld), errors.Is(err, world.ErrNoContainer):
			httpError(w, err.Error(), nethttp.StatusNotFound)
			return
		case errors.Is(err, loot.ErrUnknownTier):
			httpError(w, err.Error(), nethttp.StatusUnprocessableEntity)
			return
		case err != nil:
			logger.Printf("failed to open container %+v: %v", req, err)
			httpError(w, "failed to open container", nethttp.StatusInternalServerError)
			return
		}
		response := struct {
			Result    loot.OpenResult  `json:"result"`
			Inventory []loot.ItemStack `json:"inventory,omitempty"`
		}{Result: result}
		if req.Player != "" {
			response.Inventory = cfg.Rewards.Inventory(req.Player)
		}
		writeJSON(w, nethttp.StatusOK, response)
	})

	mux.HandleFunc("/worlds/{id}/containers", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		if cfg.Worlds == nil {
			httpError(w, "worlds unavailable", nethttp.StatusServiceUnavailable)
			return
		}
		id, err := strconv.Atoi(r.PathValue("id"))
		if err != nil {
			httpError(w, "invalid world id", nethttp.StatusBadRequest)
			return
		}
		target, ok := cfg.Worlds.World(id)
		if !ok {
			httpError(w, "unknown world", nethttp.StatusNotFound)
			return
		}
		writeJSON(w, nethttp.StatusOK, struct {
			World      int               `json:"world"`
			Containers []world.Container `json:"containers"`
		}{World: id, Containers: target.Containers()})
	})

	if cfg.Feed != nil {
		feedHandler := ws.NewHandler(cfg.Feed, ws.HandlerConfig{Logger: standardLogger(logger)})
		mux.HandleFunc("/ws", feedHandler.Handle)
	}

	if cfg.Observability.EnablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	return mux
}

type diagnosticsPayload struct {
	Status     string               `json:"status"`
	ServerTime int64                `json:"serverTime"`
	Spawner    *spawner.Status      `json:"spawner,omitempty"`
	ScanDelay  int64                `json:"scanDelayMillis,omitempty"`
	Queue      *queueDiagnostics    `json:"queue,omitempty"`
	Loot       *lootDiagnostics     `json:"loot,omitempty"`
	Worlds     []worldDiagnostics   `json:"worlds,omitempty"`
	Feed       *feedDiagnostics     `json:"feed,omitempty"`
	Logging    *logging.RouterStats `json:"logging,omitempty"`
	Counters   map[string]uint64    `json:"counters,omitempty"`
}

type queueDiagnostics struct {
	Length   int `json:"length"`
	Capacity int `json:"capacity"`
}

type lootDiagnostics struct {
	Tiers  int   `json:"tiers"`
	Loaded []int `json:"loaded"`
}

type worldDiagnostics struct {
	ID             int  `json:"id"`
	Authoritative  bool `json:"authoritative"`
	LoadedRegions  int  `json:"loadedRegions"`
	TrackedRegions int  `json:"trackedRegions"`
	Containers     int  `json:"containers"`
}

type feedDiagnostics struct {
	Subscribers int    `json:"subscribers"`
	Sent        uint64 `json:"sent"`
}

func diagnostics(cfg HTTPHandlerConfig) diagnosticsPayload {
	payload := diagnosticsPayload{Status: "ok", ServerTime: time.Now().UnixMilli()}
	if cfg.Scheduler != nil {
		status := cfg.Scheduler.Status()
		payload.Spawner = &status
		payload.ScanDelay = cfg.Scheduler.Throttle().Delay().Milliseconds()
	}
	if cfg.Queue != nil {
		payload.Queue = &queueDiagnostics{Length: cfg.Queue.Len(), Capacity: cfg.Queue.Capacity()}
	}
	if cfg.Loot != nil {
		lootDiag := &lootDiagnostics{Tiers: cfg.Loot.Tiers(), Loaded: []int{}}
		for tier := 0; tier < cfg.Loot.Tiers(); tier++ {
			if cfg.Loot.Table(tier) != nil {
				lootDiag.Loaded = append(lootDiag.Loaded, tier)
			}
		}
		payload.Loot = lootDiag
	}
	if cfg.Worlds != nil {
		for _, w := range cfg.Worlds.Worlds() {
			entry := worldDiagnostics{
				ID:            w.ID(),
				Authoritative: w.Authoritative(),
				LoadedRegions: len(w.LoadedRegions()),
				Containers:    len(w.Containers()),
			}
			if cfg.Scheduler != nil {
				entry.TrackedRegions = cfg.Scheduler.Throttle().WorldLen(w.ID())
			}
			payload.Worlds = append(payload.Worlds, entry)
		}
	}
	if cfg.Feed != nil {
		payload.Feed = &feedDiagnostics{Subscribers: cfg.Feed.Subscribers(), Sent: cfg.Feed.Sent()}
	}
	if cfg.RouterStats != nil {
		stats := cfg.RouterStats()
		payload.Logging = &stats
	}
	if cfg.Counters != nil {
		payload.Counters = cfg.Counters.Snapshot()
	}
	return payload
}

// splitJoined flattens an errors.Join result into its messages.
func splitJoined(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}

func standardLogger(logger telemetry.Logger) *log.Logger {
	if provider, ok := logger.(interface{ StandardLogger() *log.Logger }); ok {
		if candidate := provider.StandardLogger(); candidate != nil {
			return candidate
		}
	}
	return log.Default()
}

func writeJSON(w nethttp.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}
