package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Overload1252/wowjudo-lootboxes/internal/config"
	"github.com/Overload1252/wowjudo-lootboxes/internal/telemetry"
)

func testEnv(t *testing.T) config.Config {
	t.Helper()
	env, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	env.BaseDir = t.TempDir()
	env.Worlds = []int{0}
	env.ChancePerTier = []float64{1, 1, 1, 1, 1}
	env.ScanInterval = 5 * time.Millisecond
	env.ExecutorInterval = 5 * time.Millisecond
	env.OTelEndpoint = ""
	return env
}

func build(t *testing.T, env config.Config) *Service {
	t.Helper()
	svc, err := Build(context.Background(), Config{
		Env:    env,
		Logger: telemetry.WrapLogger(log.New(io.Discard, "", 0)),
		Stdout: io.Discard,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(func() { svc.Close(context.Background()) })
	return svc
}

func TestBuildGeneratesDefaultTables(t *testing.T) {
	env := testEnv(t)
	build(t, env)
	for tier := 0; tier < env.Tiers; tier++ {
		path := filepath.Join(env.BaseDir, "loot", fmt.Sprintf("loot_table_tier_%d.json", tier))
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected tier file %s: %v", path, err)
		}
	}
}

func TestServiceSpawnsContainers(t *testing.T) {
	svc := build(t, testEnv(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	w, ok := svc.Registry().World(0)
	if !ok {
		t.Fatalf("expected world 0")
	}
	deadline := time.Now().Add(5 * time.Second)
	for len(w.Containers()) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected the spawner to place containers")
		}
		time.Sleep(10 * time.Millisecond)
	}
	for _, c := range w.Containers() {
		if c.Pos.Y != w.SurfaceY(c.Pos.X, c.Pos.Z) {
			t.Fatalf("container %+v not on the surface", c)
		}
	}
}

func TestServiceHandler(t *testing.T) {
	svc := build(t, testEnv(t))
	resp := httptest.NewRecorder()
	svc.Handler().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/loot/tables/3", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected tier 3 table, got %d", resp.Code)
	}
}

func TestBuildSQLiteStore(t *testing.T) {
	env := testEnv(t)
	env.TableStore = config.TableStoreSQLite
	env.SQLitePath = filepath.Join(t.TempDir(), "tables.db")
	svc := build(t, env)
	resp := httptest.NewRecorder()
	svc.Handler().ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/loot/reload", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected reload to succeed, got %d", resp.Code)
	}
}
