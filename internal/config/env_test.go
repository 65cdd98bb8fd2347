package config

import (
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/Overload1252/wowjudo-lootboxes/logging"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.Tiers != 5 || cfg.TableStore != TableStoreFile {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.ScanDelay != 2*time.Minute || cfg.ExecutorInterval != 250*time.Millisecond {
		t.Fatalf("unexpected durations %s %s", cfg.ScanDelay, cfg.ExecutorInterval)
	}
	if len(cfg.ChancePerTier) != 5 || cfg.ChancePerTier[0] != 0.5 {
		t.Fatalf("unexpected chances %v", cfg.ChancePerTier)
	}
	if len(cfg.Worlds) != 3 || cfg.Worlds[1] != -1 {
		t.Fatalf("unexpected worlds %v", cfg.Worlds)
	}
	if cfg.LootDataPath != "./loot" || !cfg.OTelEnabled || cfg.Pprof {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LOOTBOX_TIERS", "2")
	t.Setenv("LOOTBOX_CHANCE_PER_TIER", "1,0.25")
	t.Setenv("LOOTBOX_WORLDS", "7")
	t.Setenv("LOOTBOX_DISABLED_WORLDS", "7")
	t.Setenv("LOOTBOX_TABLE_STORE", "sqlite")
	t.Setenv("LOOTBOX_LOG_MIN_SEVERITY", "debug")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Tiers != 2 || cfg.ChancePerTier[1] != 0.25 || cfg.DisabledWorlds[0] != 7 {
		t.Fatalf("unexpected overrides %+v", cfg)
	}
	if cfg.Logging().MinimumSeverity != logging.SeverityDebug {
		t.Fatalf("expected debug severity")
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("LOOTBOX_TIERS", "many")
	var cfg Config
	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	base, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"tiers", func(c *Config) { c.Tiers = 0; c.ChancePerTier = nil }, "LOOTBOX_TIERS"},
		{"queue", func(c *Config) { c.QueueCapacity = 0 }, "LOOTBOX_QUEUE_CAPACITY"},
		{"boxes", func(c *Config) { c.BoxesPerChunk = -1 }, "LOOTBOX_BOXES_PER_CHUNK"},
		{"chance length", func(c *Config) { c.ChancePerTier = []float64{0.1} }, "values for 5 tiers"},
		{"chance range", func(c *Config) { c.ChancePerTier[2] = 1.5 }, "outside [0,1]"},
		{"store", func(c *Config) { c.TableStore = "redis" }, "LOOTBOX_TABLE_STORE"},
		{"worlds", func(c *Config) { c.Worlds = nil }, "LOOTBOX_WORLDS"},
		{"severity", func(c *Config) { c.LogMinSeverity = "loud" }, "LOOTBOX_LOG_MIN_SEVERITY"},
		{"json sink", func(c *Config) { c.LogSinks = []string{"json"} }, "LOOTBOX_LOG_JSON_PATH"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			cfg.ChancePerTier = append([]float64(nil), base.ChancePerTier...)
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("expected defaults to validate: %v", err)
	}
}

func TestExitfExitsWithCode1(t *testing.T) {
	if os.Getenv("TEST_EXITF_SUBPROCESS") == "1" {
		Exitf("fatal: %s", "bad config")
		return
	}
	cmd := exec.Command(os.Args[0], "-test.run=^TestExitfExitsWithCode1$")
	cmd.Env = append(os.Environ(), "TEST_EXITF_SUBPROCESS=1")
	out, err := cmd.CombinedOutput()
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("expected *exec.ExitError, got %T: %v", err, err)
	}
	if exitErr.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %d", exitErr.ExitCode())
	}
	if !strings.Contains(string(out), "fatal: bad config") {
		t.Fatalf("unexpected output %q", out)
	}
}
