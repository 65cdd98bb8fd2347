// Package config loads the service configuration from LOOTBOX_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/Overload1252/wowjudo-lootboxes/logging"
)

const (
	TableStoreFile   = "file"
	TableStoreSQLite = "sqlite"
)

// Config is the full service configuration.
type Config struct {
	Addr string `env:"LOOTBOX_ADDR" envDefault:":8080"`

	Tiers        int    `env:"LOOTBOX_TIERS" envDefault:"5"`
	BaseDir      string `env:"LOOTBOX_BASE_DIR" envDefault:"."`
	LootDataPath string `env:"LOOTBOX_LOOT_DATA_PATH" envDefault:"./loot"`
	TableStore   string `env:"LOOTBOX_TABLE_STORE" envDefault:"file"`
	SQLitePath   string `env:"LOOTBOX_SQLITE_PATH" envDefault:"lootboxes.db"`

	ScanDelay        time.Duration `env:"LOOTBOX_SCAN_DELAY" envDefault:"2m"`
	ScanInterval     time.Duration `env:"LOOTBOX_SCAN_INTERVAL" envDefault:"1s"`
	QueueCapacity    int           `env:"LOOTBOX_QUEUE_CAPACITY" envDefault:"4096"`
	CompactThrottle  bool          `env:"LOOTBOX_COMPACT_THROTTLE" envDefault:"false"`
	BoxesPerChunk    int           `env:"LOOTBOX_BOXES_PER_CHUNK" envDefault:"1"`
	ChancePerTier    []float64     `env:"LOOTBOX_CHANCE_PER_TIER" envDefault:"0.5,0.3,0.15,0.05,0.01"`
	ExecutorInterval time.Duration `env:"LOOTBOX_EXECUTOR_INTERVAL" envDefault:"250ms"`

	Worlds         []int  `env:"LOOTBOX_WORLDS" envDefault:"0,-1,1"`
	DisabledWorlds []int  `env:"LOOTBOX_DISABLED_WORLDS"`
	WorldSeed      string `env:"LOOTBOX_WORLD_SEED" envDefault:"prototype"`
	LoadedRadius   int    `env:"LOOTBOX_LOADED_RADIUS" envDefault:"4"`

	LogSinks       []string `env:"LOOTBOX_LOG_SINKS" envDefault:"console"`
	LogMinSeverity string   `env:"LOOTBOX_LOG_MIN_SEVERITY" envDefault:"info"`
	LogJSONPath    string   `env:"LOOTBOX_LOG_JSON_PATH"`

	OTelEndpoint string `env:"LOOTBOX_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"LOOTBOX_OTEL_ENABLED" envDefault:"true"`
	Pprof        bool   `env:"LOOTBOX_PPROF" envDefault:"false"`
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the service configuration.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the spawner or loot handler cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Tiers < 1 {
		errs = append(errs, fmt.Errorf("LOOTBOX_TIERS must be at least 1, got %d", c.Tiers))
	}
	if c.QueueCapacity < 1 {
		errs = append(errs, fmt.Errorf("LOOTBOX_QUEUE_CAPACITY must be positive, got %d", c.QueueCapacity))
	}
	if c.BoxesPerChunk < 0 {
		errs = append(errs, fmt.Errorf("LOOTBOX_BOXES_PER_CHUNK must not be negative, got %d", c.BoxesPerChunk))
	}
	if len(c.ChancePerTier) != c.Tiers {
		errs = append(errs, fmt.Errorf("LOOTBOX_CHANCE_PER_TIER has %d values for %d tiers", len(c.ChancePerTier), c.Tiers))
	}
	for i, chance := range c.ChancePerTier {
		if chance < 0 || chance > 1 {
			errs = append(errs, fmt.Errorf("LOOTBOX_CHANCE_PER_TIER[%d] = %v is outside [0,1]", i, chance))
		}
	}
	switch c.TableStore {
	case TableStoreFile:
	case TableStoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			errs = append(errs, errors.New("LOOTBOX_SQLITE_PATH is required for the sqlite table store"))
		}
	default:
		errs = append(errs, fmt.Errorf("LOOTBOX_TABLE_STORE must be %q or %q, got %q", TableStoreFile, TableStoreSQLite, c.TableStore))
	}
	if len(c.Worlds) == 0 {
		errs = append(errs, errors.New("LOOTBOX_WORLDS must list at least one world"))
	}
	if c.ScanInterval <= 0 {
		errs = append(errs, fmt.Errorf("LOOTBOX_SCAN_INTERVAL must be positive, got %s", c.ScanInterval))
	}
	if c.ScanDelay < 0 {
		errs = append(errs, fmt.Errorf("LOOTBOX_SCAN_DELAY must not be negative, got %s", c.ScanDelay))
	}
	if _, err := logging.ParseSeverity(c.LogMinSeverity); err != nil {
		errs = append(errs, fmt.Errorf("LOOTBOX_LOG_MIN_SEVERITY: %w", err))
	}
	for _, sink := range c.LogSinks {
		if sink == "json" && strings.TrimSpace(c.LogJSONPath) == "" {
			errs = append(errs, errors.New("LOOTBOX_LOG_JSON_PATH is required when the json sink is enabled"))
		}
	}
	return errors.Join(errs...)
}

// Logging translates the log settings into a router configuration.
func (c Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	if len(c.LogSinks) > 0 {
		cfg.EnabledSinks = append([]string(nil), c.LogSinks...)
	}
	if severity, err := logging.ParseSeverity(c.LogMinSeverity); err == nil {
		cfg.MinimumSeverity = severity
	}
	cfg.JSON.FilePath = c.LogJSONPath
	return cfg
}
