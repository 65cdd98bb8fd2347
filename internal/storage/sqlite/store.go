// Package sqlite keeps loot table documents in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Overload1252/wowjudo-lootboxes/internal/loot"
	"github.com/Overload1252/wowjudo-lootboxes/internal/storage/sqlite/migrations"
	"github.com/Overload1252/wowjudo-lootboxes/internal/storage/sqlitemigrate"
)

// Store persists one JSON document per tier.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens the database at path and applies the embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Exists reports whether any tier document has been stored.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	if s == nil || s.sqlDB == nil {
		return false, fmt.Errorf("storage is not configured")
	}
	var found int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM tier_tables LIMIT 1`).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query tier tables: %w", err)
	}
	return true, nil
}

func (s *Store) ReadTier(ctx context.Context, tier int) ([]byte, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	var document string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT document FROM tier_tables WHERE tier = ?`, tier).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, loot.ErrTierNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read tier %d: %w", tier, err)
	}
	return []byte(document), nil
}

func (s *Store) WriteTier(ctx context.Context, tier int, data []byte) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO tier_tables (tier, document, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(tier) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		tier, string(data), s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("write tier %d: %w", tier, err)
	}
	return nil
}

// UpdatedAt reports when tier was last written.
func (s *Store) UpdatedAt(ctx context.Context, tier int) (time.Time, error) {
	var millis int64
	err := s.sqlDB.QueryRowContext(ctx, `SELECT updated_at FROM tier_tables WHERE tier = ?`, tier).Scan(&millis)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, loot.ErrTierNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(millis).UTC(), nil
}

var _ loot.Store = (*Store)(nil)
