// Package filestore keeps one loot table document per tier in a directory.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Overload1252/wowjudo-lootboxes/internal/loot"
)

// Store reads and writes loot_table_tier_N.json files.
type Store struct {
	dir string
}

// ResolveDir resolves a configured loot data path. Paths starting with "./"
// are relative to baseDir; everything else is used as given.
func ResolveDir(baseDir, dataPath string) string {
	if strings.HasPrefix(dataPath, "./") {
		return filepath.Join(baseDir, dataPath[2:])
	}
	return filepath.Clean(dataPath)
}

// New returns a store rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir reports the directory holding the tier files.
func (s *Store) Dir() string {
	return s.dir
}

// TierPath returns the document path for tier.
func (s *Store) TierPath(tier int) string {
	return filepath.Join(s.dir, fmt.Sprintf("loot_table_tier_%d.json", tier))
}

// Exists reports whether the data directory exists. A missing directory means
// no data set has ever been written.
func (s *Store) Exists(context.Context) (bool, error) {
	info, err := os.Stat(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !info.IsDir() {
		return false, fmt.Errorf("loot data path %s is not a directory", s.dir)
	}
	return true, nil
}

func (s *Store) ReadTier(_ context.Context, tier int) ([]byte, error) {
	path := s.TierPath(tier)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, loot.ErrTierNotFound
	}
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, loot.ErrTierNotFound
	}
	return os.ReadFile(path)
}

// WriteTier replaces the tier document through a temporary file so readers
// never observe a partial write.
func (s *Store) WriteTier(_ context.Context, tier int, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create loot data directory: %w", err)
	}
	path := s.TierPath(tier)
	tmp, err := os.CreateTemp(s.dir, ".loot-tier-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

var _ loot.Store = (*Store)(nil)
