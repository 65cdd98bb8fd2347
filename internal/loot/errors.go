package loot

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTier is returned for tier indices outside [0, tiers).
	ErrUnknownTier = errors.New("unknown loot tier")
	// ErrTierNotFound is returned by a Store when no document exists for a tier.
	ErrTierNotFound = errors.New("loot tier document not found")
)

// ConfigError reports a missing or malformed required key in a tier document.
// The tier keeps its previous table.
type ConfigError struct {
	Tier   int
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("loot tier %d: %s", e.Tier, e.Reason)
	}
	return fmt.Sprintf("loot tier %d: key %q: %s", e.Tier, e.Key, e.Reason)
}

// EntryResolutionError reports an entry whose item, category or tag is not
// registered. Only that entry is skipped.
type EntryResolutionError struct {
	Tier     int
	Identity string
}

func (e *EntryResolutionError) Error() string {
	return fmt.Sprintf("loot tier %d: failed to locate item/category/tag for %q", e.Tier, e.Identity)
}

// IOError reports a failed read or write of a tier document.
type IOError struct {
	Tier int
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("loot tier %d: %s: %v", e.Tier, e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
