package loot

import (
	"context"
	"errors"

	lootlog "github.com/Overload1252/wowjudo-lootboxes/logging/loot"
)

// Store persists one document per tier.
type Store interface {
	// Exists reports whether the store holds a data set at all. An empty
	// store triggers default generation.
	Exists(ctx context.Context) (bool, error)
	// ReadTier returns the raw document for tier, or ErrTierNotFound.
	ReadTier(ctx context.Context, tier int) ([]byte, error)
	WriteTier(ctx context.Context, tier int, data []byte) error
}

// LoadAll reads every tier from store. When the store holds no data set the
// built-in tables are generated and saved immediately. Per-tier failures are
// logged and joined into the returned error; they never abort other tiers.
// Tables are installed in one step once every tier has been read.
func (h *Handler) LoadAll(ctx context.Context, store Store) error {
	exists, err := store.Exists(ctx)
	if err != nil {
		return &IOError{Tier: -1, Op: "stat", Err: err}
	}
	if !exists {
		return h.generateDefaults(ctx, store)
	}

	staged := h.snapshot()
	var errs []error
	for tier := 0; tier < h.tiers; tier++ {
		data, err := store.ReadTier(ctx, tier)
		if errors.Is(err, ErrTierNotFound) {
			continue
		}
		if err != nil {
			lootlog.TableIOFailed(ctx, h.publisher, tier, lootlog.TableIOFailedPayload{Op: "read", Error: err.Error()})
			errs = append(errs, &IOError{Tier: tier, Op: "read", Err: err})
			continue
		}
		table, err := h.parseBytes(ctx, tier, data)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		staged[tier] = table
	}
	h.install(staged)
	return errors.Join(errs...)
}

func (h *Handler) generateDefaults(ctx context.Context, store Store) error {
	tables := DefaultTables(h.tiers)
	entries := 0
	for _, table := range tables {
		entries += len(table.Entries)
	}
	h.install(tables)
	lootlog.DefaultsGenerated(ctx, h.publisher, lootlog.DefaultsGeneratedPayload{Tiers: len(tables), Entries: entries})
	return h.SaveAll(ctx, store)
}

// SaveAll writes every tier that has a table. Tiers without a table are left
// untouched in the store.
func (h *Handler) SaveAll(ctx context.Context, store Store) error {
	var errs []error
	for tier, table := range h.snapshot() {
		if table == nil {
			continue
		}
		data, err := EncodeTable(table)
		if err != nil {
			errs = append(errs, &IOError{Tier: tier, Op: "encode", Err: err})
			continue
		}
		if err := store.WriteTier(ctx, tier, data); err != nil {
			lootlog.TableIOFailed(ctx, h.publisher, tier, lootlog.TableIOFailedPayload{Op: "write", Error: err.Error()})
			errs = append(errs, &IOError{Tier: tier, Op: "write", Err: err})
		}
	}
	return errors.Join(errs...)
}
