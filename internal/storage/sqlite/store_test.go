package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Overload1252/wowjudo-lootboxes/internal/loot"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "lootboxes.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestWriteReadTier(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	fixed := time.Date(2026, time.March, 3, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	exists, err := store.Exists(ctx)
	if err != nil || exists {
		t.Fatalf("expected empty store, got exists=%v err=%v", exists, err)
	}
	if _, err := store.ReadTier(ctx, 1); !errors.Is(err, loot.ErrTierNotFound) {
		t.Fatalf("expected ErrTierNotFound, got %v", err)
	}
	if err := store.WriteTier(ctx, 1, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("write tier: %v", err)
	}
	if err := store.WriteTier(ctx, 1, []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite tier: %v", err)
	}
	got, err := store.ReadTier(ctx, 1)
	if err != nil {
		t.Fatalf("read tier: %v", err)
	}
	if string(got) != `{"a":2}` {
		t.Fatalf("document = %q, want overwritten value", got)
	}
	updated, err := store.UpdatedAt(ctx, 1)
	if err != nil || !updated.Equal(fixed) {
		t.Fatalf("updated_at = %v (err %v), want %v", updated, err, fixed)
	}
	exists, err = store.Exists(ctx)
	if err != nil || !exists {
		t.Fatalf("expected populated store, got exists=%v err=%v", exists, err)
	}
}

func TestHandlerRoundTripThroughSQLite(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	handler := loot.NewHandler(loot.HandlerConfig{Tiers: 5})
	if err := handler.LoadAll(ctx, store); err != nil {
		t.Fatalf("generate defaults: %v", err)
	}
	reloaded := loot.NewHandler(loot.HandlerConfig{Tiers: 5})
	if err := reloaded.LoadAll(ctx, store); err != nil {
		t.Fatalf("reload: %v", err)
	}
	for tier := 0; tier < 5; tier++ {
		want, got := handler.Table(tier), reloaded.Table(tier)
		if got == nil || len(got.Entries) != len(want.Entries) {
			t.Fatalf("tier %d did not round-trip", tier)
		}
	}
}
