package loot

import (
	"context"
	"math/rand"
	"testing"

	"github.com/Overload1252/wowjudo-lootboxes/internal/items"
	"github.com/Overload1252/wowjudo-lootboxes/internal/random"
)

// scriptedSource replays fixed draws and falls back to zero once exhausted.
type scriptedSource struct {
	ints   []int
	floats []float64
}

func (s *scriptedSource) Intn(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	if v >= n {
		return n - 1
	}
	return v
}

func (s *scriptedSource) Float64() float64 {
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func seeded(seed int64) random.Source {
	return rand.New(rand.NewSource(seed))
}

func stickEntry(chance float64) *ItemEntry {
	return NewItemEntry(items.ItemStick, 0, "", 5, 100, chance)
}

func TestResolveSingleCertainEntryAlwaysReturned(t *testing.T) {
	entry := stickEntry(1)
	table := NewTable(2, 6, false, []Entry{entry})
	for seed := int64(0); seed < 200; seed++ {
		got := ResolveTable(table, DropContext{Random: seeded(seed)})
		if len(got) != 1 {
			t.Fatalf("seed %d: expected exactly one entry, got %d", seed, len(got))
		}
		if got[0] != Entry(entry) {
			t.Fatalf("seed %d: expected the stick entry, got %v", seed, got[0].Identity())
		}
	}
}

func TestResolveDistinctBoundedByCountAndEntries(t *testing.T) {
	entries := []Entry{
		stickEntry(1),
		NewItemEntry(items.ItemCarrot, 0, "", 1, 1, 0.5),
		NewItemEntry(items.ItemStone, 0, "", 1, 1, 0.5),
		NewItemEntry(items.ItemDirt, 0, "", 1, 1, 0.9),
	}
	for k := 1; k <= 6; k++ {
		table := NewTable(k, k, false, entries)
		for seed := int64(0); seed < 100; seed++ {
			got := ResolveTable(table, DropContext{Random: seeded(seed)})
			if len(got) > min(k, len(entries)) {
				t.Fatalf("k=%d seed=%d: got %d entries", k, seed, len(got))
			}
			seen := make(map[Entry]bool)
			for _, e := range got {
				if seen[e] {
					t.Fatalf("k=%d seed=%d: duplicate entry %s", k, seed, e.Identity())
				}
				seen[e] = true
			}
		}
	}
}

func TestResolveEmptyTable(t *testing.T) {
	table := NewTable(3, 5, true, []Entry{})
	if got := ResolveTable(table, DropContext{Random: seeded(1)}); len(got) != 0 {
		t.Fatalf("expected no entries, got %d", len(got))
	}
	if got := ResolveTable(nil, DropContext{Random: seeded(1)}); len(got) != 0 {
		t.Fatalf("expected no entries for an unset table, got %d", len(got))
	}
}

func TestResolveAllowsDuplicatesWhenEnabled(t *testing.T) {
	entry := stickEntry(1)
	table := NewTable(3, 3, true, []Entry{entry})
	got := ResolveTable(table, DropContext{Random: seeded(7)})
	if len(got) != 3 {
		t.Fatalf("expected three picks of the same entry, got %d", len(got))
	}
}

func TestResolveNeverDrawsLastIndex(t *testing.T) {
	first := stickEntry(1)
	last := NewItemEntry(items.ItemDiamond, 0, "", 1, 1, 1)
	table := NewTable(1, 1, true, []Entry{first, last})
	for seed := int64(0); seed < 200; seed++ {
		for _, e := range ResolveTable(table, DropContext{Random: seeded(seed)}) {
			if e == Entry(last) {
				t.Fatalf("seed %d: last entry must be unreachable", seed)
			}
		}
	}
}

func TestResolveGivesUpAfterSixAttempts(t *testing.T) {
	never := NewItemEntry(items.ItemStick, 0, "", 1, 1, 0.5)
	table := NewTable(1, 1, false, []Entry{never})
	src := &scriptedSource{floats: []float64{0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.1}}
	if got := ResolveTable(table, DropContext{Random: src}); len(got) != 0 {
		t.Fatalf("expected slot to be skipped after six failed rolls, got %d", len(got))
	}
	if len(src.floats) != 1 {
		t.Fatalf("expected exactly six rolls, %d unused", len(src.floats))
	}
}

func TestResolveSucceedsOnLaterAttempt(t *testing.T) {
	entry := NewItemEntry(items.ItemStick, 0, "", 1, 1, 0.5)
	table := NewTable(1, 1, false, []Entry{entry})
	src := &scriptedSource{floats: []float64{0.9, 0.9, 0.9, 0.9, 0.9, 0.1}}
	if got := ResolveTable(table, DropContext{Random: src}); len(got) != 1 {
		t.Fatalf("expected the sixth roll to succeed, got %d", len(got))
	}
}

func TestItemsToSpawnNeverReachesMax(t *testing.T) {
	table := NewTable(1, 3, false, nil)
	for seed := int64(0); seed < 500; seed++ {
		n := ItemsToSpawn(table, DropContext{Random: seeded(seed)})
		if n < 1 || n >= 3 {
			t.Fatalf("seed %d: itemsToSpawn %d outside [1,3)", seed, n)
		}
	}
	fixed := NewTable(4, 4, false, nil)
	if n := ItemsToSpawn(fixed, DropContext{Random: seeded(1)}); n != 4 {
		t.Fatalf("expected fixed count 4, got %d", n)
	}
}

func TestNewTableClampsCounts(t *testing.T) {
	table := NewTable(0, -3, false, nil)
	if table.MinLootCount != 1 || table.MaxLootCount != 1 {
		t.Fatalf("expected counts clamped to 1, got %d/%d", table.MinLootCount, table.MaxLootCount)
	}
}

func TestPoolEntryRequiresMembers(t *testing.T) {
	empty := NewOreEntry("oreNothing", nil, 0, "", 1, 1, 1)
	if empty.ShouldDrop(DropContext{Random: seeded(1)}) {
		t.Fatalf("expected pool without members to be ineligible")
	}
	ores := NewOreEntry("oreIron", []items.ItemType{items.ItemIronOre}, 0, "", 1, 1, 1)
	if !ores.ShouldDrop(DropContext{Random: seeded(1)}) {
		t.Fatalf("expected pool with members to drop at chance 1")
	}
}

func TestCommandEntryExpandsPlaceholders(t *testing.T) {
	entry := NewCommandEntry("give {player} diamond {count}", 2, 2, 1)
	rewards := &recordingRewards{}
	dc := DropContext{Tier: 4, Player: "alex", Location: Location{WorldID: -1, X: 10, Y: 64, Z: -3}, Random: seeded(1)}
	grant, err := entry.Grant(context.Background(), dc, rewards)
	if err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if grant.Command != "give alex diamond 2" {
		t.Fatalf("unexpected command %q", grant.Command)
	}
	if len(rewards.commands) != 1 || rewards.commands[0] != "give alex diamond 2" {
		t.Fatalf("unexpected commands run: %v", rewards.commands)
	}
	if got := ExpandCommand("{world}:{x},{y},{z} t{tier}", CommandSender{Tier: 4, Location: dc.Location}, 1); got != "-1:10,64,-3 t4" {
		t.Fatalf("unexpected expansion %q", got)
	}
}

func TestItemEntryQuantityInclusive(t *testing.T) {
	entry := NewItemEntry(items.ItemCarrot, 0, "", 5, 10, 1)
	sawMax := false
	for seed := int64(0); seed < 300; seed++ {
		n := entry.quantity(seeded(seed))
		if n < 5 || n > 10 {
			t.Fatalf("seed %d: quantity %d outside [5,10]", seed, n)
		}
		if n == 10 {
			sawMax = true
		}
	}
	if !sawMax {
		t.Fatalf("expected the maximum quantity to be reachable")
	}
}
