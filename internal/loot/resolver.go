package loot

// maxSelectionAttempts bounds the draws spent on one result slot.
const maxSelectionAttempts = 6

// maxResultSlots caps the entries granted by one resolution. Documents only
// require a positive loot_max_count, so the drawn slot count is untrusted.
const maxResultSlots = 1 << 12

// ItemsToSpawn draws the number of result slots for a table. The extra draw
// is Intn(max-min), so max itself is never reached through it.
func ItemsToSpawn(table *Table, dc DropContext) int {
	if table == nil {
		return 0
	}
	count := table.MinLootCount
	if table.MinLootCount < table.MaxLootCount && dc.Random != nil {
		count += dc.Random.Intn(table.MaxLootCount - table.MinLootCount)
	}
	return count
}

// ResolveTable selects the entries to grant from table. Each slot gets up to
// six draws; a slot whose draws are all rejected is skipped, so fewer entries
// than ItemsToSpawn may be returned. At most maxResultSlots slots are filled,
// and without duplicates resolution ends once every drawable entry is taken.
//
// Candidates are drawn with Intn(len-1) when the table has more than one
// entry, which leaves the last entry unreachable. Duplicate suppression
// compares entry positions in the table, never entry contents.
func ResolveTable(table *Table, dc DropContext) []Entry {
	if table == nil || table.Entries == nil || dc.Random == nil {
		return nil
	}
	itemsToSpawn := ItemsToSpawn(table, dc)
	entries := table.Entries
	if itemsToSpawn <= 0 || len(entries) == 0 {
		return nil
	}

	// Without duplicates only the drawable positions can ever be accepted.
	reachable := len(entries)
	if reachable > 1 {
		reachable--
	}
	slots := min(itemsToSpawn, maxResultSlots)

	picked := make([]bool, len(entries))
	result := make([]Entry, 0, min(slots, len(entries)))
	for i := 0; i < slots; i++ {
		if !table.AllowDuplicateDrops && len(result) == reachable {
			break
		}
		for attempt := 0; attempt < maxSelectionAttempts; attempt++ {
			index := 0
			if len(entries) > 1 {
				index = dc.Random.Intn(len(entries) - 1)
			}
			candidate := entries[index]
			if candidate == nil {
				continue
			}
			if !candidate.ShouldDrop(dc) {
				continue
			}
			if !table.AllowDuplicateDrops && picked[index] {
				continue
			}
			picked[index] = true
			result = append(result, candidate)
			break
		}
	}
	return result
}
