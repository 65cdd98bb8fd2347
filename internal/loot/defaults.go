package loot

import "github.com/Overload1252/wowjudo-lootboxes/internal/items"

type seedEntry struct {
	item     items.ItemType
	minCount int
	maxCount int
	chance   float64
}

type seedTier struct {
	minLoot int
	maxLoot int
	entries []seedEntry
	books   bool
}

// seedTiers escalate in value by tier index. Tier 3 is the enchanted book
// tier and is filled from items.EnchantedBookVariants.
var seedTiers = []seedTier{
	{minLoot: 1, maxLoot: 3, entries: []seedEntry{
		{items.ItemStick, 5, 100, 1},
		{items.ItemLeatherBoots, 1, 1, 0.1},
		{items.ItemCarrot, 5, 10, 0.5},
		{items.ItemStoneAxe, 1, 2, 0.3},
		{items.ItemCookedBeef, 3, 10, 0.1},
	}},
	{minLoot: 1, maxLoot: 5, entries: []seedEntry{
		{items.ItemStone, 5, 100, 1},
		{items.ItemLeatherChestplate, 1, 1, 0.1},
		{items.ItemFlintAndSteel, 1, 1, 0.5},
		{items.ItemStonePickaxe, 1, 3, 0.3},
		{items.ItemChainmailHelmet, 1, 1, 0.1},
	}},
	{minLoot: 2, maxLoot: 6, entries: []seedEntry{
		{items.ItemDirt, 5, 100, 1},
		{items.ItemLeatherBoots, 1, 1, 0.1},
		{items.ItemBookshelf, 5, 10, 0.5},
		{items.ItemIronAxe, 1, 2, 0.3},
		{items.ItemIronIngot, 3, 10, 0.1},
	}},
	{minLoot: 3, maxLoot: 7, books: true},
	{minLoot: 4, maxLoot: 10, entries: []seedEntry{
		{items.ItemFlint, 5, 100, 1},
		{items.ItemDiamondAxe, 1, 1, 0.1},
		{items.ItemBlazeRod, 5, 10, 0.5},
		{items.ItemDiamondBoots, 1, 2, 0.3},
		{items.ItemDiamondHoe, 1, 2, 0.1},
		{items.ItemDiamondHorseArmor, 1, 1, 0.1},
		{items.ItemDiamondPickaxe, 1, 1, 0.1},
		{items.ItemDiamondShovel, 1, 2, 0.5},
		{items.ItemDiamondSword, 1, 2, 0.3},
		{items.ItemDiamond, 3, 10, 0.8},
	}},
}

// DefaultTables synthesizes the built-in seed tables. Tiers past the last
// seed reuse the most valuable one. Every generated table allows duplicates.
func DefaultTables(tiers int) []*Table {
	tables := make([]*Table, tiers)
	for tier := range tables {
		seed := seedTiers[min(tier, len(seedTiers)-1)]
		var entries []Entry
		if seed.books {
			for _, book := range items.EnchantedBookVariants() {
				entry := NewItemEntry(items.ItemEnchantedBook, 0, book.NBT(), 1, 3, 0.1).WithDisplayName(book.DisplayName())
				entries = append(entries, entry)
			}
		} else {
			entries = make([]Entry, 0, len(seed.entries))
			for _, e := range seed.entries {
				entries = append(entries, NewItemEntry(e.item, 0, "", e.minCount, e.maxCount, e.chance))
			}
		}
		tables[tier] = NewTable(seed.minLoot, seed.maxLoot, true, entries)
	}
	return tables
}
