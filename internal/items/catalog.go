// Package items holds the static item registry used to resolve loot entry
// identities: plain item ids, ore-dictionary categories and tag pools.
package items

import (
	"fmt"
	"sort"
	"strings"
)

// ItemType is the registry identity of an item or block.
type ItemType string

const (
	ItemStick             ItemType = "stick"
	ItemLeatherBoots      ItemType = "leather_boots"
	ItemCarrot            ItemType = "carrot"
	ItemStoneAxe          ItemType = "stone_axe"
	ItemCookedBeef        ItemType = "cooked_beef"
	ItemStone             ItemType = "stone"
	ItemLeatherChestplate ItemType = "leather_chestplate"
	ItemFlintAndSteel     ItemType = "flint_and_steel"
	ItemStonePickaxe      ItemType = "stone_pickaxe"
	ItemChainmailHelmet   ItemType = "chainmail_helmet"
	ItemDirt              ItemType = "dirt"
	ItemBookshelf         ItemType = "bookshelf"
	ItemIronAxe           ItemType = "iron_axe"
	ItemIronIngot         ItemType = "iron_ingot"
	ItemGoldIngot         ItemType = "gold_ingot"
	ItemIronOre           ItemType = "iron_ore"
	ItemGoldOre           ItemType = "gold_ore"
	ItemDiamondOre        ItemType = "diamond_ore"
	ItemEnchantedBook     ItemType = "enchanted_book"
	ItemFlint             ItemType = "flint"
	ItemDiamondAxe        ItemType = "diamond_axe"
	ItemBlazeRod          ItemType = "blaze_rod"
	ItemDiamondBoots      ItemType = "diamond_boots"
	ItemDiamondHoe        ItemType = "diamond_hoe"
	ItemDiamondHorseArmor ItemType = "diamond_horse_armor"
	ItemDiamondPickaxe    ItemType = "diamond_pickaxe"
	ItemDiamondShovel     ItemType = "diamond_shovel"
	ItemDiamondSword      ItemType = "diamond_sword"
	ItemDiamond           ItemType = "diamond"
	ItemBread             ItemType = "bread"
	ItemApple             ItemType = "apple"
	ItemLog               ItemType = "log"
	ItemPlanks            ItemType = "planks"
)

// Definition describes one registered item.
type Definition struct {
	ID       ItemType
	Name     string
	MaxStack int
	// Categories are ore-dictionary names the item is registered under.
	Categories []string
	Tags       []string
}

// DefinitionParams mirrors Definition for construction with validation.
type DefinitionParams struct {
	ID         ItemType
	Name       string
	MaxStack   int
	Categories []string
	Tags       []string
}

// NewDefinition validates params and normalizes defaults.
func NewDefinition(params DefinitionParams) (Definition, error) {
	id := ItemType(strings.TrimSpace(string(params.ID)))
	if id == "" {
		return Definition{}, fmt.Errorf("item id is required")
	}
	maxStack := params.MaxStack
	if maxStack <= 0 {
		maxStack = 64
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		name = string(id)
	}
	return Definition{
		ID:         id,
		Name:       name,
		MaxStack:   maxStack,
		Categories: append([]string(nil), params.Categories...),
		Tags:       append([]string(nil), params.Tags...),
	}, nil
}

func mustDefine(params DefinitionParams) Definition {
	def, err := NewDefinition(params)
	if err != nil {
		panic(err)
	}
	return def
}

// Catalog indexes definitions by id, category and tag. It is immutable after
// construction and safe for concurrent use.
type Catalog struct {
	items      map[ItemType]Definition
	categories map[string][]ItemType
	tags       map[string][]ItemType
}

// NewCatalog indexes defs. Later duplicates replace earlier ones.
func NewCatalog(defs []Definition) *Catalog {
	c := &Catalog{
		items:      make(map[ItemType]Definition, len(defs)),
		categories: make(map[string][]ItemType),
		tags:       make(map[string][]ItemType),
	}
	for _, def := range defs {
		c.items[def.ID] = def
	}
	ids := make([]ItemType, 0, len(c.items))
	for id := range c.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		def := c.items[id]
		for _, category := range def.Categories {
			c.categories[category] = append(c.categories[category], id)
		}
		for _, tag := range def.Tags {
			c.tags[tag] = append(c.tags[tag], id)
		}
	}
	return c
}

// Item returns the definition registered under id.
func (c *Catalog) Item(id string) (Definition, bool) {
	if c == nil {
		return Definition{}, false
	}
	def, ok := c.items[ItemType(id)]
	return def, ok
}

// Category returns the items registered under an ore-dictionary name.
func (c *Catalog) Category(name string) ([]ItemType, bool) {
	if c == nil {
		return nil, false
	}
	members, ok := c.categories[name]
	if !ok || len(members) == 0 {
		return nil, false
	}
	return append([]ItemType(nil), members...), true
}

// Tag returns the items in a tag pool.
func (c *Catalog) Tag(name string) ([]ItemType, bool) {
	if c == nil {
		return nil, false
	}
	members, ok := c.tags[name]
	if !ok || len(members) == 0 {
		return nil, false
	}
	return append([]ItemType(nil), members...), true
}

// Definitions returns every definition sorted by id.
func (c *Catalog) Definitions() []Definition {
	if c == nil {
		return nil
	}
	defs := make([]Definition, 0, len(c.items))
	for _, def := range c.items {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// Default returns the built-in registry.
func Default() *Catalog {
	return NewCatalog(defaultDefinitions())
}

func defaultDefinitions() []Definition {
	return []Definition{
		mustDefine(DefinitionParams{ID: ItemStick, Name: "Stick", Categories: []string{"stickWood"}, Tags: []string{"materials"}}),
		mustDefine(DefinitionParams{ID: ItemLeatherBoots, Name: "Leather Boots", MaxStack: 1, Tags: []string{"armor"}}),
		mustDefine(DefinitionParams{ID: ItemCarrot, Name: "Carrot", Categories: []string{"cropCarrot"}, Tags: []string{"food"}}),
		mustDefine(DefinitionParams{ID: ItemStoneAxe, Name: "Stone Axe", MaxStack: 1, Tags: []string{"tools"}}),
		mustDefine(DefinitionParams{ID: ItemCookedBeef, Name: "Steak", Tags: []string{"food"}}),
		mustDefine(DefinitionParams{ID: ItemStone, Name: "Stone", Categories: []string{"stone"}, Tags: []string{"blocks"}}),
		mustDefine(DefinitionParams{ID: ItemLeatherChestplate, Name: "Leather Tunic", MaxStack: 1, Tags: []string{"armor"}}),
		mustDefine(DefinitionParams{ID: ItemFlintAndSteel, Name: "Flint and Steel", MaxStack: 1, Tags: []string{"tools"}}),
		mustDefine(DefinitionParams{ID: ItemStonePickaxe, Name: "Stone Pickaxe", MaxStack: 1, Tags: []string{"tools"}}),
		mustDefine(DefinitionParams{ID: ItemChainmailHelmet, Name: "Chain Helmet", MaxStack: 1, Tags: []string{"armor"}}),
		mustDefine(DefinitionParams{ID: ItemDirt, Name: "Dirt", Tags: []string{"blocks"}}),
		mustDefine(DefinitionParams{ID: ItemBookshelf, Name: "Bookshelf", Tags: []string{"blocks"}}),
		mustDefine(DefinitionParams{ID: ItemIronAxe, Name: "Iron Axe", MaxStack: 1, Tags: []string{"tools"}}),
		mustDefine(DefinitionParams{ID: ItemIronIngot, Name: "Iron Ingot", Categories: []string{"ingotIron"}, Tags: []string{"materials"}}),
		mustDefine(DefinitionParams{ID: ItemGoldIngot, Name: "Gold Ingot", Categories: []string{"ingotGold"}, Tags: []string{"materials"}}),
		mustDefine(DefinitionParams{ID: ItemIronOre, Name: "Iron Ore", Categories: []string{"oreIron"}, Tags: []string{"ores"}}),
		mustDefine(DefinitionParams{ID: ItemGoldOre, Name: "Gold Ore", Categories: []string{"oreGold"}, Tags: []string{"ores"}}),
		mustDefine(DefinitionParams{ID: ItemDiamondOre, Name: "Diamond Ore", Categories: []string{"oreDiamond"}, Tags: []string{"ores"}}),
		mustDefine(DefinitionParams{ID: ItemEnchantedBook, Name: "Enchanted Book", MaxStack: 1}),
		mustDefine(DefinitionParams{ID: ItemFlint, Name: "Flint", Tags: []string{"materials"}}),
		mustDefine(DefinitionParams{ID: ItemDiamondAxe, Name: "Diamond Axe", MaxStack: 1, Tags: []string{"tools"}}),
		mustDefine(DefinitionParams{ID: ItemBlazeRod, Name: "Blaze Rod", Tags: []string{"materials"}}),
		mustDefine(DefinitionParams{ID: ItemDiamondBoots, Name: "Diamond Boots", MaxStack: 1, Tags: []string{"armor"}}),
		mustDefine(DefinitionParams{ID: ItemDiamondHoe, Name: "Diamond Hoe", MaxStack: 1, Tags: []string{"tools"}}),
		mustDefine(DefinitionParams{ID: ItemDiamondHorseArmor, Name: "Diamond Horse Armor", MaxStack: 1, Tags: []string{"armor"}}),
		mustDefine(DefinitionParams{ID: ItemDiamondPickaxe, Name: "Diamond Pickaxe", MaxStack: 1, Tags: []string{"tools"}}),
		mustDefine(DefinitionParams{ID: ItemDiamondShovel, Name: "Diamond Shovel", MaxStack: 1, Tags: []string{"tools"}}),
		mustDefine(DefinitionParams{ID: ItemDiamondSword, Name: "Diamond Sword", MaxStack: 1, Tags: []string{"weapons"}}),
		mustDefine(DefinitionParams{ID: ItemDiamond, Name: "Diamond", Categories: []string{"gemDiamond"}, Tags: []string{"materials"}}),
		mustDefine(DefinitionParams{ID: ItemBread, Name: "Bread", Tags: []string{"food"}}),
		mustDefine(DefinitionParams{ID: ItemApple, Name: "Apple", Tags: []string{"food"}}),
		mustDefine(DefinitionParams{ID: ItemLog, Name: "Wood", Categories: []string{"logWood"}, Tags: []string{"blocks"}}),
		mustDefine(DefinitionParams{ID: ItemPlanks, Name: "Wooden Planks", Categories: []string{"plankWood"}, Tags: []string{"blocks"}}),
	}
}
