package loot

// Document keys of the per-tier file.
const (
	KeyMinLoot        = "loot_min_count"
	KeyMaxLoot        = "loot_max_count"
	KeyLootArray      = "loot_entries"
	KeyAllowDuplicate = "allow_duplicate_drops"
	KeyOnOpenCommand  = "on_open_command"

	KeyItemID       = "item"
	KeyItemData     = "data"
	KeyItemNBT      = "nbt"
	KeyItemMinCount = "min_count"
	KeyItemMaxCount = "max_count"
	KeyItemChance   = "chance"
)

// Table is the loot table of one tier. Tables are replaced wholesale and never
// mutated after they are installed in a Handler.
type Table struct {
	MinLootCount        int
	MaxLootCount        int
	AllowDuplicateDrops bool
	OnOpenCommand       string
	Entries             []Entry
}

// NewTable builds a table, clamping both counts to at least one.
func NewTable(minLoot, maxLoot int, allowDuplicates bool, entries []Entry) *Table {
	return &Table{
		MinLootCount:        max(1, minLoot),
		MaxLootCount:        max(1, maxLoot),
		AllowDuplicateDrops: allowDuplicates,
		Entries:             entries,
	}
}

// Document converts the table into its persisted shape.
func (t *Table) Document() TableDocument {
	doc := TableDocument{
		MinLootCount:        t.MinLootCount,
		MaxLootCount:        t.MaxLootCount,
		AllowDuplicateDrops: t.AllowDuplicateDrops,
		OnOpenCommand:       t.OnOpenCommand,
		Entries:             make([]EntryDocument, 0, len(t.Entries)),
	}
	for _, entry := range t.Entries {
		if entry == nil {
			continue
		}
		doc.Entries = append(doc.Entries, entry.Document())
	}
	return doc
}

// TableDocument is the persisted per-tier schema.
type TableDocument struct {
	MinLootCount        int             `json:"loot_min_count" jsonschema:"required,minimum=1,description=Minimum number of entries to drop"`
	MaxLootCount        int             `json:"loot_max_count" jsonschema:"required,minimum=1,description=Upper bound used for the extra-count draw"`
	AllowDuplicateDrops bool            `json:"allow_duplicate_drops,omitempty" jsonschema:"description=Allow the same entry to be selected more than once per opening"`
	OnOpenCommand       string          `json:"on_open_command,omitempty" jsonschema:"description=Command run when a container of this tier is opened"`
	Entries             []EntryDocument `json:"loot_entries" jsonschema:"required"`
}

// EntryDocument is the persisted shape of one entry.
type EntryDocument struct {
	Item     string  `json:"item" jsonschema:"required,description=Item id or ore@category / give@tag / command@command"`
	Data     int     `json:"data,omitempty" jsonschema:"description=Item metadata value"`
	NBT      string  `json:"nbt,omitempty" jsonschema:"description=Item NBT in string form"`
	MinCount int     `json:"min_count" jsonschema:"minimum=0"`
	MaxCount int     `json:"max_count" jsonschema:"minimum=0"`
	Chance   float64 `json:"chance" jsonschema:"minimum=0,maximum=1"`
}
