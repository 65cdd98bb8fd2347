package loot

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/Overload1252/wowjudo-lootboxes/internal/items"
	lootlog "github.com/Overload1252/wowjudo-lootboxes/logging/loot"
)

// LoadTier parses tree and installs the resulting table for tier. A missing
// or malformed required key leaves the previous table in place and returns a
// *ConfigError. Entries that cannot be resolved are skipped with a warning.
func (h *Handler) LoadTier(ctx context.Context, tier int, tree gjson.Result) error {
	if tier < 0 || tier >= h.tiers {
		return fmt.Errorf("%w: %d", ErrUnknownTier, tier)
	}
	table, err := h.parseTier(ctx, tier, tree)
	if err != nil {
		return err
	}
	return h.SetTable(tier, table)
}

// LoadTierBytes parses raw JSON and installs it like LoadTier.
func (h *Handler) LoadTierBytes(ctx context.Context, tier int, data []byte) error {
	if tier < 0 || tier >= h.tiers {
		return fmt.Errorf("%w: %d", ErrUnknownTier, tier)
	}
	table, err := h.parseBytes(ctx, tier, data)
	if err != nil {
		return err
	}
	return h.SetTable(tier, table)
}

func (h *Handler) parseBytes(ctx context.Context, tier int, data []byte) (*Table, error) {
	if !gjson.ValidBytes(data) {
		lootlog.TableNotObject(ctx, h.publisher, tier)
		return nil, &ConfigError{Tier: tier, Reason: "document is not valid JSON"}
	}
	return h.parseTier(ctx, tier, gjson.ParseBytes(data))
}

func (h *Handler) parseTier(ctx context.Context, tier int, tree gjson.Result) (*Table, error) {
	if !tree.IsObject() {
		lootlog.TableNotObject(ctx, h.publisher, tier)
		return nil, &ConfigError{Tier: tier, Reason: "tier loot table data should be nested inside of {} for it to be considered an object"}
	}

	required := []struct {
		key    string
		reason string
	}{
		{KeyMinLoot, "This is required to indicate the min number of loot entries to drop."},
		{KeyMaxLoot, "This is required to indicate the max number of loot entries to drop."},
		{KeyLootArray, "This is required to generate items to drop"},
	}
	for _, req := range required {
		if !tree.Get(req.key).Exists() {
			lootlog.TableKeyMissing(ctx, h.publisher, tier, lootlog.TableKeyMissingPayload{Key: req.key, Reason: req.reason})
			return nil, &ConfigError{Tier: tier, Key: req.key, Reason: "missing required key"}
		}
	}

	rawEntries := tree.Get(KeyLootArray)
	if !rawEntries.IsArray() {
		lootlog.TableKeyMissing(ctx, h.publisher, tier, lootlog.TableKeyMissingPayload{Key: KeyLootArray, Reason: "must be an array"})
		return nil, &ConfigError{Tier: tier, Key: KeyLootArray, Reason: "must be an array"}
	}

	elements := rawEntries.Array()
	entries := make([]Entry, 0, len(elements))
	for _, element := range elements {
		if !element.IsObject() {
			lootlog.EntrySkipped(ctx, h.publisher, tier, lootlog.EntrySkippedPayload{Identity: element.Raw, Reason: "entry is not an object"})
			continue
		}
		entry, err := h.newEntry(tier, element)
		if err != nil {
			lootlog.EntrySkipped(ctx, h.publisher, tier, lootlog.EntrySkippedPayload{Identity: element.Get(KeyItemID).String(), Reason: err.Error()})
			continue
		}
		entries = append(entries, entry)
	}

	table := NewTable(
		int(tree.Get(KeyMinLoot).Int()),
		int(tree.Get(KeyMaxLoot).Int()),
		tree.Get(KeyAllowDuplicate).Bool(),
		entries,
	)
	table.OnOpenCommand = tree.Get(KeyOnOpenCommand).String()
	return table, nil
}

// newEntry dispatches on the identity prefix.
func (h *Handler) newEntry(tier int, data gjson.Result) (Entry, error) {
	identity := data.Get(KeyItemID)
	if identity.Type != gjson.String || strings.TrimSpace(identity.String()) == "" {
		return nil, &EntryResolutionError{Tier: tier, Identity: identity.Raw}
	}
	name := identity.String()

	minCount := 1
	if v := data.Get(KeyItemMinCount); v.Exists() {
		minCount = int(v.Int())
	}
	maxCount := minCount
	if v := data.Get(KeyItemMaxCount); v.Exists() {
		maxCount = int(v.Int())
	}
	chance := 1.0
	if v := data.Get(KeyItemChance); v.Exists() {
		chance = v.Float()
	}
	meta := int(data.Get(KeyItemData).Int())
	nbt := data.Get(KeyItemNBT).String()

	switch {
	case strings.HasPrefix(name, PrefixOre):
		category := strings.TrimPrefix(name, PrefixOre)
		members, ok := h.catalog.Category(category)
		if !ok {
			return nil, &EntryResolutionError{Tier: tier, Identity: name}
		}
		return NewOreEntry(category, members, meta, nbt, minCount, maxCount, chance), nil
	case strings.HasPrefix(name, PrefixGive):
		tag := strings.TrimPrefix(name, PrefixGive)
		members, ok := h.catalog.Tag(tag)
		if !ok {
			return nil, &EntryResolutionError{Tier: tier, Identity: name}
		}
		return NewTagEntry(tag, members, meta, nbt, minCount, maxCount, chance), nil
	case strings.HasPrefix(name, PrefixCommand):
		command := strings.TrimPrefix(name, PrefixCommand)
		if strings.TrimSpace(command) == "" {
			return nil, &EntryResolutionError{Tier: tier, Identity: name}
		}
		return NewCommandEntry(command, minCount, maxCount, chance), nil
	default:
		def, ok := h.catalog.Item(name)
		if !ok {
			return nil, &EntryResolutionError{Tier: tier, Identity: name}
		}
		entry := NewItemEntry(def.ID, meta, nbt, minCount, maxCount, chance)
		if def.ID == items.ItemEnchantedBook {
			if book, ok := items.BookVariantByNBT(nbt); ok {
				entry.WithDisplayName(book.DisplayName())
			}
		}
		return entry, nil
	}
}

// EncodeTable renders table as the pretty-printed per-tier document. Keys are
// written in a fixed order so saved files diff cleanly.
func EncodeTable(table *Table) ([]byte, error) {
	doc := table.Document()
	out := []byte(`{}`)
	var err error
	set := func(path string, value any) {
		if err != nil {
			return
		}
		out, err = sjson.SetBytes(out, path, value)
	}
	set(KeyMinLoot, doc.MinLootCount)
	set(KeyMaxLoot, doc.MaxLootCount)
	if doc.AllowDuplicateDrops {
		set(KeyAllowDuplicate, true)
	}
	if doc.OnOpenCommand != "" {
		set(KeyOnOpenCommand, doc.OnOpenCommand)
	}
	if err == nil {
		out, err = sjson.SetRawBytes(out, KeyLootArray, []byte(`[]`))
	}
	for _, entry := range doc.Entries {
		if err != nil {
			break
		}
		var raw []byte
		raw, err = encodeEntry(entry)
		if err == nil {
			out, err = sjson.SetRawBytes(out, KeyLootArray+".-1", raw)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("encode loot table: %w", err)
	}
	return pretty.Pretty(out), nil
}

func encodeEntry(doc EntryDocument) ([]byte, error) {
	out := []byte(`{}`)
	var err error
	set := func(path string, value any) {
		if err != nil {
			return
		}
		out, err = sjson.SetBytes(out, path, value)
	}
	set(KeyItemID, doc.Item)
	set(KeyItemData, doc.Data)
	if doc.NBT != "" {
		set(KeyItemNBT, doc.NBT)
	}
	set(KeyItemMinCount, doc.MinCount)
	set(KeyItemMaxCount, doc.MaxCount)
	set(KeyItemChance, doc.Chance)
	return out, err
}

// SaveTier renders the installed table for tier. It reports false when the
// tier has no table.
func (h *Handler) SaveTier(tier int) ([]byte, bool, error) {
	table := h.Table(tier)
	if table == nil {
		return nil, false, nil
	}
	data, err := EncodeTable(table)
	if err != nil {
		return nil, true, err
	}
	return data, true, nil
}
