package loot

import (
	"context"
	"strconv"
	"strings"

	"github.com/Overload1252/wowjudo-lootboxes/internal/items"
	"github.com/Overload1252/wowjudo-lootboxes/internal/random"
)

// Identity prefixes select the entry variant on load.
const (
	PrefixOre     = "ore@"
	PrefixGive    = "give@"
	PrefixCommand = "command@"
)

// Location is a block position inside a world.
type Location struct {
	WorldID int `json:"world"`
	X       int `json:"x"`
	Y       int `json:"y"`
	Z       int `json:"z"`
}

// DropContext carries everything an entry needs to decide and grant a drop.
type DropContext struct {
	Tier int
	// Player is empty when the container was opened without a player.
	Player   string
	Location Location
	Random   random.Source
}

// ItemStack is a concrete physical reward.
type ItemStack struct {
	Item        string `json:"item"`
	Data        int    `json:"data,omitempty"`
	NBT         string `json:"nbt,omitempty"`
	Count       int    `json:"count"`
	DisplayName string `json:"displayName,omitempty"`
}

// CommandSender describes the container on whose behalf a command runs.
type CommandSender struct {
	Tier     int
	Player   string
	Location Location
}

// Rewards is the reward-granting collaborator.
type Rewards interface {
	GiveItem(ctx context.Context, dc DropContext, stack ItemStack) error
	RunCommand(ctx context.Context, sender CommandSender, command string) error
}

// Grant records what an entry handed to Rewards.
type Grant struct {
	Identity string     `json:"identity"`
	Stack    *ItemStack `json:"stack,omitempty"`
	Command  string     `json:"command,omitempty"`
}

// Entry is one possible reward in a tier table. The set of implementations is
// closed: *ItemEntry, *OreEntry, *TagEntry and *CommandEntry.
type Entry interface {
	// Identity is the persisted item string including its variant prefix.
	Identity() string
	Chance() float64
	MinCount() int
	MaxCount() int
	// ShouldDrop runs the entry's own probability gate.
	ShouldDrop(dc DropContext) bool
	Grant(ctx context.Context, dc DropContext, rewards Rewards) (Grant, error)
	Document() EntryDocument

	sealed()
}

type entryBase struct {
	chance   float64
	minCount int
	maxCount int
}

func newEntryBase(chance float64, minCount, maxCount int) entryBase {
	if chance < 0 {
		chance = 0
	}
	if chance > 1 {
		chance = 1
	}
	if minCount < 0 {
		minCount = 0
	}
	if maxCount < minCount {
		maxCount = minCount
	}
	return entryBase{chance: chance, minCount: minCount, maxCount: maxCount}
}

func (b entryBase) Chance() float64 { return b.chance }
func (b entryBase) MinCount() int    { return b.minCount }
func (b entryBase) MaxCount() int    { return b.maxCount }

func (b entryBase) roll(rng random.Source) bool {
	if rng == nil || b.chance <= 0 {
		return false
	}
	return rng.Float64() < b.chance
}

// quantity draws a count in [minCount, maxCount].
func (b entryBase) quantity(rng random.Source) int {
	if b.maxCount <= b.minCount || rng == nil {
		return b.minCount
	}
	return b.minCount + rng.Intn(b.maxCount-b.minCount+1)
}

func (b entryBase) document(identity string) EntryDocument {
	return EntryDocument{
		Item:     identity,
		MinCount: b.minCount,
		MaxCount: b.maxCount,
		Chance:   b.chance,
	}
}

func (entryBase) sealed() {}

// ItemEntry grants a fixed item stack.
type ItemEntry struct {
	entryBase
	item        items.ItemType
	data        int
	nbt         string
	displayName string
}

// NewItemEntry builds a fixed-stack entry.
func NewItemEntry(item items.ItemType, data int, nbt string, minCount, maxCount int, chance float64) *ItemEntry {
	return &ItemEntry{
		entryBase: newEntryBase(chance, minCount, maxCount),
		item:      item,
		data:      data,
		nbt:       nbt,
	}
}

// WithDisplayName sets the name shown for the granted stack.
func (e *ItemEntry) WithDisplayName(name string) *ItemEntry {
	e.displayName = name
	return e
}

func (e *ItemEntry) Item() items.ItemType { return e.item }
func (e *ItemEntry) Data() int            { return e.data }
func (e *ItemEntry) NBT() string          { return e.nbt }

func (e *ItemEntry) Identity() string { return string(e.item) }

func (e *ItemEntry) ShouldDrop(dc DropContext) bool {
	return e.roll(dc.Random)
}

func (e *ItemEntry) Grant(ctx context.Context, dc DropContext, rewards Rewards) (Grant, error) {
	stack := ItemStack{
		Item:        string(e.item),
		Data:        e.data,
		NBT:         e.nbt,
		Count:       e.quantity(dc.Random),
		DisplayName: e.displayName,
	}
	if err := rewards.GiveItem(ctx, dc, stack); err != nil {
		return Grant{Identity: e.Identity()}, err
	}
	return Grant{Identity: e.Identity(), Stack: &stack}, nil
}

func (e *ItemEntry) Document() EntryDocument {
	doc := e.document(e.Identity())
	doc.Data = e.data
	doc.NBT = e.nbt
	return doc
}

// pool picks one member of a named item group at grant time.
type pool struct {
	entryBase
	name    string
	members []items.ItemType
	data    int
	nbt     string
}

func (p *pool) eligible(dc DropContext) bool {
	return len(p.members) > 0 && p.roll(dc.Random)
}

func (p *pool) stack(dc DropContext) ItemStack {
	member := p.members[0]
	if len(p.members) > 1 && dc.Random != nil {
		member = p.members[dc.Random.Intn(len(p.members))]
	}
	return ItemStack{
		Item:  string(member),
		Data:  p.data,
		NBT:   p.nbt,
		Count: p.quantity(dc.Random),
	}
}

// OreEntry grants one random item of an ore-dictionary category.
type OreEntry struct {
	pool
}

// NewOreEntry builds a category entry over the resolved members.
func NewOreEntry(category string, members []items.ItemType, data int, nbt string, minCount, maxCount int, chance float64) *OreEntry {
	return &OreEntry{pool{
		entryBase: newEntryBase(chance, minCount, maxCount),
		name:      category,
		members:   append([]items.ItemType(nil), members...),
		data:      data,
		nbt:       nbt,
	}}
}

func (e *OreEntry) Category() string { return e.name }

func (e *OreEntry) Identity() string { return PrefixOre + e.name }

func (e *OreEntry) ShouldDrop(dc DropContext) bool { return e.eligible(dc) }

func (e *OreEntry) Grant(ctx context.Context, dc DropContext, rewards Rewards) (Grant, error) {
	stack := e.stack(dc)
	if err := rewards.GiveItem(ctx, dc, stack); err != nil {
		return Grant{Identity: e.Identity()}, err
	}
	return Grant{Identity: e.Identity(), Stack: &stack}, nil
}

func (e *OreEntry) Document() EntryDocument {
	doc := e.document(e.Identity())
	doc.Data = e.data
	doc.NBT = e.nbt
	return doc
}

// TagEntry grants one random item of a tag pool.
type TagEntry struct {
	pool
}

// NewTagEntry builds a tag-pool entry over the resolved members.
func NewTagEntry(tag string, members []items.ItemType, data int, nbt string, minCount, maxCount int, chance float64) *TagEntry {
	return &TagEntry{pool{
		entryBase: newEntryBase(chance, minCount, maxCount),
		name:      tag,
		members:   append([]items.ItemType(nil), members...),
		data:      data,
		nbt:       nbt,
	}}
}

func (e *TagEntry) Tag() string { return e.name }

func (e *TagEntry) Identity() string { return PrefixGive + e.name }

func (e *TagEntry) ShouldDrop(dc DropContext) bool { return e.eligible(dc) }

func (e *TagEntry) Grant(ctx context.Context, dc DropContext, rewards Rewards) (Grant, error) {
	stack := e.stack(dc)
	if err := rewards.GiveItem(ctx, dc, stack); err != nil {
		return Grant{Identity: e.Identity()}, err
	}
	return Grant{Identity: e.Identity(), Stack: &stack}, nil
}

func (e *TagEntry) Document() EntryDocument {
	doc := e.document(e.Identity())
	doc.Data = e.data
	doc.NBT = e.nbt
	return doc
}

// CommandEntry runs a command instead of granting an item. The command may
// reference {player}, {world}, {x}, {y}, {z}, {tier} and {count}.
type CommandEntry struct {
	entryBase
	command string
}

// NewCommandEntry builds a side-effect-only entry.
func NewCommandEntry(command string, minCount, maxCount int, chance float64) *CommandEntry {
	return &CommandEntry{
		entryBase: newEntryBase(chance, minCount, maxCount),
		command:   command,
	}
}

func (e *CommandEntry) Command() string { return e.command }

func (e *CommandEntry) Identity() string { return PrefixCommand + e.command }

func (e *CommandEntry) ShouldDrop(dc DropContext) bool {
	return e.command != "" && e.roll(dc.Random)
}

func (e *CommandEntry) Grant(ctx context.Context, dc DropContext, rewards Rewards) (Grant, error) {
	sender := CommandSender{Tier: dc.Tier, Player: dc.Player, Location: dc.Location}
	command := ExpandCommand(e.command, sender, e.quantity(dc.Random))
	if err := rewards.RunCommand(ctx, sender, command); err != nil {
		return Grant{Identity: e.Identity()}, err
	}
	return Grant{Identity: e.Identity(), Command: command}, nil
}

func (e *CommandEntry) Document() EntryDocument {
	return e.document(e.Identity())
}

// ExpandCommand substitutes the sender placeholders in command.
func ExpandCommand(command string, sender CommandSender, count int) string {
	replacer := strings.NewReplacer(
		"{player}", sender.Player,
		"{world}", strconv.Itoa(sender.Location.WorldID),
		"{x}", strconv.Itoa(sender.Location.X),
		"{y}", strconv.Itoa(sender.Location.Y),
		"{z}", strconv.Itoa(sender.Location.Z),
		"{tier}", strconv.Itoa(sender.Tier),
		"{count}", strconv.Itoa(count),
	)
	return replacer.Replace(command)
}

var (
	_ Entry = (*ItemEntry)(nil)
	_ Entry = (*OreEntry)(nil)
	_ Entry = (*TagEntry)(nil)
	_ Entry = (*CommandEntry)(nil)
)
