package world

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Overload1252/wowjudo-lootboxes/internal/items"
	"github.com/Overload1252/wowjudo-lootboxes/internal/loot"
)

const maxCommandLog = 256

// CommandRecord is one command run on behalf of a container.
type CommandRecord struct {
	Time    time.Time     `json:"time"`
	Tier    int           `json:"tier"`
	Player  string        `json:"player,omitempty"`
	At      loot.Location `json:"at"`
	Command string        `json:"command"`
}

// GroundStack is a stack dropped at a container because nobody received it.
type GroundStack struct {
	At    loot.Location  `json:"at"`
	Stack loot.ItemStack `json:"stack"`
}

// Rewards stores granted stacks per player and records commands. It
// implements loot.Rewards.
type Rewards struct {
	catalog loot.Catalog
	now     func() time.Time

	mu          sync.Mutex
	inventories map[string][]loot.ItemStack
	ground      []GroundStack
	commands    []CommandRecord
}

// NewRewards returns empty inventories resolving stack sizes from catalog.
func NewRewards(catalog loot.Catalog) *Rewards {
	if catalog == nil {
		catalog = items.Default()
	}
	return &Rewards{catalog: catalog, now: time.Now, inventories: make(map[string][]loot.ItemStack)}
}

// GiveItem adds stack to the player's inventory, merging into existing
// stacks up to the item's stack limit. Without a player the stack is dropped
// at the container.
func (r *Rewards) GiveItem(_ context.Context, dc loot.DropContext, stack loot.ItemStack) error {
	if stack.Count <= 0 {
		return fmt.Errorf("empty stack of %s", stack.Item)
	}
	def, ok := r.catalog.Item(stack.Item)
	if !ok {
		return fmt.Errorf("unknown item %q", stack.Item)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if dc.Player == "" {
		r.ground = append(r.ground, GroundStack{At: dc.Location, Stack: stack})
		return nil
	}
	r.inventories[dc.Player] = mergeStack(r.inventories[dc.Player], stack, def.MaxStack)
	return nil
}

func mergeStack(inventory []loot.ItemStack, stack loot.ItemStack, maxStack int) []loot.ItemStack {
	remaining := stack.Count
	for i := range inventory {
		if remaining == 0 {
			break
		}
		slot := &inventory[i]
		if slot.Item != stack.Item || slot.Data != stack.Data || slot.NBT != stack.NBT || slot.DisplayName != stack.DisplayName {
			continue
		}
		room := maxStack - slot.Count
		if room <= 0 {
			continue
		}
		moved := min(room, remaining)
		slot.Count += moved
		remaining -= moved
	}
	for remaining > 0 {
		next := stack
		next.Count = min(maxStack, remaining)
		inventory = append(inventory, next)
		remaining -= next.Count
	}
	return inventory
}

// RunCommand records the command. Commands are not interpreted.
func (r *Rewards) RunCommand(_ context.Context, sender loot.CommandSender, command string) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return fmt.Errorf("empty command")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, CommandRecord{
		Time:    r.now(),
		Tier:    sender.Tier,
		Player:  sender.Player,
		At:      sender.Location,
		Command: command,
	})
	if len(r.commands) > maxCommandLog {
		r.commands = append([]CommandRecord(nil), r.commands[len(r.commands)-maxCommandLog:]...)
	}
	return nil
}

// Inventory returns a copy of the player's stacks.
func (r *Rewards) Inventory(player string) []loot.ItemStack {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]loot.ItemStack(nil), r.inventories[player]...)
}

// Ground returns a copy of the dropped stacks.
func (r *Rewards) Ground() []GroundStack {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]GroundStack(nil), r.ground...)
}

// Commands returns a copy of the recorded commands, oldest first.
func (r *Rewards) Commands() []CommandRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]CommandRecord(nil), r.commands...)
}

var _ loot.Rewards = (*Rewards)(nil)
