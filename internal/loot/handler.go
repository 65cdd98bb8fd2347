// Package loot turns per-tier loot tables into concrete rewards when a
// container is opened, and loads and saves those tables through a Store.
package loot

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Overload1252/wowjudo-lootboxes/internal/items"
	"github.com/Overload1252/wowjudo-lootboxes/logging"
	lootlog "github.com/Overload1252/wowjudo-lootboxes/logging/loot"
)

const tracerName = "github.com/Overload1252/wowjudo-lootboxes/internal/loot"

// Catalog resolves entry identities while loading tables.
type Catalog interface {
	Item(id string) (items.Definition, bool)
	Category(name string) ([]items.ItemType, bool)
	Tag(name string) ([]items.ItemType, bool)
}

// HandlerConfig wires a Handler.
type HandlerConfig struct {
	Tiers     int
	Catalog   Catalog
	Publisher logging.Publisher
	Tracer    trace.Tracer
}

// Handler owns one table slot per tier. Resolution reads a table snapshot
// under a read lock; load and reload replace tables under the write lock.
type Handler struct {
	tiers     int
	catalog   Catalog
	publisher logging.Publisher
	tracer    trace.Tracer

	mu     sync.RWMutex
	tables []*Table
}

// NewHandler constructs a handler with every tier unset.
func NewHandler(cfg HandlerConfig) *Handler {
	tiers := cfg.Tiers
	if tiers < 1 {
		tiers = 1
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = items.Default()
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &Handler{
		tiers:     tiers,
		catalog:   catalog,
		publisher: publisher,
		tracer:    tracer,
		tables:    make([]*Table, tiers),
	}
}

// Tiers reports the number of tier slots.
func (h *Handler) Tiers() int {
	return h.tiers
}

// Table returns the installed table for tier, or nil when unset.
func (h *Handler) Table(tier int) *Table {
	if tier < 0 || tier >= h.tiers {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.tables[tier]
}

// SetTable installs table for tier, replacing the previous one.
func (h *Handler) SetTable(tier int, table *Table) error {
	if tier < 0 || tier >= h.tiers {
		return fmt.Errorf("%w: %d", ErrUnknownTier, tier)
	}
	h.mu.Lock()
	h.tables[tier] = table
	h.mu.Unlock()
	return nil
}

func (h *Handler) snapshot() []*Table {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]*Table(nil), h.tables...)
}

func (h *Handler) install(tables []*Table) {
	h.mu.Lock()
	copy(h.tables, tables)
	h.mu.Unlock()
}

// Resolve selects the entries a container of the given tier yields. An unset
// tier or an unknown tier yields nothing.
func (h *Handler) Resolve(ctx context.Context, tier int, dc DropContext) []Entry {
	_, span := h.tracer.Start(ctx, "loot.resolve", trace.WithAttributes(attribute.Int("loot.tier", tier)))
	defer span.End()

	dc.Tier = tier
	result := ResolveTable(h.Table(tier), dc)
	span.SetAttributes(attribute.Int("loot.selected", len(result)))
	return result
}

// OpenResult summarizes one container opening.
type OpenResult struct {
	Tier    int     `json:"tier"`
	Command string  `json:"command,omitempty"`
	Grants  []Grant `json:"grants"`
	Failed  int     `json:"failed,omitempty"`
}

// Open runs the tier's on-open command, resolves the tier's loot and grants
// every selected entry in order. Failed grants are logged and skipped.
func (h *Handler) Open(ctx context.Context, tier int, dc DropContext, rewards Rewards) (OpenResult, error) {
	if tier < 0 || tier >= h.tiers {
		return OpenResult{}, fmt.Errorf("%w: %d", ErrUnknownTier, tier)
	}
	if rewards == nil {
		return OpenResult{}, fmt.Errorf("rewards collaborator is required")
	}
	ctx, span := h.tracer.Start(ctx, "loot.open", trace.WithAttributes(attribute.Int("loot.tier", tier)))
	defer span.End()

	dc.Tier = tier
	result := OpenResult{Tier: tier, Grants: []Grant{}}
	container := containerRef(dc.Location)
	actor := playerRef(dc.Player)

	if table := h.Table(tier); table != nil && table.OnOpenCommand != "" {
		sender := CommandSender{Tier: tier, Player: dc.Player, Location: dc.Location}
		command := ExpandCommand(table.OnOpenCommand, sender, 1)
		if err := rewards.RunCommand(ctx, sender, command); err != nil {
			lootlog.OpenCommandFailed(ctx, h.publisher, container, tier, lootlog.OpenCommandFailedPayload{Command: command, Reason: err.Error()})
		} else {
			result.Command = command
		}
	}

	for _, entry := range h.Resolve(ctx, tier, dc) {
		grant, err := entry.Grant(ctx, dc, rewards)
		if err != nil {
			result.Failed++
			lootlog.GrantFailed(ctx, h.publisher, actor, container, tier, lootlog.GrantFailedPayload{Identity: entry.Identity(), Reason: err.Error()})
			continue
		}
		result.Grants = append(result.Grants, grant)
		payload := lootlog.GrantedPayload{Identity: grant.Identity, Command: grant.Command}
		if grant.Stack != nil {
			payload.Item = grant.Stack.Item
			payload.Count = grant.Stack.Count
		}
		lootlog.Granted(ctx, h.publisher, actor, container, tier, payload)
	}
	span.SetAttributes(attribute.Int("loot.granted", len(result.Grants)))
	return result, nil
}

func containerRef(loc Location) logging.EntityRef {
	id := strconv.Itoa(loc.WorldID) + ":" + strconv.Itoa(loc.X) + "," + strconv.Itoa(loc.Y) + "," + strconv.Itoa(loc.Z)
	return logging.EntityRef{ID: id, Kind: logging.EntityKindContainer}
}

func playerRef(player string) logging.EntityRef {
	if player == "" {
		return logging.EntityRef{Kind: logging.EntityKindUnknown}
	}
	return logging.EntityRef{ID: player, Kind: logging.EntityKindPlayer}
}
