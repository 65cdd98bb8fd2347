package loot

import (
	"context"
	"strconv"

	"github.com/Overload1252/wowjudo-lootboxes/logging"
)

const (
	// EventTableKeyMissing is emitted when a tier document lacks a required key.
	EventTableKeyMissing logging.EventType = "loot.table_key_missing"
	// EventTableNotObject is emitted when a tier document is not an object.
	EventTableNotObject logging.EventType = "loot.table_not_object"
	// EventEntrySkipped is emitted when a single entry cannot be resolved.
	EventEntrySkipped logging.EventType = "loot.entry_skipped"
	// EventTableIOFailed is emitted when a tier document cannot be read or written.
	EventTableIOFailed logging.EventType = "loot.table_io_failed"
	// EventDefaultsGenerated is emitted after the built-in tables were synthesized.
	EventDefaultsGenerated logging.EventType = "loot.defaults_generated"
	// EventGranted is emitted for every entry handed to the reward collaborator.
	EventGranted logging.EventType = "loot.granted"
	// EventGrantFailed is emitted when the reward collaborator rejects an entry.
	EventGrantFailed logging.EventType = "loot.grant_failed"
	// EventOpenCommandFailed is emitted when a tier's on-open command fails.
	EventOpenCommandFailed logging.EventType = "loot.open_command_failed"
)

// TierRef identifies a loot tier.
func TierRef(tier int) logging.EntityRef {
	return logging.EntityRef{ID: strconv.Itoa(tier), Kind: logging.EntityKindTier}
}

// TableKeyMissingPayload names the missing key.
type TableKeyMissingPayload struct {
	Key    string `json:"key"`
	Reason string `json:"reason,omitempty"`
}

// EntrySkippedPayload names the identity that failed to resolve.
type EntrySkippedPayload struct {
	Identity string `json:"identity"`
	Reason   string `json:"reason,omitempty"`
}

// TableIOFailedPayload describes a failed read or write.
type TableIOFailedPayload struct {
	Op    string `json:"op"`
	Error string `json:"error"`
}

// DefaultsGeneratedPayload summarizes the synthesized tables.
type DefaultsGeneratedPayload struct {
	Tiers   int `json:"tiers"`
	Entries int `json:"entries"`
}

// GrantedPayload describes one granted entry.
type GrantedPayload struct {
	Identity string `json:"identity"`
	Item     string `json:"item,omitempty"`
	Count    int    `json:"count,omitempty"`
	Command  string `json:"command,omitempty"`
}

// GrantFailedPayload describes why an entry could not be granted.
type GrantFailedPayload struct {
	Identity string `json:"identity"`
	Reason   string `json:"reason"`
}

// OpenCommandFailedPayload describes a failed tier command.
type OpenCommandFailedPayload struct {
	Command string `json:"command"`
	Reason  string `json:"reason"`
}

func publish(ctx context.Context, pub logging.Publisher, eventType logging.EventType, severity logging.Severity, actor logging.EntityRef, targets []logging.EntityRef, payload any, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Actor:    actor,
		Targets:  targets,
		Severity: severity,
		Category: logging.CategoryLoot,
		Payload:  payload,
		Extra:    extra,
	})
}

// TableKeyMissing publishes a missing-key error for a tier.
func TableKeyMissing(ctx context.Context, pub logging.Publisher, tier int, payload TableKeyMissingPayload) {
	publish(ctx, pub, EventTableKeyMissing, logging.SeverityError, TierRef(tier), nil, payload, nil)
}

// TableNotObject publishes a malformed-document error for a tier.
func TableNotObject(ctx context.Context, pub logging.Publisher, tier int) {
	publish(ctx, pub, EventTableNotObject, logging.SeverityError, TierRef(tier), nil, nil, nil)
}

// EntrySkipped publishes a warning for an entry that was dropped on load.
func EntrySkipped(ctx context.Context, pub logging.Publisher, tier int, payload EntrySkippedPayload) {
	publish(ctx, pub, EventEntrySkipped, logging.SeverityWarn, TierRef(tier), nil, payload, nil)
}

// TableIOFailed publishes a read or write failure for a tier.
func TableIOFailed(ctx context.Context, pub logging.Publisher, tier int, payload TableIOFailedPayload) {
	publish(ctx, pub, EventTableIOFailed, logging.SeverityError, TierRef(tier), nil, payload, nil)
}

// DefaultsGenerated publishes the default-table summary.
func DefaultsGenerated(ctx context.Context, pub logging.Publisher, payload DefaultsGeneratedPayload) {
	publish(ctx, pub, EventDefaultsGenerated, logging.SeverityInfo, logging.EntityRef{Kind: logging.EntityKindTier}, nil, payload, nil)
}

// Granted publishes a successful grant. The actor is the receiving player
// and the target the container that was opened.
func Granted(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, container logging.EntityRef, tier int, payload GrantedPayload) {
	publish(ctx, pub, EventGranted, logging.SeverityInfo, actor, []logging.EntityRef{container}, payload, map[string]any{"tier": tier})
}

// GrantFailed publishes a rejected grant.
func GrantFailed(ctx context.Context, pub logging.Publisher, actor logging.EntityRef, container logging.EntityRef, tier int, payload GrantFailedPayload) {
	publish(ctx, pub, EventGrantFailed, logging.SeverityWarn, actor, []logging.EntityRef{container}, payload, map[string]any{"tier": tier})
}

// OpenCommandFailed publishes a failed on-open command.
func OpenCommandFailed(ctx context.Context, pub logging.Publisher, container logging.EntityRef, tier int, payload OpenCommandFailedPayload) {
	publish(ctx, pub, EventOpenCommandFailed, logging.SeverityWarn, container, nil, payload, map[string]any{"tier": tier})
}
