package lifecycle

import (
	"context"

	"github.com/Overload1252/wowjudo-lootboxes/logging"
)

const (
	// EventServiceStarted is emitted once the service finished wiring.
	EventServiceStarted logging.EventType = "lifecycle.service_started"
	// EventServiceStopped is emitted when the service shuts down.
	EventServiceStopped logging.EventType = "lifecycle.service_stopped"
)

// ServiceStartedPayload captures start-up metadata.
type ServiceStartedPayload struct {
	Addr       string `json:"addr"`
	Tiers      int    `json:"tiers"`
	TableStore string `json:"tableStore"`
	Worlds     []int  `json:"worlds"`
}

// ServiceStoppedPayload captures the reason the service stopped.
type ServiceStoppedPayload struct {
	Reason string `json:"reason"`
}

// ServiceStarted publishes a service start event.
func ServiceStarted(ctx context.Context, pub logging.Publisher, payload ServiceStartedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventServiceStarted,
		Actor:    logging.EntityRef{ID: "service", Kind: logging.EntityKindUnknown},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}

// ServiceStopped publishes a service stop event.
func ServiceStopped(ctx context.Context, pub logging.Publisher, payload ServiceStoppedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventServiceStopped,
		Actor:    logging.EntityRef{ID: "service", Kind: logging.EntityKindUnknown},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}
