// Package events publishes an audit trail of the mutations made through the
// console. Publishing never blocks or fails a user request: the Kafka writer
// queues messages and reports delivery from its own goroutine.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/enfoque_qr/pkg/logging"
	"github.com/Skotchmaster/enfoque_qr/pkg/metrics"
)

const (
	EquipmentCreated   = "equipment_created"
	EquipmentUpdated   = "equipment_updated"
	EquipmentDeleted   = "equipment_deleted"
	UserCreated        = "user_created"
	UserUpdated        = "user_updated"
	UserDeleted        = "user_deleted"
	DocumentUploaded   = "document_uploaded"
	DocumentDeleted    = "document_deleted"
	MaintenanceCreated = "maintenance_created"
)

type Event struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	OccurredAt    time.Time      `json:"occurred_at"`
	ActorID       string         `json:"actor_id,omitempty"`
	InstitutionID string         `json:"institution_id,omitempty"`
	ResourceID    string         `json:"resource_id"`
	Data          map[string]any `json:"data,omitempty"`
}

func New(eventType, resourceID string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		ResourceID: resourceID,
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Emit publishes ev and only logs a failure.
func Emit(ctx context.Context, p Publisher, ev Event) {
	if p == nil {
		return
	}
	err := p.Publish(ctx, ev)
	metrics.EventPublished(ev.Type, err)
	if err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", ev.Type, "resource_id", ev.ResourceID, "error", err)
	}
}

// Noop drops every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
