package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EventInventoryAdjusted    = "inventory.adjusted"
	EventInventoryTransferred = "inventory.transferred"
	EventInventoryLowStock    = "inventory.low_stock"
	EventDocumentStatus       = "purchase_document.status_changed"
	EventDocumentDeleted      = "purchase_document.deleted"
)

// Event is a notification emitted after a mutation has committed.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload"`
}

// EventPublisher delivers committed-state notifications to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func newEvent(typ string, payload map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// notify publishes e and logs delivery failures. The mutation has already
// committed, so a failed publish never fails the operation.
func notify(ctx context.Context, pub EventPublisher, logger *zap.Logger, e Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, e); err != nil {
		logger.Warn("event publish failed",
			zap.String("event_type", e.Type),
			zap.String("event_id", e.ID),
			zap.Error(err),
		)
	}
}

// notifyLowStock publishes inventory.low_stock for every record left below its
// minimum. Records at or above their minimum are skipped.
func notifyLowStock(ctx context.Context, pub EventPublisher, logger *zap.Logger, recs ...InventoryRecord) {
	for _, rec := range recs {
		if !rec.IsLow() {
			continue
		}
		logger.Warn("stock below minimum",
			zap.Int("product_id", rec.ProductID),
			zap.String("location", rec.Location),
			zap.String("quantity", rec.Quantity.String()),
			zap.String("min_stock", rec.MinStock.String()),
		)
		notify(ctx, pub, logger, newEvent(EventInventoryLowStock, map[string]any{
			"product_id": rec.ProductID,
			"location":   rec.Location,
			"quantity":   rec.Quantity.String(),
			"min_stock":  rec.MinStock.String(),
		}))
	}
}
