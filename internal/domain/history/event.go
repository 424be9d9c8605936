// Package history describes the audit trail of order changes that the sync
// worker copies from the outbox into the document store.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/venue-commerce-admin/internal/domain/order"
)

// EventType of an order change
type EventType string

const (
	EventCreated EventType = "CREATED"
	EventUpdated EventType = "UPDATED"
	EventDeleted EventType = "DELETED"
)

// Event is a snapshot of an order at the time it changed
type Event struct {
	EventID        uuid.UUID    `json:"event_id" bson:"event_id"`
	Type           EventType    `json:"type" bson:"type"`
	OrderID        int64        `json:"order_id" bson:"order_id"`
	OrderNumber    string       `json:"order_number" bson:"order_number"`
	ExternalID     string       `json:"external_id,omitempty" bson:"external_id,omitempty"`
	VenueID        string       `json:"venue_id" bson:"venue_id"`
	Source         order.Source `json:"source" bson:"source"`
	TotalAmount    float64      `json:"total_amount" bson:"total_amount"`
	OriginalAmount *float64     `json:"original_amount,omitempty" bson:"original_amount,omitempty"`
	ExchangeRate   *float64     `json:"exchange_rate,omitempty" bson:"exchange_rate,omitempty"`
	Currency       string       `json:"currency" bson:"currency"`
	LineItemCount  int          `json:"line_item_count" bson:"line_item_count"`
	CorrelationID  string       `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	OccurredAt     time.Time    `json:"occurred_at" bson:"occurred_at"`
	RecordedAt     *time.Time   `json:"recorded_at,omitempty" bson:"recorded_at,omitempty"`
}

// NewEvent snapshots the order
func NewEvent(t EventType, o *order.Order, correlationID string, now time.Time) *Event {
	e := &Event{
		EventID:        uuid.New(),
		Type:           t,
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		VenueID:        o.VenueID,
		Source:         o.Source,
		TotalAmount:    o.TotalAmount,
		OriginalAmount: o.OriginalAmount,
		ExchangeRate:   o.ExchangeRate,
		Currency:       o.Currency,
		LineItemCount:  len(o.LineItems),
		CorrelationID:  correlationID,
		OccurredAt:     now,
	}
	if o.ExternalID != nil {
		e.ExternalID = *o.ExternalID
	}
	return e
}

// Repository stores published events
type Repository interface {
	Create(ctx context.Context, event *Event) error
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*Event, error)
	ListByOrderID(ctx context.Context, orderID int64, limit, offset int) ([]*Event, error)
}

// ErrEventNotFound indicates a missing history event
type ErrEventNotFound struct {
	EventID uuid.UUID
}

func (e ErrEventNotFound) Error() string {
	return "order history event not found: " + e.EventID.String()
}

func (e ErrEventNotFound) Is(target error) bool {
	t, ok := target.(ErrEventNotFound)
	if !ok {
		return false
	}
	return t.EventID == uuid.Nil || e.EventID == t.EventID
}

// ErrDuplicateEvent indicates the event was already recorded
type ErrDuplicateEvent struct {
	EventID uuid.UUID
}

func (e ErrDuplicateEvent) Error() string {
	return "duplicate order history event: " + e.EventID.String()
}

func (e ErrDuplicateEvent) Is(target error) bool {
	t, ok := target.(ErrDuplicateEvent)
	if !ok {
		return false
	}
	return t.EventID == uuid.Nil || e.EventID == t.EventID
}
