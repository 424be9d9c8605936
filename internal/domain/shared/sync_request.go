package shared

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidSyncKind   = errors.New("invalid sync kind")
	ErrMissingVenue      = errors.New("venue id is required")
	ErrMissingStore      = errors.New("shopify store id is required")
	ErrInvalidDateWindow = errors.New("sync window start must be before its end")
)

// SyncKind names the upstream a sync request pulls from
type SyncKind string

const (
	SyncKindShopifyOrders   SyncKind = "SHOPIFY_ORDERS"
	SyncKindShopifyProducts SyncKind = "SHOPIFY_PRODUCTS"
	SyncKindMercuryPayouts  SyncKind = "MERCURY_PAYOUTS"
)

// SyncRequest is the Kafka message asking the worker to pull and reconcile
// one batch from an upstream system.
type SyncRequest struct {
	RequestID     uuid.UUID  `json:"request_id"`
	Kind          SyncKind   `json:"kind"`
	VenueID       string     `json:"venue_id"`
	StoreID       string     `json:"store_id,omitempty"`
	AccountID     string     `json:"account_id,omitempty"`
	Since         *time.Time `json:"since,omitempty"`
	Until         *time.Time `json:"until,omitempty"`
	CorrelationID string     `json:"correlation_id"`
	RequestedBy   string     `json:"requested_by,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
}

// Validate checks the fields every kind depends on.
func (r *SyncRequest) Validate() error {
	switch r.Kind {
	case SyncKindShopifyOrders, SyncKindShopifyProducts:
		if r.StoreID == "" {
			return ErrMissingStore
		}
	case SyncKindMercuryPayouts:
	default:
		return ErrInvalidSyncKind
	}
	if r.VenueID == "" {
		return ErrMissingVenue
	}
	if r.Since != nil && r.Until != nil && r.Until.Before(*r.Since) {
		return ErrInvalidDateWindow
	}
	return nil
}
