package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/venue-commerce-admin/internal/domain/order"
	"github.com/venue-commerce-admin/internal/domain/payout"
	"github.com/venue-commerce-admin/internal/domain/shared"
	"github.com/venue-commerce-admin/internal/domain/syncrun"
	"github.com/venue-commerce-admin/internal/reconciliation/ratecache"
	"github.com/venue-commerce-admin/internal/reconciliation/sources"
)

// OrderService defines the order lifecycle operations of the admin API
type OrderService interface {
	// CreateManual numbers and stores an operator-entered order.
	// Returns order.ErrDuplicateExternalID if the external id is already imported
	CreateManual(ctx context.Context, venueID string, in sources.Manual, correlationID string) (*order.Order, error)

	// GetOrder returns the order with its line items.
	// Returns order.ErrOrderNotFound if it doesn't exist
	GetOrder(ctx context.Context, id int64) (*order.Order, error)

	// ListOrders returns one page of the venue's orders and the venue's total count
	ListOrders(ctx context.Context, venueID string, page, perPage int) ([]*order.Order, int64, error)

	// PatchOrder applies a partial update to an order already loaded by the caller
	PatchOrder(ctx context.Context, o *order.Order, patch order.Patch, correlationID string) (*order.Order, error)

	DeleteOrder(ctx context.Context, o *order.Order, correlationID string) error

	// BulkDelete removes the venue's orders among ids; ids of other venues are ignored
	BulkDelete(ctx context.Context, venueID string, ids []int64, correlationID string) (int, error)

	// ImportCSV reconciles a legacy export. Any malformed row rejects the whole file
	ImportCSV(ctx context.Context, venueID, text string, rate float64, correlationID string) (*shared.BatchResult, error)
}

// RateService exposes the exchange rate cache and the amount calculator
type RateService interface {
	CurrentRate(ctx context.Context, from, to string) ratecache.Quote

	// Convert prices a local amount. A missing rate falls back to the cached local rate
	Convert(ctx context.Context, localAmount *float64, rate *float64, totalUSD float64) Conversion
}

// PayoutService lists recorded payouts
type PayoutService interface {
	ListPayouts(ctx context.Context, venueID string, page, perPage int) ([]*payout.Payout, int64, error)
}

// SyncService queues upstream syncs for the sync worker and reports on them
type SyncService interface {
	// RequestSync records a PENDING run and publishes the request
	RequestSync(ctx context.Context, req *shared.SyncRequest) (*syncrun.Run, error)

	// GetRun returns syncrun.ErrRunNotFound if the run doesn't exist
	GetRun(ctx context.Context, runID uuid.UUID) (*syncrun.Run, error)

	ListRuns(ctx context.Context, venueID string, page, perPage int) ([]*syncrun.Run, error)
}
