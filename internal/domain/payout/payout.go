package payout

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/venue-commerce-admin/internal/domain/pricing"
)

var ErrMissingVenue = errors.New("payout venue is required")

// Status of a payout
type Status string

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
	StatusFailed  Status = "FAILED"
)

// Payout is a transfer recorded independently of orders.
type Payout struct {
	ID                   int64     `json:"id"`
	VenueID              string    `json:"venue_id"`
	Amount               float64   `json:"amount"` // always a positive magnitude
	Currency             string    `json:"currency"`
	Status               Status    `json:"status"`
	Description          string    `json:"description,omitempty"`
	PaidAt               time.Time `json:"paid_at"`
	MercuryTransactionID *string   `json:"mercury_transaction_id,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

// Draft is a payout about to be created from a bank transaction or by hand.
type Draft struct {
	VenueID              string
	Amount               float64
	Currency             string
	Status               Status
	Description          string
	PaidAt               time.Time
	MercuryTransactionID *string
}

// NewPayout builds a payout, storing the absolute amount.
func NewPayout(d *Draft, now time.Time) (*Payout, error) {
	if d.VenueID == "" {
		return nil, ErrMissingVenue
	}
	status := d.Status
	if status == "" {
		status = StatusPaid
	}
	paidAt := d.PaidAt
	if paidAt.IsZero() {
		paidAt = now
	}
	return &Payout{
		VenueID:              d.VenueID,
		Amount:               pricing.Round2(math.Abs(d.Amount)),
		Currency:             d.Currency,
		Status:               status,
		Description:          d.Description,
		PaidAt:               paidAt,
		MercuryTransactionID: d.MercuryTransactionID,
		CreatedAt:            now,
	}, nil
}

// Repository persists payouts
type Repository interface {
	Create(ctx context.Context, payout *Payout) error

	// FindExistingMercuryIDs returns which of the given bank transaction ids are already stored
	FindExistingMercuryIDs(ctx context.Context, ids []string) (map[string]struct{}, error)

	ListByVenue(ctx context.Context, venueID string, limit, offset int) ([]*Payout, error)
	CountByVenue(ctx context.Context, venueID string) (int64, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrDuplicateMercuryTransaction indicates the bank transaction was already imported
type ErrDuplicateMercuryTransaction struct {
	TransactionID string
}

func (e ErrDuplicateMercuryTransaction) Error() string {
	return "payout already recorded for bank transaction: " + e.TransactionID
}
