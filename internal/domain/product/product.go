package product

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// Product is a catalog entry; SKU is unique per venue.
type Product struct {
	ID         int64     `json:"id"`
	VenueID    string    `json:"venue_id"`
	ExternalID *string   `json:"external_id,omitempty"`
	Title      string    `json:"title"`
	SKU        string    `json:"sku"`
	Price      float64   `json:"price"`
	Currency   string    `json:"currency"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Repository persists catalog entries
type Repository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error

	// FindBySKUs resolves a batch of SKUs for one venue in a single query
	FindBySKUs(ctx context.Context, venueID string, skus []string) (map[string]*Product, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrDuplicateSKU indicates the SKU already exists for the venue
type ErrDuplicateSKU struct {
	VenueID string
	SKU     string
}

func (e ErrDuplicateSKU) Error() string {
	return "duplicate sku " + e.SKU + " for venue " + e.VenueID
}
