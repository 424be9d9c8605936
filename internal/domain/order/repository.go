package order

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
)

// Repository defines order persistence operations
type Repository interface {
	// Create inserts the order and its line items and sets ID on both
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id int64) (*Order, error)

	// FindByExternalIDs resolves a whole batch in one query, keyed by external id
	FindByExternalIDs(ctx context.Context, externalIDs []string) (map[string]*Order, error)

	// Update writes the mutable columns; line items are untouched
	Update(ctx context.Context, order *Order) error

	// ReplaceLineItems deletes every line item of the order and inserts the given ones
	ReplaceLineItems(ctx context.Context, orderID int64, items []LineItem) error

	// LatestOrderNumber returns the number of the most recently created order, or "" when empty
	LatestOrderNumber(ctx context.Context) (string, error)

	ListByVenue(ctx context.Context, venueID string, limit, offset int) ([]*Order, error)
	CountByVenue(ctx context.Context, venueID string) (int64, error)
	Delete(ctx context.Context, id int64) error
	// DeleteMany removes the venue's orders among ids and returns them without line items
	DeleteMany(ctx context.Context, venueID string, ids []int64) ([]*Order, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrOrderNotFound indicates a missing order
type ErrOrderNotFound struct {
	ID int64
}

func (e ErrOrderNotFound) Error() string {
	return "order not found: " + strconv.FormatInt(e.ID, 10)
}

// Is matches any ErrOrderNotFound when the target ID is zero
func (e ErrOrderNotFound) Is(target error) bool {
	t, ok := target.(ErrOrderNotFound)
	if !ok {
		return false
	}
	return t.ID == 0 || t.ID == e.ID
}

// ErrDuplicateExternalID indicates the upstream id is already imported
type ErrDuplicateExternalID struct {
	ExternalID string
}

func (e ErrDuplicateExternalID) Error() string {
	return "order with external id already exists: " + e.ExternalID
}

func (e ErrDuplicateExternalID) Is(target error) bool {
	t, ok := target.(ErrDuplicateExternalID)
	if !ok {
		return false
	}
	return t.ExternalID == "" || t.ExternalID == e.ExternalID
}

// ErrDuplicateOrderNumber indicates a lost allocation race caught by the unique index
type ErrDuplicateOrderNumber struct {
	OrderNumber string
}

func (e ErrDuplicateOrderNumber) Error() string {
	return "order number already taken: " + e.OrderNumber
}
