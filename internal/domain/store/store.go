package store

import (
	"context"
	"strings"
	"time"
)

// Store is a Shopify shop connected to a venue.
type Store struct {
	ID          string    `json:"id"`
	VenueID     string    `json:"venue_id"`
	Domain      string    `json:"domain"`
	AccessToken string    `json:"-"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
}

// BaseURL returns the shop origin. Domains stored with a scheme are used as is.
func (s *Store) BaseURL() string {
	d := strings.TrimRight(strings.TrimSpace(s.Domain), "/")
	if strings.Contains(d, "://") {
		return d
	}
	return "https://" + d
}

// Repository reads connected stores
type Repository interface {
	GetByID(ctx context.Context, id string) (*Store, error)
	ListByVenue(ctx context.Context, venueID string) ([]*Store, error)
}

// ErrStoreNotFound indicates a missing store
type ErrStoreNotFound struct {
	ID string
}

func (e ErrStoreNotFound) Error() string {
	return "shopify store not found: " + e.ID
}

// Is matches any ErrStoreNotFound when the target ID is empty
func (e ErrStoreNotFound) Is(target error) bool {
	t, ok := target.(ErrStoreNotFound)
	if !ok {
		return false
	}
	return t.ID == "" || e.ID == t.ID
}
