package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/venue-commerce-admin/internal/domain/store"
	"github.com/venue-commerce-admin/internal/platform/persistence"
)

// StoreRepository reads connected Shopify stores
type StoreRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewStoreRepository(logger *slog.Logger, db *persistence.PostgresDB) store.Repository {
	return &StoreRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *StoreRepository) GetByID(ctx context.Context, id string) (*store.Store, error) {
	query := `
		SELECT id, venue_id, domain, access_token, currency, created_at
		FROM shopify_stores
		WHERE id = $1
	`

	var s store.Store
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.VenueID,
		&s.Domain,
		&s.AccessToken,
		&s.Currency,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrStoreNotFound{ID: id}
		}
		r.logger.Error("Failed to get shopify store", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get shopify store: %w", err)
	}
	return &s, nil
}

func (r *StoreRepository) ListByVenue(ctx context.Context, venueID string) ([]*store.Store, error) {
	query := `
		SELECT id, venue_id, domain, access_token, currency, created_at
		FROM shopify_stores
		WHERE venue_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.querier.Query(ctx, query, venueID)
	if err != nil {
		r.logger.Error("Failed to list shopify stores", "venue_id", venueID, "error", err)
		return nil, fmt.Errorf("failed to list shopify stores: %w", err)
	}
	defer rows.Close()

	stores := []*store.Store{}
	for rows.Next() {
		var s store.Store
		if err := rows.Scan(&s.ID, &s.VenueID, &s.Domain, &s.AccessToken, &s.Currency, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shopify store: %w", err)
		}
		stores = append(stores, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over shopify stores: %w", err)
	}
	return stores, nil
}
