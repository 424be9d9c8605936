package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/venue-commerce-admin/internal/domain/exchange"
	"github.com/venue-commerce-admin/internal/platform/persistence"
)

// ExchangeRateRepository keeps one cached row per currency pair
type ExchangeRateRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewExchangeRateRepository(logger *slog.Logger, db *persistence.PostgresDB) exchange.Repository {
	return &ExchangeRateRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Get returns ErrRateNotFound when the pair was never cached
func (r *ExchangeRateRepository) Get(ctx context.Context, from, to string) (*exchange.RateEntry, error) {
	query := `
		SELECT id, from_currency, to_currency, rate, fetched_at, expires_at
		FROM exchange_rates
		WHERE from_currency = $1 AND to_currency = $2
	`

	var e exchange.RateEntry
	err := r.querier.QueryRow(ctx, query, from, to).Scan(
		&e.ID,
		&e.FromCurrency,
		&e.ToCurrency,
		&e.Rate,
		&e.FetchedAt,
		&e.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, exchange.ErrRateNotFound{From: from, To: to}
		}
		r.logger.Error("Failed to read cached exchange rate", "from", from, "to", to, "error", err)
		return nil, fmt.Errorf("failed to read cached exchange rate: %w", err)
	}
	return &e, nil
}

// Upsert overwrites the pair's row; rates are never historized
func (r *ExchangeRateRepository) Upsert(ctx context.Context, e *exchange.RateEntry) error {
	query := `
		INSERT INTO exchange_rates (from_currency, to_currency, rate, fetched_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (from_currency, to_currency)
		DO UPDATE SET rate = EXCLUDED.rate, fetched_at = EXCLUDED.fetched_at, expires_at = EXCLUDED.expires_at
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		e.FromCurrency,
		e.ToCurrency,
		e.Rate,
		e.FetchedAt,
		e.ExpiresAt,
	).Scan(&e.ID)
	if err != nil {
		r.logger.Error("Failed to upsert exchange rate",
			"from", e.FromCurrency,
			"to", e.ToCurrency,
			"error", err,
		)
		return fmt.Errorf("failed to upsert exchange rate: %w", err)
	}
	return nil
}
