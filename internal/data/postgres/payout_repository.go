package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/venue-commerce-admin/internal/domain/payout"
	"github.com/venue-commerce-admin/internal/platform/persistence"
)

const payoutsMercuryTransactionKey = "payouts_mercury_transaction_id_key"

// PayoutRepository implements payout.Repository for PostgreSQL
type PayoutRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewPayoutRepository(logger *slog.Logger, db *persistence.PostgresDB) payout.Repository {
	return &PayoutRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *PayoutRepository) WithTx(tx pgx.Tx) payout.Repository {
	return &PayoutRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func (r *PayoutRepository) Create(ctx context.Context, p *payout.Payout) error {
	query := `
		INSERT INTO payouts (venue_id, amount, currency, status, description, paid_at, mercury_transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		p.VenueID,
		p.Amount,
		p.Currency,
		p.Status,
		p.Description,
		p.PaidAt,
		p.MercuryTransactionID,
		p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok && constraint == payoutsMercuryTransactionKey {
			return payout.ErrDuplicateMercuryTransaction{TransactionID: derefString(p.MercuryTransactionID)}
		}
		r.logger.Error("Failed to create payout", "venue_id", p.VenueID, "error", err)
		return fmt.Errorf("failed to create payout: %w", err)
	}
	return nil
}

// FindExistingMercuryIDs checks the whole batch of bank transaction ids in one query
func (r *PayoutRepository) FindExistingMercuryIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	rows, err := r.querier.Query(ctx,
		`SELECT mercury_transaction_id FROM payouts WHERE mercury_transaction_id = ANY($1)`, ids)
	if err != nil {
		r.logger.Error("Failed to look up existing bank transactions", "count", len(ids), "error", err)
		return nil, fmt.Errorf("failed to look up existing bank transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan bank transaction id: %w", err)
		}
		existing[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over bank transaction ids: %w", err)
	}
	return existing, nil
}

func (r *PayoutRepository) ListByVenue(ctx context.Context, venueID string, limit, offset int) ([]*payout.Payout, error) {
	query := `
		SELECT id, venue_id, amount, currency, status, description, paid_at, mercury_transaction_id, created_at
		FROM payouts
		WHERE venue_id = $1
		ORDER BY paid_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, venueID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list payouts", "venue_id", venueID, "error", err)
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}
	defer rows.Close()

	payouts := []*payout.Payout{}
	for rows.Next() {
		var p payout.Payout
		if err := rows.Scan(
			&p.ID,
			&p.VenueID,
			&p.Amount,
			&p.Currency,
			&p.Status,
			&p.Description,
			&p.PaidAt,
			&p.MercuryTransactionID,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payout: %w", err)
		}
		payouts = append(payouts, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over payouts: %w", err)
	}
	return payouts, nil
}

func (r *PayoutRepository) CountByVenue(ctx context.Context, venueID string) (int64, error) {
	var count int64
	if err := r.querier.QueryRow(ctx, `SELECT COUNT(*) FROM payouts WHERE venue_id = $1`, venueID).Scan(&count); err != nil {
		r.logger.Error("Failed to count payouts", "venue_id", venueID, "error", err)
		return 0, fmt.Errorf("failed to count payouts: %w", err)
	}
	return count, nil
}
