package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/venue-commerce-admin/internal/domain/product"
	"github.com/venue-commerce-admin/internal/platform/persistence"
)

const productsSKUVenueKey = "products_sku_venue_id_key"

// ProductRepository implements product.Repository for PostgreSQL
type ProductRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewProductRepository(logger *slog.Logger, db *persistence.PostgresDB) product.Repository {
	return &ProductRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *ProductRepository) WithTx(tx pgx.Tx) product.Repository {
	return &ProductRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	query := `
		INSERT INTO products (venue_id, external_id, title, sku, price, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		p.VenueID,
		p.ExternalID,
		p.Title,
		p.SKU,
		p.Price,
		p.Currency,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok && constraint == productsSKUVenueKey {
			return product.ErrDuplicateSKU{VenueID: p.VenueID, SKU: p.SKU}
		}
		r.logger.Error("Failed to create product", "sku", p.SKU, "error", err)
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	query := `
		UPDATE products
		SET external_id = $1, title = $2, price = $3, currency = $4, updated_at = $5
		WHERE id = $6
	`

	if _, err := r.querier.Exec(ctx, query, p.ExternalID, p.Title, p.Price, p.Currency, p.UpdatedAt, p.ID); err != nil {
		r.logger.Error("Failed to update product", "id", p.ID, "error", err)
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// FindBySKUs resolves a batch of SKUs for one venue in a single query
func (r *ProductRepository) FindBySKUs(ctx context.Context, venueID string, skus []string) (map[string]*product.Product, error) {
	found := make(map[string]*product.Product, len(skus))
	if len(skus) == 0 {
		return found, nil
	}

	query := `
		SELECT id, venue_id, external_id, title, sku, price, currency, created_at, updated_at
		FROM products
		WHERE venue_id = $1 AND sku = ANY($2)
	`

	rows, err := r.querier.Query(ctx, query, venueID, skus)
	if err != nil {
		r.logger.Error("Failed to look up products by sku", "venue_id", venueID, "error", err)
		return nil, fmt.Errorf("failed to look up products by sku: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p product.Product
		if err := rows.Scan(&p.ID, &p.VenueID, &p.ExternalID, &p.Title, &p.SKU, &p.Price, &p.Currency, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		found[p.SKU] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over products: %w", err)
	}
	return found, nil
}
