package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venue-commerce-admin/internal/domain/product"
)

func TestProductRepository_Create(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := &ProductRepository{querier: mock, logger: newTestLogger()}

	now := time.Now().UTC()
	p := &product.Product{VenueID: "venue-1", ExternalID: strPtr("77"), Title: "Mug", SKU: "MUG-1", Price: 12, Currency: "USD", CreatedAt: now, UpdatedAt: now}
	query := regexp.QuoteMeta("INSERT INTO products")

	mock.ExpectQuery(query).
		WithArgs(p.VenueID, p.ExternalID, p.Title, p.SKU, p.Price, p.Currency, p.CreatedAt, p.UpdatedAt).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))
	require.NoError(t, repo.Create(ctx, p))
	assert.Equal(t, int64(3), p.ID)

	mock.ExpectQuery(query).WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "products_sku_venue_id_key"})
	err = repo.Create(ctx, p)
	var dup product.ErrDuplicateSKU
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "MUG-1", dup.SKU)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_UpdateAndFind(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := &ProductRepository{querier: mock, logger: newTestLogger()}

	now := time.Now().UTC()
	p := &product.Product{ID: 3, ExternalID: strPtr("77"), Title: "Mug v2", Price: 14, Currency: "USD", UpdatedAt: now}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE products")).
		WithArgs(p.ExternalID, p.Title, p.Price, p.Currency, p.UpdatedAt, p.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, repo.Update(ctx, p))

	skus := []string{"MUG-1", "CUP-1"}
	mock.ExpectQuery(regexp.QuoteMeta("sku = ANY($2)")).
		WithArgs("venue-1", skus).
		WillReturnRows(pgxmock.NewRows([]string{"id", "venue_id", "external_id", "title", "sku", "price", "currency", "created_at", "updated_at"}).
			AddRow(int64(3), "venue-1", strPtr("77"), "Mug v2", "MUG-1", 14.0, "USD", now, now))

	found, err := repo.FindBySKUs(ctx, "venue-1", skus)
	require.NoError(t, err)
	require.Contains(t, found, "MUG-1")
	assert.NotContains(t, found, "CUP-1")

	assert.NoError(t, mock.ExpectationsWereMet())
}
