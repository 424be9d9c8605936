package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venue-commerce-admin/internal/domain/store"
)

func TestStoreRepository(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := &StoreRepository{querier: mock, logger: newTestLogger()}

	now := time.Now().UTC()
	columns := []string{"id", "venue_id", "domain", "access_token", "currency", "created_at"}

	t.Run("get", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).WithArgs("store-1").
			WillReturnRows(pgxmock.NewRows(columns).AddRow("store-1", "venue-1", "shop.myshopify.com", "shpat_x", "AED", now))

		s, err := repo.GetByID(ctx, "store-1")
		require.NoError(t, err)
		assert.Equal(t, "AED", s.Currency)
		assert.Equal(t, "shpat_x", s.AccessToken)
	})

	t.Run("get missing", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).WithArgs("nope").WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetByID(ctx, "nope")
		var nf store.ErrStoreNotFound
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "nope", nf.ID)
	})

	t.Run("list", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("WHERE venue_id = $1")).WithArgs("venue-1").
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow("store-1", "venue-1", "a.myshopify.com", "t1", "USD", now).
				AddRow("store-2", "venue-1", "b.myshopify.com", "t2", "AED", now))

		stores, err := repo.ListByVenue(ctx, "venue-1")
		require.NoError(t, err)
		assert.Len(t, stores, 2)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
