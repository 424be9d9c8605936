package components

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/venue-commerce-admin/internal/domain/shared"
	"github.com/venue-commerce-admin/internal/domain/store"
	"github.com/venue-commerce-admin/internal/domain/syncrun"
	"github.com/venue-commerce-admin/internal/integrations/mercury"
	"github.com/venue-commerce-admin/internal/integrations/shopify"
	"github.com/venue-commerce-admin/internal/reconciliation/engine"
)

type MockSyncRunRepo struct {
	mock.Mock
}

func (m *MockSyncRunRepo) Create(ctx context.Context, run *syncrun.Run) error {
	return m.Called(ctx, run).Error(0)
}

func (m *MockSyncRunRepo) GetByRunID(ctx context.Context, runID uuid.UUID) (*syncrun.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncrun.Run), args.Error(1)
}

func (m *MockSyncRunRepo) MarkRunning(ctx context.Context, runID uuid.UUID) error {
	return m.Called(ctx, runID).Error(0)
}

func (m *MockSyncRunRepo) Complete(ctx context.Context, runID uuid.UUID, result *shared.BatchResult) error {
	return m.Called(ctx, runID, result).Error(0)
}

func (m *MockSyncRunRepo) Fail(ctx context.Context, runID uuid.UUID, reason string) error {
	return m.Called(ctx, runID, reason).Error(0)
}

func (m *MockSyncRunRepo) ListByVenue(ctx context.Context, venueID string, limit, offset int) ([]*syncrun.Run, error) {
	args := m.Called(ctx, venueID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*syncrun.Run), args.Error(1)
}

type MockStoreRepo struct {
	mock.Mock
}

func (m *MockStoreRepo) GetByID(ctx context.Context, id string) (*store.Store, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Store), args.Error(1)
}

func (m *MockStoreRepo) ListByVenue(ctx context.Context, venueID string) ([]*store.Store, error) {
	args := m.Called(ctx, venueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Store), args.Error(1)
}

type MockShopifyClient struct {
	mock.Mock
}

func (m *MockShopifyClient) ListOrders(ctx context.Context, s *store.Store, since *time.Time) ([]shopify.Order, error) {
	args := m.Called(ctx, s, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shopify.Order), args.Error(1)
}

func (m *MockShopifyClient) ListProducts(ctx context.Context, s *store.Store) ([]shopify.Product, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shopify.Product), args.Error(1)
}

type MockBankClient struct {
	mock.Mock
}

func (m *MockBankClient) ListAccounts(ctx context.Context) ([]mercury.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]mercury.Account), args.Error(1)
}

func (m *MockBankClient) ListTransactions(ctx context.Context, accountID string, start, end *time.Time) ([]mercury.Transaction, error) {
	args := m.Called(ctx, accountID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]mercury.Transaction), args.Error(1)
}

type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Reconcile(ctx context.Context, batch engine.Batch) (*shared.BatchResult, error) {
	args := m.Called(ctx, batch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.BatchResult), args.Error(1)
}

type MockPayoutImporter struct {
	mock.Mock
}

func (m *MockPayoutImporter) Import(ctx context.Context, venueID string, txs []mercury.Transaction, correlationID string) (*shared.BatchResult, error) {
	args := m.Called(ctx, venueID, txs, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.BatchResult), args.Error(1)
}

type MockCatalogSyncer struct {
	mock.Mock
}

func (m *MockCatalogSyncer) Sync(ctx context.Context, venueID, currency string, products []shopify.Product, correlationID string) (*shared.BatchResult, error) {
	args := m.Called(ctx, venueID, currency, products, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.BatchResult), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSyncRequest(kind shared.SyncKind) *shared.SyncRequest {
	return &shared.SyncRequest{
		RequestID:     uuid.New(),
		Kind:          kind,
		VenueID:       "venue-1",
		StoreID:       "store-1",
		CorrelationID: "corr-1",
		Timestamp:     time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC),
	}
}
