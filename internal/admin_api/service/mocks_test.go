package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
	"github.com/venue-commerce-admin/internal/domain/history"
	"github.com/venue-commerce-admin/internal/domain/order"
	"github.com/venue-commerce-admin/internal/domain/payout"
	"github.com/venue-commerce-admin/internal/domain/shared"
	"github.com/venue-commerce-admin/internal/domain/store"
	"github.com/venue-commerce-admin/internal/domain/syncrun"
	"github.com/venue-commerce-admin/internal/reconciliation/numbering"
	"github.com/venue-commerce-admin/internal/reconciliation/ratecache"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByExternalIDs(ctx context.Context, ids []string) (map[string]*order.Order, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) ReplaceLineItems(ctx context.Context, orderID int64, items []order.LineItem) error {
	return m.Called(ctx, orderID, items).Error(0)
}

func (m *MockOrderRepository) LatestOrderNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockOrderRepository) ListByVenue(ctx context.Context, venueID string, limit, offset int) ([]*order.Order, error) {
	args := m.Called(ctx, venueID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) CountByVenue(ctx context.Context, venueID string) (int64, error) {
	args := m.Called(ctx, venueID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOrderRepository) DeleteMany(ctx context.Context, venueID string, ids []int64) ([]*order.Order, error) {
	args := m.Called(ctx, venueID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderRepository) WithTx(tx pgx.Tx) order.Repository {
	return m
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, tx pgx.Tx, eventType history.EventType, o *order.Order, correlationID string) error {
	return m.Called(ctx, eventType, o.ID, correlationID).Error(0)
}

type MockCSVImporter struct {
	mock.Mock
}

func (m *MockCSVImporter) Import(ctx context.Context, venueID, text string, rate float64, correlationID string) (*shared.BatchResult, error) {
	args := m.Called(ctx, venueID, text, rate, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.BatchResult), args.Error(1)
}

type MockPayoutRepository struct {
	mock.Mock
}

func (m *MockPayoutRepository) Create(ctx context.Context, p *payout.Payout) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPayoutRepository) FindExistingMercuryIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func (m *MockPayoutRepository) ListByVenue(ctx context.Context, venueID string, limit, offset int) ([]*payout.Payout, error) {
	args := m.Called(ctx, venueID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payout.Payout), args.Error(1)
}

func (m *MockPayoutRepository) CountByVenue(ctx context.Context, venueID string) (int64, error) {
	args := m.Called(ctx, venueID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPayoutRepository) WithTx(tx pgx.Tx) payout.Repository {
	return m
}

type MockSyncRunRepository struct {
	mock.Mock
}

func (m *MockSyncRunRepository) Create(ctx context.Context, run *syncrun.Run) error {
	return m.Called(ctx, run).Error(0)
}

func (m *MockSyncRunRepository) GetByRunID(ctx context.Context, runID uuid.UUID) (*syncrun.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncrun.Run), args.Error(1)
}

func (m *MockSyncRunRepository) MarkRunning(ctx context.Context, runID uuid.UUID) error {
	return m.Called(ctx, runID).Error(0)
}

func (m *MockSyncRunRepository) Complete(ctx context.Context, runID uuid.UUID, result *shared.BatchResult) error {
	return m.Called(ctx, runID, result).Error(0)
}

func (m *MockSyncRunRepository) Fail(ctx context.Context, runID uuid.UUID, reason string) error {
	return m.Called(ctx, runID, reason).Error(0)
}

func (m *MockSyncRunRepository) ListByVenue(ctx context.Context, venueID string, limit, offset int) ([]*syncrun.Run, error) {
	args := m.Called(ctx, venueID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*syncrun.Run), args.Error(1)
}

type MockStoreRepository struct {
	mock.Mock
}

func (m *MockStoreRepository) GetByID(ctx context.Context, id string) (*store.Store, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Store), args.Error(1)
}

func (m *MockStoreRepository) ListByVenue(ctx context.Context, venueID string) ([]*store.Store, error) {
	args := m.Called(ctx, venueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Store), args.Error(1)
}

type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockMessagePublisher) Close() error {
	return m.Called().Error(0)
}

type MockRateQuoter struct {
	mock.Mock
}

func (m *MockRateQuoter) GetCurrentRate(ctx context.Context, from, to string) ratecache.Quote {
	return m.Called(ctx, from, to).Get(0).(ratecache.Quote)
}

// fakeNumbers hands out numbers after a fixed prior maximum
type fakeNumbers struct {
	latest int
	err    error
	calls  int
}

func (f *fakeNumbers) WithNumbers(ctx context.Context, n int, fn func(context.Context, []string) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	numbers := make([]string, n)
	for i := range numbers {
		numbers[i] = numbering.Format(f.latest + 1 + i)
	}
	return fn(ctx, numbers)
}

type fakeRates struct {
	rate  float64
	calls int
}

func (f *fakeRates) LocalRate(ctx context.Context) float64 {
	f.calls++
	return f.rate
}

type fakeTx struct{ calls int }

func (f *fakeTx) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	f.calls++
	return fn(nil)
}
