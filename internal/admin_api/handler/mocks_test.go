package handler

import (
	"context"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/venue-commerce-admin/internal/admin_api/middleware"
	"github.com/venue-commerce-admin/internal/admin_api/service"
	"github.com/venue-commerce-admin/internal/domain/order"
	"github.com/venue-commerce-admin/internal/domain/payout"
	"github.com/venue-commerce-admin/internal/domain/shared"
	"github.com/venue-commerce-admin/internal/domain/syncrun"
	"github.com/venue-commerce-admin/internal/domain/venue"
	"github.com/venue-commerce-admin/internal/reconciliation/ratecache"
	"github.com/venue-commerce-admin/internal/reconciliation/sources"
)

// PaginatedResponse is a generic version of Response for testing paginated data
type PaginatedResponse[T any] struct {
	Data          []T        `json:"data"`
	Error         *ErrorInfo `json:"error,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
	Meta          *MetaInfo  `json:"meta,omitempty"`
}

// DataResponse is a typed version of Response for decoding single objects
type DataResponse[T any] struct {
	Data          T          `json:"data"`
	Error         *ErrorInfo `json:"error,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// newTestRouter mimics the production chain with a fixed session
func newTestRouter(session *venue.Session) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.CorrelationID())
	router.Use(func(c *gin.Context) {
		if session != nil {
			c.Set(middleware.SessionKey, session)
		}
		c.Next()
	})
	return router
}

var (
	venueUser = &venue.Session{UserID: "user-1", Role: venue.RoleUser, VenueIDs: []string{"venue-1"}}
	adminUser = &venue.Session{UserID: "admin-1", Role: venue.RoleAdmin}
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateManual(ctx context.Context, venueID string, in sources.Manual, correlationID string) (*order.Order, error) {
	args := m.Called(ctx, venueID, in, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, id int64) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, venueID string, page, perPage int) ([]*order.Order, int64, error) {
	args := m.Called(ctx, venueID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*order.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderService) PatchOrder(ctx context.Context, o *order.Order, patch order.Patch, correlationID string) (*order.Order, error) {
	args := m.Called(ctx, o, patch, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) DeleteOrder(ctx context.Context, o *order.Order, correlationID string) error {
	return m.Called(ctx, o, correlationID).Error(0)
}

func (m *MockOrderService) BulkDelete(ctx context.Context, venueID string, ids []int64, correlationID string) (int, error) {
	args := m.Called(ctx, venueID, ids, correlationID)
	return args.Int(0), args.Error(1)
}

func (m *MockOrderService) ImportCSV(ctx context.Context, venueID, text string, rate float64, correlationID string) (*shared.BatchResult, error) {
	args := m.Called(ctx, venueID, text, rate, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.BatchResult), args.Error(1)
}

type MockRateService struct {
	mock.Mock
}

func (m *MockRateService) CurrentRate(ctx context.Context, from, to string) ratecache.Quote {
	return m.Called(ctx, from, to).Get(0).(ratecache.Quote)
}

func (m *MockRateService) Convert(ctx context.Context, localAmount *float64, rate *float64, totalUSD float64) service.Conversion {
	return m.Called(ctx, localAmount, rate, totalUSD).Get(0).(service.Conversion)
}

type MockPayoutService struct {
	mock.Mock
}

func (m *MockPayoutService) ListPayouts(ctx context.Context, venueID string, page, perPage int) ([]*payout.Payout, int64, error) {
	args := m.Called(ctx, venueID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*payout.Payout), args.Get(1).(int64), args.Error(2)
}

type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) RequestSync(ctx context.Context, req *shared.SyncRequest) (*syncrun.Run, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncrun.Run), args.Error(1)
}

func (m *MockSyncService) GetRun(ctx context.Context, runID uuid.UUID) (*syncrun.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncrun.Run), args.Error(1)
}

func (m *MockSyncService) ListRuns(ctx context.Context, venueID string, page, perPage int) ([]*syncrun.Run, error) {
	args := m.Called(ctx, venueID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*syncrun.Run), args.Error(1)
}
