package outbox_poller

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/venue-commerce-admin/internal/domain/history"
	"github.com/venue-commerce-admin/internal/domain/order"
	"github.com/venue-commerce-admin/internal/domain/outbox"
	"github.com/venue-commerce-admin/internal/domain/shared"
)

type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	args := m.Called(tx)
	return args.Get(0).(outbox.Repository)
}

type MockHistoryRepo struct {
	mock.Mock
}

func (m *MockHistoryRepo) Create(ctx context.Context, event *history.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockHistoryRepo) GetByEventID(ctx context.Context, eventID uuid.UUID) (*history.Event, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*history.Event), args.Error(1)
}

func (m *MockHistoryRepo) ListByOrderID(ctx context.Context, orderID int64, limit, offset int) ([]*history.Event, error) {
	args := m.Called(ctx, orderID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*history.Event), args.Error(1)
}

type MockHistoryPublisher struct {
	mock.Mock
}

func (m *MockHistoryPublisher) Publish(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newOutboxMessage(t *testing.T, id int64, attempts int) (*outbox.Message, *history.Event) {
	t.Helper()
	o := &order.Order{ID: 100 + id, OrderNumber: "#1001", VenueID: "venue-1", Source: order.SourceManual, TotalAmount: 50, Currency: "USD"}
	event := history.NewEvent(history.EventCreated, o, "corr-1", time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC))
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return &outbox.Message{
		ID:        id,
		OrderID:   o.ID,
		EventType: history.EventCreated,
		Payload:   payload,
		Status:    shared.OutboxStatusPending,
		Attempts:  attempts,
		CreatedAt: time.Now(),
	}, event
}
