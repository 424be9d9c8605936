package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/venue-commerce-admin/internal/domain/shared"
)

type MockProcessingService struct {
	mock.Mock
}

func (m *MockProcessingService) ProcessSync(ctx context.Context, request *shared.SyncRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

type MockRunValidator struct {
	mock.Mock
}

func (m *MockRunValidator) Validate(ctx context.Context, request *shared.SyncRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockRunValidator) CheckIdempotency(ctx context.Context, request *shared.SyncRequest) (bool, error) {
	args := m.Called(ctx, request)
	return args.Bool(0), args.Error(1)
}

type MockSyncer struct {
	mock.Mock
}

func (m *MockSyncer) Sync(ctx context.Context, request *shared.SyncRequest) (*shared.BatchResult, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.BatchResult), args.Error(1)
}

type MockRunRecorder struct {
	mock.Mock
}

func (m *MockRunRecorder) Start(ctx context.Context, request *shared.SyncRequest) error {
	return m.Called(ctx, request).Error(0)
}

func (m *MockRunRecorder) Complete(ctx context.Context, request *shared.SyncRequest, result *shared.BatchResult) error {
	return m.Called(ctx, request, result).Error(0)
}

func (m *MockRunRecorder) Fail(ctx context.Context, request *shared.SyncRequest, reason string) error {
	return m.Called(ctx, request, reason).Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRequest(kind shared.SyncKind) *shared.SyncRequest {
	return &shared.SyncRequest{
		RequestID:     uuid.New(),
		Kind:          kind,
		VenueID:       "venue-1",
		StoreID:       "store-1",
		CorrelationID: "corr-1",
	}
}
