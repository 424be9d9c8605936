package service

import (
	"context"

	"github.com/venue-commerce-admin/internal/domain/shared"
)

// ProcessingService runs one sync request end to end.
type ProcessingService interface {
	ProcessSync(ctx context.Context, request *shared.SyncRequest) error
}

// RunValidator validates sync requests before anything is fetched
type RunValidator interface {
	Validate(ctx context.Context, request *shared.SyncRequest) error
	CheckIdempotency(ctx context.Context, request *shared.SyncRequest) (bool, error)
}

// Syncer pulls one upstream batch and reconciles it
type Syncer interface {
	Sync(ctx context.Context, request *shared.SyncRequest) (*shared.BatchResult, error)
}

// RunRecorder moves the audit record of a request through its states
type RunRecorder interface {
	Start(ctx context.Context, request *shared.SyncRequest) error
	Complete(ctx context.Context, request *shared.SyncRequest, result *shared.BatchResult) error
	Fail(ctx context.Context, request *shared.SyncRequest, reason string) error
}
