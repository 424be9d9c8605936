package syncrun

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/venue-commerce-admin/internal/domain/shared"
)

// Run is the audit record of one asynchronous sync request
type Run struct {
	RunID         uuid.UUID           `json:"run_id" bson:"run_id"`
	Kind          shared.SyncKind     `json:"kind" bson:"kind"`
	VenueID       string              `json:"venue_id" bson:"venue_id"`
	StoreID       string              `json:"store_id,omitempty" bson:"store_id,omitempty"`
	Status        shared.RunStatus    `json:"status" bson:"status"`
	Result        *shared.BatchResult `json:"result,omitempty" bson:"result,omitempty"`
	Error         string              `json:"error,omitempty" bson:"error,omitempty"`
	CorrelationID string              `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	RequestedBy   string              `json:"requested_by,omitempty" bson:"requested_by,omitempty"`
	CreatedAt     time.Time           `json:"created_at" bson:"created_at"`
	StartedAt     *time.Time          `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// NewPendingRun records a request at the moment it is accepted
func NewPendingRun(req *shared.SyncRequest) *Run {
	return &Run{
		RunID:         req.RequestID,
		Kind:          req.Kind,
		VenueID:       req.VenueID,
		StoreID:       req.StoreID,
		Status:        shared.RunStatusPending,
		CorrelationID: req.CorrelationID,
		RequestedBy:   req.RequestedBy,
		CreatedAt:     req.Timestamp,
	}
}

// Repository manages sync run persistence
type Repository interface {
	Create(ctx context.Context, run *Run) error
	GetByRunID(ctx context.Context, runID uuid.UUID) (*Run, error)
	MarkRunning(ctx context.Context, runID uuid.UUID) error
	Complete(ctx context.Context, runID uuid.UUID, result *shared.BatchResult) error
	Fail(ctx context.Context, runID uuid.UUID, reason string) error
	ListByVenue(ctx context.Context, venueID string, limit, offset int) ([]*Run, error)
}

// ErrRunNotFound indicates a missing sync run
type ErrRunNotFound struct {
	RunID uuid.UUID
}

func (e ErrRunNotFound) Error() string {
	return "sync run not found: " + e.RunID.String()
}

// Is matches any ErrRunNotFound when the target RunID is nil
func (e ErrRunNotFound) Is(target error) bool {
	t, ok := target.(ErrRunNotFound)
	if !ok {
		return false
	}
	if t.RunID == uuid.Nil {
		return true
	}
	return e.RunID == t.RunID
}

// ErrDuplicateRun indicates the run id was already recorded
type ErrDuplicateRun struct {
	RunID uuid.UUID
}

func (e ErrDuplicateRun) Error() string {
	return "duplicate sync run: " + e.RunID.String()
}

func (e ErrDuplicateRun) Is(target error) bool {
	t, ok := target.(ErrDuplicateRun)
	if !ok {
		return false
	}
	return t.RunID == uuid.Nil || e.RunID == t.RunID
}
