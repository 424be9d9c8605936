package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/venue-commerce-admin/internal/domain/shared"
	"github.com/venue-commerce-admin/internal/domain/store"
	"github.com/venue-commerce-admin/internal/domain/syncrun"
	"github.com/venue-commerce-admin/internal/platform/messaging/producers"
)

const queueFailureReason = "failed to queue sync request"

// SyncServiceImpl implements the SyncService interface
type SyncServiceImpl struct {
	runs     syncrun.Repository
	stores   store.Repository
	producer producers.MessagePublisher
	now      func() time.Time
	logger   *slog.Logger
}

func NewSyncService(logger *slog.Logger, runs syncrun.Repository, stores store.Repository, producer producers.MessagePublisher) SyncService {
	return &SyncServiceImpl{
		runs:     runs,
		stores:   stores,
		producer: producer,
		now:      time.Now,
		logger:   logger.With("component", "sync_service"),
	}
}

// RequestSync checks that a referenced store belongs to the venue, records the
// run as PENDING and publishes the request keyed by venue. A run whose request
// could not be published is marked FAILED.
func (s *SyncServiceImpl) RequestSync(ctx context.Context, req *shared.SyncRequest) (*syncrun.Run, error) {
	if req.RequestID == uuid.Nil {
		req.RequestID = uuid.New()
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = s.now().UTC()
	}
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	logger := s.logger.With("run_id", req.RequestID, "kind", req.Kind, "venue_id", req.VenueID, "correlation_id", req.CorrelationID)

	if req.StoreID != "" {
		st, err := s.stores.GetByID(ctx, req.StoreID)
		if err != nil {
			return nil, err
		}
		if st.VenueID != req.VenueID {
			logger.Warn("Store belongs to another venue", "store_id", req.StoreID)
			return nil, store.ErrStoreNotFound{ID: req.StoreID}
		}
	}

	run := syncrun.NewPendingRun(req)
	if err := s.runs.Create(ctx, run); err != nil {
		logger.Error("Failed to record sync run", "error", err)
		return nil, err
	}

	if err := s.producer.Publish(ctx, req.VenueID, req); err != nil {
		logger.Error("Failed to publish sync request", "error", err)
		if failErr := s.runs.Fail(ctx, run.RunID, queueFailureReason); failErr != nil {
			logger.Error("Failed to mark unqueued run as failed", "error", failErr)
		}
		return nil, err
	}

	logger.Info("Sync request queued")
	return run, nil
}

func (s *SyncServiceImpl) GetRun(ctx context.Context, runID uuid.UUID) (*syncrun.Run, error) {
	run, err := s.runs.GetByRunID(ctx, runID)
	if err != nil {
		if !errors.Is(err, syncrun.ErrRunNotFound{}) {
			s.logger.Error("Failed to get sync run", "run_id", runID, "error", err)
		}
		return nil, err
	}
	return run, nil
}

func (s *SyncServiceImpl) ListRuns(ctx context.Context, venueID string, page, perPage int) ([]*syncrun.Run, error) {
	offset := (page - 1) * perPage
	return s.runs.ListByVenue(ctx, venueID, perPage, offset)
}
