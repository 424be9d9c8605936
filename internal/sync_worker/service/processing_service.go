package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/venue-commerce-admin/internal/domain/shared"
)

type ProcessingServiceImpl struct {
	validator RunValidator
	syncers   map[shared.SyncKind]Syncer
	recorder  RunRecorder
	logger    *slog.Logger
}

func NewProcessingService(
	validator RunValidator,
	syncers map[shared.SyncKind]Syncer,
	recorder RunRecorder,
	logger *slog.Logger,
) ProcessingService {
	return &ProcessingServiceImpl{
		validator: validator,
		syncers:   syncers,
		recorder:  recorder,
		logger:    logger,
	}
}

// ProcessSync handles the core logic for one sync request. Upstream and
// reconciliation failures close the run as FAILED and are acknowledged; only
// bookkeeping failures and shutdown are returned for redelivery.
func (s *ProcessingServiceImpl) ProcessSync(ctx context.Context, request *shared.SyncRequest) error {
	logger := s.logger.With("run_id", request.RequestID.String(), "kind", request.Kind, "venue_id", request.VenueID)
	if request.CorrelationID != "" {
		logger = logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Processing sync request")

	// 1. Validate the request
	if err := s.validator.Validate(ctx, request); err != nil {
		logger.Error("Sync request validation failed", "error", err)
		if recordErr := s.recorder.Fail(ctx, request, err.Error()); recordErr != nil {
			logger.Error("Failed to record invalid sync request", "error", recordErr)
		}
		return nil
	}

	// 2. Check idempotency
	skip, err := s.validator.CheckIdempotency(ctx, request)
	if err != nil {
		return err
	}
	if skip {
		return nil
	}

	syncer, ok := s.syncers[request.Kind]
	if !ok {
		logger.Error("No syncer registered for kind")
		if recordErr := s.recorder.Fail(ctx, request, fmt.Sprintf("unsupported sync kind %q", request.Kind)); recordErr != nil {
			logger.Error("Failed to record unsupported sync kind", "error", recordErr)
		}
		return nil
	}

	// 3. Mark the run as started
	if err := s.recorder.Start(ctx, request); err != nil {
		return fmt.Errorf("failed to start sync run %s: %w", request.RequestID, err)
	}

	// 4. Pull and reconcile
	result, err := syncer.Sync(ctx, request)
	if err != nil {
		if ctx.Err() != nil {
			logger.Warn("Sync interrupted by shutdown", "error", err)
			return ctx.Err()
		}
		logger.Error("Sync failed", "error", err)
		if recordErr := s.recorder.Fail(ctx, request, err.Error()); recordErr != nil {
			logger.Error("Failed to record sync failure", "error", recordErr)
			return recordErr
		}
		return nil
	}

	// 5. Close the run with its outcomes
	if err := s.recorder.Complete(ctx, request, result); err != nil {
		logger.Error("Failed to complete sync run", "error", err)
		return fmt.Errorf("failed to complete sync run %s: %w", request.RequestID, err)
	}

	logger.Info("Sync completed",
		"imported", result.Imported,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return nil
}
