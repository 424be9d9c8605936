package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/venue-commerce-admin/internal/domain/shared"
	"github.com/venue-commerce-admin/internal/domain/syncrun"
	"github.com/venue-commerce-admin/internal/sync_worker/service"
)

type RunValidatorImpl struct {
	runs   syncrun.Repository
	logger *slog.Logger
}

func NewRunValidator(runs syncrun.Repository, logger *slog.Logger) service.RunValidator {
	return &RunValidatorImpl{
		runs:   runs,
		logger: logger,
	}
}

// Validate checks the request carries what its kind needs
func (v *RunValidatorImpl) Validate(ctx context.Context, request *shared.SyncRequest) error {
	if err := request.Validate(); err != nil {
		v.logger.Error("Invalid sync request", "run_id", request.RequestID.String(), "kind", request.Kind, "error", err)
		return err
	}
	return nil
}

// CheckIdempotency skips runs that already reached a terminal state. A missing
// run is processed; the recorder creates it.
func (v *RunValidatorImpl) CheckIdempotency(ctx context.Context, request *shared.SyncRequest) (bool, error) {
	logger := v.logger
	if request.CorrelationID != "" {
		logger = v.logger.With("correlation_id", request.CorrelationID)
	}

	run, err := v.runs.GetByRunID(ctx, request.RequestID)
	if err != nil {
		if errors.Is(err, syncrun.ErrRunNotFound{}) {
			return false, nil
		}
		logger.Error("Failed to check sync run for idempotency", "run_id", request.RequestID.String(), "error", err)
		return false, fmt.Errorf("idempotency check failed for run %s: %w", request.RequestID, err)
	}

	if run.Status.IsTerminal() {
		logger.Info("Sync run already finished (idempotency)", "run_id", request.RequestID.String(), "status", run.Status)
		return true, nil
	}
	return false, nil
}
