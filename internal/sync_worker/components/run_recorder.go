package components

import (
	"context"
	"errors"
	"log/slog"

	"github.com/venue-commerce-admin/internal/domain/shared"
	"github.com/venue-commerce-admin/internal/domain/syncrun"
	"github.com/venue-commerce-admin/internal/sync_worker/service"
)

type RunRecorderImpl struct {
	runs   syncrun.Repository
	logger *slog.Logger
}

func NewRunRecorder(runs syncrun.Repository, logger *slog.Logger) service.RunRecorder {
	return &RunRecorderImpl{
		runs:   runs,
		logger: logger,
	}
}

// Start marks the run RUNNING, creating it first when the API never recorded it
func (r *RunRecorderImpl) Start(ctx context.Context, request *shared.SyncRequest) error {
	err := r.runs.MarkRunning(ctx, request.RequestID)
	if !errors.Is(err, syncrun.ErrRunNotFound{}) {
		return err
	}
	if err := r.ensure(ctx, request); err != nil {
		return err
	}
	return r.runs.MarkRunning(ctx, request.RequestID)
}

// Complete stores the result
func (r *RunRecorderImpl) Complete(ctx context.Context, request *shared.SyncRequest, result *shared.BatchResult) error {
	return r.runs.Complete(ctx, request.RequestID, result)
}

// Fail closes the run with reason, creating it first if needed
func (r *RunRecorderImpl) Fail(ctx context.Context, request *shared.SyncRequest, reason string) error {
	r.logger.Info("Recording failed sync run", "run_id", request.RequestID.String(), "reason", reason)

	err := r.runs.Fail(ctx, request.RequestID, reason)
	if !errors.Is(err, syncrun.ErrRunNotFound{}) {
		return err
	}
	if err := r.ensure(ctx, request); err != nil {
		return err
	}
	return r.runs.Fail(ctx, request.RequestID, reason)
}

func (r *RunRecorderImpl) ensure(ctx context.Context, request *shared.SyncRequest) error {
	r.logger.Warn("Sync run missing, creating it", "run_id", request.RequestID.String())
	err := r.runs.Create(ctx, syncrun.NewPendingRun(request))
	if err != nil && !errors.Is(err, syncrun.ErrDuplicateRun{}) {
		r.logger.Error("Failed to create missing sync run", "run_id", request.RequestID.String(), "error", err)
		return err
	}
	return nil
}
