package components

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/venue-commerce-admin/internal/domain/shared"
	"github.com/venue-commerce-admin/internal/domain/syncrun"
)

func TestRunRecorder_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("marks existing run running", func(t *testing.T) {
		repo := &MockSyncRunRepo{}
		req := newSyncRequest(shared.SyncKindShopifyOrders)
		repo.On("MarkRunning", ctx, req.RequestID).Return(nil).Once()

		assert.NoError(t, NewRunRecorder(repo, newTestLogger()).Start(ctx, req))
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("creates missing run first", func(t *testing.T) {
		repo := &MockSyncRunRepo{}
		req := newSyncRequest(shared.SyncKindMercuryPayouts)
		repo.On("MarkRunning", ctx, req.RequestID).Return(syncrun.ErrRunNotFound{RunID: req.RequestID}).Once()
		repo.On("Create", ctx, mock.MatchedBy(func(run *syncrun.Run) bool {
			return run.RunID == req.RequestID && run.Status == shared.RunStatusPending && run.Kind == shared.SyncKindMercuryPayouts
		})).Return(nil).Once()
		repo.On("MarkRunning", ctx, req.RequestID).Return(nil).Once()

		assert.NoError(t, NewRunRecorder(repo, newTestLogger()).Start(ctx, req))
		repo.AssertExpectations(t)
	})

	t.Run("concurrent create tolerated", func(t *testing.T) {
		repo := &MockSyncRunRepo{}
		req := newSyncRequest(shared.SyncKindShopifyOrders)
		repo.On("MarkRunning", ctx, req.RequestID).Return(syncrun.ErrRunNotFound{RunID: req.RequestID}).Once()
		repo.On("Create", ctx, mock.Anything).Return(syncrun.ErrDuplicateRun{RunID: req.RequestID}).Once()
		repo.On("MarkRunning", ctx, req.RequestID).Return(nil).Once()

		assert.NoError(t, NewRunRecorder(repo, newTestLogger()).Start(ctx, req))
	})

	t.Run("store error returned", func(t *testing.T) {
		repo := &MockSyncRunRepo{}
		req := newSyncRequest(shared.SyncKindShopifyOrders)
		repo.On("MarkRunning", ctx, req.RequestID).Return(errors.New("mongo down")).Once()

		assert.EqualError(t, NewRunRecorder(repo, newTestLogger()).Start(ctx, req), "mongo down")
	})
}

func TestRunRecorder_CompleteAndFail(t *testing.T) {
	ctx := context.Background()
	req := newSyncRequest(shared.SyncKindShopifyOrders)
	result := shared.NewBatchResult(nil)

	repo := &MockSyncRunRepo{}
	repo.On("Complete", ctx, req.RequestID, result).Return(nil).Once()
	repo.On("Fail", ctx, req.RequestID, "boom").Return(syncrun.ErrRunNotFound{RunID: req.RequestID}).Once()
	repo.On("Create", ctx, mock.Anything).Return(nil).Once()
	repo.On("Fail", ctx, req.RequestID, "boom").Return(nil).Once()

	recorder := NewRunRecorder(repo, newTestLogger())
	assert.NoError(t, recorder.Complete(ctx, req, result))
	assert.NoError(t, recorder.Fail(ctx, req, "boom"))
	repo.AssertExpectations(t)
}
