package outbox_poller

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/venue-commerce-admin/internal/domain/history"
	"github.com/venue-commerce-admin/internal/domain/outbox"
	"github.com/venue-commerce-admin/internal/domain/shared"
)

func TestHistoryPublisher_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("writes event and marks processed", func(t *testing.T) {
		outboxRepo, historyRepo := &MockOutboxRepo{}, &MockHistoryRepo{}
		msg, event := newOutboxMessage(t, 1, 0)

		historyRepo.On("Create", ctx, mock.MatchedBy(func(e *history.Event) bool {
			return e.EventID == event.EventID && e.RecordedAt != nil && e.OrderNumber == "#1001"
		})).Return(nil).Once()
		outboxRepo.On("UpdateStatus", ctx, int64(1), shared.OutboxStatusProcessed).Return(nil).Once()

		err := NewHistoryPublisher(outboxRepo, historyRepo, newTestLogger()).Publish(ctx, msg)

		require.NoError(t, err)
		outboxRepo.AssertExpectations(t)
		historyRepo.AssertExpectations(t)
	})

	t.Run("duplicate event still marks processed", func(t *testing.T) {
		outboxRepo, historyRepo := &MockOutboxRepo{}, &MockHistoryRepo{}
		msg, event := newOutboxMessage(t, 2, 1)

		historyRepo.On("Create", ctx, mock.Anything).Return(history.ErrDuplicateEvent{EventID: event.EventID}).Once()
		outboxRepo.On("UpdateStatus", ctx, int64(2), shared.OutboxStatusProcessed).Return(nil).Once()

		err := NewHistoryPublisher(outboxRepo, historyRepo, newTestLogger()).Publish(ctx, msg)

		require.NoError(t, err)
		outboxRepo.AssertExpectations(t)
	})

	t.Run("history store failure", func(t *testing.T) {
		outboxRepo, historyRepo := &MockOutboxRepo{}, &MockHistoryRepo{}
		msg, _ := newOutboxMessage(t, 3, 0)

		historyRepo.On("Create", ctx, mock.Anything).Return(errors.New("mongo down")).Once()

		err := NewHistoryPublisher(outboxRepo, historyRepo, newTestLogger()).Publish(ctx, msg)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to write history event")
		outboxRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed payload is parked", func(t *testing.T) {
		outboxRepo, historyRepo := &MockOutboxRepo{}, &MockHistoryRepo{}
		msg := &outbox.Message{ID: 4, OrderID: 9, Payload: []byte("{broken")}

		outboxRepo.On("UpdateStatus", ctx, int64(4), shared.OutboxStatusFailedToPublish).Return(nil).Once()

		err := NewHistoryPublisher(outboxRepo, historyRepo, newTestLogger()).Publish(ctx, msg)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unmarshal payload")
		outboxRepo.AssertExpectations(t)
		historyRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("status update failure", func(t *testing.T) {
		outboxRepo, historyRepo := &MockOutboxRepo{}, &MockHistoryRepo{}
		msg, _ := newOutboxMessage(t, 5, 0)

		historyRepo.On("Create", ctx, mock.Anything).Return(nil).Once()
		outboxRepo.On("UpdateStatus", ctx, int64(5), shared.OutboxStatusProcessed).Return(errors.New("pg down")).Once()

		err := NewHistoryPublisher(outboxRepo, historyRepo, newTestLogger()).Publish(ctx, msg)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to mark outbox 5 as PROCESSED")
	})
}
