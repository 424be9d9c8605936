package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/venue-commerce-admin/internal/domain/history"
	"github.com/venue-commerce-admin/internal/domain/outbox"
	"github.com/venue-commerce-admin/internal/domain/shared"
)

// HistoryPublisher copies an outbox message into the order history store
type HistoryPublisher interface {
	Publish(ctx context.Context, message *outbox.Message) error
}

type historyPublisher struct {
	outboxRepo  outbox.Repository
	historyRepo history.Repository
	logger      *slog.Logger
	now         func() time.Time
}

func NewHistoryPublisher(
	outboxRepo outbox.Repository,
	historyRepo history.Repository,
	logger *slog.Logger,
) HistoryPublisher {
	return &historyPublisher{
		outboxRepo:  outboxRepo,
		historyRepo: historyRepo,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Publish is idempotent on the event id: a message whose event is already in
// the history store is only marked PROCESSED.
func (p *historyPublisher) Publish(ctx context.Context, message *outbox.Message) error {
	event, err := message.GetEvent()
	if err != nil {
		p.logger.Error("Failed to unmarshal history event from outbox payload",
			"outbox_id", message.ID, "order_id", message.OrderID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger
	if event.CorrelationID != "" {
		logger = p.logger.With("correlation_id", event.CorrelationID)
	}

	recordedAt := p.now()
	event.RecordedAt = &recordedAt

	if err := p.historyRepo.Create(ctx, event); err != nil {
		if !errors.Is(err, history.ErrDuplicateEvent{}) {
			logger.Error("Failed to write order history event", "event_id", event.EventID.String(), "order_id", event.OrderID, "error", err)
			return fmt.Errorf("failed to write history event %s: %w", event.EventID, err)
		}
		logger.Info("Order history event already recorded", "event_id", event.EventID.String())
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "order_id", message.OrderID, "error", err,
		)
		return fmt.Errorf("history write for %s OK, but failed to mark outbox %d as PROCESSED: %w", event.EventID, message.ID, err)
	}

	logger.Debug("Outbox message published to order history", "outbox_id", message.ID, "event_type", event.Type)
	return nil
}
