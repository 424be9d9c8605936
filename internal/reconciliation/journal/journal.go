// Package journal appends order change events to the transactional outbox.
package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/venue-commerce-admin/internal/domain/history"
	"github.com/venue-commerce-admin/internal/domain/order"
	"github.com/venue-commerce-admin/internal/domain/outbox"
)

// Recorder writes one outbox row inside the caller's transaction
type Recorder interface {
	Record(ctx context.Context, tx pgx.Tx, eventType history.EventType, o *order.Order, correlationID string) error
}

type Journal struct {
	outboxRepo outbox.Repository
	now        func() time.Time
	logger     *slog.Logger
}

func New(outboxRepo outbox.Repository, logger *slog.Logger) *Journal {
	return &Journal{
		outboxRepo: outboxRepo,
		now:        time.Now,
		logger:     logger,
	}
}

func (j *Journal) Record(ctx context.Context, tx pgx.Tx, eventType history.EventType, o *order.Order, correlationID string) error {
	logger := j.logger
	if correlationID != "" {
		logger = j.logger.With("correlation_id", correlationID)
	}

	msg, err := outbox.NewMessage(history.NewEvent(eventType, o, correlationID, j.now().UTC()))
	if err != nil {
		logger.Error("Failed to build order event payload", "order_id", o.ID, "event_type", eventType, "error", err)
		return fmt.Errorf("failed to create order event payload for order %d: %w", o.ID, err)
	}

	if err := j.outboxRepo.WithTx(tx).Create(ctx, msg); err != nil {
		logger.Error("Failed to append order event", "order_id", o.ID, "event_type", eventType, "error", err)
		return fmt.Errorf("failed to append %s event for order %d: %w", eventType, o.ID, err)
	}

	logger.Debug("Order event appended", "order_id", o.ID, "event_type", eventType, "outbox_id", msg.ID)
	return nil
}
