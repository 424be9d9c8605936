package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/venue-commerce-admin/internal/domain/shared"
	"github.com/venue-commerce-admin/internal/platform/messaging/producers"
	"github.com/venue-commerce-admin/internal/sync_worker/service"
)

// SyncEventHandler handles sync request messages from Kafka
type SyncEventHandler struct {
	processingService service.ProcessingService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

func NewSyncEventHandler(
	logger *slog.Logger,
	processingService service.ProcessingService,
	producer producers.DeadLetterPublisher,
) *SyncEventHandler {
	return &SyncEventHandler{
		processingService: processingService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage decodes a sync request and hands it to the processing service.
// A nil return commits the offset.
func (h *SyncEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.SyncRequest
	if err := json.Unmarshal(value, &request); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal sync request from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
			} else {
				h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				return nil
			}
		}
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received sync request",
		"run_id", request.RequestID.String(),
		"kind", request.Kind,
		"venue_id", request.VenueID,
	)

	if err := h.processingService.ProcessSync(ctx, &request); err != nil {
		logger.Error("Failed to process sync request",
			"run_id", request.RequestID.String(),
			"kind", request.Kind,
			"error", err,
		)
		return fmt.Errorf("processing sync run %s failed: %w", request.RequestID.String(), err)
	}

	logger.Info("Sync request handled", "run_id", request.RequestID.String())
	return nil
}
