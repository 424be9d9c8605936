package service

import (
	"context"
	"log/slog"

	"github.com/venue-commerce-admin/internal/domain/payout"
)

type PayoutServiceImpl struct {
	payouts payout.Repository
	logger  *slog.Logger
}

func NewPayoutService(logger *slog.Logger, payouts payout.Repository) PayoutService {
	return &PayoutServiceImpl{
		payouts: payouts,
		logger:  logger,
	}
}

// ListPayouts returns a page of the venue's payouts, most recent first
func (s *PayoutServiceImpl) ListPayouts(ctx context.Context, venueID string, page, perPage int) ([]*payout.Payout, int64, error) {
	offset := (page - 1) * perPage

	payouts, err := s.payouts.ListByVenue(ctx, venueID, perPage, offset)
	if err != nil {
		s.logger.Error("Failed to list payouts", "venue_id", venueID, "error", err)
		return nil, 0, err
	}

	total, err := s.payouts.CountByVenue(ctx, venueID)
	if err != nil {
		s.logger.Error("Failed to count payouts", "venue_id", venueID, "error", err)
		return nil, 0, err
	}

	return payouts, total, nil
}
