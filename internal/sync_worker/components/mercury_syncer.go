package components

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/venue-commerce-admin/internal/domain/shared"
	"github.com/venue-commerce-admin/internal/integrations/mercury"
)

const accountStatusActive = "active"

// MercuryPayoutSyncer records outgoing bank transfers as venue payouts
type MercuryPayoutSyncer struct {
	client   BankClient
	importer PayoutImporter
	logger   *slog.Logger
}

func NewMercuryPayoutSyncer(client BankClient, importer PayoutImporter, logger *slog.Logger) *MercuryPayoutSyncer {
	return &MercuryPayoutSyncer{
		client:   client,
		importer: importer,
		logger:   logger.With("component", "mercury_payout_sync"),
	}
}

// Sync reads the requested account, or every active account when none is
// named, within the request's date window.
func (s *MercuryPayoutSyncer) Sync(ctx context.Context, request *shared.SyncRequest) (*shared.BatchResult, error) {
	accountIDs, err := s.accounts(ctx, request.AccountID)
	if err != nil {
		return nil, err
	}

	var txs []mercury.Transaction
	for _, id := range accountIDs {
		page, err := s.client.ListTransactions(ctx, id, request.Since, request.Until)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch transactions for account %s: %w", id, err)
		}
		txs = append(txs, page...)
	}
	s.logger.Info("Fetched bank transactions", "accounts", len(accountIDs), "count", len(txs), "run_id", request.RequestID.String())

	return s.importer.Import(ctx, request.VenueID, txs, request.CorrelationID)
}

func (s *MercuryPayoutSyncer) accounts(ctx context.Context, accountID string) ([]string, error) {
	if accountID != "" {
		return []string{accountID}, nil
	}

	accounts, err := s.client.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank accounts: %w", err)
	}
	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if a.Status != "" && !strings.EqualFold(a.Status, accountStatusActive) {
			continue
		}
		ids = append(ids, a.ID)
	}
	return ids, nil
}
