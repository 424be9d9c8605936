// Package payouts records outgoing bank transfers as venue payouts, exactly
// once per bank transaction id.
package payouts

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/venue-commerce-admin/internal/domain/payout"
	"github.com/venue-commerce-admin/internal/domain/shared"
	"github.com/venue-commerce-admin/internal/integrations/mercury"
	"github.com/venue-commerce-admin/internal/reconciliation/sources"
)

const (
	reasonAlreadyRecorded  = "bank transaction already recorded"
	reasonDuplicateInBatch = "duplicate bank transaction in batch"
	reasonIncoming         = "incoming transfer is not a payout"
	reasonNotSettled       = "transaction was cancelled or failed"
)

// LookupError aborts an import whose existing payouts could not be resolved
type LookupError struct {
	Err error
}

func (e *LookupError) Error() string {
	return "failed to look up recorded bank transactions: " + e.Err.Error()
}

func (e *LookupError) Unwrap() error { return e.Err }

type Importer struct {
	repo     payout.Repository
	currency string
	now      func() time.Time
	logger   *slog.Logger
}

func NewImporter(repo payout.Repository, currency string, logger *slog.Logger) *Importer {
	return &Importer{
		repo:     repo,
		currency: currency,
		now:      time.Now,
		logger:   logger.With("component", "payout_import"),
	}
}

// Import creates one payout per new outgoing settled transaction. Known ids,
// repeats within the batch, incoming and unsettled transactions are skipped.
func (i *Importer) Import(ctx context.Context, venueID string, txs []mercury.Transaction, correlationID string) (*shared.BatchResult, error) {
	logger := i.logger.With("venue_id", venueID)
	if correlationID != "" {
		logger = logger.With("correlation_id", correlationID)
	}

	outcomes := make([]shared.ItemOutcome, len(txs))
	ids := make([]string, 0, len(txs))
	for idx, tx := range txs {
		outcomes[idx] = shared.ItemOutcome{Index: idx, ExternalID: tx.ID}
		if tx.ID != "" {
			ids = append(ids, tx.ID)
		}
	}

	recorded, err := i.repo.FindExistingMercuryIDs(ctx, ids)
	if err != nil {
		return nil, &LookupError{Err: err}
	}

	seen := make(map[string]struct{}, len(txs))
	for idx, tx := range txs {
		out := &outcomes[idx]

		if _, dup := seen[tx.ID]; dup && tx.ID != "" {
			skip(out, reasonDuplicateInBatch)
			continue
		}
		seen[tx.ID] = struct{}{}

		if _, ok := recorded[tx.ID]; ok {
			skip(out, reasonAlreadyRecorded)
			continue
		}
		if tx.Direction() != mercury.DirectionDebit {
			skip(out, reasonIncoming)
			continue
		}
		if !tx.Settled() {
			skip(out, reasonNotSettled)
			continue
		}

		i.create(ctx, logger, venueID, tx, out)
	}

	result := shared.NewBatchResult(outcomes)
	logger.Info("Bank transactions reconciled", "total", result.Total, "imported", result.Imported, "skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}

func (i *Importer) create(ctx context.Context, logger *slog.Logger, venueID string, tx mercury.Transaction, out *shared.ItemOutcome) {
	id, err := i.record(ctx, venueID, tx)
	if err != nil {
		if errors.As(err, new(payout.ErrDuplicateMercuryTransaction)) {
			skip(out, reasonAlreadyRecorded)
			return
		}
		logger.Error("Failed to record payout", "transaction_id", tx.ID, "error", err)
		out.Outcome = shared.OutcomeFailed
		out.Reason = err.Error()
		return
	}
	out.Outcome = shared.OutcomeCreated
	out.RecordID = id
}

func (i *Importer) record(ctx context.Context, venueID string, tx mercury.Transaction) (int64, error) {
	draft, err := sources.BankTransaction{Transaction: tx, Currency: i.currency}.Normalize(venueID)
	if err != nil {
		return 0, err
	}
	p, err := payout.NewPayout(draft, i.now().UTC())
	if err != nil {
		return 0, err
	}
	if err := i.repo.Create(ctx, p); err != nil {
		return 0, err
	}
	return p.ID, nil
}

func skip(out *shared.ItemOutcome, reason string) {
	out.Outcome = shared.OutcomeSkipped
	out.Reason = reason
}
