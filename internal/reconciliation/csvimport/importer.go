package csvimport

import (
	"context"
	"errors"
	"log/slog"

	"github.com/venue-commerce-admin/internal/domain/pricing"
	"github.com/venue-commerce-admin/internal/domain/shared"
	"github.com/venue-commerce-admin/internal/reconciliation/engine"
	"github.com/venue-commerce-admin/internal/reconciliation/sources"
)

var ErrInvalidRate = errors.New("a positive exchange rate is required for csv import")

// Reconciler is satisfied by the reconciliation engine
type Reconciler interface {
	Reconcile(ctx context.Context, batch engine.Batch) (*shared.BatchResult, error)
}

type Importer struct {
	reconciler    Reconciler
	localCurrency string
	logger        *slog.Logger
}

func NewImporter(reconciler Reconciler, localCurrency string, logger *slog.Logger) *Importer {
	return &Importer{
		reconciler:    reconciler,
		localCurrency: localCurrency,
		logger:        logger.With("component", "csv_import"),
	}
}

// Import validates the whole file first and only then reconciles every row
// at the single supplied rate.
func (i *Importer) Import(ctx context.Context, venueID, text string, rate float64, correlationID string) (*shared.BatchResult, error) {
	logger := i.logger.With("venue_id", venueID)
	if correlationID != "" {
		logger = logger.With("correlation_id", correlationID)
	}

	if !pricing.ValidRate(rate) {
		return nil, ErrInvalidRate
	}

	rows, rowErrors := Parse(text)
	if len(rowErrors) > 0 {
		logger.Warn("CSV import rejected", "invalid_rows", len(rowErrors), "valid_rows", len(rows))
		return nil, &ValidationError{Errors: rowErrors}
	}

	inputs := make([]sources.Input, len(rows))
	for idx, row := range rows {
		inputs[idx] = sources.CSVRow{Line: row.Line, Date: row.Date, Amount: row.Amount, Currency: i.localCurrency}
	}

	logger.Info("Importing CSV rows", "rows", len(rows), "rate", rate)
	return i.reconciler.Reconcile(ctx, engine.Batch{
		VenueID:       venueID,
		Inputs:        inputs,
		Rate:          &rate,
		CorrelationID: correlationID,
	})
}
