// Package engine merges batches of upstream records into the order store.
//
// A batch is looked up once by external id and split into updates and
// inserts. Every item is written in its own transaction, so one bad record
// is reported in the per-item outcomes without aborting the rest.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/venue-commerce-admin/internal/domain/history"
	"github.com/venue-commerce-admin/internal/domain/order"
	"github.com/venue-commerce-admin/internal/domain/pricing"
	"github.com/venue-commerce-admin/internal/domain/shared"
	"github.com/venue-commerce-admin/internal/reconciliation/journal"
	"github.com/venue-commerce-admin/internal/reconciliation/numbering"
	"github.com/venue-commerce-admin/internal/reconciliation/sources"
)

var (
	ErrInvalidRate = errors.New("batch exchange rate must be a finite number greater than 0")
	// ErrVenueConflict marks a record whose external id is already held by
	// another venue's order. External ids are unique across venues.
	ErrVenueConflict = errors.New("external id belongs to an order of another venue")
)

const (
	reasonDuplicateInBatch = "duplicate external id in batch"
	reasonAlreadyImported  = "external id imported concurrently"
)

// TxRunner runs fn in one database transaction
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// NumberAllocator hands out consecutive order numbers while fn runs. fn must
// write with the context it is given; it is cancelled if the numbers stop
// being reserved.
type NumberAllocator interface {
	WithNumbers(ctx context.Context, n int, fn func(ctx context.Context, numbers []string) error) error
}

// RateResolver supplies the batch rate when the caller did not fix one
type RateResolver interface {
	LocalRate(ctx context.Context) float64
}

// Batch is one reconciliation request.
type Batch struct {
	VenueID       string
	Inputs        []sources.Input
	Rate          *float64 // overrides the cached rate for the whole batch
	CorrelationID string
}

// LookupError aborts a batch whose existing orders could not be resolved.
type LookupError struct {
	Err error
}

func (e *LookupError) Error() string {
	return "failed to look up existing orders: " + e.Err.Error()
}

func (e *LookupError) Unwrap() error { return e.Err }

type Engine struct {
	orders  order.Repository
	journal journal.Recorder
	numbers NumberAllocator
	rates   RateResolver
	tx      TxRunner
	now     func() time.Time
	logger  *slog.Logger
}

func New(
	orders order.Repository,
	recorder journal.Recorder,
	numbers NumberAllocator,
	rates RateResolver,
	tx TxRunner,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		orders:  orders,
		journal: recorder,
		numbers: numbers,
		rates:   rates,
		tx:      tx,
		now:     time.Now,
		logger:  logger.With("component", "reconciliation_engine"),
	}
}

type pending struct {
	index int
	ref   string
	draft *order.Draft
}

// Reconcile returns one outcome per input, in input order. Only a failed
// existence lookup or an invalid explicit rate fails the whole batch.
func (e *Engine) Reconcile(ctx context.Context, batch Batch) (*shared.BatchResult, error) {
	logger := e.logger.With("venue_id", batch.VenueID)
	if batch.CorrelationID != "" {
		logger = logger.With("correlation_id", batch.CorrelationID)
	}

	rate, err := e.resolveRate(ctx, batch.Rate)
	if err != nil {
		return nil, err
	}

	outcomes := make([]shared.ItemOutcome, len(batch.Inputs))
	normalized := make([]pending, 0, len(batch.Inputs))
	seen := make(map[string]struct{})
	var refs []string

	for i, in := range batch.Inputs {
		ref := in.ExternalRef()
		outcomes[i] = shared.ItemOutcome{Index: i, ExternalID: ref}

		d, err := in.Normalize(batch.VenueID, rate)
		if err != nil {
			logger.Warn("Skipping invalid record", "index", i, "external_id", ref, "source", in.Kind(), "error", err)
			fail(&outcomes[i], err)
			continue
		}

		if ref != "" {
			if _, dup := seen[ref]; dup {
				outcomes[i].Outcome = shared.OutcomeSkipped
				outcomes[i].Reason = reasonDuplicateInBatch
				continue
			}
			seen[ref] = struct{}{}
			refs = append(refs, ref)
		}
		normalized = append(normalized, pending{index: i, ref: ref, draft: d})
	}

	existing := map[string]*order.Order{}
	if len(refs) > 0 {
		existing, err = e.orders.FindByExternalIDs(ctx, refs)
		if err != nil {
			logger.Error("Failed to look up existing orders", "count", len(refs), "error", err)
			return nil, &LookupError{Err: err}
		}
	}

	var inserts []pending
	for _, p := range normalized {
		if current, ok := existing[p.ref]; ok && p.ref != "" {
			if current.VenueID != batch.VenueID {
				logger.Warn("Refusing to overwrite another venue's order", "index", p.index, "external_id", p.ref, "owner_venue_id", current.VenueID)
				fail(&outcomes[p.index], ErrVenueConflict)
				continue
			}
			e.update(ctx, logger, current, p, &outcomes[p.index], batch.CorrelationID)
			continue
		}
		inserts = append(inserts, p)
	}

	e.insertAll(ctx, logger, inserts, outcomes, batch.CorrelationID)

	result := shared.NewBatchResult(outcomes)
	logger.Info("Batch reconciled",
		"total", result.Total,
		"imported", result.Imported,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

func (e *Engine) resolveRate(ctx context.Context, explicit *float64) (float64, error) {
	if explicit != nil {
		if !pricing.ValidRate(*explicit) {
			return 0, ErrInvalidRate
		}
		return *explicit, nil
	}
	return e.rates.LocalRate(ctx), nil
}

// update overwrites the mutable fields and replaces all line items.
func (e *Engine) update(ctx context.Context, logger *slog.Logger, current *order.Order, p pending, out *shared.ItemOutcome, correlationID string) {
	current.ApplyDraft(p.draft, e.now().UTC())

	err := e.tx.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repo := e.orders.WithTx(tx)
		if err := repo.Update(ctx, current); err != nil {
			return err
		}
		if err := repo.ReplaceLineItems(ctx, current.ID, current.LineItems); err != nil {
			return err
		}
		return e.journal.Record(ctx, tx, history.EventUpdated, current, correlationID)
	})

	out.RecordID = current.ID
	out.Reference = current.OrderNumber
	if err != nil {
		logger.Error("Failed to update order", "index", p.index, "order_id", current.ID, "external_id", p.ref, "error", err)
		fail(out, err)
		return
	}
	out.Outcome = shared.OutcomeUpdated
}

// insertAll numbers new orders by event time, earliest first. A number is
// only consumed when its insert succeeds or the number itself was taken.
func (e *Engine) insertAll(ctx context.Context, logger *slog.Logger, inserts []pending, outcomes []shared.ItemOutcome, correlationID string) {
	if len(inserts) == 0 {
		return
	}
	numbering.SortChronologically(inserts, func(p pending) time.Time { return p.draft.ProcessedAt })

	err := e.numbers.WithNumbers(ctx, len(inserts), func(ctx context.Context, numbers []string) error {
		next := 0
		for _, p := range inserts {
			out := &outcomes[p.index]
			o := order.NewOrder(p.draft, numbers[next], e.now().UTC())

			err := e.tx.ExecuteTx(ctx, func(tx pgx.Tx) error {
				if err := e.orders.WithTx(tx).Create(ctx, o); err != nil {
					return err
				}
				return e.journal.Record(ctx, tx, history.EventCreated, o, correlationID)
			})
			if err != nil {
				var taken order.ErrDuplicateOrderNumber
				if errors.As(err, &taken) {
					next++
				}
				if errors.Is(err, order.ErrDuplicateExternalID{}) {
					logger.Warn("Order imported concurrently", "index", p.index, "external_id", p.ref)
					out.Outcome = shared.OutcomeSkipped
					out.Reason = reasonAlreadyImported
					continue
				}
				logger.Error("Failed to insert order", "index", p.index, "external_id", p.ref, "order_number", o.OrderNumber, "error", err)
				fail(out, err)
				continue
			}

			next++
			out.Outcome = shared.OutcomeCreated
			out.RecordID = o.ID
			out.Reference = o.OrderNumber
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to allocate order numbers", "count", len(inserts), "error", err)
		for _, p := range inserts {
			fail(&outcomes[p.index], fmt.Errorf("order number allocation: %w", err))
		}
	}
}

func fail(out *shared.ItemOutcome, err error) {
	out.Outcome = shared.OutcomeFailed
	out.Reason = err.Error()
}
