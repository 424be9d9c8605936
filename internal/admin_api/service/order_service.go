package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/venue-commerce-admin/internal/config"
	"github.com/venue-commerce-admin/internal/domain/history"
	"github.com/venue-commerce-admin/internal/domain/order"
	"github.com/venue-commerce-admin/internal/domain/shared"
	"github.com/venue-commerce-admin/internal/reconciliation/csvimport"
	"github.com/venue-commerce-admin/internal/reconciliation/engine"
	"github.com/venue-commerce-admin/internal/reconciliation/journal"
	"github.com/venue-commerce-admin/internal/reconciliation/sources"
)

// CSVImporter runs a whole-file import
type CSVImporter interface {
	Import(ctx context.Context, venueID, text string, rate float64, correlationID string) (*shared.BatchResult, error)
}

// OrderServiceImpl implements the OrderService interface
type OrderServiceImpl struct {
	orders        order.Repository
	journal       journal.Recorder
	numbers       engine.NumberAllocator
	rates         engine.RateResolver
	tx            engine.TxRunner
	importer      CSVImporter
	baseCurrency  string
	localCurrency string
	now           func() time.Time
	logger        *slog.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	logger *slog.Logger,
	orders order.Repository,
	recorder journal.Recorder,
	numbers engine.NumberAllocator,
	rates engine.RateResolver,
	tx engine.TxRunner,
	importer CSVImporter,
	cfg *config.ExchangeRateConfig,
) OrderService {
	return &OrderServiceImpl{
		orders:        orders,
		journal:       recorder,
		numbers:       numbers,
		rates:         rates,
		tx:            tx,
		importer:      importer,
		baseCurrency:  cfg.BaseCurrency,
		localCurrency: cfg.LocalCurrency,
		now:           time.Now,
		logger:        logger.With("component", "order_service"),
	}
}

// CreateManual normalizes the operator input, rejects a known external id and
// inserts the order with the next number and its CREATED event in one transaction.
func (s *OrderServiceImpl) CreateManual(ctx context.Context, venueID string, in sources.Manual, correlationID string) (*order.Order, error) {
	logger := s.logger.With("venue_id", venueID, "correlation_id", correlationID)

	var rate float64
	if in.OriginalAmount != nil && in.ExchangeRate == nil {
		rate = s.rates.LocalRate(ctx)
	}
	draft, err := in.Normalize(venueID, rate)
	if err != nil {
		return nil, invalid(err)
	}
	if draft.Currency == "" {
		draft.Currency = s.baseCurrency
		if draft.HasConversion() {
			draft.Currency = s.localCurrency
		}
	}

	if draft.ExternalID != nil {
		existing, err := s.orders.FindByExternalIDs(ctx, []string{*draft.ExternalID})
		if err != nil {
			logger.Error("Failed to check external id", "external_id", *draft.ExternalID, "error", err)
			return nil, fmt.Errorf("failed to check external id: %w", err)
		}
		if _, ok := existing[*draft.ExternalID]; ok {
			return nil, order.ErrDuplicateExternalID{ExternalID: *draft.ExternalID}
		}
	}

	var created *order.Order
	err = s.numbers.WithNumbers(ctx, 1, func(ctx context.Context, numbers []string) error {
		o := order.NewOrder(draft, numbers[0], s.now().UTC())
		if err := s.tx.ExecuteTx(ctx, func(tx pgx.Tx) error {
			if err := s.orders.WithTx(tx).Create(ctx, o); err != nil {
				return err
			}
			return s.journal.Record(ctx, tx, history.EventCreated, o, correlationID)
		}); err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		logger.Error("Failed to create order", "error", err)
		return nil, err
	}

	logger.Info("Order created",
		"order_id", created.ID,
		"order_number", created.OrderNumber,
		"total_amount", created.TotalAmount,
	)
	return created, nil
}

func (s *OrderServiceImpl) GetOrder(ctx context.Context, id int64) (*order.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, order.ErrOrderNotFound{}) {
			s.logger.Error("Failed to get order", "order_id", id, "error", err)
		}
		return nil, err
	}
	return o, nil
}

// ListOrders returns a page of orders, newest first, and the venue's total count
func (s *OrderServiceImpl) ListOrders(ctx context.Context, venueID string, page, perPage int) ([]*order.Order, int64, error) {
	offset := (page - 1) * perPage

	orders, err := s.orders.ListByVenue(ctx, venueID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.orders.CountByVenue(ctx, venueID)
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// PatchOrder recomputes the total when the local amount or rate changes and
// replaces all line items when new ones are supplied.
func (s *OrderServiceImpl) PatchOrder(ctx context.Context, o *order.Order, patch order.Patch, correlationID string) (*order.Order, error) {
	replaceItems, err := o.ApplyPatch(patch, s.now().UTC())
	if err != nil {
		return nil, invalid(err)
	}

	err = s.tx.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repo := s.orders.WithTx(tx)
		if err := repo.Update(ctx, o); err != nil {
			return err
		}
		if replaceItems {
			if err := repo.ReplaceLineItems(ctx, o.ID, o.LineItems); err != nil {
				return err
			}
		}
		return s.journal.Record(ctx, tx, history.EventUpdated, o, correlationID)
	})
	if err != nil {
		s.logger.Error("Failed to update order", "order_id", o.ID, "correlation_id", correlationID, "error", err)
		return nil, err
	}

	s.logger.Info("Order updated", "order_id", o.ID, "line_items_replaced", replaceItems, "correlation_id", correlationID)
	return o, nil
}

func (s *OrderServiceImpl) DeleteOrder(ctx context.Context, o *order.Order, correlationID string) error {
	err := s.tx.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.orders.WithTx(tx).Delete(ctx, o.ID); err != nil {
			return err
		}
		return s.journal.Record(ctx, tx, history.EventDeleted, o, correlationID)
	})
	if err != nil {
		s.logger.Error("Failed to delete order", "order_id", o.ID, "correlation_id", correlationID, "error", err)
		return err
	}

	s.logger.Info("Order deleted", "order_id", o.ID, "order_number", o.OrderNumber, "correlation_id", correlationID)
	return nil
}

// BulkDelete deletes and journals in a single transaction; it is all or nothing
func (s *OrderServiceImpl) BulkDelete(ctx context.Context, venueID string, ids []int64, correlationID string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var deleted []*order.Order
	err := s.tx.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var err error
		deleted, err = s.orders.WithTx(tx).DeleteMany(ctx, venueID, ids)
		if err != nil {
			return err
		}
		for _, o := range deleted {
			if err := s.journal.Record(ctx, tx, history.EventDeleted, o, correlationID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to bulk delete orders", "venue_id", venueID, "requested", len(ids), "error", err)
		return 0, err
	}

	s.logger.Info("Orders deleted", "venue_id", venueID, "requested", len(ids), "deleted", len(deleted), "correlation_id", correlationID)
	return len(deleted), nil
}

func (s *OrderServiceImpl) ImportCSV(ctx context.Context, venueID, text string, rate float64, correlationID string) (*shared.BatchResult, error) {
	result, err := s.importer.Import(ctx, venueID, text, rate, correlationID)
	if err != nil {
		if errors.Is(err, csvimport.ErrInvalidRate) || errors.Is(err, engine.ErrInvalidRate) {
			return nil, invalid(err)
		}
		return nil, err
	}
	return result, nil
}
