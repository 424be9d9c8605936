// Package postgres provides PostgreSQL implementations of the domain repositories.
// Every repository can be bound to a transaction with WithTx so that an order,
// its line items and its outbox event are written atomically.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/venue-commerce-admin/internal/domain/order"
	"github.com/venue-commerce-admin/internal/platform/persistence"
)

const (
	ordersExternalIDKey  = "orders_external_id_key"
	ordersOrderNumberKey = "orders_order_number_key"
)

const orderColumns = `id, external_id, order_number, status, financial_status, total_amount,
		original_amount, exchange_rate, currency, processed_at, venue_id, source,
		customer_name, note, created_at, updated_at`

// OrderRepository implements the order.Repository interface for PostgreSQL
type OrderRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewOrderRepository creates a new PostgreSQL order repository
func NewOrderRepository(logger *slog.Logger, db *persistence.PostgresDB) order.Repository {
	return &OrderRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx binds the repository to tx
func (r *OrderRepository) WithTx(tx pgx.Tx) order.Repository {
	return &OrderRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create inserts the order and its line items. Callers wanting atomicity run it inside a transaction.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	query := `
		INSERT INTO orders (external_id, order_number, status, financial_status, total_amount,
			original_amount, exchange_rate, currency, processed_at, venue_id, source,
			customer_name, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		o.ExternalID,
		o.OrderNumber,
		o.Status,
		o.FinancialStatus,
		o.TotalAmount,
		o.OriginalAmount,
		o.ExchangeRate,
		o.Currency,
		o.ProcessedAt,
		o.VenueID,
		o.Source,
		o.CustomerName,
		o.Note,
		o.CreatedAt,
		o.UpdatedAt,
	).Scan(&o.ID)
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok {
			switch constraint {
			case ordersExternalIDKey:
				return order.ErrDuplicateExternalID{ExternalID: derefString(o.ExternalID)}
			case ordersOrderNumberKey:
				return order.ErrDuplicateOrderNumber{OrderNumber: o.OrderNumber}
			}
		}
		r.logger.Error("Failed to create order", "order_number", o.OrderNumber, "error", err)
		return fmt.Errorf("failed to create order: %w", err)
	}

	return r.insertLineItems(ctx, o.ID, o.LineItems)
}

// GetByID retrieves an order with its line items
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1
	`

	o, err := scanOrder(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrOrderNotFound{ID: id}
		}
		r.logger.Error("Failed to get order", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := r.lineItems(ctx, id)
	if err != nil {
		return nil, err
	}
	o.LineItems = items
	return o, nil
}

// FindByExternalIDs resolves the whole batch in one round trip. Line items are
// not loaded since every update replaces them.
func (r *OrderRepository) FindByExternalIDs(ctx context.Context, externalIDs []string) (map[string]*order.Order, error) {
	found := make(map[string]*order.Order, len(externalIDs))
	if len(externalIDs) == 0 {
		return found, nil
	}

	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE external_id = ANY($1)
	`

	rows, err := r.querier.Query(ctx, query, externalIDs)
	if err != nil {
		r.logger.Error("Failed to look up orders by external id", "count", len(externalIDs), "error", err)
		return nil, fmt.Errorf("failed to look up orders by external id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			r.logger.Error("Failed to scan order", "error", err)
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		if o.ExternalID != nil {
			found[*o.ExternalID] = o
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over orders: %w", err)
	}

	return found, nil
}

// Update writes the mutable columns. Number, venue, source and created_at never change.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	query := `
		UPDATE orders
		SET status = $1, financial_status = $2, total_amount = $3, original_amount = $4,
			exchange_rate = $5, currency = $6, processed_at = $7, customer_name = $8,
			note = $9, updated_at = $10
		WHERE id = $11
	`

	result, err := r.querier.Exec(ctx, query,
		o.Status,
		o.FinancialStatus,
		o.TotalAmount,
		o.OriginalAmount,
		o.ExchangeRate,
		o.Currency,
		o.ProcessedAt,
		o.CustomerName,
		o.Note,
		o.UpdatedAt,
		o.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update order", "id", o.ID, "error", err)
		return fmt.Errorf("failed to update order: %w", err)
	}

	if result.RowsAffected() == 0 {
		return order.ErrOrderNotFound{ID: o.ID}
	}
	return nil
}

// ReplaceLineItems deletes every line item of the order and inserts items
func (r *OrderRepository) ReplaceLineItems(ctx context.Context, orderID int64, items []order.LineItem) error {
	if _, err := r.querier.Exec(ctx, `DELETE FROM order_line_items WHERE order_id = $1`, orderID); err != nil {
		r.logger.Error("Failed to delete line items", "order_id", orderID, "error", err)
		return fmt.Errorf("failed to delete line items: %w", err)
	}
	return r.insertLineItems(ctx, orderID, items)
}

// LatestOrderNumber returns the number of the most recently inserted order, or
// "" when no order exists yet. Insertion order follows the id sequence; created_at
// is caller supplied and may tie or go backwards.
func (r *OrderRepository) LatestOrderNumber(ctx context.Context) (string, error) {
	query := `
		SELECT order_number
		FROM orders
		ORDER BY id DESC
		LIMIT 1
	`

	var number string
	if err := r.querier.QueryRow(ctx, query).Scan(&number); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		r.logger.Error("Failed to read latest order number", "error", err)
		return "", fmt.Errorf("failed to read latest order number: %w", err)
	}
	return number, nil
}

// ListByVenue returns a page of orders, newest first, without line items
func (r *OrderRepository) ListByVenue(ctx context.Context, venueID string, limit, offset int) ([]*order.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE venue_id = $1
		ORDER BY processed_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, venueID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list orders", "venue_id", venueID, "error", err)
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*order.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over orders: %w", err)
	}
	return orders, nil
}

func (r *OrderRepository) CountByVenue(ctx context.Context, venueID string) (int64, error) {
	var count int64
	if err := r.querier.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE venue_id = $1`, venueID).Scan(&count); err != nil {
		r.logger.Error("Failed to count orders", "venue_id", venueID, "error", err)
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

// Delete removes the order; line items go with it through ON DELETE CASCADE
func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.querier.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete order", "id", id, "error", err)
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return order.ErrOrderNotFound{ID: id}
	}
	return nil
}

// DeleteMany removes the listed orders that belong to venueID and returns what
// was removed. Ids of other venues are ignored.
func (r *OrderRepository) DeleteMany(ctx context.Context, venueID string, ids []int64) ([]*order.Order, error) {
	deleted := []*order.Order{}
	if len(ids) == 0 {
		return deleted, nil
	}
	query := `DELETE FROM orders WHERE venue_id = $1 AND id = ANY($2) RETURNING ` + orderColumns

	rows, err := r.querier.Query(ctx, query, venueID, ids)
	if err != nil {
		r.logger.Error("Failed to bulk delete orders", "venue_id", venueID, "count", len(ids), "error", err)
		return nil, fmt.Errorf("failed to bulk delete orders: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deleted order: %w", err)
		}
		deleted = append(deleted, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over deleted orders: %w", err)
	}
	return deleted, nil
}

func (r *OrderRepository) insertLineItems(ctx context.Context, orderID int64, items []order.LineItem) error {
	query := `
		INSERT INTO order_line_items (order_id, product_name, sku, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	for i := range items {
		li := &items[i]
		li.OrderID = orderID
		if err := r.querier.QueryRow(ctx, query,
			orderID,
			li.ProductName,
			li.SKU,
			li.Quantity,
			li.UnitPrice,
			li.LineTotal,
		).Scan(&li.ID); err != nil {
			r.logger.Error("Failed to insert line item", "order_id", orderID, "error", err)
			return fmt.Errorf("failed to insert line item: %w", err)
		}
	}
	return nil
}

func (r *OrderRepository) lineItems(ctx context.Context, orderID int64) ([]order.LineItem, error) {
	query := `
		SELECT id, order_id, product_name, sku, quantity, unit_price, line_total
		FROM order_line_items
		WHERE order_id = $1
		ORDER BY id ASC
	`

	rows, err := r.querier.Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error("Failed to load line items", "order_id", orderID, "error", err)
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}
	defer rows.Close()

	items := []order.LineItem{}
	for rows.Next() {
		var li order.LineItem
		if err := rows.Scan(&li.ID, &li.OrderID, &li.ProductName, &li.SKU, &li.Quantity, &li.UnitPrice, &li.LineTotal); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		items = append(items, li)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over line items: %w", err)
	}
	return items, nil
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID,
		&o.ExternalID,
		&o.OrderNumber,
		&o.Status,
		&o.FinancialStatus,
		&o.TotalAmount,
		&o.OriginalAmount,
		&o.ExchangeRate,
		&o.Currency,
		&o.ProcessedAt,
		&o.VenueID,
		&o.Source,
		&o.CustomerName,
		&o.Note,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
