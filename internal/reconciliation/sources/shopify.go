package sources

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/venue-commerce-admin/internal/domain/order"
	"github.com/venue-commerce-admin/internal/integrations/shopify"
)

// ShopifyOrder wraps an order pulled from a store. Orders placed in the base
// currency keep their total as-is, orders in the local currency are converted
// at the batch rate and any other currency is rejected.
type ShopifyOrder struct {
	Order         shopify.Order
	BaseCurrency  string
	LocalCurrency string
}

func (s ShopifyOrder) Kind() order.Source { return order.SourceShopify }

func (s ShopifyOrder) ExternalRef() string {
	return strconv.FormatInt(s.Order.ID, 10)
}

func (s ShopifyOrder) Normalize(venueID string, rate float64) (*order.Draft, error) {
	total, err := parseAmount(s.Order.TotalPrice)
	if err != nil {
		return nil, fmt.Errorf("total_price %q: %w", s.Order.TotalPrice, err)
	}
	financial, err := order.ParseFinancialStatus(s.Order.FinancialStatus)
	if err != nil {
		return nil, err
	}
	items, err := s.lineItems()
	if err != nil {
		return nil, err
	}

	processedAt := s.Order.CreatedAt
	if s.Order.ProcessedAt != nil {
		processedAt = *s.Order.ProcessedAt
	}

	d := &order.Draft{
		ExternalID:      stringPtr(s.ExternalRef()),
		Status:          s.status(),
		FinancialStatus: financial,
		Currency:        strings.ToUpper(s.Order.Currency),
		ProcessedAt:     processedAt,
		VenueID:         venueID,
		Source:          order.SourceShopify,
		CustomerName:    s.customerName(),
		Note:            s.Order.Note,
		LineItems:       items,
	}

	base := s.BaseCurrency
	if base == "" {
		base = "USD"
	}
	switch {
	case d.Currency == "" || strings.EqualFold(d.Currency, base):
		d.TotalAmount = total
	case s.LocalCurrency != "" && strings.EqualFold(d.Currency, s.LocalCurrency):
		if err := converted(d, total, rate); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("currency %s: %w", d.Currency, ErrUnsupportedCurrency)
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (s ShopifyOrder) status() order.Status {
	if s.Order.CancelledAt != nil {
		return order.StatusCancelled
	}
	if s.Order.FulfillmentStatus == nil {
		return order.StatusPending
	}
	switch *s.Order.FulfillmentStatus {
	case "fulfilled":
		return order.StatusCompleted
	case "partial":
		return order.StatusProcessing
	}
	return order.StatusPending
}

func (s ShopifyOrder) customerName() string {
	if s.Order.Customer == nil {
		return ""
	}
	return strings.TrimSpace(s.Order.Customer.FirstName + " " + s.Order.Customer.LastName)
}

func (s ShopifyOrder) lineItems() ([]order.LineItem, error) {
	items := make([]order.LineItem, 0, len(s.Order.LineItems))
	for _, li := range s.Order.LineItems {
		price, err := parseAmount(li.Price)
		if err != nil {
			return nil, fmt.Errorf("line item %d price %q: %w", li.ID, li.Price, err)
		}
		items = append(items, order.LineItem{
			ProductName: li.Title,
			SKU:         li.SKU,
			Quantity:    li.Quantity,
			UnitPrice:   price,
		})
	}
	return items, nil
}
