package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/venue-commerce-admin/internal/domain/pricing"
)

var (
	ErrMissingVenue          = errors.New("order venue is required")
	ErrNegativeTotal         = errors.New("order total must not be negative")
	ErrInvalidStatus         = errors.New("invalid order status")
	ErrInvalidFinancial      = errors.New("invalid financial status")
	ErrInvalidLineItem       = errors.New("invalid line item")
	ErrMissingProcessingTime = errors.New("order processed_at is required")
)

// Source tags where an order came from
type Source string

const (
	SourceManual  Source = "MANUAL"
	SourceCSV     Source = "CSV"
	SourceShopify Source = "SHOPIFY"
)

// Status is the fulfilment state of an order
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// FinancialStatus is the payment state of an order
type FinancialStatus string

const (
	FinancialPending           FinancialStatus = "PENDING"
	FinancialPaid              FinancialStatus = "PAID"
	FinancialPartiallyPaid     FinancialStatus = "PARTIALLY_PAID"
	FinancialPartiallyRefunded FinancialStatus = "PARTIALLY_REFUNDED"
	FinancialRefunded          FinancialStatus = "REFUNDED"
	FinancialVoided            FinancialStatus = "VOIDED"
)

func (s FinancialStatus) Valid() bool {
	switch s {
	case FinancialPending, FinancialPaid, FinancialPartiallyPaid,
		FinancialPartiallyRefunded, FinancialRefunded, FinancialVoided:
		return true
	}
	return false
}

// ParseFinancialStatus accepts upstream spellings such as "partially_refunded".
func ParseFinancialStatus(s string) (FinancialStatus, error) {
	fs := FinancialStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch fs {
	case "AUTHORIZED":
		return FinancialPending, nil
	case "":
		return FinancialPending, nil
	case "EXPIRED":
		return FinancialVoided, nil
	}
	if !fs.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFinancial, s)
	}
	return fs, nil
}

// Order is the canonical order record.
type Order struct {
	ID              int64           `json:"id"`
	ExternalID      *string         `json:"external_id,omitempty"`
	OrderNumber     string          `json:"order_number"`
	Status          Status          `json:"status"`
	FinancialStatus FinancialStatus `json:"financial_status"`
	TotalAmount     float64         `json:"total_amount"` // USD, fee inclusive
	OriginalAmount  *float64        `json:"original_amount,omitempty"`
	ExchangeRate    *float64        `json:"exchange_rate,omitempty"`
	Currency        string          `json:"currency"`
	ProcessedAt     time.Time       `json:"processed_at"`
	VenueID         string          `json:"venue_id"`
	Source          Source          `json:"source"`
	CustomerName    string          `json:"customer_name,omitempty"`
	Note            string          `json:"note,omitempty"`
	LineItems       []LineItem      `json:"line_items"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// LineItem belongs to exactly one order and is replaced wholesale on update.
type LineItem struct {
	ID          int64   `json:"id"`
	OrderID     int64   `json:"order_id"`
	ProductName string  `json:"product_name"`
	SKU         string  `json:"sku,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
}

// Draft is the source-independent shape every input normalizes into before
// it is written as a new order or merged into an existing one.
type Draft struct {
	ExternalID      *string
	Status          Status
	FinancialStatus FinancialStatus
	TotalAmount     float64
	OriginalAmount  *float64
	ExchangeRate    *float64
	Currency        string
	ProcessedAt     time.Time
	VenueID         string
	Source          Source
	CustomerName    string
	Note            string
	LineItems       []LineItem
}

// HasConversion reports whether the total is derived from a local amount.
func (d *Draft) HasConversion() bool {
	return hasConversion(d.OriginalAmount, d.ExchangeRate)
}

// ApplyConversion recomputes the total from the original amount and rate
// when both are usable. Otherwise the supplied total stands.
func (d *Draft) ApplyConversion() {
	if d.HasConversion() {
		d.TotalAmount = pricing.Convert(d.OriginalAmount, *d.ExchangeRate).TotalAmount
	}
}

// Validate checks the draft before any write.
func (d *Draft) Validate() error {
	if d.VenueID == "" {
		return ErrMissingVenue
	}
	if d.ProcessedAt.IsZero() {
		return ErrMissingProcessingTime
	}
	if !d.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, d.Status)
	}
	if !d.FinancialStatus.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFinancial, d.FinancialStatus)
	}
	if d.TotalAmount < 0 {
		return ErrNegativeTotal
	}
	return validateLineItems(d.LineItems)
}

// NewOrder builds an order from a draft with an allocated number.
func NewOrder(d *Draft, orderNumber string, now time.Time) *Order {
	o := &Order{
		ExternalID:  d.ExternalID,
		OrderNumber: orderNumber,
		VenueID:     d.VenueID,
		Source:      d.Source,
		CreatedAt:   now,
	}
	o.merge(d, now)
	return o
}

// ApplyDraft overwrites the mutable fields with the incoming draft. Identity,
// number, venue and origin are kept.
func (o *Order) ApplyDraft(d *Draft, now time.Time) {
	o.merge(d, now)
}

func (o *Order) merge(d *Draft, now time.Time) {
	o.Status = d.Status
	o.FinancialStatus = d.FinancialStatus
	o.TotalAmount = d.TotalAmount
	o.OriginalAmount = d.OriginalAmount
	o.ExchangeRate = d.ExchangeRate
	o.Currency = d.Currency
	o.ProcessedAt = d.ProcessedAt
	o.CustomerName = d.CustomerName
	o.Note = d.Note
	o.LineItems = normalizeLineItems(d.LineItems)
	o.UpdatedAt = now
}

// Patch carries a partial update. Nil fields are left unchanged.
type Patch struct {
	Status          *Status
	FinancialStatus *FinancialStatus
	TotalAmount     *float64
	OriginalAmount  *float64
	ExchangeRate    *float64
	Currency        *string
	ProcessedAt     *time.Time
	CustomerName    *string
	Note            *string
	LineItems       *[]LineItem
}

// ApplyPatch mutates the order. When the original amount or rate changes and
// both are usable, the total is recomputed and any explicit total is ignored.
// It reports whether line items must be replaced.
func (o *Order) ApplyPatch(p Patch, now time.Time) (bool, error) {
	if p.Status != nil {
		if !p.Status.Valid() {
			return false, fmt.Errorf("%w: %q", ErrInvalidStatus, *p.Status)
		}
		o.Status = *p.Status
	}
	if p.FinancialStatus != nil {
		if !p.FinancialStatus.Valid() {
			return false, fmt.Errorf("%w: %q", ErrInvalidFinancial, *p.FinancialStatus)
		}
		o.FinancialStatus = *p.FinancialStatus
	}
	if p.LineItems != nil {
		if err := validateLineItems(*p.LineItems); err != nil {
			return false, err
		}
	}
	if p.TotalAmount != nil {
		if *p.TotalAmount < 0 {
			return false, ErrNegativeTotal
		}
		o.TotalAmount = *p.TotalAmount
	}
	if p.OriginalAmount != nil {
		o.OriginalAmount = p.OriginalAmount
	}
	if p.ExchangeRate != nil {
		o.ExchangeRate = p.ExchangeRate
	}
	if hasConversion(o.OriginalAmount, o.ExchangeRate) && (p.OriginalAmount != nil || p.ExchangeRate != nil || p.TotalAmount != nil) {
		o.TotalAmount = pricing.Convert(o.OriginalAmount, *o.ExchangeRate).TotalAmount
	}
	if p.Currency != nil {
		o.Currency = *p.Currency
	}
	if p.ProcessedAt != nil {
		o.ProcessedAt = *p.ProcessedAt
	}
	if p.CustomerName != nil {
		o.CustomerName = *p.CustomerName
	}
	if p.Note != nil {
		o.Note = *p.Note
	}

	replaceItems := false
	if p.LineItems != nil {
		o.LineItems = normalizeLineItems(*p.LineItems)
		replaceItems = true
	}
	o.UpdatedAt = now
	return replaceItems, nil
}

func hasConversion(original, rate *float64) bool {
	return original != nil && rate != nil && *rate > 0
}

func validateLineItems(items []LineItem) error {
	for i, li := range items {
		if strings.TrimSpace(li.ProductName) == "" {
			return fmt.Errorf("%w: item %d has no product name", ErrInvalidLineItem, i)
		}
		if li.Quantity <= 0 {
			return fmt.Errorf("%w: item %d quantity must be positive", ErrInvalidLineItem, i)
		}
		if li.UnitPrice < 0 {
			return fmt.Errorf("%w: item %d unit price must not be negative", ErrInvalidLineItem, i)
		}
	}
	return nil
}

// normalizeLineItems fills missing line totals and never returns nil.
func normalizeLineItems(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, li := range items {
		if li.LineTotal == 0 {
			li.LineTotal = pricing.LineTotal(li.UnitPrice, li.Quantity)
		}
		out = append(out, li)
	}
	return out
}
