package sources

import (
	"strings"
	"time"

	"github.com/venue-commerce-admin/internal/domain/order"
)

// Manual is an order entered by an operator. It carries either a base
// currency total or a local amount, optionally with its own rate.
type Manual struct {
	ExternalID      *string
	Status          order.Status
	FinancialStatus order.FinancialStatus
	TotalAmount     *float64
	OriginalAmount  *float64
	ExchangeRate    *float64
	Currency        string
	ProcessedAt     time.Time
	CustomerName    string
	Note            string
	LineItems       []order.LineItem
}

func (m Manual) Kind() order.Source { return order.SourceManual }

func (m Manual) ExternalRef() string {
	if m.ExternalID == nil {
		return ""
	}
	return strings.TrimSpace(*m.ExternalID)
}

// Normalize prefers the record's own rate over the batch rate.
func (m Manual) Normalize(venueID string, rate float64) (*order.Draft, error) {
	d := &order.Draft{
		Status:          m.Status,
		FinancialStatus: m.FinancialStatus,
		Currency:        strings.ToUpper(strings.TrimSpace(m.Currency)),
		ProcessedAt:     m.ProcessedAt,
		VenueID:         venueID,
		Source:          order.SourceManual,
		CustomerName:    strings.TrimSpace(m.CustomerName),
		Note:            m.Note,
		LineItems:       m.LineItems,
	}
	if ref := m.ExternalRef(); ref != "" {
		d.ExternalID = stringPtr(ref)
	}
	if d.Status == "" {
		d.Status = order.StatusPending
	}
	if d.FinancialStatus == "" {
		d.FinancialStatus = order.FinancialPending
	}
	if d.ProcessedAt.IsZero() {
		d.ProcessedAt = time.Now().UTC()
	}

	switch {
	case m.OriginalAmount != nil:
		if m.ExchangeRate != nil {
			rate = *m.ExchangeRate
		}
		if err := converted(d, *m.OriginalAmount, rate); err != nil {
			return nil, err
		}
	case m.TotalAmount != nil:
		d.TotalAmount = *m.TotalAmount
	default:
		return nil, ErrMissingTotal
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}
