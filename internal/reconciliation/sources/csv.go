package sources

import (
	"time"

	"github.com/venue-commerce-admin/internal/domain/order"
)

// CSVRow is a bare financial record: a date and a local-currency amount.
type CSVRow struct {
	Line     int
	Date     time.Time
	Amount   float64
	Currency string
}

func (r CSVRow) Kind() order.Source { return order.SourceCSV }

// ExternalRef is empty; legacy rows carry no upstream id.
func (r CSVRow) ExternalRef() string { return "" }

func (r CSVRow) Normalize(venueID string, rate float64) (*order.Draft, error) {
	d := &order.Draft{
		Status:          order.StatusCompleted,
		FinancialStatus: order.FinancialPaid,
		Currency:        r.Currency,
		ProcessedAt:     r.Date,
		VenueID:         venueID,
		Source:          order.SourceCSV,
		LineItems:       []order.LineItem{},
	}
	if err := converted(d, r.Amount, rate); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}
