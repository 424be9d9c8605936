// Package sources models every upstream record shape as its own input type.
// Each one knows how to normalize itself into the canonical order draft, so
// the reconciliation engine never inspects source-specific fields.
package sources

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/venue-commerce-admin/internal/domain/order"
	"github.com/venue-commerce-admin/internal/domain/pricing"
)

var (
	ErrInvalidAmount = errors.New("amount is not a valid number")
	ErrMissingRate   = errors.New("a positive exchange rate is required to convert a local amount")
	ErrMissingTotal  = errors.New("either a total or a local amount is required")

	ErrUnsupportedCurrency = errors.New("order currency is neither the base nor the local currency")

	ErrMissingTransactionID = errors.New("bank transaction has no id")
)

// Input is one record of a reconciliation batch.
type Input interface {
	Kind() order.Source
	// ExternalRef is the upstream id used for dedup; empty means always insert
	ExternalRef() string
	// Normalize builds a validated draft for the venue. rate is the batch's
	// local-per-base rate and is only consulted for local amounts.
	Normalize(venueID string, rate float64) (*order.Draft, error)
}

// converted fills the local amount and rate and derives the total.
func converted(d *order.Draft, localAmount, rate float64) error {
	if math.IsNaN(localAmount) || math.IsInf(localAmount, 0) {
		return ErrInvalidAmount
	}
	if !pricing.ValidRate(rate) {
		return ErrMissingRate
	}
	d.OriginalAmount = &localAmount
	d.ExchangeRate = &rate
	d.ApplyConversion()
	return nil
}

func parseAmount(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

func stringPtr(s string) *string {
	return &s
}
