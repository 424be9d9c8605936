// Package pricing converts venue-currency amounts into fee-inclusive USD totals
// and derives expected payouts. Functions never fail: invalid input yields a
// zero total and a nil base amount.
package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

var (
	// FeeMultiplier is applied to every local-to-USD conversion (3.5% fee)
	FeeMultiplier = decimal.RequireFromString("1.035")
	// PayoutMultiplier is the expected net after the 1.75% payout deduction
	PayoutMultiplier = decimal.RequireFromString("0.9825")
)

// Conversion is the result of converting a local amount at a given rate.
type Conversion struct {
	BaseAmount  *float64 `json:"base_amount"`
	TotalAmount float64  `json:"total_amount"`
}

// Convert returns the USD base amount and the fee-inclusive total rounded to
// cents. A nil or non-finite amount, or a rate that is not positive, yields
// {nil, 0}.
func Convert(localAmount *float64, rate float64) Conversion {
	if !validAmount(localAmount) || !ValidRate(rate) {
		return Conversion{}
	}

	base := decimal.NewFromFloat(*localAmount).Div(decimal.NewFromFloat(rate))
	baseFloat := base.InexactFloat64()

	return Conversion{
		BaseAmount:  &baseFloat,
		TotalAmount: base.Mul(FeeMultiplier).Round(2).InexactFloat64(),
	}
}

// PayoutAmount derives the expected net payout. The local amount and rate are
// preferred; when they are unusable the USD total is used instead.
func PayoutAmount(localAmount *float64, rate float64, totalUSD float64) float64 {
	if validAmount(localAmount) && ValidRate(rate) {
		base := decimal.NewFromFloat(*localAmount).Div(decimal.NewFromFloat(rate))
		return base.Mul(PayoutMultiplier).Round(2).InexactFloat64()
	}
	if math.IsNaN(totalUSD) || math.IsInf(totalUSD, 0) {
		return 0
	}
	return decimal.NewFromFloat(totalUSD).Mul(PayoutMultiplier).Round(2).InexactFloat64()
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// LineTotal multiplies a unit price by a quantity, rounded to cents.
func LineTotal(unitPrice float64, quantity int) float64 {
	if math.IsNaN(unitPrice) || math.IsInf(unitPrice, 0) {
		return 0
	}
	return decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(quantity))).Round(2).InexactFloat64()
}

func validAmount(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// ValidRate reports whether rate is a usable positive, finite rate.
func ValidRate(rate float64) bool {
	return !math.IsNaN(rate) && !math.IsInf(rate, 0) && rate > 0
}
