package exchange

import (
	"context"
	"strings"
	"time"
)

// RateSource tells a caller which tier produced a rate
type RateSource string

const (
	SourceIdentity RateSource = "IDENTITY"
	SourceCache    RateSource = "CACHE"
	SourceLive     RateSource = "LIVE"
	SourcePeg      RateSource = "PEG"
	SourceStale    RateSource = "STALE"
	SourceDefault  RateSource = "DEFAULT"
	// SourceUnavailable carries no rate: nothing is cached or fetchable and
	// the configured default does not describe the pair
	SourceUnavailable RateSource = "UNAVAILABLE"
)

// RateEntry is the single cached row for a currency pair. It is overwritten
// on every successful fetch and never historized.
type RateEntry struct {
	ID           int64     `json:"id"`
	FromCurrency string    `json:"from_currency"`
	ToCurrency   string    `json:"to_currency"`
	Rate         float64   `json:"rate"`
	FetchedAt    time.Time `json:"fetched_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// NewRateEntry stamps a freshly fetched rate with its expiry.
func NewRateEntry(from, to string, rate float64, fetchedAt time.Time, ttl time.Duration) *RateEntry {
	return &RateEntry{
		FromCurrency: NormalizeCode(from),
		ToCurrency:   NormalizeCode(to),
		Rate:         rate,
		FetchedAt:    fetchedAt,
		ExpiresAt:    fetchedAt.Add(ttl),
	}
}

// IsExpired reports whether now is at or past the expiry.
func (e *RateEntry) IsExpired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// NormalizeCode upper-cases and trims an ISO currency code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Repository persists one cache entry per pair
type Repository interface {
	Get(ctx context.Context, from, to string) (*RateEntry, error)
	Upsert(ctx context.Context, entry *RateEntry) error
}

// ErrRateNotFound indicates no cached entry exists for the pair
type ErrRateNotFound struct {
	From string
	To   string
}

func (e ErrRateNotFound) Error() string {
	return "exchange rate not cached: " + e.From + "/" + e.To
}

// Is matches any ErrRateNotFound when the target pair is empty
func (e ErrRateNotFound) Is(target error) bool {
	t, ok := target.(ErrRateNotFound)
	if !ok {
		return false
	}
	return (t.From == "" && t.To == "") || (t.From == e.From && t.To == e.To)
}
