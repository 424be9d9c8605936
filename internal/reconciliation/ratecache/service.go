// Package ratecache resolves currency rates through a degrading chain:
// a fresh cached entry, then a live fetch (or the fixed peg), then any stale
// entry, then the configured default. The base/local pair always gets a usable
// rate; other pairs may come back as SourceUnavailable with a zero rate.
package ratecache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/venue-commerce-admin/internal/config"
	"github.com/venue-commerce-admin/internal/domain/exchange"
	"github.com/venue-commerce-admin/internal/domain/pricing"
)

// AEDPerUSD is the fixed dirham peg
const AEDPerUSD = 3.6725

// RateProvider fetches a live rate from an upstream service
type RateProvider interface {
	FetchRate(ctx context.Context, from, to string) (float64, error)
}

// Quote is a resolved rate plus where it came from.
type Quote struct {
	From      string              `json:"from"`
	To        string              `json:"to"`
	Rate      float64             `json:"rate"`
	Source    exchange.RateSource `json:"source"`
	Stale     bool                `json:"stale"`
	FetchedAt *time.Time          `json:"fetched_at,omitempty"`
}

type Service struct {
	repo          exchange.Repository
	provider      RateProvider
	ttl           time.Duration
	defaultRate   float64
	baseCurrency  string
	localCurrency string
	now           func() time.Time
	logger        *slog.Logger
}

func NewService(logger *slog.Logger, repo exchange.Repository, provider RateProvider, cfg *config.ExchangeRateConfig) *Service {
	return &Service{
		repo:          repo,
		provider:      provider,
		ttl:           cfg.CacheTTL,
		defaultRate:   cfg.DefaultRate,
		baseCurrency:  exchange.NormalizeCode(cfg.BaseCurrency),
		localCurrency: exchange.NormalizeCode(cfg.LocalCurrency),
		now:           time.Now,
		logger:        logger.With("component", "rate_cache"),
	}
}

// Rate is GetCurrentRate reduced to the number.
func (s *Service) Rate(ctx context.Context, from, to string) float64 {
	return s.GetCurrentRate(ctx, from, to).Rate
}

// LocalRate is the batch rate for converting local amounts into the base currency.
func (s *Service) LocalRate(ctx context.Context) float64 {
	return s.Rate(ctx, s.baseCurrency, s.localCurrency)
}

// GetCurrentRate never fails; the quote's Source tells which tier answered.
// Callers asking for pairs other than base/local must check for SourceUnavailable.
func (s *Service) GetCurrentRate(ctx context.Context, from, to string) Quote {
	from = exchange.NormalizeCode(from)
	to = exchange.NormalizeCode(to)

	if from == to {
		return Quote{From: from, To: to, Rate: 1, Source: exchange.SourceIdentity}
	}

	cached := s.lookup(ctx, from, to)
	if q, ok := s.fresh(cached); ok {
		return q
	}
	if q, ok := s.live(ctx, from, to); ok {
		return q
	}
	if q, ok := s.stale(cached); ok {
		return q
	}
	return s.fallback(from, to)
}

// lookup treats any read failure as a miss.
func (s *Service) lookup(ctx context.Context, from, to string) *exchange.RateEntry {
	entry, err := s.repo.Get(ctx, from, to)
	if err != nil {
		if !errors.Is(err, exchange.ErrRateNotFound{}) {
			s.logger.Error("Failed to read cached rate", "from", from, "to", to, "error", err)
		}
		return nil
	}
	return entry
}

func (s *Service) fresh(entry *exchange.RateEntry) (Quote, bool) {
	if entry == nil || entry.IsExpired(s.now()) {
		return Quote{}, false
	}
	return quoteFromEntry(entry, exchange.SourceCache, false), true
}

// live answers the pegged pair without a network call and otherwise asks the
// provider. A successful rate is written back to the cache.
func (s *Service) live(ctx context.Context, from, to string) (Quote, bool) {
	rate, source := 0.0, exchange.SourceLive
	if pegged, ok := pegRate(from, to); ok {
		rate, source = pegged, exchange.SourcePeg
	} else {
		fetched, err := s.provider.FetchRate(ctx, from, to)
		if err != nil {
			s.logger.Warn("Live rate fetch failed", "from", from, "to", to, "error", err)
			return Quote{}, false
		}
		if !pricing.ValidRate(fetched) {
			s.logger.Warn("Live rate fetch returned unusable rate", "from", from, "to", to, "rate", fetched)
			return Quote{}, false
		}
		rate = fetched
	}

	entry := exchange.NewRateEntry(from, to, rate, s.now(), s.ttl)
	if err := s.repo.Upsert(ctx, entry); err != nil {
		s.logger.Error("Failed to cache rate", "from", from, "to", to, "error", err)
	}
	return quoteFromEntry(entry, source, false), true
}

func (s *Service) stale(entry *exchange.RateEntry) (Quote, bool) {
	if entry == nil {
		return Quote{}, false
	}
	s.logger.Warn("Serving stale exchange rate", "from", entry.FromCurrency, "to", entry.ToCurrency,
		"rate", entry.Rate, "expired_at", entry.ExpiresAt)
	return quoteFromEntry(entry, exchange.SourceStale, true), true
}

// fallback is the configured default, which is local per base. The reverse
// pair gets its inverse and any other pair gets no rate at all.
func (s *Service) fallback(from, to string) Quote {
	var rate float64
	switch {
	case from == s.baseCurrency && to == s.localCurrency:
		rate = s.defaultRate
	case from == s.localCurrency && to == s.baseCurrency:
		rate = 1 / s.defaultRate
	default:
		s.logger.Error("No exchange rate available", "from", from, "to", to)
		return Quote{From: from, To: to, Source: exchange.SourceUnavailable, Stale: true}
	}
	s.logger.Warn("No usable exchange rate, using default", "from", from, "to", to, "rate", rate)
	return Quote{From: from, To: to, Rate: rate, Source: exchange.SourceDefault, Stale: true}
}

func pegRate(from, to string) (float64, bool) {
	switch {
	case from == "USD" && to == "AED":
		return AEDPerUSD, true
	case from == "AED" && to == "USD":
		return 1 / AEDPerUSD, true
	}
	return 0, false
}

func quoteFromEntry(e *exchange.RateEntry, source exchange.RateSource, stale bool) Quote {
	fetchedAt := e.FetchedAt
	return Quote{
		From:      e.FromCurrency,
		To:        e.ToCurrency,
		Rate:      e.Rate,
		Source:    source,
		Stale:     stale,
		FetchedAt: &fetchedAt,
	}
}
