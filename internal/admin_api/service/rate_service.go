package service

import (
	"context"
	"log/slog"

	"github.com/venue-commerce-admin/internal/config"
	"github.com/venue-commerce-admin/internal/domain/exchange"
	"github.com/venue-commerce-admin/internal/domain/pricing"
	"github.com/venue-commerce-admin/internal/reconciliation/ratecache"
)

// RateQuoter is satisfied by the exchange rate cache
type RateQuoter interface {
	GetCurrentRate(ctx context.Context, from, to string) ratecache.Quote
}

// Conversion is a priced local amount with the rate it was priced at
type Conversion struct {
	LocalAmount  *float64            `json:"local_amount"`
	Rate         float64             `json:"rate"`
	RateSource   exchange.RateSource `json:"rate_source,omitempty"`
	BaseAmount   *float64            `json:"base_amount"`
	TotalAmount  float64             `json:"total_amount"`
	PayoutAmount float64             `json:"payout_amount"`
}

type RateServiceImpl struct {
	quoter        RateQuoter
	baseCurrency  string
	localCurrency string
	logger        *slog.Logger
}

func NewRateService(logger *slog.Logger, quoter RateQuoter, cfg *config.ExchangeRateConfig) RateService {
	return &RateServiceImpl{
		quoter:        quoter,
		baseCurrency:  cfg.BaseCurrency,
		localCurrency: cfg.LocalCurrency,
		logger:        logger,
	}
}

// CurrentRate defaults a missing side to the base and local currencies
func (s *RateServiceImpl) CurrentRate(ctx context.Context, from, to string) ratecache.Quote {
	if exchange.NormalizeCode(from) == "" {
		from = s.baseCurrency
	}
	if exchange.NormalizeCode(to) == "" {
		to = s.localCurrency
	}
	return s.quoter.GetCurrentRate(ctx, from, to)
}

func (s *RateServiceImpl) Convert(ctx context.Context, localAmount *float64, rate *float64, totalUSD float64) Conversion {
	out := Conversion{LocalAmount: localAmount}
	if rate != nil {
		out.Rate = *rate
	} else {
		quote := s.quoter.GetCurrentRate(ctx, s.baseCurrency, s.localCurrency)
		out.Rate = quote.Rate
		out.RateSource = quote.Source
	}

	c := pricing.Convert(localAmount, out.Rate)
	out.BaseAmount = c.BaseAmount
	out.TotalAmount = c.TotalAmount
	out.PayoutAmount = pricing.PayoutAmount(localAmount, out.Rate, totalUSD)
	return out
}
