package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/venue-commerce-admin/internal/admin_api/service"
	"github.com/venue-commerce-admin/internal/domain/exchange"
)

// RateHandler exposes the exchange rate cache and the amount calculator
type RateHandler struct {
	rateService service.RateService
	logger      *slog.Logger
}

func NewRateHandler(logger *slog.Logger, rateService service.RateService) *RateHandler {
	return &RateHandler{
		rateService: rateService,
		logger:      logger,
	}
}

// Current returns the rate for a pair and the tier it came from. A pair with
// no cached, live or default rate is reported as unavailable.
func (h *RateHandler) Current(c *gin.Context) {
	var query RateQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondBadRequest(c, "Invalid currency pair")
		return
	}

	quote := h.rateService.CurrentRate(c.Request.Context(), query.From, query.To)
	if quote.Source == exchange.SourceUnavailable {
		RespondServiceUnavailable(c, "No exchange rate available for "+quote.From+"/"+quote.To)
		return
	}

	response := gin.H{
		"from":   quote.From,
		"to":     quote.To,
		"rate":   quote.Rate,
		"source": quote.Source,
		"stale":  quote.Stale,
	}
	if quote.FetchedAt != nil {
		response["fetched_at"] = quote.FetchedAt.Format(time.RFC3339)
	}
	RespondOK(c, response)
}

// Convert prices a local amount into the fee-inclusive total and expected payout
func (h *RateHandler) Convert(c *gin.Context) {
	var query ConvertQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondBadRequest(c, "Invalid conversion parameters: "+err.Error())
		return
	}

	RespondOK(c, h.rateService.Convert(c.Request.Context(), query.Amount, query.Rate, query.Total))
}
