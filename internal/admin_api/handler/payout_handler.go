package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/venue-commerce-admin/internal/admin_api/middleware"
	"github.com/venue-commerce-admin/internal/admin_api/service"
	"github.com/venue-commerce-admin/internal/domain/payout"
)

// PayoutHandler handles HTTP requests for recorded payouts
type PayoutHandler struct {
	payoutService service.PayoutService
	logger        *slog.Logger
}

func NewPayoutHandler(logger *slog.Logger, payoutService service.PayoutService) *PayoutHandler {
	return &PayoutHandler{
		payoutService: payoutService,
		logger:        logger,
	}
}

// List returns a page of the venue's payouts
func (h *PayoutHandler) List(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	payouts, total, err := h.payoutService.ListPayouts(c.Request.Context(), c.Param(middleware.VenueIDParam), pagination.Page, pagination.PerPage)
	if err != nil {
		respondServiceError(c, h.logger, err, "list payouts")
		return
	}

	responses := make([]PayoutResponse, 0, len(payouts))
	for _, p := range payouts {
		responses = append(responses, mapPayoutToResponse(p))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, pagination.Page, pagination.PerPage, int(total))
}

func mapPayoutToResponse(p *payout.Payout) PayoutResponse {
	response := PayoutResponse{
		ID:          p.ID,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Status:      string(p.Status),
		Description: p.Description,
		PaidAt:      p.PaidAt.Format(time.RFC3339),
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
	if p.MercuryTransactionID != nil {
		response.MercuryTransactionID = *p.MercuryTransactionID
	}
	return response
}
