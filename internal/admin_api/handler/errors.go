package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/venue-commerce-admin/internal/admin_api/middleware"
	"github.com/venue-commerce-admin/internal/admin_api/service"
	"github.com/venue-commerce-admin/internal/domain/order"
	"github.com/venue-commerce-admin/internal/domain/store"
	"github.com/venue-commerce-admin/internal/domain/syncrun"
	"github.com/venue-commerce-admin/internal/reconciliation/csvimport"
	"github.com/venue-commerce-admin/internal/reconciliation/numbering"
)

// respondServiceError maps service errors onto the response envelope. Anything
// unrecognised is logged and answered with a 500.
func respondServiceError(c *gin.Context, logger *slog.Logger, err error, action string) {
	var (
		validationErr *service.ValidationError
		rowsErr       *csvimport.ValidationError
		storeNotFound store.ErrStoreNotFound
		numberTaken   order.ErrDuplicateOrderNumber
	)

	switch {
	case errors.As(err, &rowsErr):
		RespondValidationFailed(c, "CSV contains invalid rows; nothing was imported", rowsErr.Errors)
	case errors.As(err, &validationErr):
		RespondBadRequest(c, validationErr.Error())
	case errors.Is(err, order.ErrOrderNotFound{}):
		RespondNotFound(c, "Order not found")
	case errors.Is(err, syncrun.ErrRunNotFound{}):
		RespondNotFound(c, "Sync run not found")
	case errors.As(err, &storeNotFound):
		RespondNotFound(c, "Shopify store not found")
	case errors.Is(err, order.ErrDuplicateExternalID{}):
		RespondConflict(c, err.Error())
	case errors.As(err, &numberTaken):
		RespondConflict(c, numberTaken.Error())
	case errors.Is(err, numbering.ErrAllocationBusy):
		RespondServiceUnavailable(c, "Order numbering is busy, please retry")
	default:
		middleware.RequestLogger(c, logger).Error("Failed to "+action, "error", err)
		RespondInternalError(c)
	}
}
