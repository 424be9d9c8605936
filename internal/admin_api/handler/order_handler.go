package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/venue-commerce-admin/internal/admin_api/middleware"
	"github.com/venue-commerce-admin/internal/admin_api/service"
	"github.com/venue-commerce-admin/internal/domain/order"
	"github.com/venue-commerce-admin/internal/domain/pricing"
	"github.com/venue-commerce-admin/internal/reconciliation/sources"
)

// OrderHandler handles HTTP requests for order operations
type OrderHandler struct {
	orderService   service.OrderService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(logger *slog.Logger, orderService service.OrderService, maxUploadBytes int64) *OrderHandler {
	return &OrderHandler{
		orderService:   orderService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Create records a manually entered order for the venue in the path
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	financial, err := order.ParseFinancialStatus(req.FinancialStatus)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	in := sources.Manual{
		ExternalID:      req.ExternalID,
		Status:          order.Status(req.Status),
		FinancialStatus: financial,
		TotalAmount:     req.TotalAmount,
		OriginalAmount:  req.OriginalAmount,
		ExchangeRate:    req.ExchangeRate,
		Currency:        req.Currency,
		CustomerName:    req.CustomerName,
		Note:            req.Note,
		LineItems:       mapLineItemRequests(req.LineItems),
	}
	if req.ProcessedAt != nil {
		in.ProcessedAt = req.ProcessedAt.UTC()
	}

	created, err := h.orderService.CreateManual(c.Request.Context(), c.Param(middleware.VenueIDParam), in, middleware.GetCorrelationID(c))
	if err != nil {
		respondServiceError(c, h.logger, err, "create order")
		return
	}

	RespondCreated(c, mapOrderToResponse(created))
}

// List returns a page of the venue's orders
func (h *OrderHandler) List(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	venueID := c.Param(middleware.VenueIDParam)
	orders, total, err := h.orderService.ListOrders(c.Request.Context(), venueID, pagination.Page, pagination.PerPage)
	if err != nil {
		respondServiceError(c, h.logger, err, "list orders")
		return
	}

	responses := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		responses = append(responses, mapOrderToResponse(o))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, pagination.Page, pagination.PerPage, int(total))
}

// GetByID returns one order with its line items
func (h *OrderHandler) GetByID(c *gin.Context) {
	o, ok := h.loadOrder(c)
	if !ok {
		return
	}
	RespondOK(c, mapOrderToResponse(o))
}

// Patch applies a partial update to an order
func (h *OrderHandler) Patch(c *gin.Context) {
	var req PatchOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	patch, err := mapPatchRequest(&req)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	o, ok := h.loadOrder(c)
	if !ok {
		return
	}

	updated, err := h.orderService.PatchOrder(c.Request.Context(), o, patch, middleware.GetCorrelationID(c))
	if err != nil {
		respondServiceError(c, h.logger, err, "update order")
		return
	}

	RespondOK(c, mapOrderToResponse(updated))
}

// Delete removes one order
func (h *OrderHandler) Delete(c *gin.Context) {
	o, ok := h.loadOrder(c)
	if !ok {
		return
	}

	if err := h.orderService.DeleteOrder(c.Request.Context(), o, middleware.GetCorrelationID(c)); err != nil {
		respondServiceError(c, h.logger, err, "delete order")
		return
	}

	RespondNoContent(c)
}

// BulkDelete removes the listed orders of the venue in the path
func (h *OrderHandler) BulkDelete(c *gin.Context) {
	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	venueID := c.Param(middleware.VenueIDParam)
	deleted, err := h.orderService.BulkDelete(c.Request.Context(), venueID, req.IDs, middleware.GetCorrelationID(c))
	if err != nil {
		respondServiceError(c, h.logger, err, "bulk delete orders")
		return
	}

	RespondOK(c, gin.H{
		"requested": len(req.IDs),
		"deleted":   deleted,
	})
}

// ImportCSV accepts a two column (date, amount) file either as a multipart
// upload or as JSON, converted at the single rate supplied with it
func (h *OrderHandler) ImportCSV(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	text, rate, err := h.readImport(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondWithError(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "CSV file is too large")
			return
		}
		RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.orderService.ImportCSV(c.Request.Context(), c.Param(middleware.VenueIDParam), text, rate, middleware.GetCorrelationID(c))
	if err != nil {
		respondServiceError(c, h.logger, err, "import csv")
		return
	}

	RespondOK(c, result)
}

func (h *OrderHandler) readImport(c *gin.Context) (string, float64, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		var req ImportCSVRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return "", 0, err
		}
		return req.CSV, req.Rate, nil
	}

	if err := c.Request.ParseMultipartForm(h.maxUploadBytes); err != nil {
		return "", 0, err
	}

	rate, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm("rate")), 64)
	if err != nil || !pricing.ValidRate(rate) {
		return "", 0, errors.New("rate must be a positive number")
	}

	header, err := c.FormFile("file")
	if err != nil {
		return "", 0, errors.New("file is required")
	}
	f, err := header.Open()
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", 0, err
	}
	return string(data), rate, nil
}

// loadOrder resolves the :id path parameter and checks the caller may see the
// order's venue. It writes the error response itself.
func (h *OrderHandler) loadOrder(c *gin.Context) (*order.Order, bool) {
	idParam := c.Param("id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(c, "Invalid order ID")
		return nil, false
	}

	o, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err, "get order")
		return nil, false
	}

	if !middleware.CanAccessVenue(c, o.VenueID) {
		RespondForbidden(c, "No access to this order's venue")
		return nil, false
	}
	return o, true
}

func mapLineItemRequests(items []LineItemRequest) []order.LineItem {
	out := make([]order.LineItem, 0, len(items))
	for _, li := range items {
		out = append(out, order.LineItem{
			ProductName: strings.TrimSpace(li.ProductName),
			SKU:         strings.TrimSpace(li.SKU),
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
		})
	}
	return out
}

func mapPatchRequest(req *PatchOrderRequest) (order.Patch, error) {
	patch := order.Patch{
		TotalAmount:    req.TotalAmount,
		OriginalAmount: req.OriginalAmount,
		ExchangeRate:   req.ExchangeRate,
		CustomerName:   req.CustomerName,
		Note:           req.Note,
	}
	if req.Status != nil {
		status := order.Status(strings.ToUpper(strings.TrimSpace(*req.Status)))
		patch.Status = &status
	}
	if req.FinancialStatus != nil {
		fs, err := order.ParseFinancialStatus(*req.FinancialStatus)
		if err != nil {
			return order.Patch{}, err
		}
		patch.FinancialStatus = &fs
	}
	if req.Currency != nil {
		currency := strings.ToUpper(*req.Currency)
		patch.Currency = &currency
	}
	if req.ProcessedAt != nil {
		at := req.ProcessedAt.UTC()
		patch.ProcessedAt = &at
	}
	if req.LineItems != nil {
		items := mapLineItemRequests(*req.LineItems)
		patch.LineItems = &items
	}
	return patch, nil
}

// mapOrderToResponse maps an order to its response DTO
func mapOrderToResponse(o *order.Order) OrderResponse {
	response := OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		Status:          string(o.Status),
		FinancialStatus: string(o.FinancialStatus),
		TotalAmount:     o.TotalAmount,
		OriginalAmount:  o.OriginalAmount,
		ExchangeRate:    o.ExchangeRate,
		Currency:        o.Currency,
		ProcessedAt:     o.ProcessedAt.Format(time.RFC3339),
		VenueID:         o.VenueID,
		Source:          string(o.Source),
		CustomerName:    o.CustomerName,
		Note:            o.Note,
		LineItems:       make([]LineItemResponse, 0, len(o.LineItems)),
		CreatedAt:       o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       o.UpdatedAt.Format(time.RFC3339),
	}
	if o.ExternalID != nil {
		response.ExternalID = *o.ExternalID
	}

	var rate float64
	if o.ExchangeRate != nil {
		rate = *o.ExchangeRate
	}
	response.ExpectedPayout = pricing.PayoutAmount(o.OriginalAmount, rate, o.TotalAmount)

	for _, li := range o.LineItems {
		response.LineItems = append(response.LineItems, LineItemResponse{
			ID:          li.ID,
			ProductName: li.ProductName,
			SKU:         li.SKU,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			LineTotal:   li.LineTotal,
		})
	}
	return response
}
