package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/venue-commerce-admin/internal/admin_api/middleware"
	"github.com/venue-commerce-admin/internal/admin_api/service"
	"github.com/venue-commerce-admin/internal/domain/shared"
	"github.com/venue-commerce-admin/internal/domain/syncrun"
)

// SyncHandler queues Shopify and Mercury syncs and reports their runs
type SyncHandler struct {
	syncService service.SyncService
	logger      *slog.Logger
}

func NewSyncHandler(logger *slog.Logger, syncService service.SyncService) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
		logger:      logger,
	}
}

// Shopify queues an order or product pull from one of the venue's stores
func (h *SyncHandler) Shopify(c *gin.Context) {
	var req ShopifySyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	kind := shared.SyncKindShopifyOrders
	if req.Resource == "products" {
		kind = shared.SyncKindShopifyProducts
	}

	h.queue(c, &shared.SyncRequest{
		Kind:    kind,
		StoreID: req.StoreID,
		Since:   req.Since,
	})
}

// Mercury queues a bank transaction pull. The body is optional.
func (h *SyncHandler) Mercury(c *gin.Context) {
	var req MercurySyncRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondBadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}

	h.queue(c, &shared.SyncRequest{
		Kind:      shared.SyncKindMercuryPayouts,
		AccountID: req.AccountID,
		Since:     req.Since,
		Until:     req.Until,
	})
}

func (h *SyncHandler) queue(c *gin.Context, req *shared.SyncRequest) {
	req.VenueID = c.Param(middleware.VenueIDParam)
	req.CorrelationID = middleware.GetCorrelationID(c)
	if session := middleware.GetSession(c); session != nil {
		req.RequestedBy = session.UserID
	}

	run, err := h.syncService.RequestSync(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, h.logger, err, "queue sync")
		return
	}

	RespondAccepted(c, gin.H{
		"run_id": run.RunID.String(),
		"status": run.Status,
	})
}

// GetRun reports the state of one sync run
func (h *SyncHandler) GetRun(c *gin.Context) {
	idParam := c.Param("id")
	runID, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid sync run ID")
		return
	}

	run, err := h.syncService.GetRun(c.Request.Context(), runID)
	if err != nil {
		respondServiceError(c, h.logger, err, "get sync run")
		return
	}

	if !middleware.CanAccessVenue(c, run.VenueID) {
		RespondForbidden(c, "No access to this sync run's venue")
		return
	}

	RespondOK(c, mapRunToResponse(run))
}

// ListRuns returns the venue's most recent sync runs
func (h *SyncHandler) ListRuns(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	runs, err := h.syncService.ListRuns(c.Request.Context(), c.Param(middleware.VenueIDParam), pagination.Page, pagination.PerPage)
	if err != nil {
		respondServiceError(c, h.logger, err, "list sync runs")
		return
	}

	responses := make([]SyncRunResponse, 0, len(runs))
	for _, run := range runs {
		responses = append(responses, mapRunToResponse(run))
	}
	RespondOK(c, responses)
}

func mapRunToResponse(run *syncrun.Run) SyncRunResponse {
	response := SyncRunResponse{
		RunID:     run.RunID.String(),
		Kind:      string(run.Kind),
		VenueID:   run.VenueID,
		StoreID:   run.StoreID,
		Status:    string(run.Status),
		Error:     run.Error,
		CreatedAt: run.CreatedAt.Format(time.RFC3339),
	}
	if run.Result != nil {
		response.Result = run.Result
	}
	if run.StartedAt != nil {
		response.StartedAt = run.StartedAt.Format(time.RFC3339)
	}
	if run.CompletedAt != nil {
		response.CompletedAt = run.CompletedAt.Format(time.RFC3339)
	}
	return response
}
