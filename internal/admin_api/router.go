package admin_api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/venue-commerce-admin/internal/admin_api/handler"
	"github.com/venue-commerce-admin/internal/admin_api/middleware"
)

// handlers groups the route targets registered by setupRouter
type handlers struct {
	orders  *handler.OrderHandler
	rates   *handler.RateHandler
	payouts *handler.PayoutHandler
	syncs   *handler.SyncHandler
}

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	auth *middleware.Authenticator,
	h handlers,
) {
	// CorrelationID runs first so Recovery and Logger can read the id
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	// API v1 endpoints, all behind a session
	v1 := r.Group("/api/v1", middleware.Auth(auth))
	{
		v1.GET("/exchange-rates/current", h.rates.Current)
		v1.GET("/amounts/convert", h.rates.Convert)

		// Single orders resolve their venue after loading
		orders := v1.Group("/orders")
		{
			orders.GET("/:id", h.orders.GetByID)
			orders.PATCH("/:id", h.orders.Patch)
			orders.DELETE("/:id", h.orders.Delete)
		}

		v1.GET("/sync-runs/:id", h.syncs.GetRun)

		venues := v1.Group("/venues/:"+middleware.VenueIDParam, middleware.RequireVenueAccess())
		{
			venues.POST("/orders", h.orders.Create)
			venues.GET("/orders", h.orders.List)
			venues.POST("/orders/import-csv", h.orders.ImportCSV)
			venues.POST("/orders/bulk-delete", h.orders.BulkDelete)

			venues.GET("/payouts", h.payouts.List)
			venues.POST("/payouts/mercury-sync", h.syncs.Mercury)
			venues.POST("/shopify/sync", h.syncs.Shopify)

			venues.GET("/sync-runs", h.syncs.ListRuns)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
