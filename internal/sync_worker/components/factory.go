package components

import (
	"log/slog"

	"github.com/venue-commerce-admin/internal/config"
	"github.com/venue-commerce-admin/internal/domain/shared"
	"github.com/venue-commerce-admin/internal/domain/store"
	"github.com/venue-commerce-admin/internal/domain/syncrun"
	"github.com/venue-commerce-admin/internal/sync_worker/service"
)

// Dependencies are the collaborators the syncers are built from
type Dependencies struct {
	Runs       syncrun.Repository
	Stores     store.Repository
	Shopify    ShopifyClient
	Bank       BankClient
	Reconciler OrderReconciler
	Payouts    PayoutImporter
	Catalog    CatalogSyncer
}

// CreateProcessingService wires one syncer per kind behind the worker pool.
func CreateProcessingService(deps Dependencies, logger *slog.Logger, cfg *config.Config) service.ProcessingService {
	syncers := map[shared.SyncKind]service.Syncer{
		shared.SyncKindShopifyOrders:   NewShopifyOrderSyncer(deps.Stores, deps.Shopify, deps.Reconciler, cfg.ExchangeRate.BaseCurrency, cfg.ExchangeRate.LocalCurrency, logger),
		shared.SyncKindShopifyProducts: NewShopifyProductSyncer(deps.Stores, deps.Shopify, deps.Catalog, logger),
		shared.SyncKindMercuryPayouts:  NewMercuryPayoutSyncer(deps.Bank, deps.Payouts, logger),
	}

	baseService := service.NewProcessingService(
		NewRunValidator(deps.Runs, logger),
		syncers,
		NewRunRecorder(deps.Runs, logger),
		logger,
	)

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool processing service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
