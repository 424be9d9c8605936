package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/venue-commerce-admin/internal/admin_api"
	"github.com/venue-commerce-admin/internal/admin_api/middleware"
	"github.com/venue-commerce-admin/internal/admin_api/service"
	"github.com/venue-commerce-admin/internal/config"
	"github.com/venue-commerce-admin/internal/data/mongo"
	"github.com/venue-commerce-admin/internal/data/postgres"
	"github.com/venue-commerce-admin/internal/integrations/rates"
	"github.com/venue-commerce-admin/internal/logger"
	"github.com/venue-commerce-admin/internal/platform/locking"
	"github.com/venue-commerce-admin/internal/platform/messaging/producers"
	"github.com/venue-commerce-admin/internal/platform/persistence"
	"github.com/venue-commerce-admin/internal/reconciliation/csvimport"
	"github.com/venue-commerce-admin/internal/reconciliation/engine"
	"github.com/venue-commerce-admin/internal/reconciliation/journal"
	"github.com/venue-commerce-admin/internal/reconciliation/numbering"
	"github.com/venue-commerce-admin/internal/reconciliation/ratecache"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("admin_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting admin API",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Applies pending migrations before opening the pool
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	redisClient, err := persistence.NewRedisClient(appCtx, log, &cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize Redis", "error", err)
		os.Exit(1)
	}

	// Publishes Shopify and Mercury sync requests for the worker
	syncProducer, err := producers.NewSyncRequestProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize sync request Kafka producer", "error", err)
		os.Exit(1)
	}

	// Repositories
	orderRepo := postgres.NewOrderRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	payoutRepo := postgres.NewPayoutRepository(log, postgresDB)
	storeRepo := postgres.NewStoreRepository(log, postgresDB)
	rateRepo := postgres.NewExchangeRateRepository(log, postgresDB)
	syncRunRepo := mongo.NewSyncRunRepository(log, mongoDB.Database())
	if err := syncRunRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to create sync run indexes", "error", err)
		os.Exit(1)
	}

	// Reconciliation core
	rateCache := ratecache.NewService(log, rateRepo, rates.NewClient(log, &cfg.ExchangeRate), &cfg.ExchangeRate)
	allocator := numbering.NewAllocator(log, orderRepo, locking.NewRedisLocker(log, redisClient, &cfg.Redis), cfg.Redis.LockTTL)
	recorder := journal.New(outboxRepo, log)
	reconciler := engine.New(orderRepo, recorder, allocator, rateCache, postgresDB, log)
	csvImporter := csvimport.NewImporter(reconciler, cfg.ExchangeRate.LocalCurrency, log)

	services := admin_api.Services{
		Orders:  service.NewOrderService(log, orderRepo, recorder, allocator, rateCache, postgresDB, csvImporter, &cfg.ExchangeRate),
		Rates:   service.NewRateService(log, rateCache, &cfg.ExchangeRate),
		Payouts: service.NewPayoutService(log, payoutRepo),
		Syncs:   service.NewSyncService(log, syncRunRepo, storeRepo, syncProducer),
	}

	server := admin_api.NewServer(log, cfg, services, middleware.NewAuthenticator(log, &cfg.Auth))
	log.Info("REST server initialized")

	errChan := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Drain in-flight requests before closing what they depend on
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = syncProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	if err = redisClient.Close(); err != nil {
		log.Error("Error closing Redis client", "error", err)
	}

	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
