package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/venue-commerce-admin/internal/config"
	"github.com/venue-commerce-admin/internal/data/mongo"
	"github.com/venue-commerce-admin/internal/data/postgres"
	"github.com/venue-commerce-admin/internal/integrations/mercury"
	"github.com/venue-commerce-admin/internal/integrations/rates"
	"github.com/venue-commerce-admin/internal/integrations/shopify"
	"github.com/venue-commerce-admin/internal/logger"
	"github.com/venue-commerce-admin/internal/platform/locking"
	"github.com/venue-commerce-admin/internal/platform/messaging/consumers"
	"github.com/venue-commerce-admin/internal/platform/messaging/producers"
	"github.com/venue-commerce-admin/internal/platform/persistence"
	"github.com/venue-commerce-admin/internal/reconciliation/catalog"
	"github.com/venue-commerce-admin/internal/reconciliation/engine"
	"github.com/venue-commerce-admin/internal/reconciliation/journal"
	"github.com/venue-commerce-admin/internal/reconciliation/numbering"
	"github.com/venue-commerce-admin/internal/reconciliation/payouts"
	"github.com/venue-commerce-admin/internal/reconciliation/ratecache"
	"github.com/venue-commerce-admin/internal/sync_worker/components"
	"github.com/venue-commerce-admin/internal/sync_worker/consumer"
	"github.com/venue-commerce-admin/internal/sync_worker/outbox_poller"
	"github.com/venue-commerce-admin/internal/sync_worker/service"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("sync_worker")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting sync worker",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

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

	// Repositories
	orderRepo := postgres.NewOrderRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	payoutRepo := postgres.NewPayoutRepository(log, postgresDB)
	productRepo := postgres.NewProductRepository(log, postgresDB)
	storeRepo := postgres.NewStoreRepository(log, postgresDB)
	rateRepo := postgres.NewExchangeRateRepository(log, postgresDB)

	syncRunRepo := mongo.NewSyncRunRepository(log, mongoDB.Database())
	historyRepo := mongo.NewOrderHistoryRepository(log, mongoDB.Database())
	if err := syncRunRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to create sync run indexes", "error", err)
		os.Exit(1)
	}
	if err := historyRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to create order history indexes", "error", err)
		os.Exit(1)
	}

	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}

	// Reconciliation core, shared with the admin API
	rateCache := ratecache.NewService(log, rateRepo, rates.NewClient(log, &cfg.ExchangeRate), &cfg.ExchangeRate)
	allocator := numbering.NewAllocator(log, orderRepo, locking.NewRedisLocker(log, redisClient, &cfg.Redis), cfg.Redis.LockTTL)
	reconciler := engine.New(orderRepo, journal.New(outboxRepo, log), allocator, rateCache, postgresDB, log)

	processingService := components.CreateProcessingService(
		components.Dependencies{
			Runs:       syncRunRepo,
			Stores:     storeRepo,
			Shopify:    shopify.NewClient(log, &cfg.Shopify),
			Bank:       mercury.NewClient(log, &cfg.Mercury),
			Reconciler: reconciler,
			Payouts:    payouts.NewImporter(payoutRepo, cfg.ExchangeRate.BaseCurrency, log),
			Catalog:    catalog.NewSyncer(productRepo, log),
		},
		log,
		cfg,
	)

	var deadLetters producers.DeadLetterPublisher
	if dlqProducer != nil {
		deadLetters = dlqProducer
	}
	syncEventHandler := consumer.NewSyncEventHandler(log, processingService, deadLetters)

	poller := outbox_poller.NewPoller(
		&cfg.Outbox,
		outboxRepo,
		outbox_poller.NewHistoryPublisher(outboxRepo, historyRepo, log),
		log,
	)

	errChan := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.SyncTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, cfg.Kafka.SyncTopic, cfg.Kafka.ConsumerGroup, syncEventHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	cancelAppCtx()

	if wpService, ok := processingService.(*service.WorkerPoolProcessingService); ok {
		log.Info("Shutting down worker pool", "running_workers", wpService.Running(), "in_flight", wpService.InFlight())
		wpService.Shutdown()
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	if dlqProducer != nil {
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}

	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	if err = redisClient.Close(); err != nil {
		log.Error("Error closing Redis client", "error", err)
	}

	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serviceErr != nil {
		log.Error("Sync worker shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Sync worker shutdown completed with errors")
	} else {
		log.Info("Sync worker shutdown completed successfully")
	}
}
