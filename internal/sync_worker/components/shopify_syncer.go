package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/venue-commerce-admin/internal/domain/shared"
	"github.com/venue-commerce-admin/internal/domain/store"
	"github.com/venue-commerce-admin/internal/reconciliation/engine"
	"github.com/venue-commerce-admin/internal/reconciliation/sources"
)

// ShopifyOrderSyncer pulls a store's orders and reconciles them by Shopify id
type ShopifyOrderSyncer struct {
	stores        store.Repository
	client        ShopifyClient
	reconciler    OrderReconciler
	baseCurrency  string
	localCurrency string
	logger        *slog.Logger
}

func NewShopifyOrderSyncer(stores store.Repository, client ShopifyClient, reconciler OrderReconciler, baseCurrency, localCurrency string, logger *slog.Logger) *ShopifyOrderSyncer {
	return &ShopifyOrderSyncer{
		stores:        stores,
		client:        client,
		reconciler:    reconciler,
		baseCurrency:  baseCurrency,
		localCurrency: localCurrency,
		logger:        logger.With("component", "shopify_order_sync"),
	}
}

// Sync reconciles every order the store reports. The batch uses the cached rate.
func (s *ShopifyOrderSyncer) Sync(ctx context.Context, request *shared.SyncRequest) (*shared.BatchResult, error) {
	st, err := loadStore(ctx, s.stores, request)
	if err != nil {
		return nil, err
	}

	orders, err := s.client.ListOrders(ctx, st, request.Since)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shopify orders: %w", err)
	}
	s.logger.Info("Fetched shopify orders", "store_id", st.ID, "count", len(orders), "run_id", request.RequestID.String())

	inputs := make([]sources.Input, 0, len(orders))
	for _, o := range orders {
		inputs = append(inputs, sources.ShopifyOrder{Order: o, BaseCurrency: s.baseCurrency, LocalCurrency: s.localCurrency})
	}

	return s.reconciler.Reconcile(ctx, engine.Batch{
		VenueID:       request.VenueID,
		Inputs:        inputs,
		CorrelationID: request.CorrelationID,
	})
}

// ShopifyProductSyncer mirrors a store's catalog into products
type ShopifyProductSyncer struct {
	stores  store.Repository
	client  ShopifyClient
	catalog CatalogSyncer
	logger  *slog.Logger
}

func NewShopifyProductSyncer(stores store.Repository, client ShopifyClient, catalog CatalogSyncer, logger *slog.Logger) *ShopifyProductSyncer {
	return &ShopifyProductSyncer{
		stores:  stores,
		client:  client,
		catalog: catalog,
		logger:  logger.With("component", "shopify_product_sync"),
	}
}

func (s *ShopifyProductSyncer) Sync(ctx context.Context, request *shared.SyncRequest) (*shared.BatchResult, error) {
	st, err := loadStore(ctx, s.stores, request)
	if err != nil {
		return nil, err
	}

	products, err := s.client.ListProducts(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shopify products: %w", err)
	}
	s.logger.Info("Fetched shopify products", "store_id", st.ID, "count", len(products), "run_id", request.RequestID.String())

	return s.catalog.Sync(ctx, request.VenueID, st.Currency, products, request.CorrelationID)
}

// loadStore resolves the request's store; a store of another venue is not found.
func loadStore(ctx context.Context, stores store.Repository, request *shared.SyncRequest) (*store.Store, error) {
	st, err := stores.GetByID(ctx, request.StoreID)
	if err != nil {
		return nil, err
	}
	if st.VenueID != request.VenueID {
		return nil, store.ErrStoreNotFound{ID: request.StoreID}
	}
	return st, nil
}
