package components

import (
	"context"
	"time"

	"github.com/venue-commerce-admin/internal/domain/shared"
	"github.com/venue-commerce-admin/internal/domain/store"
	"github.com/venue-commerce-admin/internal/integrations/mercury"
	"github.com/venue-commerce-admin/internal/integrations/shopify"
	"github.com/venue-commerce-admin/internal/reconciliation/engine"
)

// ShopifyClient is the part of the Shopify Admin API the worker reads
type ShopifyClient interface {
	ListOrders(ctx context.Context, s *store.Store, since *time.Time) ([]shopify.Order, error)
	ListProducts(ctx context.Context, s *store.Store) ([]shopify.Product, error)
}

// BankClient is the part of the banking API the worker reads
type BankClient interface {
	ListAccounts(ctx context.Context) ([]mercury.Account, error)
	ListTransactions(ctx context.Context, accountID string, start, end *time.Time) ([]mercury.Transaction, error)
}

// OrderReconciler merges a batch of upstream orders
type OrderReconciler interface {
	Reconcile(ctx context.Context, batch engine.Batch) (*shared.BatchResult, error)
}

// PayoutImporter records bank transactions as payouts
type PayoutImporter interface {
	Import(ctx context.Context, venueID string, txs []mercury.Transaction, correlationID string) (*shared.BatchResult, error)
}

// CatalogSyncer upserts products by SKU
type CatalogSyncer interface {
	Sync(ctx context.Context, venueID, currency string, products []shopify.Product, correlationID string) (*shared.BatchResult, error)
}
