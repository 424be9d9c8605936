// Package catalog mirrors a Shopify store's variants into the venue's
// product table, keyed by SKU.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/venue-commerce-admin/internal/domain/product"
	"github.com/venue-commerce-admin/internal/domain/shared"
	"github.com/venue-commerce-admin/internal/integrations/shopify"
)

const (
	defaultVariantTitle = "Default Title"

	reasonNoSKU            = "variant has no sku"
	reasonDuplicateInBatch = "duplicate sku in batch"
	reasonSKUTaken         = "sku created concurrently"
)

// LookupError aborts a sync whose existing products could not be resolved
type LookupError struct {
	Err error
}

func (e *LookupError) Error() string {
	return "failed to look up existing products: " + e.Err.Error()
}

func (e *LookupError) Unwrap() error { return e.Err }

type entry struct {
	sku     string
	title   string
	price   string
	variant int64
}

type Syncer struct {
	repo   product.Repository
	now    func() time.Time
	logger *slog.Logger
}

func NewSyncer(repo product.Repository, logger *slog.Logger) *Syncer {
	return &Syncer{
		repo:   repo,
		now:    time.Now,
		logger: logger.With("component", "catalog_sync"),
	}
}

// Sync upserts one product per variant SKU. Outcomes are indexed by variant
// in catalog order.
func (s *Syncer) Sync(ctx context.Context, venueID, currency string, products []shopify.Product, correlationID string) (*shared.BatchResult, error) {
	logger := s.logger.With("venue_id", venueID)
	if correlationID != "" {
		logger = logger.With("correlation_id", correlationID)
	}

	entries := flatten(products)
	outcomes := make([]shared.ItemOutcome, len(entries))
	seen := make(map[string]struct{}, len(entries))
	skus := make([]string, 0, len(entries))
	for i, e := range entries {
		outcomes[i] = shared.ItemOutcome{Index: i, ExternalID: strconv.FormatInt(e.variant, 10), Reference: e.sku}
		if e.sku == "" {
			skip(&outcomes[i], reasonNoSKU)
			continue
		}
		if _, dup := seen[e.sku]; dup {
			skip(&outcomes[i], reasonDuplicateInBatch)
			continue
		}
		seen[e.sku] = struct{}{}
		skus = append(skus, e.sku)
	}

	existing := map[string]*product.Product{}
	if len(skus) > 0 {
		var err error
		existing, err = s.repo.FindBySKUs(ctx, venueID, skus)
		if err != nil {
			return nil, &LookupError{Err: err}
		}
	}

	for i, e := range entries {
		out := &outcomes[i]
		if out.Outcome != "" {
			continue
		}

		price, err := strconv.ParseFloat(strings.TrimSpace(e.price), 64)
		if err != nil {
			fail(out, fmt.Errorf("invalid price %q", e.price))
			continue
		}

		now := s.now().UTC()
		externalID := out.ExternalID
		if current, ok := existing[e.sku]; ok {
			current.Title = e.title
			current.Price = price
			current.Currency = currency
			current.ExternalID = &externalID
			current.UpdatedAt = now
			if err := s.repo.Update(ctx, current); err != nil {
				logger.Error("Failed to update product", "sku", e.sku, "error", err)
				fail(out, err)
				continue
			}
			out.Outcome = shared.OutcomeUpdated
			out.RecordID = current.ID
			continue
		}

		p := &product.Product{
			VenueID:    venueID,
			ExternalID: &externalID,
			Title:      e.title,
			SKU:        e.sku,
			Price:      price,
			Currency:   currency,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.repo.Create(ctx, p); err != nil {
			if errors.As(err, new(product.ErrDuplicateSKU)) {
				skip(out, reasonSKUTaken)
				continue
			}
			logger.Error("Failed to create product", "sku", e.sku, "error", err)
			fail(out, err)
			continue
		}
		out.Outcome = shared.OutcomeCreated
		out.RecordID = p.ID
	}

	result := shared.NewBatchResult(outcomes)
	logger.Info("Catalog synced", "total", result.Total, "imported", result.Imported, "updated", result.Updated, "skipped", result.Skipped)
	return result, nil
}

func flatten(products []shopify.Product) []entry {
	var entries []entry
	for _, p := range products {
		for _, v := range p.Variants {
			title := strings.TrimSpace(p.Title)
			if vt := strings.TrimSpace(v.Title); vt != "" && vt != defaultVariantTitle {
				title += " - " + vt
			}
			entries = append(entries, entry{
				sku:     strings.TrimSpace(v.SKU),
				title:   title,
				price:   v.Price,
				variant: v.ID,
			})
		}
	}
	return entries
}

func skip(out *shared.ItemOutcome, reason string) {
	out.Outcome = shared.OutcomeSkipped
	out.Reason = reason
}

func fail(out *shared.ItemOutcome, err error) {
	out.Outcome = shared.OutcomeFailed
	out.Reason = err.Error()
}
