// Package shopify reads orders and products from a store's Admin REST API.
package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/venue-commerce-admin/internal/config"
	"github.com/venue-commerce-admin/internal/domain/store"
)

const accessTokenHeader = "X-Shopify-Access-Token"

// maxPages stops a misbehaving Link header from looping forever
const maxPages = 1000

// APIError is a non-2xx response from the store.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify api error %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	http       *http.Client
	apiVersion string
	pageSize   int
	logger     *slog.Logger
}

func NewClient(logger *slog.Logger, cfg *config.ShopifyConfig) *Client {
	return &Client{
		http:       &http.Client{Timeout: cfg.RequestTimeout},
		apiVersion: cfg.APIVersion,
		pageSize:   cfg.PageSize,
		logger:     logger.With("component", "shopify_client"),
	}
}

// ListOrders fetches every order of the store, following cursor pagination.
// A non-nil since limits the result to orders updated at or after it.
func (c *Client) ListOrders(ctx context.Context, s *store.Store, since *time.Time) ([]Order, error) {
	params := url.Values{}
	params.Set("status", "any")
	params.Set("limit", strconv.Itoa(c.pageSize))
	if since != nil {
		params.Set("updated_at_min", since.UTC().Format(time.RFC3339))
	}

	var orders []Order
	err := c.paginate(ctx, s, c.endpoint(s, "orders.json", params), func(body []byte) error {
		var page ordersPage
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("failed to decode orders page: %w", err)
		}
		orders = append(orders, page.Orders...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("Fetched Shopify orders", "store_id", s.ID, "count", len(orders))
	return orders, nil
}

// ListProducts fetches the whole catalog of the store.
func (c *Client) ListProducts(ctx context.Context, s *store.Store) ([]Product, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.pageSize))

	var products []Product
	err := c.paginate(ctx, s, c.endpoint(s, "products.json", params), func(body []byte) error {
		var page productsPage
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("failed to decode products page: %w", err)
		}
		products = append(products, page.Products...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("Fetched Shopify products", "store_id", s.ID, "count", len(products))
	return products, nil
}

func (c *Client) endpoint(s *store.Store, resource string, params url.Values) string {
	return fmt.Sprintf("%s/admin/api/%s/%s?%s", s.BaseURL(), c.apiVersion, resource, params.Encode())
}

func (c *Client) paginate(ctx context.Context, s *store.Store, next string, handle func([]byte) error) error {
	for page := 0; next != ""; page++ {
		if page >= maxPages {
			return fmt.Errorf("shopify pagination exceeded %d pages", maxPages)
		}

		body, link, err := c.get(ctx, s, next)
		if err != nil {
			return err
		}
		if err := handle(body); err != nil {
			return err
		}
		next = nextPageURL(link)
	}
	return nil
}

func (c *Client) get(ctx context.Context, s *store.Store, endpoint string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build shopify request: %w", err)
	}
	req.Header.Set(accessTokenHeader, s.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("Shopify request failed", "store_id", s.ID, "error", err)
		return nil, "", fmt.Errorf("failed to call shopify: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read shopify response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, resp.Header.Get("Link"), nil
}

// nextPageURL extracts the rel="next" target from a Link header.
func nextPageURL(link string) string {
	for _, part := range strings.Split(link, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		target := strings.TrimSpace(segments[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		for _, attr := range segments[1:] {
			if strings.ReplaceAll(strings.TrimSpace(attr), " ", "") == `rel="next"` {
				return target[1 : len(target)-1]
			}
		}
	}
	return ""
}
