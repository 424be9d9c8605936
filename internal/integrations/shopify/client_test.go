package shopify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venue-commerce-admin/internal/config"
	"github.com/venue-commerce-admin/internal/domain/store"
)

func newTestClient() *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(logger, &config.ShopifyConfig{APIVersion: "2024-01", PageSize: 2, RequestTimeout: time.Second})
}

func TestListOrders_FollowsLinkHeader(t *testing.T) {
	var srv *httptest.Server
	calls := 0
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "shpat_test", r.Header.Get(accessTokenHeader))
		assert.Equal(t, "/admin/api/2024-01/orders.json", r.URL.Path)

		if r.URL.Query().Get("page_info") == "" {
			assert.Equal(t, "any", r.URL.Query().Get("status"))
			assert.Equal(t, "2", r.URL.Query().Get("limit"))
			assert.Equal(t, "2024-03-01T00:00:00Z", r.URL.Query().Get("updated_at_min"))
			w.Header().Set("Link", fmt.Sprintf(`<%s/admin/api/2024-01/orders.json?limit=2&page_info=p2>; rel="next"`, srv.URL))
			_, _ = w.Write([]byte(`{"orders":[{"id":1,"name":"#1001","total_price":"10.00"},{"id":2,"name":"#1002","total_price":"20.00"}]}`))
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/admin/api/2024-01/orders.json?limit=2&page_info=p1>; rel="previous"`, srv.URL))
		_, _ = w.Write([]byte(`{"orders":[{"id":3,"name":"#1003","total_price":"30.00","line_items":[{"title":"Tee","sku":"T-1","quantity":2,"price":"15.00"}]}]}`))
	}))
	defer srv.Close()

	s := &store.Store{ID: "s1", Domain: srv.URL, AccessToken: "shpat_test"}
	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	orders, err := newTestClient().ListOrders(context.Background(), s, &since)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(3), orders[2].ID)
	require.Len(t, orders[2].LineItems, 1)
	assert.Equal(t, "T-1", orders[2].LineItems[0].SKU)
}

func TestListOrders_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":"[API] Invalid API key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := &store.Store{ID: "s1", Domain: srv.URL, AccessToken: "bad"}
	_, err := newTestClient().ListOrders(context.Background(), s, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Invalid API key")
}

func TestListOrders_BadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"orders":`))
	}))
	defer srv.Close()

	s := &store.Store{ID: "s1", Domain: srv.URL}
	_, err := newTestClient().ListOrders(context.Background(), s, nil)
	assert.ErrorContains(t, err, "failed to decode orders page")
}

func TestListProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/2024-01/products.json", r.URL.Path)
		_, _ = w.Write([]byte(`{"products":[{"id":9,"title":"Tee","variants":[{"id":91,"sku":"T-S","price":"12.50"},{"id":92,"sku":"T-M","price":"13.50"}]}]}`))
	}))
	defer srv.Close()

	s := &store.Store{ID: "s1", Domain: srv.URL}
	products, err := newTestClient().ListProducts(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Len(t, products[0].Variants, 2)
	assert.Equal(t, "13.50", products[0].Variants[1].Price)
}

func TestNextPageURL(t *testing.T) {
	tests := []struct {
		name string
		link string
		want string
	}{
		{"Empty", "", ""},
		{"NextOnly", `<https://a.myshopify.com/x?page_info=n>; rel="next"`, "https://a.myshopify.com/x?page_info=n"},
		{"PreviousAndNext", `<https://a/x?page_info=p>; rel="previous", <https://a/x?page_info=n>; rel="next"`, "https://a/x?page_info=n"},
		{"PreviousOnly", `<https://a/x?page_info=p>; rel="previous"`, ""},
		{"Malformed", `https://a/x; rel="next"`, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, nextPageURL(tc.link))
		})
	}
}
