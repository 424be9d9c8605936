// Package mercury reads accounts and transactions from the Mercury banking API.
package mercury

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
)

const (
	pageLimit  = 500
	dateLayout = "2006-01-02"
)

// APIError is a non-2xx response from the bank.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mercury api error %d: %s", e.StatusCode, e.Body)
}

// IsNotFound reports a 404 from the bank
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(logger *slog.Logger, cfg *config.MercuryConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.APIToken,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		logger:  logger.With("component", "mercury_client"),
	}
}

func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	var resp accountsResponse
	if err := c.get(ctx, "/accounts", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

// ListTransactions pages through the account's transactions in the optional
// [start, end] date window.
func (c *Client) ListTransactions(ctx context.Context, accountID string, start, end *time.Time) ([]Transaction, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(pageLimit))
	if start != nil {
		params.Set("start", start.UTC().Format(dateLayout))
	}
	if end != nil {
		params.Set("end", end.UTC().Format(dateLayout))
	}

	path := "/account/" + url.PathEscape(accountID) + "/transactions"
	var all []Transaction
	for offset := 0; ; {
		params.Set("offset", strconv.Itoa(offset))

		var page transactionsResponse
		if err := c.get(ctx, path, params, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Transactions...)
		offset += len(page.Transactions)

		if len(page.Transactions) == 0 || offset >= page.Total {
			break
		}
	}

	c.logger.Info("Fetched Mercury transactions", "account_id", accountID, "count", len(all))
	return all, nil
}

func (c *Client) GetTransaction(ctx context.Context, accountID, transactionID string) (*Transaction, error) {
	path := "/account/" + url.PathEscape(accountID) + "/transaction/" + url.PathEscape(transactionID)
	var tx Transaction
	if err := c.get(ctx, path, nil, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build mercury request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("Mercury request failed", "path", path, "error", err)
		return fmt.Errorf("failed to call mercury: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read mercury response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode mercury response: %w", err)
	}
	return nil
}
