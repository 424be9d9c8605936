// Package rates fetches live currency conversion rates from an open.er-api
// compatible provider.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/venue-commerce-admin/internal/config"
	"github.com/venue-commerce-admin/internal/domain/exchange"
)

// APIError is returned for a non-2xx provider response or a failed payload.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("rate provider error %d: %s", e.StatusCode, e.Message)
}

type latestResponse struct {
	Result    string             `json:"result"`
	ErrorType string             `json:"error-type"`
	BaseCode  string             `json:"base_code"`
	Rates     map[string]float64 `json:"rates"`
}

// Client queries the provider's latest endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(logger *slog.Logger, cfg *config.ExchangeRateConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.ProviderURL, "/"),
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		logger:  logger.With("component", "rate_provider"),
	}
}

// FetchRate returns how many units of to one unit of from buys.
func (c *Client) FetchRate(ctx context.Context, from, to string) (float64, error) {
	from = exchange.NormalizeCode(from)
	to = exchange.NormalizeCode(to)

	endpoint := c.baseURL + "/latest/" + url.PathEscape(from)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Rate provider unreachable", "from", from, "error", err)
		return 0, fmt.Errorf("failed to call rate provider: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var parsed latestResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("failed to decode rate response: %w", err)
	}
	if parsed.Result != "success" {
		return 0, &APIError{StatusCode: resp.StatusCode, Message: "result " + parsed.Result + " " + parsed.ErrorType}
	}

	rate, ok := parsed.Rates[to]
	if !ok || rate <= 0 {
		return 0, &APIError{StatusCode: resp.StatusCode, Message: "no usable rate for " + from + "/" + to}
	}

	c.logger.Debug("Fetched live rate", "from", from, "to", to, "rate", rate)
	return rate, nil
}
