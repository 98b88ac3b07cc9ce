package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"updown/internal/config"
	"updown/internal/models"
)

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("price API error (%d): %s", e.Status, e.Body)
}

// Client fetches live quotes over REST. One endpoint template per asset
// class; templates take the bare symbol and must return a JSON body with a
// "price" field (Binance ticker shape).
type Client struct {
	httpClient *http.Client
	endpoints  map[string]string
}

func NewClient(httpClient *http.Client, cfg config.OracleConfig) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		httpClient: httpClient,
		endpoints: map[string]string{
			models.AssetClassCrypto: strings.TrimSpace(cfg.CryptoEndpoint),
			models.AssetClassStock:  strings.TrimSpace(cfg.StockEndpoint),
			models.AssetClassForex:  strings.TrimSpace(cfg.ForexEndpoint),
		},
	}
}

func (c *Client) Fetch(ctx context.Context, asset models.Asset) (decimal.Decimal, error) {
	tmpl := c.endpoints[asset.Class]
	if tmpl == "" {
		return decimal.Zero, fmt.Errorf("no price endpoint for asset class %q", asset.Class)
	}
	url := fmt.Sprintf(tmpl, asset.Symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return parsePrice(body)
}

func parsePrice(body []byte) (decimal.Decimal, error) {
	var parsed struct {
		Price string `json:"price"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return decimal.Zero, err
	}
	price, err := decimal.NewFromString(strings.TrimSpace(parsed.Price))
	if err != nil || price.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("invalid price %q", parsed.Price)
	}
	return price, nil
}
