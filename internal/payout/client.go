// internal/payout/client.go
package payout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client wraps the telco payout API used for airtime, data bundle and
// voucher disbursements.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type disburseResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	Message       string `json:"message"`
}

// SendAirtime tops up the recipient's airtime. The internal reference
// doubles as the provider-side idempotency key.
func (c *Client) SendAirtime(ctx context.Context, msisdn string, amount float64, currency, reference string) (string, error) {
	return c.post(ctx, "/airtime/send", map[string]interface{}{
		"msisdn":          msisdn,
		"amount":          amount,
		"currency":        currency,
		"idempotency_key": reference,
	})
}

// SendDataBundle provisions a data bundle worth the given amount.
func (c *Client) SendDataBundle(ctx context.Context, msisdn string, amount float64, currency, reference string) (string, error) {
	return c.post(ctx, "/bundles/send", map[string]interface{}{
		"msisdn":          msisdn,
		"amount":          amount,
		"currency":        currency,
		"idempotency_key": reference,
	})
}

// IssueVoucher creates a voucher for the recipient and delivers the
// code out of band.
func (c *Client) IssueVoucher(ctx context.Context, recipient string, amount float64, currency, reference string) (string, error) {
	return c.post(ctx, "/vouchers/issue", map[string]interface{}{
		"recipient":       recipient,
		"amount":          amount,
		"currency":        currency,
		"idempotency_key": reference,
	})
}

func (c *Client) post(ctx context.Context, path string, body map[string]interface{}) (string, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payout request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to build payout request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("payout call failed: %w", err)
	}
	defer resp.Body.Close()

	var out disburseResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode payout response: %w", err)
	}

	if resp.StatusCode >= 400 || !out.Success {
		return "", fmt.Errorf("payout rejected (%d): %s", resp.StatusCode, out.Message)
	}
	return out.TransactionID, nil
}
