// internal/gateway/client.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Config struct {
	Name      string
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// Client talks to the payment gateway's REST API. The JSON shapes are
// the gateway's versioned external contract.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (c *Client) Name() string {
	return c.cfg.Name
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type ChargeRequest struct {
	Reference string  `json:"reference"`
	Amount    float64 `json:"-"`
	Currency  string  `json:"currency"`
	Email     string  `json:"email"`
}

type Charge struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
}

type ChargeStatus struct {
	Reference    string  `json:"reference"`
	GatewayTxnID string  `json:"id"`
	Status       string  `json:"status"`
	Amount       int64   `json:"amount"`
	Currency     string  `json:"currency"`
	Message      string  `json:"gateway_response"`
}

// AmountMajor converts the gateway's minor-unit amount back to major units.
func (s *ChargeStatus) AmountMajor() float64 {
	return float64(s.Amount) / 100
}

// InitializeCharge opens a charge with our reference. The gateway
// expects amounts in minor units.
func (c *Client) InitializeCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	body := map[string]interface{}{
		"reference": req.Reference,
		"amount":    int64(req.Amount * 100),
		"currency":  req.Currency,
		"email":     req.Email,
	}

	var charge Charge
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", body, &charge); err != nil {
		return nil, err
	}
	if charge.Reference == "" {
		charge.Reference = req.Reference
	}
	return &charge, nil
}

// VerifyTransaction polls the charge status by our reference. Used by
// the reconciliation job for attempts whose webhook never arrived.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*ChargeStatus, error) {
	var status ChargeStatus
	if err := c.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) CreateCustomer(ctx context.Context, email, firstName, lastName string) (string, error) {
	body := map[string]interface{}{
		"email":      email,
		"first_name": firstName,
		"last_name":  lastName,
	}
	var data struct {
		CustomerCode string `json:"customer_code"`
	}
	if err := c.do(ctx, http.MethodPost, "/customer", body, &data); err != nil {
		return "", err
	}
	return data.CustomerCode, nil
}

type Subscription struct {
	SubscriptionCode string `json:"subscription_code"`
	EmailToken       string `json:"email_token"`
}

func (c *Client) CreateSubscription(ctx context.Context, customerCode, planCode string) (*Subscription, error) {
	body := map[string]interface{}{
		"customer": customerCode,
		"plan":     planCode,
	}
	var sub Subscription
	if err := c.do(ctx, http.MethodPost, "/subscription", body, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *Client) DisableSubscription(ctx context.Context, subscriptionCode, emailToken string) error {
	body := map[string]interface{}{
		"code":  subscriptionCode,
		"token": emailToken,
	}
	return c.do(ctx, http.MethodPost, "/subscription/disable", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal gateway request: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway call failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}

	if resp.StatusCode >= 400 || !env.Status {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode gateway payload: %w", err)
		}
	}
	return nil
}

// APIError is a rejection the gateway itself returned, as opposed to a
// transport failure.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway rejected request (%d): %s", e.StatusCode, e.Message)
}

// IsTimeout reports whether the error is a deadline rather than a
// gateway rejection. A timed-out initialize is not a failure: the
// gateway may still complete the charge asynchronously.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
