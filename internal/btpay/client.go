// Package btpay is the secondary payment provider adapter. It carries
// the same initiator contract as the Stripe sessions: eager validation
// before any network call, a bounded timeout, and the provider's session
// object returned unmodified.
package btpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"firewand/internal/payments"
)

// Config holds the BTPay connection settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client calls the BTPay checkout API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.btpay.md/v1"
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// CheckoutParams describes a BTPay checkout request.
type CheckoutParams struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description,omitempty"`
	ReturnURL   string `json:"returnUrl"`
	OrderID     string `json:"orderId,omitempty"`
}

// CheckoutSession is the provider's response, redirect URL included.
type CheckoutSession struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	URL      string `json:"url"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// CreateCheckout validates the request and opens a BTPay checkout
// session.
func (c *Client) CreateCheckout(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: btpay api key is not configured", payments.ErrUnauthenticated)
	}
	if p.ReturnURL == "" {
		return nil, fmt.Errorf("%w: returnUrl is required", payments.ErrInvalidArgument)
	}
	if p.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", payments.ErrInvalidArgument)
	}
	if p.Currency == "" {
		return nil, fmt.Errorf("%w: currency is required", payments.ErrInvalidArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("%w: encode checkout request: %v", payments.ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build checkout request: %v", payments.ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: btpay checkout timed out", payments.ErrDeadlineExceeded)
		}
		return nil, fmt.Errorf("%w: btpay checkout: %v", payments.ErrInternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: btpay checkout endpoint", payments.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: btpay returned status %d", payments.ErrInternal, resp.StatusCode)
	}

	var sess CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return nil, fmt.Errorf("%w: decode checkout response: %v", payments.ErrInternal, err)
	}
	return &sess, nil
}
