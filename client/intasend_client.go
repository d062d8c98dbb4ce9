package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// IntaSendClient talks to the IntaSend payment gateway REST API. It covers
// the two collection flows the storefront uses: an M-Pesa STK push to the
// shopper's phone and a hosted checkout link.
type IntaSendClient struct {
	baseURL    string
	publicKey  string
	token      string
	httpClient *http.Client
}

// NewIntaSendClient creates a new payment gateway client.
func NewIntaSendClient(baseURL, publicKey, token string, timeout time.Duration) *IntaSendClient {
	return &IntaSendClient{
		baseURL:   baseURL,
		publicKey: publicKey,
		token:     token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// STKPushRequest describes a mobile-money collection push.
type STKPushRequest struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       string  `json:"email"`
	PhoneNumber string  `json:"phone_number"`
	Amount      float64 `json:"amount"`
	Host        string  `json:"host"`
	APIRef      string  `json:"api_ref"`
}

// STKPushResult is the gateway's acknowledgement of a push.
type STKPushResult struct {
	Invoice json.RawMessage `json:"invoice"`
}

// CheckoutRequest describes a hosted checkout session.
type CheckoutRequest struct {
	PublicKey   string  `json:"public_key"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       string  `json:"email"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Host        string  `json:"host"`
	APIRef      string  `json:"api_ref"`
	RedirectURL string  `json:"redirect_url"`
	CallbackURL string  `json:"callback_url"`
}

// CheckoutResult carries the hosted checkout link for the shopper.
type CheckoutResult struct {
	URL     string          `json:"url"`
	Invoice json.RawMessage `json:"invoice"`
}

// MpesaSTKPush triggers a mobile-money payment prompt on the shopper's phone.
func (c *IntaSendClient) MpesaSTKPush(ctx context.Context, req STKPushRequest) (*STKPushResult, error) {
	var result STKPushResult
	if err := c.post(ctx, "/api/v1/payment/mpesa-stk-push/", req, &result); err != nil {
		return nil, fmt.Errorf("stk push failed: %w", err)
	}
	return &result, nil
}

// CreateCheckout generates a hosted checkout link.
func (c *IntaSendClient) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if req.PublicKey == "" {
		req.PublicKey = c.publicKey
	}

	var result CheckoutResult
	if err := c.post(ctx, "/api/v1/checkout/", req, &result); err != nil {
		return nil, fmt.Errorf("hosted checkout failed: %w", err)
	}
	return &result, nil
}

func (c *IntaSendClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call intasend: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("intasend returned status %d: %s", resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
