package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"commerce-hub/domain"
)

// sessionCookiePattern extracts the session token from an upstream
// set-cookie header.
var sessionCookiePattern = regexp.MustCompile(domain.SessionCookieName + `=([^;]+)`)

// UpstreamResponse carries the raw result of a proxied Bagisto call.
type UpstreamResponse struct {
	StatusCode int
	Body       []byte
	// SessionToken holds the bagisto_session value issued by the upstream
	// via set-cookie, empty when none was issued on this response.
	SessionToken string
}

// OK reports whether the upstream answered with a 2xx status.
func (r *UpstreamResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// BagistoClient handles communication with the upstream Bagisto commerce API.
type BagistoClient struct {
	baseURL        string
	httpClient     *http.Client
	productTimeout time.Duration
	productRetries int
}

// NewBagistoClient creates a new Bagisto API client. productTimeout and
// productRetries bound the product-detail fetch, which is the only retried
// upstream call.
func NewBagistoClient(baseURL string, timeout, productTimeout time.Duration, productRetries int) *BagistoClient {
	return &BagistoClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		productTimeout: productTimeout,
		productRetries: productRetries,
	}
}

// GetCart retrieves the current cart for the resolved credential.
func (c *BagistoClient) GetCart(ctx context.Context, cred domain.Credential) (*UpstreamResponse, error) {
	return c.do(ctx, http.MethodGet, "/api/checkout/cart", cred, nil)
}

// AddItem adds a product to the cart. The payload is forwarded verbatim as
// the upstream add-to-cart body (quantity, selected options).
func (c *BagistoClient) AddItem(ctx context.Context, cred domain.Credential, productID string, payload []byte) (*UpstreamResponse, error) {
	return c.do(ctx, http.MethodPost, "/api/checkout/cart/add/"+productID, cred, payload)
}

// UpdateQuantity changes the quantity of a single cart item.
func (c *BagistoClient) UpdateQuantity(ctx context.Context, cred domain.Credential, itemID string, quantity int) (*UpstreamResponse, error) {
	body := fmt.Appendf(nil, `{"qty":{%q:%d}}`, itemID, quantity)
	return c.do(ctx, http.MethodPatch, "/api/checkout/cart/update", cred, body)
}

// RemoveItem deletes a cart item. Bagisto removes items via GET.
func (c *BagistoClient) RemoveItem(ctx context.Context, cred domain.Credential, itemID string) (*UpstreamResponse, error) {
	return c.do(ctx, http.MethodGet, "/api/checkout/cart/remove-item/"+itemID, cred, nil)
}

// SaveAddress submits the billing and shipping address payload.
func (c *BagistoClient) SaveAddress(ctx context.Context, cred domain.Credential, payload []byte) (*UpstreamResponse, error) {
	return c.do(ctx, http.MethodPost, "/api/checkout/save-address", cred, payload)
}

// SavePayment submits the selected payment method.
func (c *BagistoClient) SavePayment(ctx context.Context, cred domain.Credential, payload []byte) (*UpstreamResponse, error) {
	return c.do(ctx, http.MethodPost, "/api/checkout/save-payment", cred, payload)
}

// SaveOrder places the order from the stored cart. The upstream derives
// everything from the session, so no body is sent.
func (c *BagistoClient) SaveOrder(ctx context.Context, cred domain.Credential) (*UpstreamResponse, error) {
	return c.do(ctx, http.MethodPost, "/api/checkout/save-order", cred, nil)
}

// Login authenticates a customer. token=true asks the upstream to include a
// bearer token in the response body alongside the session cookie.
func (c *BagistoClient) Login(ctx context.Context, payload []byte) (*UpstreamResponse, error) {
	return c.do(ctx, http.MethodPost, "/api/customer/login?token=true", domain.Credential{}, payload)
}

func (c *BagistoClient) do(ctx context.Context, method, path string, cred domain.Credential, body []byte) (*UpstreamResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	cred.Apply(req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call bagisto: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}

	return &UpstreamResponse{
		StatusCode:   resp.StatusCode,
		Body:         data,
		SessionToken: extractSessionToken(resp.Header),
	}, nil
}

// extractSessionToken pattern-matches the session cookie value out of the
// upstream set-cookie headers.
func extractSessionToken(h http.Header) string {
	for _, raw := range h.Values("Set-Cookie") {
		if m := sessionCookiePattern.FindStringSubmatch(raw); m != nil {
			return m[1]
		}
	}
	return ""
}
