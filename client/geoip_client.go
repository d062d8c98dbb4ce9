package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// GeoIPClient resolves a caller's country code through an external
// IP-geolocation service. Lookup failures are expected and absorbed by the
// caller; this client only reports them.
type GeoIPClient struct {
	lookupURL  string
	httpClient *http.Client
}

// NewGeoIPClient creates a new geolocation client. lookupURL points at the
// caller-IP endpoint (e.g. https://ipapi.co/json).
func NewGeoIPClient(lookupURL string, timeout time.Duration) *GeoIPClient {
	return &GeoIPClient{
		lookupURL: lookupURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CountryCode looks up the lowercase ISO country code for ip. An empty ip
// asks the service to geolocate the connecting address instead.
func (c *GeoIPClient) CountryCode(ctx context.Context, ip string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.urlFor(ip), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build geo-ip request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("geo-ip lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geo-ip service returned status %d", resp.StatusCode)
	}

	var payload struct {
		CountryCode string `json:"country_code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode geo-ip response: %w", err)
	}

	if payload.CountryCode == "" {
		return "", fmt.Errorf("geo-ip response missing country code")
	}

	return strings.ToLower(payload.CountryCode), nil
}

// urlFor rewrites the caller-IP endpoint into a per-IP lookup when an
// explicit address is known (e.g. from X-Forwarded-For).
func (c *GeoIPClient) urlFor(ip string) string {
	if ip == "" {
		return c.lookupURL
	}
	if base, ok := strings.CutSuffix(c.lookupURL, "/json"); ok {
		return base + "/" + ip + "/json"
	}
	return c.lookupURL
}
