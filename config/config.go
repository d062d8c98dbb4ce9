package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"commerce-hub/domain"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port              string        // Service port
	BagistoBaseURL    string        // Upstream commerce API base URL
	GeoIPURL          string        // IP-geolocation lookup endpoint
	StorefrontBaseURL string        // Public storefront origin (payment redirects/callbacks)
	DefaultRegion     string        // Country code used when no resolution source matches
	RegionCookieTTL   time.Duration // Max-age for the region and cache-identity cookies
	UpstreamTimeout   time.Duration // Default timeout for upstream commerce calls
	GeoIPTimeout      time.Duration // Timeout for geo-IP lookups
	ProductTimeout    time.Duration // Per-attempt timeout for product detail fetches
	ProductRetries    int           // Retries after the first product fetch attempt
	CartRetries       int           // Total cart refresh attempts before giving up
	CacheTTL          time.Duration // Catalog response cache TTL
	CacheMaxEntries   int           // Catalog response cache capacity
	RateLimitPerSec   float64       // Per-IP request rate on proxy routes
	RateLimitBurst    int           // Per-IP burst on proxy routes
	IntaSendBaseURL   string        // Payment gateway base URL
	IntaSendPublicKey string        // Payment gateway publishable key
	IntaSendToken     string        // Payment gateway API bearer token
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		Port:              getEnv("PORT", "8888"),
		BagistoBaseURL:    getEnv("BAGISTO_BASE_URL", "https://kenyaeastklad.dukasasa.co.ke"),
		GeoIPURL:          getEnv("GEOIP_URL", "https://ipapi.co/json"),
		StorefrontBaseURL: getEnv("STOREFRONT_BASE_URL", "https://medusapro.dukasasa.co.ke"),
		DefaultRegion:     getEnv("DEFAULT_REGION", domain.DefaultCountryCode),
		RegionCookieTTL:   24 * time.Hour,
		UpstreamTimeout:   30 * time.Second,
		GeoIPTimeout:      3 * time.Second,
		ProductTimeout:    20 * time.Second,
		ProductRetries:    2,
		CartRetries:       3,
		CacheTTL:          5 * time.Minute,
		CacheMaxEntries:   1000,
		RateLimitPerSec:   10,
		RateLimitBurst:    20,
		IntaSendBaseURL:   getEnv("INTASEND_BASE_URL", "https://payment.intasend.com"),
		IntaSendPublicKey: getEnv("INTASEND_PUBLISHABLE_KEY", ""),
		IntaSendToken:     getEnv("INTASEND_BEARER_TOKEN", ""),
	}

	durations := []struct {
		env string
		dst *time.Duration
	}{
		{"REGION_COOKIE_TTL", &config.RegionCookieTTL},
		{"UPSTREAM_TIMEOUT", &config.UpstreamTimeout},
		{"GEOIP_TIMEOUT", &config.GeoIPTimeout},
		{"PRODUCT_FETCH_TIMEOUT", &config.ProductTimeout},
		{"CACHE_TTL", &config.CacheTTL},
	}
	for _, d := range durations {
		if raw := os.Getenv(d.env); raw != "" {
			duration, err := time.ParseDuration(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %s format: %w", d.env, err)
			}
			*d.dst = duration
		}
	}

	counts := []struct {
		env string
		dst *int
	}{
		{"PRODUCT_FETCH_RETRIES", &config.ProductRetries},
		{"CART_REFRESH_RETRIES", &config.CartRetries},
		{"CACHE_MAX_ENTRIES", &config.CacheMaxEntries},
		{"RATE_LIMIT_BURST", &config.RateLimitBurst},
	}
	for _, n := range counts {
		if raw := os.Getenv(n.env); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %s format: %w", n.env, err)
			}
			*n.dst = v
		}
	}

	if raw := os.Getenv("RATE_LIMIT_PER_SEC"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT_PER_SEC format: %w", err)
		}
		config.RateLimitPerSec = v
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	if c.BagistoBaseURL == "" {
		return fmt.Errorf("BAGISTO_BASE_URL cannot be empty")
	}

	if !domain.IsSupportedCountry(c.DefaultRegion) {
		return fmt.Errorf("DEFAULT_REGION %q is not a supported country code", c.DefaultRegion)
	}

	if c.RegionCookieTTL <= 0 {
		return fmt.Errorf("REGION_COOKIE_TTL must be positive")
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}

	if c.ProductRetries < 0 || c.CartRetries < 0 {
		return fmt.Errorf("retry counts cannot be negative")
	}

	if c.RateLimitPerSec <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit settings must be positive")
	}

	return nil
}

// getEnv retrieves an environment variable or returns a fallback value
func getEnv(key, fallback string) string {
	// Check for _FILE suffix
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
