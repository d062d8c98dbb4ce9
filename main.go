package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"commerce-hub/cache"
	"commerce-hub/client"
	"commerce-hub/config"
	"commerce-hub/handler"
	hubmiddleware "commerce-hub/middleware"
	"commerce-hub/store"
	"commerce-hub/utils/logger"
	"commerce-hub/utils/otel"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/time/rate"
)

func main() {
	// Handle healthcheck subcommand (for Docker healthcheck in distroless image)
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		if err := runHealthcheck(); err != nil {
			fmt.Fprintf(os.Stderr, "Healthcheck failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	ctx := context.Background()

	// Initialize OpenTelemetry
	otelCfg := otel.ConfigFromEnv()
	otelShutdown, err := otel.InitProvider(ctx, otelCfg)
	if err != nil {
		fmt.Printf("Failed to initialize OpenTelemetry: %v\n", err)
		otelCfg.Enabled = false
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			fmt.Printf("Failed to shutdown OpenTelemetry: %v\n", err)
		}
	}()

	// Initialize structured logger with OTel support
	logger.Init(otelCfg.Enabled)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.InfoContext(ctx, "configuration loaded",
		"bagisto_url", cfg.BagistoBaseURL,
		"port", cfg.Port,
		"default_region", cfg.DefaultRegion)

	// Initialize dependencies
	bagistoClient := client.NewBagistoClient(cfg.BagistoBaseURL, cfg.UpstreamTimeout, cfg.ProductTimeout, cfg.ProductRetries)
	slog.InfoContext(ctx, "bagisto client initialized", "base_url", cfg.BagistoBaseURL)

	geoClient := client.NewGeoIPClient(cfg.GeoIPURL, cfg.GeoIPTimeout)
	intasendClient := client.NewIntaSendClient(cfg.IntaSendBaseURL, cfg.IntaSendPublicKey, cfg.IntaSendToken, cfg.UpstreamTimeout)

	responseCache := cache.NewResponseCache(cfg.CacheMaxEntries, cfg.CacheTTL)
	slog.InfoContext(ctx, "response cache initialized", "capacity", cfg.CacheMaxEntries, "ttl", cfg.CacheTTL)

	cartStore := store.NewCartStore(bagistoClient, cfg.CartRetries)

	// Initialize handlers
	cartHandler := handler.NewCartHandler(bagistoClient, cartStore)
	checkoutHandler := handler.NewCheckoutHandler(bagistoClient)
	authHandler := handler.NewAuthHandler(bagistoClient)
	paymentHandler := handler.NewPaymentHandler(intasendClient, cfg.StorefrontBaseURL)
	catalogHandler := handler.NewCatalogHandler(bagistoClient, responseCache)
	regionHandler := handler.NewRegionHandler()
	healthHandler := handler.NewHealthHandler()
	statsHandler := handler.NewStatsHandler(responseCache, cartStore)

	// Setup Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Add OpenTelemetry tracing middleware
	if otelCfg.Enabled {
		e.Use(otelecho.Middleware(otelCfg.ServiceName))
	}

	// Middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		LogMethod:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ctx := c.Request().Context()
			if v.Error == nil {
				slog.InfoContext(ctx, "request completed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds())
			} else {
				slog.ErrorContext(ctx, "request failed",
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency_ms", v.Latency.Milliseconds(),
					"error", v.Error.Error())
			}
			return nil
		},
	}))

	e.Use(middleware.Recover())
	e.Use(hubmiddleware.SecurityHeaders())
	e.Use(hubmiddleware.RegionResolver(hubmiddleware.RegionResolverConfig{
		DefaultRegion: cfg.DefaultRegion,
		CookieTTL:     cfg.RegionCookieTTL,
		Geo:           geoClient,
		GeoTimeout:    cfg.GeoIPTimeout,
	}))

	// Register routes
	e.GET("/health", healthHandler.Handle)
	e.GET("/api/stats", statsHandler.Handle)
	e.GET("/:countryCode", regionHandler.Handle)

	// Credential-bearing routes get per-IP rate limiting; catalog reads are
	// already shielded by the response cache.
	rateLimiter := hubmiddleware.NewRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	proxy := e.Group("/api/proxy", rateLimiter.Middleware())
	proxy.GET("/cart", cartHandler.GetCart)
	proxy.GET("/cart/count", cartHandler.Count)
	proxy.POST("/cart/add/:productId", cartHandler.AddItem)
	proxy.PATCH("/cart", cartHandler.UpdateQuantity)
	proxy.DELETE("/cart", cartHandler.RemoveItem)
	proxy.POST("/cart/save-address", checkoutHandler.SaveAddress)
	proxy.POST("/cart/save-payment", checkoutHandler.SavePayment)
	proxy.POST("/cart/checkout", checkoutHandler.PlaceOrder)
	proxy.POST("/login", authHandler.Login)
	proxy.POST("/logout", authHandler.Logout)

	payments := e.Group("/api/payments", rateLimiter.Middleware())
	payments.POST("/checkout", paymentHandler.Checkout)
	payments.POST("/callback", paymentHandler.Callback)

	e.GET("/api/products", catalogHandler.ListProducts)
	e.GET("/api/products/:slug", catalogHandler.GetProduct)
	e.GET("/api/categories", catalogHandler.ListCategories)

	// Start server
	address := fmt.Sprintf(":%s", cfg.Port)

	// Start server in a goroutine
	go func() {
		slog.InfoContext(ctx, "starting commerce-hub server", "address", address)
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	slog.InfoContext(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(ctx, "server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.InfoContext(ctx, "server exited properly")
}

// runHealthcheck performs a health check against the local server
func runHealthcheck() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8888"
	}

	httpClient := &http.Client{
		Timeout: 2 * time.Second,
	}

	resp, err := httpClient.Get(fmt.Sprintf("http://127.0.0.1:%s/health", port))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health endpoint returned status: %d", resp.StatusCode)
	}

	return nil
}
