package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"commerce-hub/cache"
	"commerce-hub/client"
	"commerce-hub/domain"

	"github.com/labstack/echo/v4"
)

// CatalogClient is the upstream catalog surface the catalog handlers read.
type CatalogClient interface {
	ListProducts(ctx context.Context, query url.Values) (*client.ProductList, error)
	GetProductBySlug(ctx context.Context, slug string) (json.RawMessage, error)
	ListCategories(ctx context.Context) ([]client.Category, error)
}

// CatalogHandler serves product and category reads, cached per browser via
// the cache-identity cookie.
type CatalogHandler struct {
	catalog   CatalogClient
	responses *cache.ResponseCache
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(catalog CatalogClient, responses *cache.ResponseCache) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, responses: responses}
}

// ListProducts handles GET /api/products. An unreachable catalog yields an
// empty listing rather than an error page.
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()

	if body, found := h.cached(c); found {
		return c.JSONBlob(http.StatusOK, body)
	}

	list, err := h.catalog.ListProducts(ctx, c.QueryParams())
	if err != nil {
		slog.ErrorContext(ctx, "product listing failed", "error", err)
		list = &client.ProductList{Products: []json.RawMessage{}}
	}

	return h.respond(c, list, err == nil)
}

// GetProduct handles GET /api/products/:slug.
func (h *CatalogHandler) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	slug := c.Param("slug")

	if body, found := h.cached(c); found {
		return c.JSONBlob(http.StatusOK, body)
	}

	product, err := h.catalog.GetProductBySlug(ctx, slug)
	if err != nil {
		slog.ErrorContext(ctx, "product fetch failed", "slug", slug, "error", err)
		return c.JSON(http.StatusNotFound, echo.Map{
			"success": false,
			"message": "Product not found.",
		})
	}

	return h.respond(c, echo.Map{"success": true, "product": product}, true)
}

// ListCategories handles GET /api/categories. Failures degrade to an empty
// tree so navigation still renders.
func (h *CatalogHandler) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()

	if body, found := h.cached(c); found {
		return c.JSONBlob(http.StatusOK, body)
	}

	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "category listing failed", "error", err)
		categories = []client.Category{}
	}

	return h.respond(c, echo.Map{"categories": categories}, err == nil)
}

// cached looks up the response cache entry for this request. Requests from
// browsers without a cache-identity cookie are never cached.
func (h *CatalogHandler) cached(c echo.Context) ([]byte, bool) {
	key, ok := h.cacheKey(c)
	if !ok {
		return nil, false
	}
	return h.responses.Get(key)
}

// respond serializes the payload, caching it only when the upstream fetch
// actually succeeded.
func (h *CatalogHandler) respond(c echo.Context, payload any, cacheable bool) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to encode response")
	}

	if cacheable {
		if key, ok := h.cacheKey(c); ok {
			h.responses.Set(key, body)
		}
	}
	return c.JSONBlob(http.StatusOK, body)
}

func (h *CatalogHandler) cacheKey(c echo.Context) (string, bool) {
	if h.responses == nil {
		return "", false
	}
	cookie, err := c.Cookie(domain.CacheIDCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cache.Key(cookie.Value, c.Request().URL.RequestURI()), true
}
