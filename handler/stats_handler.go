package handler

import (
	"net/http"

	"commerce-hub/cache"
	"commerce-hub/store"

	"github.com/labstack/echo/v4"
)

// StatsHandler exposes gateway counters for monitoring: response cache
// effectiveness and the shared cart count.
type StatsHandler struct {
	responses *cache.ResponseCache
	carts     *store.CartStore
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(responses *cache.ResponseCache, carts *store.CartStore) *StatsHandler {
	return &StatsHandler{responses: responses, carts: carts}
}

// Handle processes GET /api/stats.
func (h *StatsHandler) Handle(c echo.Context) error {
	stats := h.responses.Stats()
	return c.JSON(http.StatusOK, echo.Map{
		"cache": echo.Map{
			"hits":   stats.Hits,
			"misses": stats.Misses,
			"size":   stats.Size,
		},
		"cart": echo.Map{
			"quantity": h.carts.Quantity(),
		},
	})
}
