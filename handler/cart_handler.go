package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"commerce-hub/domain"
	"commerce-hub/store"

	"github.com/labstack/echo/v4"
)

// nonObjectStatusMarker is the fragment of the upstream PHP notice that shows
// up when an add-to-cart payload does not match the product type.
const nonObjectStatusMarker = "Trying to get property 'status' of non-object"

// CartHandler proxies cart reads and mutations to the upstream commerce API.
type CartHandler struct {
	commerce CommerceClient
	carts    *store.CartStore
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(commerce CommerceClient, carts *store.CartStore) *CartHandler {
	return &CartHandler{commerce: commerce, carts: carts}
}

// GetCart handles GET /api/proxy/cart.
func (h *CartHandler) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	cred := domain.ResolveCredential(c.Request())

	resp, err := h.commerce.GetCart(ctx, cred)
	if err != nil {
		slog.ErrorContext(ctx, "cart fetch failed", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"message": "Something went wrong.",
			"error":   err.Error(),
		})
	}

	if !resp.OK() {
		// The upstream error page is not always JSON; pass its text through.
		return c.JSON(resp.StatusCode, echo.Map{
			"success": false,
			"message": "Failed to fetch cart.",
			"error":   string(resp.Body),
		})
	}

	var data json.RawMessage
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		slog.ErrorContext(ctx, "cart response was not json", "status", resp.StatusCode)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"message": "Something went wrong.",
			"error":   err.Error(),
		})
	}

	issueSessionCookie(c, resp.SessionToken)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "cart": data})
}

// AddItem handles POST /api/proxy/cart/add/:productId. The request body is
// forwarded untouched, since option payloads differ per product type.
func (h *CartHandler) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	cred := domain.ResolveCredential(c.Request())
	productID := c.Param("productId")

	payload, err := readBody(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := h.commerce.AddItem(ctx, cred, productID, payload)
	if err != nil {
		slog.ErrorContext(ctx, "add to cart failed", "product_id", productID, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"message": "Something went wrong.",
			"error":   err.Error(),
		})
	}

	var data json.RawMessage
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		slog.ErrorContext(ctx, "add to cart returned non-json body", "status", resp.StatusCode)
		return c.JSON(http.StatusBadGateway, echo.Map{
			"success": false,
			"message": "Invalid JSON from Bagisto",
			"raw":     string(resp.Body),
		})
	}

	// A guest session may be minted even when the add itself fails; keep the
	// cookie on every answered request.
	issueSessionCookie(c, resp.SessionToken)

	// The notice can ride on any status, including 2xx.
	if status, message := classifyUpstreamAddError(resp.Body); status != 0 {
		return c.JSON(status, echo.Map{
			"success": false,
			"message": message,
			"error":   data,
		})
	}

	if !resp.OK() {
		return c.JSON(resp.StatusCode, echo.Map{"success": false, "data": data})
	}

	h.nudgeCartCount(ctx, cred)
	return c.JSON(resp.StatusCode, echo.Map{"success": true, "data": data})
}

// UpdateQuantity handles PATCH /api/proxy/cart.
func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	cred := domain.ResolveCredential(c.Request())

	var body struct {
		ItemID   string `json:"item_id"`
		Quantity *int   `json:"quantity"`
	}
	if err := c.Bind(&body); err != nil || body.ItemID == "" || body.Quantity == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "Missing item_id or quantity.",
		})
	}

	resp, err := h.commerce.UpdateQuantity(ctx, cred, body.ItemID, *body.Quantity)
	if err != nil || !resp.OK() {
		if err != nil {
			slog.ErrorContext(ctx, "cart update failed", "item_id", body.ItemID, "error", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"success": false,
				"message": "Failed to update cart.",
				"error":   err.Error(),
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"message": "Failed to update cart.",
			"error":   string(resp.Body),
		})
	}

	var data json.RawMessage
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"message": "Failed to update cart.",
			"error":   err.Error(),
		})
	}

	issueSessionCookie(c, resp.SessionToken)
	h.nudgeCartCount(ctx, cred)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "cart": data})
}

// RemoveItem handles DELETE /api/proxy/cart. The upstream removes items via
// GET, which this handler hides from the browser.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	cred := domain.ResolveCredential(c.Request())

	itemID := c.QueryParam("item_id")
	if itemID == "" {
		var body struct {
			ItemID string `json:"item_id"`
		}
		if err := c.Bind(&body); err == nil {
			itemID = body.ItemID
		}
	}
	if itemID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "Missing item_id.",
		})
	}

	resp, err := h.commerce.RemoveItem(ctx, cred, itemID)
	if err != nil {
		slog.ErrorContext(ctx, "cart item removal failed", "item_id", itemID, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"message": "Something went wrong.",
			"error":   err.Error(),
		})
	}

	var data json.RawMessage
	if jsonErr := json.Unmarshal(resp.Body, &data); jsonErr != nil || !resp.OK() {
		return c.JSON(resp.StatusCode, echo.Map{
			"success": false,
			"message": "Invalid response",
			"raw":     string(resp.Body),
		})
	}

	issueSessionCookie(c, resp.SessionToken)
	h.nudgeCartCount(ctx, cred)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "result": data})
}

// Count handles GET /api/proxy/cart/count.
func (h *CartHandler) Count(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"quantity": h.carts.Quantity(),
	})
}

// nudgeCartCount refreshes the shared cart count after a mutation. The
// refresh runs detached from the request so retries never delay the reply.
func (h *CartHandler) nudgeCartCount(ctx context.Context, cred domain.Credential) {
	if h.carts == nil {
		return
	}

	refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	go func() {
		defer cancel()
		if err := h.carts.Refresh(refreshCtx, cred); err != nil {
			slog.WarnContext(refreshCtx, "cart count refresh failed", "error", err)
		}
	}()
}

// classifyUpstreamAddError maps known upstream failure bodies to friendlier
// statuses. The non-object notice is the upstream's way of saying the
// payload shape did not fit the product type.
func classifyUpstreamAddError(body []byte) (int, string) {
	if strings.Contains(string(body), nonObjectStatusMarker) {
		return http.StatusBadRequest, "Likely invalid payload for product type."
	}
	return 0, ""
}

func readBody(c echo.Context) ([]byte, error) {
	if c.Request().Body == nil {
		return nil, nil
	}
	defer c.Request().Body.Close()

	buf, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		return nil, nil
	}
	return buf, nil
}
