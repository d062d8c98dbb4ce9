package handler

import (
	"context"
	"log/slog"
	"net/http"

	"commerce-hub/client"
	"commerce-hub/domain"

	"github.com/labstack/echo/v4"
)

// CheckoutHandler forwards the checkout steps to the upstream commerce API.
// Address, payment method and order placement are strict passthroughs; the
// upstream owns all checkout validation.
type CheckoutHandler struct {
	commerce CommerceClient
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(commerce CommerceClient) *CheckoutHandler {
	return &CheckoutHandler{commerce: commerce}
}

// SaveAddress handles POST /api/proxy/cart/save-address.
func (h *CheckoutHandler) SaveAddress(c echo.Context) error {
	payload, err := readBody(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	return h.passthrough(c, "save address", func(ctx context.Context, cred domain.Credential) (*client.UpstreamResponse, error) {
		return h.commerce.SaveAddress(ctx, cred, payload)
	})
}

// SavePayment handles POST /api/proxy/cart/save-payment.
func (h *CheckoutHandler) SavePayment(c echo.Context) error {
	payload, err := readBody(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	return h.passthrough(c, "save payment", func(ctx context.Context, cred domain.Credential) (*client.UpstreamResponse, error) {
		return h.commerce.SavePayment(ctx, cred, payload)
	})
}

// PlaceOrder handles POST /api/proxy/cart/checkout. The upstream derives the
// order from the session, so no body is forwarded.
func (h *CheckoutHandler) PlaceOrder(c echo.Context) error {
	return h.passthrough(c, "place order", h.commerce.SaveOrder)
}

func (h *CheckoutHandler) passthrough(c echo.Context, step string, call func(context.Context, domain.Credential) (*client.UpstreamResponse, error)) error {
	ctx := c.Request().Context()
	cred := domain.ResolveCredential(c.Request())

	resp, err := call(ctx, cred)
	if err != nil {
		slog.ErrorContext(ctx, "checkout step failed", "step", step, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"message": "Something went wrong.",
			"error":   err.Error(),
		})
	}

	issueSessionCookie(c, resp.SessionToken)
	return c.JSONBlob(resp.StatusCode, resp.Body)
}
