package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// AuthHandler proxies customer sign-in to the upstream and manages the
// browser session cookie lifecycle.
type AuthHandler struct {
	commerce CommerceClient
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(commerce CommerceClient) *AuthHandler {
	return &AuthHandler{commerce: commerce}
}

// Login handles POST /api/proxy/login. The upstream is asked for a bearer
// token alongside the session cookie, and the session cookie is re-issued to
// the browser when granted.
func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	payload, err := readBody(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	resp, err := h.commerce.Login(ctx, payload)
	if err != nil {
		slog.ErrorContext(ctx, "login failed", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"message": "Something went wrong.",
			"error":   err.Error(),
		})
	}

	issueSessionCookie(c, resp.SessionToken)
	return c.JSONBlob(resp.StatusCode, resp.Body)
}

// Logout handles POST /api/proxy/logout by destroying the browser session
// cookie. The upstream session is left to expire on its own.
func (h *AuthHandler) Logout(c echo.Context) error {
	clearSessionCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
