// Package handler contains the HTTP handlers of the storefront gateway.
package handler

import (
	"context"
	"net/http"

	"commerce-hub/client"
	"commerce-hub/domain"

	"github.com/labstack/echo/v4"
)

// CommerceClient is the upstream commerce API surface the proxy handlers
// depend on.
type CommerceClient interface {
	GetCart(ctx context.Context, cred domain.Credential) (*client.UpstreamResponse, error)
	AddItem(ctx context.Context, cred domain.Credential, productID string, payload []byte) (*client.UpstreamResponse, error)
	UpdateQuantity(ctx context.Context, cred domain.Credential, itemID string, quantity int) (*client.UpstreamResponse, error)
	RemoveItem(ctx context.Context, cred domain.Credential, itemID string) (*client.UpstreamResponse, error)
	SaveAddress(ctx context.Context, cred domain.Credential, payload []byte) (*client.UpstreamResponse, error)
	SavePayment(ctx context.Context, cred domain.Credential, payload []byte) (*client.UpstreamResponse, error)
	SaveOrder(ctx context.Context, cred domain.Credential) (*client.UpstreamResponse, error)
	Login(ctx context.Context, payload []byte) (*client.UpstreamResponse, error)
}

// issueSessionCookie re-issues an upstream-granted session token to the
// browser. httpOnly stays off so the storefront JS can read it back into
// later requests.
func issueSessionCookie(c echo.Context, token string) {
	if token == "" {
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     domain.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
		Secure:   true,
	})
}

// clearSessionCookie destroys the browser session cookie on sign-out.
func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     domain.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
		Secure:   true,
	})
}
