package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"commerce-hub/client"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

// PaymentGateway is the collection API surface the payment handler needs.
type PaymentGateway interface {
	MpesaSTKPush(ctx context.Context, req client.STKPushRequest) (*client.STKPushResult, error)
	CreateCheckout(ctx context.Context, req client.CheckoutRequest) (*client.CheckoutResult, error)
}

// PaymentHandler drives the IntaSend collection flows and receives the
// gateway's payment callbacks.
type PaymentHandler struct {
	gateway       PaymentGateway
	validate      *validator.Validate
	storefrontURL string

	mu   sync.Mutex
	seen map[string]struct{} // tracking ids already acknowledged
}

// NewPaymentHandler creates a new payment handler. storefrontURL is where the
// shopper lands after a hosted checkout.
func NewPaymentHandler(gateway PaymentGateway, storefrontURL string) *PaymentHandler {
	return &PaymentHandler{
		gateway:       gateway,
		validate:      validator.New(),
		storefrontURL: storefrontURL,
		seen:          make(map[string]struct{}),
	}
}

// PaymentRequest is the charge request from the storefront.
type PaymentRequest struct {
	Name        string  `json:"name"`
	Email       string  `json:"email" validate:"required,email"`
	PhoneNumber string  `json:"phone_number" validate:"required,min=9"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	OrderID     string  `json:"order_id"`
}

// Checkout handles POST /api/payments/checkout. It issues the STK push and
// the hosted checkout link in parallel; the shopper can complete whichever
// lands first, the gateway dedupes by api_ref.
func (h *PaymentHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()

	var req PaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid request body"})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": err.Error()})
	}

	firstName, lastName := splitName(req.Name)
	apiRef := req.OrderID
	if apiRef == "" {
		apiRef = fmt.Sprintf("order-%d", time.Now().Unix())
	}

	var (
		stk      *client.STKPushResult
		checkout *client.CheckoutResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stk, err = h.gateway.MpesaSTKPush(gctx, client.STKPushRequest{
			FirstName:   firstName,
			LastName:    lastName,
			Email:       req.Email,
			PhoneNumber: req.PhoneNumber,
			Amount:      req.Amount,
			Host:        h.storefrontURL,
			APIRef:      apiRef,
		})
		return err
	})
	g.Go(func() error {
		var err error
		checkout, err = h.gateway.CreateCheckout(gctx, client.CheckoutRequest{
			FirstName:   firstName,
			LastName:    lastName,
			Email:       req.Email,
			Amount:      req.Amount,
			Currency:    "KES",
			Host:        h.storefrontURL,
			APIRef:      apiRef,
			RedirectURL: h.storefrontURL + "/checkout/success",
			CallbackURL: h.storefrontURL + "/api/payments/callback?order_id=" + apiRef,
		})
		return err
	})

	if err := g.Wait(); err != nil {
		slog.ErrorContext(ctx, "payment initiation failed", "api_ref", apiRef, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":          true,
		"stk_invoice":      stk.Invoice,
		"checkout_link":    checkout.URL,
		"checkout_invoice": checkout.Invoice,
	})
}

// Callback handles POST /api/payments/callback. The gateway retries failed
// deliveries, so acknowledged tracking ids are remembered and re-deliveries
// answered without re-processing.
func (h *PaymentHandler) Callback(c echo.Context) error {
	ctx := c.Request().Context()

	orderID := c.QueryParam("order_id")

	var body struct {
		Event string `json:"event"`
		Data  struct {
			TrackingID string `json:"tracking_id"`
		} `json:"data"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"received": false})
	}

	if orderID == "" || body.Event != "payment.successful" || body.Data.TrackingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"received": false})
	}

	h.mu.Lock()
	_, duplicate := h.seen[body.Data.TrackingID]
	h.seen[body.Data.TrackingID] = struct{}{}
	h.mu.Unlock()

	if duplicate {
		slog.InfoContext(ctx, "duplicate payment callback ignored",
			"order_id", orderID, "tracking_id", body.Data.TrackingID)
		return c.JSON(http.StatusOK, echo.Map{"received": true})
	}

	slog.InfoContext(ctx, "payment confirmed",
		"order_id", orderID, "tracking_id", body.Data.TrackingID)
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}

// splitName derives gateway first/last name fields from a free-form name.
func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "Customer", "User"
	case 1:
		return parts[0], "User"
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
