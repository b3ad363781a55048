package httpserver

import (
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Skotchmaster/storefront-fulfillment/internal/logging"
	"github.com/Skotchmaster/storefront-fulfillment/internal/transport"
	"github.com/Skotchmaster/storefront-fulfillment/internal/webhook"
)

const maxWebhookBody = 1 << 20

type PaymentHTTP struct {
	Reconciler      *webhook.Reconciler
	Redirects       *webhook.Redirects
	FrontendBaseURL string
}

func (h *PaymentHTTP) Webhook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "payments.webhook"))

	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return badRequest(c, l, "payment_webhook", "unreadable body", err)
	}

	res, err := h.Reconciler.ReconcileProcessed(ctx, raw, c.QueryParam("hmac"))
	if err != nil {
		return writeError(c, l, "payment_webhook", err)
	}

	return c.JSON(http.StatusOK, transport.WebhookResponse{
		OK:       true,
		OrderID:  res.OrderID,
		Outcome:  string(res.Outcome),
		Replayed: res.Replayed,
		Stale:    res.Stale,
	})
}

// Redirect only routes the browser; the processed callback owns all writes.
func (h *PaymentHTTP) Redirect(c echo.Context) error {
	dest := h.Redirects.Resolve(c.Request().Context(), c.QueryParams())
	return c.Redirect(http.StatusFound, strings.TrimRight(h.FrontendBaseURL, "/")+dest.Path())
}
