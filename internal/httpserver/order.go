package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Skotchmaster/storefront-fulfillment/internal/cancellation"
	"github.com/Skotchmaster/storefront-fulfillment/internal/logging"
	"github.com/Skotchmaster/storefront-fulfillment/internal/middleware/auth"
	"github.com/Skotchmaster/storefront-fulfillment/internal/payment"
	"github.com/Skotchmaster/storefront-fulfillment/internal/transport"
)

type OrderHTTP struct {
	Cancel   *cancellation.Processor
	Payments *payment.Service
}

func pathID(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

func (h *OrderHTTP) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "order.cancel_order"))

	userID, ok := auth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	orderID, err := pathID(c)
	if err != nil {
		return badRequest(c, l, "cancel_order", "invalid order id", err)
	}

	o, err := h.Cancel.CancelOrder(ctx, orderID, userID)
	if err != nil {
		return writeError(c, l, "cancel_order", err)
	}

	l.Info("cancel_order_success", zap.String("order_id", o.ID.String()))
	return c.JSON(http.StatusOK, transport.NewOrderResponse(o))
}

func (h *OrderHTTP) StartPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "order.start_payment"))

	userID, ok := auth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	orderID, err := pathID(c)
	if err != nil {
		return badRequest(c, l, "start_payment", "invalid order id", err)
	}

	started, err := h.Payments.StartPayment(ctx, orderID, userID)
	if err != nil {
		return writeError(c, l, "start_payment", err)
	}

	return c.JSON(http.StatusOK, transport.PaymentResponse{
		OrderID:      started.OrderID,
		RedirectURL:  started.RedirectURL,
		ClientSecret: started.ClientSecret,
	})
}

func (h *OrderHTTP) Status(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "order.status"))

	userID, ok := auth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	orderID, err := pathID(c)
	if err != nil {
		return badRequest(c, l, "order_status", "invalid order id", err)
	}

	st, err := h.Payments.Status(ctx, orderID, userID)
	if err != nil {
		return writeError(c, l, "order_status", err)
	}
	return c.JSON(http.StatusOK, st)
}
