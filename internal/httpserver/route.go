package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront-fulfillment/internal/middleware/auth"
	"github.com/Skotchmaster/storefront-fulfillment/internal/middleware/csrf"
)

const (
	PathWebhook  = "/api/payments/webhook"
	PathRedirect = "/api/payments/redirect"
)

type Deps struct {
	OrderHandler   *OrderHTTP
	AdminHandler   *AdminHTTP
	PaymentHandler *PaymentHTTP
	HealthHandler  *HealthHTTP
	JWTSecret      []byte
	CSRF           csrf.Config
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/health/live", d.HealthHandler.Live)
	e.GET("/health/ready", d.HealthHandler.Ready)

	authMW := auth.New(d.JWTSecret)

	csrfCfg := d.CSRF
	csrfCfg.SkipPaths = append(csrfCfg.SkipPaths, PathWebhook, PathRedirect)
	api := e.Group("/api", csrf.Middleware(csrfCfg))

	api.POST("/payments/webhook", d.PaymentHandler.Webhook)
	api.GET("/payments/redirect", d.PaymentHandler.Redirect)

	orders := api.Group("/orders", authMW.RequireAuth)
	orders.POST("/:id/cancel", d.OrderHandler.CancelOrder)
	orders.POST("/:id/payment", d.OrderHandler.StartPayment)
	orders.GET("/:id/status", d.OrderHandler.Status)

	admin := api.Group("/admin", authMW.RequireAdmin)
	admin.POST("/orders/:id/items/cancel", d.AdminHandler.CancelItems)
	admin.GET("/orders/:id/audit", d.AdminHandler.History)
}
