package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront-fulfillment/internal/db"
	"github.com/Skotchmaster/storefront-fulfillment/internal/logging"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHTTP struct {
	DB *gorm.DB
	// Optional dependencies are reported but do not fail readiness.
	Optional map[string]Pinger
}

func (h *HealthHTTP) Live(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func (h *HealthHTTP) Ready(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx)

	if err := db.Ping(ctx, h.DB); err != nil {
		l.Error("ready_db_error", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"database": "down"})
	}

	out := map[string]string{"database": "up"}
	for name, p := range h.Optional {
		if err := p.Ping(ctx); err != nil {
			l.Warn("ready_dependency_error", zap.String("dependency", name), zap.Error(err))
			out[name] = "down"
			continue
		}
		out[name] = "up"
	}
	return c.JSON(http.StatusOK, out)
}
