package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Skotchmaster/storefront-fulfillment/internal/apperr"
	"github.com/Skotchmaster/storefront-fulfillment/internal/transport"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrSignature):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrExternalService):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError logs a failed operation and renders err as {"error": msg}.
// Signature failures and internal errors get a generic message.
func writeError(c echo.Context, l *zap.Logger, op string, err error) error {
	status := statusOf(err)
	msg := err.Error()
	switch {
	case errors.Is(err, apperr.ErrSignature):
		msg = "invalid signature"
	case status == http.StatusBadGateway:
		msg = "payment gateway unavailable"
	case status >= http.StatusInternalServerError:
		msg = "internal error"
	}

	if status >= http.StatusInternalServerError {
		l.Error(op+"_error", zap.Int("status", status), zap.Error(err))
	} else {
		l.Warn(op+"_error", zap.Int("status", status), zap.Error(err))
	}
	return c.JSON(status, transport.ErrorResponse{Error: msg})
}

func badRequest(c echo.Context, l *zap.Logger, op, reason string, err error) error {
	l.Warn(op+"_error", zap.Int("status", http.StatusBadRequest), zap.String("reason", reason), zap.Error(err))
	return c.JSON(http.StatusBadRequest, transport.ErrorResponse{Error: reason})
}

// ErrorHandler renders errors raised outside the handlers (middleware,
// routing) in the same {"error": msg} shape.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, msg := http.StatusInternalServerError, "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(status)
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, transport.ErrorResponse{Error: msg})
}
