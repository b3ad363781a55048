package httpserver

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Skotchmaster/storefront-fulfillment/internal/audit"
	"github.com/Skotchmaster/storefront-fulfillment/internal/cancellation"
	"github.com/Skotchmaster/storefront-fulfillment/internal/logging"
	"github.com/Skotchmaster/storefront-fulfillment/internal/models"
	"github.com/Skotchmaster/storefront-fulfillment/internal/repo"
	"github.com/Skotchmaster/storefront-fulfillment/internal/transport"
	"github.com/Skotchmaster/storefront-fulfillment/internal/util"
)

type AuditSource interface {
	History(ctx context.Context, orderID string, from, size int) ([]audit.Entry, error)
}

type AdminHTTP struct {
	Cancel *cancellation.Processor
	Repo   *repo.GormRepo
	// Audit is optional; without it history is read from the database.
	Audit AuditSource
}

func (h *AdminHTTP) CancelItems(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "admin.cancel_items"))

	orderID, err := pathID(c)
	if err != nil {
		return badRequest(c, l, "cancel_items", "invalid order id", err)
	}

	var req transport.CancelItemsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "cancel_items", "invalid body", err)
	}

	in := cancellation.CancelItemsInput{OrderID: orderID, Comment: req.Comment}
	for _, it := range req.Items {
		in.Items = append(in.Items, cancellation.ItemCancel{ItemID: it.ItemID, Quantity: it.Quantity})
	}
	if req.Status != nil {
		st := models.OrderStatus(*req.Status)
		in.Status = &st
	}

	res, err := h.Cancel.CancelItems(ctx, in)
	if err != nil {
		return writeError(c, l, "cancel_items", err)
	}

	l.Info("cancel_items_success",
		zap.String("order_id", orderID.String()),
		zap.Int("processed_items", res.ProcessedItems),
		zap.Int("total_cancelled_quantity", res.TotalCancelledQuantity),
	)
	return c.JSON(http.StatusOK, transport.CancelItemsResponse{
		ProcessedItems:         res.ProcessedItems,
		TotalCancelledQuantity: res.TotalCancelledQuantity,
		Order:                  transport.NewOrderResponse(res.Order),
	})
}

func (h *AdminHTTP) History(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With(zap.String("handler", "admin.history"))

	orderID, err := pathID(c)
	if err != nil {
		return badRequest(c, l, "order_history", "invalid order id", err)
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, limit := util.Calculate(page, size)

	if h.Audit != nil {
		entries, err := h.Audit.History(ctx, orderID.String(), from, limit)
		if err == nil {
			out := make([]transport.HistoryEntry, 0, len(entries))
			for _, e := range entries {
				out = append(out, transport.HistoryEntry{
					Status:        e.Status,
					PaymentStatus: e.PaymentStatus,
					Comment:       e.Comment,
					Source:        e.Source,
					CreatedAt:     e.CreatedAt,
				})
			}
			return c.JSON(http.StatusOK, out)
		}
		l.Warn("audit_history_error", zap.Error(err))
	}

	if _, err := h.Repo.GetOrder(ctx, orderID, false); err != nil {
		return writeError(c, l, "order_history", err)
	}
	rows, err := h.Repo.ListHistory(ctx, orderID, from, limit)
	if err != nil {
		return writeError(c, l, "order_history", err)
	}
	out := make([]transport.HistoryEntry, 0, len(rows))
	for _, r := range rows {
		e := transport.HistoryEntry{Status: string(r.Status), CreatedAt: r.CreatedAt}
		if r.Comment != nil {
			e.Comment = *r.Comment
		}
		out = append(out, e)
	}
	return c.JSON(http.StatusOK, out)
}
