// Package aftercommit fans a committed order change out to the best-effort
// collaborators. Failures are logged and never returned.
package aftercommit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Skotchmaster/storefront-fulfillment/internal/audit"
	"github.com/Skotchmaster/storefront-fulfillment/internal/cache"
	"github.com/Skotchmaster/storefront-fulfillment/internal/logging"
	"github.com/Skotchmaster/storefront-fulfillment/internal/models"
	"github.com/Skotchmaster/storefront-fulfillment/internal/notify"
)

const hookTimeout = 5 * time.Second

type EventPublisher interface {
	Publish(ctx context.Context, eventType, orderID string, payload any) error
}

type StatusCache interface {
	SetStatus(ctx context.Context, s cache.OrderStatus) error
}

type HistoryIndexer interface {
	IndexHistory(ctx context.Context, e audit.Entry) error
}

// Hooks holds the optional collaborators. Any of them may be nil.
type Hooks struct {
	Notifier notify.Notifier
	Events   EventPublisher
	Cache    StatusCache
	Audit    HistoryIndexer
}

type Change struct {
	Order     models.Order
	Entry     *models.StatusHistory
	Source    string
	EventType string
	Payload   any
	Email     *notify.Email
}

func (h *Hooks) Run(ctx context.Context, ch Change) {
	if h == nil {
		return
	}
	l := logging.FromContext(ctx).With(
		zap.String("order_id", ch.Order.ID.String()),
		zap.String("source", ch.Source),
	)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), hookTimeout)
	defer cancel()

	if h.Cache != nil {
		err := h.Cache.SetStatus(ctx, cache.OrderStatus{
			OrderID:         ch.Order.ID.String(),
			MerchantOrderID: ch.Order.MerchantOrderID,
			UserID:          ch.Order.UserID.String(),
			Status:          string(ch.Order.Status),
			PaymentStatus:   string(ch.Order.PaymentStatus),
			UpdatedAt:       time.Now().UTC(),
		})
		if err != nil {
			l.Warn("status_cache_error", zap.Error(err))
		}
	}

	if h.Audit != nil && ch.Entry != nil {
		e := audit.Entry{
			ID:              ch.Entry.ID.String(),
			OrderID:         ch.Order.ID.String(),
			MerchantOrderID: ch.Order.MerchantOrderID,
			Status:          string(ch.Entry.Status),
			PaymentStatus:   string(ch.Order.PaymentStatus),
			Source:          ch.Source,
			CreatedAt:       ch.Entry.CreatedAt,
		}
		if ch.Entry.Comment != nil {
			e.Comment = *ch.Entry.Comment
		}
		if err := h.Audit.IndexHistory(ctx, e); err != nil {
			l.Warn("audit_index_error", zap.Error(err))
		}
	}

	if h.Events != nil && ch.EventType != "" {
		if err := h.Events.Publish(ctx, ch.EventType, ch.Order.ID.String(), ch.Payload); err != nil {
			l.Warn("event_publish_error", zap.String("event_type", ch.EventType), zap.Error(err))
		}
	}

	if h.Notifier != nil && ch.Email != nil && ch.Email.To != "" {
		if err := h.Notifier.Notify(ctx, *ch.Email); err != nil {
			l.Warn("email_notify_error", zap.String("template", ch.Email.Template), zap.Error(err))
		}
	}
}
