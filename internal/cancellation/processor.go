package cancellation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Skotchmaster/storefront-fulfillment/internal/aftercommit"
	"github.com/Skotchmaster/storefront-fulfillment/internal/apperr"
	"github.com/Skotchmaster/storefront-fulfillment/internal/events"
	"github.com/Skotchmaster/storefront-fulfillment/internal/inventory"
	"github.com/Skotchmaster/storefront-fulfillment/internal/logging"
	"github.com/Skotchmaster/storefront-fulfillment/internal/models"
	"github.com/Skotchmaster/storefront-fulfillment/internal/notify"
	"github.com/Skotchmaster/storefront-fulfillment/internal/repo"
)

const customerCancelComment = "Order cancelled by customer"

type Processor struct {
	Repo   *repo.GormRepo
	Ledger inventory.Ledger
	Hooks  *aftercommit.Hooks
}

// CancelOrder cancels a pending order of requesterID and returns every unit
// to stock. An order owned by someone else is reported as not found.
func (p *Processor) CancelOrder(ctx context.Context, orderID, requesterID uuid.UUID) (*models.Order, error) {
	var (
		order    *models.Order
		entry    *models.StatusHistory
		restored int
	)

	err := p.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		restored = 0

		o, err := tx.GetOrder(ctx, orderID, true)
		if err != nil {
			return err
		}
		if o.UserID != requesterID {
			return apperr.NotFound("order %s", orderID)
		}
		if o.Status != models.StatusPending {
			return apperr.Conflict("only pending orders can be cancelled")
		}

		for _, item := range o.Items {
			if _, err := p.Ledger.Restore(ctx, tx, inventory.ReferenceOf(item), item.Quantity); err != nil {
				return err
			}
			restored += item.Quantity
		}

		entry, err = tx.AppendStatus(ctx, o.ID, models.StatusCancelled, customerCancelComment)
		if err != nil {
			return err
		}
		o.Status = models.StatusCancelled
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("order_cancelled",
		zap.String("order_id", order.ID.String()),
		zap.Int("restored_units", restored),
	)

	p.Hooks.Run(ctx, aftercommit.Change{
		Order:     *order,
		Entry:     entry,
		Source:    "customer",
		EventType: events.EventOrderCancelled,
		Payload: events.OrderCancelledPayload{
			OrderID:         order.ID.String(),
			MerchantOrderID: order.MerchantOrderID,
			RestoredUnits:   restored,
		},
		Email: &notify.Email{
			To:       order.CustomerEmail,
			Subject:  fmt.Sprintf("Order %s cancelled", order.MerchantOrderID),
			Template: notify.TemplateOrderCancelled,
			Data: map[string]any{
				"order": order.MerchantOrderID,
				"total": order.Total.StringFixed(2),
			},
		},
	})

	return order, nil
}
