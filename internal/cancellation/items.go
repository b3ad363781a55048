package cancellation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Skotchmaster/storefront-fulfillment/internal/aftercommit"
	"github.com/Skotchmaster/storefront-fulfillment/internal/apperr"
	"github.com/Skotchmaster/storefront-fulfillment/internal/events"
	"github.com/Skotchmaster/storefront-fulfillment/internal/inventory"
	"github.com/Skotchmaster/storefront-fulfillment/internal/logging"
	"github.com/Skotchmaster/storefront-fulfillment/internal/models"
	"github.com/Skotchmaster/storefront-fulfillment/internal/repo"
)

// ItemCancel asks for Quantity units of an item back. Zero means the whole
// remaining quantity.
type ItemCancel struct {
	ItemID   uuid.UUID
	Quantity int
}

type CancelItemsInput struct {
	OrderID uuid.UUID
	Items   []ItemCancel
	Comment string
	// Status optionally moves the order header along with the cancellation.
	Status *models.OrderStatus
}

type CancelledLine struct {
	ItemID     uuid.UUID
	ProductID  uuid.UUID
	Quantity   int
	Removed    bool
	Resolution inventory.Resolution
}

type CancelItemsResult struct {
	ProcessedItems         int
	TotalCancelledQuantity int
	Lines                  []CancelledLine
	Order                  *models.Order
}

func validateInput(in CancelItemsInput) error {
	if len(in.Items) == 0 {
		return apperr.Validation("items required")
	}
	seen := make(map[uuid.UUID]struct{}, len(in.Items))
	for _, it := range in.Items {
		if it.ItemID == uuid.Nil {
			return apperr.Validation("item_id required")
		}
		if it.Quantity < 0 {
			return apperr.Validation("quantity_to_cancel must be >= 0")
		}
		if _, dup := seen[it.ItemID]; dup {
			return apperr.Validation("item %s listed more than once", it.ItemID)
		}
		seen[it.ItemID] = struct{}{}
	}
	if in.Status != nil && !in.Status.Valid() {
		return apperr.Validation("unknown status %q", *in.Status)
	}
	return nil
}

func historyComment(total, lines int, extra string) string {
	c := fmt.Sprintf("%d item(s) cancelled across %d line(s)", total, lines)
	if extra = strings.TrimSpace(extra); extra != "" {
		c += ": " + extra
	}
	return c
}

// CancelItems cancels quantities of individual lines. Every request is
// validated against the locked order before any counter moves, and the whole
// batch commits or none of it does.
func (p *Processor) CancelItems(ctx context.Context, in CancelItemsInput) (*CancelItemsResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var (
		res   *CancelItemsResult
		entry *models.StatusHistory
	)

	err := p.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		o, err := tx.GetOrder(ctx, in.OrderID, true)
		if err != nil {
			return err
		}
		if o.Status.Terminal() {
			return apperr.Conflict("order %s is %s", o.ID, o.Status)
		}

		target := o.Status
		if in.Status != nil {
			if !models.CanTransition(o.Status, *in.Status) {
				return apperr.Conflict("cannot move order from %s to %s", o.Status, *in.Status)
			}
			target = *in.Status
		}

		byID := make(map[uuid.UUID]models.OrderItem, len(o.Items))
		for _, it := range o.Items {
			byID[it.ID] = it
		}

		planned := make([]CancelledLine, 0, len(in.Items))
		for _, req := range in.Items {
			item, ok := byID[req.ItemID]
			if !ok {
				return apperr.NotFound("item %s on order %s", req.ItemID, o.ID)
			}
			qty := req.Quantity
			if qty == 0 {
				qty = item.Quantity
			}
			if qty > item.Quantity {
				return apperr.Conflict("cannot cancel %d of item %s, only %d left", qty, item.ID, item.Quantity)
			}
			planned = append(planned, CancelledLine{
				ItemID:    item.ID,
				ProductID: item.ProductID,
				Quantity:  qty,
				Removed:   qty >= item.Quantity,
			})
		}

		total := 0
		for i := range planned {
			line := &planned[i]
			line.Resolution, err = p.Ledger.Restore(ctx, tx, inventory.ReferenceOf(byID[line.ItemID]), line.Quantity)
			if err != nil {
				return err
			}
			if line.Removed {
				err = tx.DeleteItem(ctx, line.ItemID)
			} else {
				err = tx.DecrementItem(ctx, line.ItemID, line.Quantity)
			}
			if err != nil {
				return err
			}
			total += line.Quantity
		}

		entry, err = tx.AppendStatus(ctx, o.ID, target, historyComment(total, len(planned), in.Comment))
		if err != nil {
			return err
		}
		if o, err = tx.GetOrder(ctx, o.ID, false); err != nil {
			return err
		}

		res = &CancelItemsResult{
			ProcessedItems:         len(planned),
			TotalCancelledQuantity: total,
			Lines:                  planned,
			Order:                  o,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("order_items_cancelled",
		zap.String("order_id", res.Order.ID.String()),
		zap.Int("lines", res.ProcessedItems),
		zap.Int("units", res.TotalCancelledQuantity),
	)

	lines := make([]events.CancelledLine, len(res.Lines))
	for i, l := range res.Lines {
		lines[i] = events.CancelledLine{
			ItemID:    l.ItemID.String(),
			ProductID: l.ProductID.String(),
			Qty:       l.Quantity,
			Removed:   l.Removed,
		}
	}
	p.Hooks.Run(ctx, aftercommit.Change{
		Order:     *res.Order,
		Entry:     entry,
		Source:    "admin",
		EventType: events.EventOrderItemsCancelled,
		Payload: events.OrderItemsCancelledPayload{
			OrderID:         res.Order.ID.String(),
			MerchantOrderID: res.Order.MerchantOrderID,
			TotalQty:        res.TotalCancelledQuantity,
			Lines:           lines,
		},
	})

	return res, nil
}
