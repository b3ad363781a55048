package webhook

import (
	"context"
	"errors"
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
	"github.com/Skotchmaster/storefront-fulfillment/internal/signature"
)

type Reconciler struct {
	Repo   *repo.GormRepo
	Ledger inventory.Ledger
	Secret []byte
	Hooks  *aftercommit.Hooks
}

type Result struct {
	OrderID       uuid.UUID
	Outcome       Outcome
	PaymentStatus models.PaymentStatus
	Status        models.OrderStatus
	// Replayed is set when this transaction was already applied to the order.
	Replayed bool
	// Stale is set when a late callback would have undone a settled payment.
	Stale bool
}

// ReconcileProcessed applies an authoritative server-to-server callback.
// Every write sets absolute values, so a redelivered callback converges on
// the state the first delivery produced.
func (r *Reconciler) ReconcileProcessed(ctx context.Context, raw []byte, sig string) (*Result, error) {
	l := logging.FromContext(ctx).With(zap.String("component", "webhook.processed"))

	cb, err := ParseProcessed(raw)
	if err != nil {
		return nil, err
	}
	if err := signature.Verify(r.Secret, signature.ProcessedFields, cb.Data, sig); err != nil {
		l.Warn("processed_callback_rejected", zap.String("transaction_id", cb.TransactionID))
		return nil, err
	}

	outcome, err := DeriveOutcome(cb.Success, cb.Pending)
	if err != nil {
		l.Error("processed_callback_unmapped_outcome",
			zap.String("transaction_id", cb.TransactionID),
			zap.String("merchant_order_id", cb.MerchantOrderID),
			zap.Error(err),
		)
		return nil, err
	}
	payTarget, statusTarget := outcome.Target()

	var (
		res     *Result
		order   *models.Order
		entry   *models.StatusHistory
		changed bool
	)
	err = r.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		changed = false

		o, err := r.locate(ctx, tx, cb)
		if err != nil {
			return err
		}
		res = &Result{OrderID: o.ID, Outcome: outcome, PaymentStatus: o.PaymentStatus, Status: o.Status}

		settled := o.PaymentStatus == payTarget && sameTxn(o.GatewayTransactionID, cb.TransactionID)
		if settled && o.Status == statusTarget {
			res.Replayed = true
			return nil
		}
		if o.Status.Terminal() {
			return apperr.Conflict("order %s is %s", o.MerchantOrderID, o.Status)
		}
		// The order may have moved on (e.g. shipped) since this callback was
		// first applied.
		if settled {
			res.Replayed = true
			return nil
		}
		if stale(o.PaymentStatus, outcome) {
			res.Stale = true
			return nil
		}
		if !models.CanTransition(o.Status, statusTarget) {
			return apperr.Conflict("cannot move order %s from %s to %s", o.MerchantOrderID, o.Status, statusTarget)
		}

		if statusTarget == models.StatusCancelled {
			full, err := tx.GetOrder(ctx, o.ID, false)
			if err != nil {
				return err
			}
			for _, item := range full.Items {
				if _, err := r.Ledger.Restore(ctx, tx, inventory.ReferenceOf(item), item.Quantity); err != nil {
					return err
				}
			}
		}

		var txn *string
		if cb.TransactionID != "" {
			txn = &cb.TransactionID
		}
		if err := tx.SetPayment(ctx, o.ID, payTarget, txn); err != nil {
			return err
		}
		entry, err = tx.AppendStatus(ctx, o.ID, statusTarget, fmt.Sprintf("Payment %s via gateway (txn %s)", outcome, cb.TransactionID))
		if err != nil {
			return err
		}

		order, err = tx.GetOrder(ctx, o.ID, false)
		if err != nil {
			return err
		}
		res.PaymentStatus, res.Status = order.PaymentStatus, order.Status
		changed = true
		return nil
	})
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			l.Error("processed_callback_conflict",
				zap.String("transaction_id", cb.TransactionID),
				zap.String("outcome", string(outcome)),
				zap.Error(err),
			)
		}
		return nil, err
	}

	switch {
	case res.Replayed:
		l.Info("processed_callback_replayed", zap.String("order_id", res.OrderID.String()))
	case res.Stale:
		l.Warn("processed_callback_stale",
			zap.String("order_id", res.OrderID.String()),
			zap.String("outcome", string(outcome)),
			zap.String("payment_status", string(res.PaymentStatus)),
		)
	}
	if !changed {
		return res, nil
	}

	l.Info("processed_callback_applied",
		zap.String("order_id", order.ID.String()),
		zap.String("payment_status", string(order.PaymentStatus)),
		zap.String("status", string(order.Status)),
	)
	r.Hooks.Run(ctx, aftercommit.Change{
		Order:     *order,
		Entry:     entry,
		Source:    "gateway",
		EventType: events.EventPaymentStatusChanged,
		Payload: events.PaymentStatusChangedPayload{
			OrderID:         order.ID.String(),
			MerchantOrderID: order.MerchantOrderID,
			PaymentStatus:   string(order.PaymentStatus),
			OrderStatus:     string(order.Status),
			TransactionID:   cb.TransactionID,
		},
		Email: paymentEmail(order, outcome),
	})
	return res, nil
}

func (r *Reconciler) locate(ctx context.Context, tx *repo.GormRepo, cb *Callback) (*models.Order, error) {
	if cb.MerchantOrderID == "" && cb.GatewayOrderID == "" {
		return nil, apperr.Validation("callback carries no order reference")
	}
	if cb.MerchantOrderID != "" {
		o, err := tx.FindOrderByMerchantID(ctx, cb.MerchantOrderID, true)
		if err == nil || !errors.Is(err, apperr.ErrNotFound) || cb.GatewayOrderID == "" {
			return o, err
		}
	}
	return tx.FindOrderByGatewayID(ctx, cb.GatewayOrderID, true)
}

func sameTxn(stored *string, incoming string) bool {
	if stored == nil {
		return incoming == ""
	}
	return *stored == incoming
}

// stale reports a callback that arrived after the payment already settled in
// a way it must not undo.
func stale(current models.PaymentStatus, outcome Outcome) bool {
	switch outcome {
	case OutcomePending:
		return current != models.PaymentPending
	case OutcomeFailed:
		return current == models.PaymentSuccess || current == models.PaymentRefunded
	}
	return false
}

func paymentEmail(o *models.Order, outcome Outcome) *notify.Email {
	switch outcome {
	case OutcomeSuccess:
		return &notify.Email{
			To:       o.CustomerEmail,
			Subject:  fmt.Sprintf("Payment received for order %s", o.MerchantOrderID),
			Template: notify.TemplatePaymentSuccess,
			Data:     map[string]any{"order": o.MerchantOrderID, "total": o.Total.StringFixed(2)},
		}
	case OutcomeFailed:
		return &notify.Email{
			To:       o.CustomerEmail,
			Subject:  fmt.Sprintf("Payment failed for order %s", o.MerchantOrderID),
			Template: notify.TemplatePaymentFailed,
			Data:     map[string]any{"order": o.MerchantOrderID},
		}
	}
	return nil
}
