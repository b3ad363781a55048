// Package payment starts gateway payments for orders and serves the status
// the payment result page polls.
package payment

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Skotchmaster/storefront-fulfillment/internal/apperr"
	"github.com/Skotchmaster/storefront-fulfillment/internal/cache"
	"github.com/Skotchmaster/storefront-fulfillment/internal/gateway"
	"github.com/Skotchmaster/storefront-fulfillment/internal/logging"
	"github.com/Skotchmaster/storefront-fulfillment/internal/models"
	"github.com/Skotchmaster/storefront-fulfillment/internal/repo"
)

type IntentionCreator interface {
	CreateIntention(ctx context.Context, in gateway.IntentionRequest) (*gateway.Intention, error)
}

type StatusStore interface {
	GetStatus(ctx context.Context, orderID string) (cache.OrderStatus, bool, error)
	SetStatus(ctx context.Context, s cache.OrderStatus) error
}

type Service struct {
	Repo           *repo.GormRepo
	Gateway        IntentionCreator
	Cache          StatusStore
	IntegrationIDs []int
}

type Started struct {
	OrderID        uuid.UUID `json:"order_id"`
	GatewayOrderID string    `json:"gateway_order_id"`
	ClientSecret   string    `json:"client_secret"`
	RedirectURL    string    `json:"redirect_url"`
}

func payable(o *models.Order) error {
	if o.Status != models.StatusPending {
		return apperr.Conflict("order %s is %s", o.MerchantOrderID, o.Status)
	}
	if o.PaymentStatus != models.PaymentPending && o.PaymentStatus != models.PaymentFailed {
		return apperr.Conflict("order %s payment is %s", o.MerchantOrderID, o.PaymentStatus)
	}
	return nil
}

// StartPayment creates a gateway intention for the customer's pending order
// and remembers the gateway order id for callback correlation.
func (s *Service) StartPayment(ctx context.Context, orderID, userID uuid.UUID) (*Started, error) {
	l := logging.FromContext(ctx).With(zap.String("order_id", orderID.String()))

	o, err := s.Repo.GetOrder(ctx, orderID, false)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, apperr.NotFound("order %s not found", orderID)
	}
	if err := payable(o); err != nil {
		return nil, err
	}

	in, err := s.Gateway.CreateIntention(ctx, gateway.IntentionRequest{
		Amount:          o.Total,
		Currency:        o.Currency,
		MerchantOrderID: o.MerchantOrderID,
		IntegrationIDs:  s.IntegrationIDs,
		Billing: gateway.BillingData{
			FirstName:   "NA",
			LastName:    "NA",
			Email:       o.CustomerEmail,
			PhoneNumber: "NA",
		},
	})
	if err != nil {
		l.Error("create_intention_error", zap.Error(err))
		return nil, err
	}

	err = s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		locked, err := tx.GetOrder(ctx, orderID, true)
		if err != nil {
			return err
		}
		if err := payable(locked); err != nil {
			return err
		}
		return tx.SetGatewayOrderID(ctx, orderID, in.GatewayOrderID)
	})
	if err != nil {
		return nil, err
	}

	l.Info("payment_started", zap.String("gateway_order_id", in.GatewayOrderID))
	return &Started{
		OrderID:        orderID,
		GatewayOrderID: in.GatewayOrderID,
		ClientSecret:   in.ClientSecret,
		RedirectURL:    in.RedirectURL,
	}, nil
}

// Status reads the cached order status, falling back to the database and
// repopulating the cache on a miss.
func (s *Service) Status(ctx context.Context, orderID, userID uuid.UUID) (*cache.OrderStatus, error) {
	l := logging.FromContext(ctx).With(zap.String("order_id", orderID.String()))

	if s.Cache != nil {
		st, found, err := s.Cache.GetStatus(ctx, orderID.String())
		switch {
		case err != nil:
			l.Warn("status_cache_read_error", zap.Error(err))
		case found && st.UserID == userID.String():
			return &st, nil
		case found:
			return nil, apperr.NotFound("order %s not found", orderID)
		}
	}

	o, err := s.Repo.GetOrder(ctx, orderID, false)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, apperr.NotFound("order %s not found", orderID)
	}

	st := cache.OrderStatus{
		OrderID:         o.ID.String(),
		MerchantOrderID: o.MerchantOrderID,
		UserID:          o.UserID.String(),
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		UpdatedAt:       o.UpdatedAt,
	}
	if s.Cache != nil {
		if err := s.Cache.SetStatus(ctx, st); err != nil {
			l.Warn("status_cache_error", zap.Error(err))
		}
	}
	return &st, nil
}
