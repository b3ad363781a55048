package webhook

import (
	"fmt"

	"github.com/Skotchmaster/storefront-fulfillment/internal/apperr"
	"github.com/Skotchmaster/storefront-fulfillment/internal/models"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomePending Outcome = "pending"
)

// ErrUnmappedOutcome is returned for success=true with pending=true. The
// gateway documents no meaning for it, so it is never mapped to a state.
var ErrUnmappedOutcome = fmt.Errorf("%w: success and pending are both set", apperr.ErrValidation)

func DeriveOutcome(success, pending bool) (Outcome, error) {
	switch {
	case success && !pending:
		return OutcomeSuccess, nil
	case !success && pending:
		return OutcomePending, nil
	case !success && !pending:
		return OutcomeFailed, nil
	}
	return "", ErrUnmappedOutcome
}

// Target is the payment and order status an outcome moves the order to.
func (o Outcome) Target() (models.PaymentStatus, models.OrderStatus) {
	switch o {
	case OutcomeSuccess:
		return models.PaymentSuccess, models.StatusProcessing
	case OutcomePending:
		return models.PaymentPending, models.StatusPending
	default:
		return models.PaymentFailed, models.StatusCancelled
	}
}
