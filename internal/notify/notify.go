// Package notify delivers customer emails. Rendering belongs to the mail
// worker, this side only ships the template name and its data.
package notify

import (
	"context"

	"go.uber.org/zap"
)

const (
	TemplateOrderCancelled = "order_cancelled"
	TemplatePaymentSuccess = "payment_success"
	TemplatePaymentFailed  = "payment_failed"
)

type Email struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data"`
}

type Notifier interface {
	Notify(ctx context.Context, msg Email) error
}

// LogNotifier only records what would have been sent.
type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) Notify(_ context.Context, msg Email) error {
	n.Log.Info("email_skipped", zap.String("to", msg.To), zap.String("template", msg.Template))
	return nil
}
