package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderCancelled       = "OrderCancelled"
	EventOrderItemsCancelled  = "OrderItemsCancelled"
	EventPaymentStatusChanged = "PaymentStatusChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderCancelledPayload struct {
	OrderID         string `json:"order_id"`
	MerchantOrderID string `json:"merchant_order_id"`
	RestoredUnits   int    `json:"restored_units"`
}

type CancelledLine struct {
	ItemID    string `json:"item_id"`
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
	Removed   bool   `json:"removed"`
}

type OrderItemsCancelledPayload struct {
	OrderID         string          `json:"order_id"`
	MerchantOrderID string          `json:"merchant_order_id"`
	TotalQty        int             `json:"total_qty"`
	Lines           []CancelledLine `json:"lines"`
}

type PaymentStatusChangedPayload struct {
	OrderID         string `json:"order_id"`
	MerchantOrderID string `json:"merchant_order_id"`
	PaymentStatus   string `json:"payment_status"`
	OrderStatus     string `json:"order_status"`
	TransactionID   string `json:"transaction_id,omitempty"`
}

// Writer is satisfied by mykafka.Producer.
type Writer interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type Publisher struct {
	W        Writer
	Topic    string
	Producer string
	Now      func() time.Time
}

// Publish wraps payload in an envelope keyed by the order id so every event of
// one order lands on the same partition.
func (p *Publisher) Publish(ctx context.Context, eventType, orderID string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    now().UTC(),
		Producer:      p.Producer,
		CorrelationID: orderID,
		Payload:       raw,
	}
	return p.W.PublishEvent(ctx, p.Topic, orderID, env)
}
