package transport

import (
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront-fulfillment/internal/models"
)

type CancelItemRequest struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}

type CancelItemsRequest struct {
	Items   []CancelItemRequest `json:"items"`
	Comment string              `json:"comment"`
	Status  *string             `json:"status"`
}

type OrderItemResponse struct {
	ID        uuid.UUID  `json:"id"`
	ProductID uuid.UUID  `json:"product_id"`
	Quantity  int        `json:"quantity"`
	UnitPrice string     `json:"unit_price"`
	Color     *string    `json:"color,omitempty"`
	StorageID *uuid.UUID `json:"storage_id,omitempty"`
	UnitID    *uuid.UUID `json:"unit_id,omitempty"`
}

type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	MerchantOrderID string              `json:"merchant_order_id"`
	Status          string              `json:"status"`
	PaymentStatus   string              `json:"payment_status"`
	Total           string              `json:"total"`
	Currency        string              `json:"currency"`
	Items           []OrderItemResponse `json:"items"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func NewOrderResponse(o *models.Order) OrderResponse {
	out := OrderResponse{
		ID:              o.ID,
		MerchantOrderID: o.MerchantOrderID,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		Total:           o.Total.StringFixed(2),
		Currency:        o.Currency,
		Items:           make([]OrderItemResponse, 0, len(o.Items)),
		UpdatedAt:       o.UpdatedAt,
	}
	for _, it := range o.Items {
		out.Items = append(out.Items, OrderItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.StringFixed(2),
			Color:     it.Color,
			StorageID: it.StorageID,
			UnitID:    it.UnitID,
		})
	}
	return out
}

type CancelItemsResponse struct {
	ProcessedItems         int           `json:"processed_items"`
	TotalCancelledQuantity int           `json:"total_cancelled_quantity"`
	Order                  OrderResponse `json:"order"`
}

type WebhookResponse struct {
	OK       bool      `json:"ok"`
	OrderID  uuid.UUID `json:"order_id"`
	Outcome  string    `json:"outcome"`
	Replayed bool      `json:"replayed,omitempty"`
	Stale    bool      `json:"stale,omitempty"`
}

type PaymentResponse struct {
	OrderID      uuid.UUID `json:"order_id"`
	RedirectURL  string    `json:"redirect_url"`
	ClientSecret string    `json:"client_secret"`
}

type HistoryEntry struct {
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status,omitempty"`
	Comment       string    `json:"comment,omitempty"`
	Source        string    `json:"source,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
