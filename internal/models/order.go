package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Order struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey"                   json:"id"`
	MerchantOrderID      string          `gorm:"uniqueIndex;not null"                   json:"merchant_order_id"`
	UserID               uuid.UUID       `gorm:"type:uuid;index;not null"               json:"user_id"`
	CustomerEmail        string          `gorm:"not null"                               json:"customer_email"`
	Status               OrderStatus     `gorm:"type:varchar(16);not null;default:PENDING" json:"status"`
	PaymentStatus        PaymentStatus   `gorm:"type:varchar(16);not null;default:PENDING" json:"payment_status"`
	Total                decimal.Decimal `gorm:"type:numeric(12,2);not null"            json:"total"`
	Currency             string          `gorm:"type:varchar(3);not null;default:EGP"   json:"currency"`
	GatewayOrderID       *string         `gorm:"index"                                  json:"gateway_order_id,omitempty"`
	GatewayTransactionID *string         `                                              json:"gateway_transaction_id,omitempty"`
	CreatedAt            time.Time       `                                              json:"created_at"`
	UpdatedAt            time.Time       `                                              json:"updated_at"`

	Items   []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	History []StatusHistory `gorm:"foreignKey:OrderID" json:"history,omitempty"`
}

// OrderItem keeps the price captured at checkout. It is never recomputed.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"        json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null"    json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"          json:"product_id"`
	Quantity  int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Color     *string         `                                   json:"color,omitempty"`
	StorageID *uuid.UUID      `gorm:"type:uuid"                   json:"storage_id,omitempty"`
	UnitID    *uuid.UUID      `gorm:"type:uuid"                   json:"unit_id,omitempty"`
}

// StatusHistory is append-only.
type StatusHistory struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey"     json:"id"`
	OrderID   uuid.UUID   `gorm:"type:uuid;index;not null" json:"order_id"`
	Status    OrderStatus `gorm:"type:varchar(16);not null" json:"status"`
	Comment   *string     `                                json:"comment,omitempty"`
	CreatedAt time.Time   `gorm:"index"                    json:"created_at"`
}

func (StatusHistory) TableName() string {
	return "order_status_history"
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// History ids are UUIDv7 so that entries sharing a created_at still sort
// in append order.
func (h *StatusHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID != uuid.Nil {
		return nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	h.ID = id
	return nil
}

// LineTotal is quantity times the captured unit price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
