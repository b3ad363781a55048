package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/storefront-fulfillment/internal/apperr"
	"github.com/Skotchmaster/storefront-fulfillment/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func itemsByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}

// GetOrder loads an order with its items. With forUpdate the order row is
// locked until the surrounding transaction ends.
func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.Order, error) {
	var o models.Order
	if err := r.locked(ctx, forUpdate).First(&o, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "order %s", id)
	}
	if err := r.loadItems(ctx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) FindOrderByMerchantID(ctx context.Context, merchantOrderID string, forUpdate bool) (*models.Order, error) {
	var o models.Order
	if err := r.locked(ctx, forUpdate).First(&o, "merchant_order_id = ?", merchantOrderID).Error; err != nil {
		return nil, notFoundOr(err, "order %q", merchantOrderID)
	}
	return &o, nil
}

func (r *GormRepo) FindOrderByGatewayID(ctx context.Context, gatewayOrderID string, forUpdate bool) (*models.Order, error) {
	var o models.Order
	if err := r.locked(ctx, forUpdate).First(&o, "gateway_order_id = ?", gatewayOrderID).Error; err != nil {
		return nil, notFoundOr(err, "gateway order %q", gatewayOrderID)
	}
	return &o, nil
}

func (r *GormRepo) loadItems(ctx context.Context, o *models.Order) error {
	var items []models.OrderItem
	if err := itemsByID(r.conn(ctx)).Where("order_id = ?", o.ID).Find(&items).Error; err != nil {
		return apperr.Persistence(err)
	}
	o.Items = items
	return nil
}

func (r *GormRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	res := r.conn(ctx).Delete(&models.OrderItem{}, "id = ?", itemID)
	if res.Error != nil {
		return apperr.Persistence(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("order item %s", itemID)
	}
	return nil
}

// DecrementItem lowers an item quantity in place. The guard keeps the row
// strictly positive, removing the last units is DeleteItem's job.
func (r *GormRepo) DecrementItem(ctx context.Context, itemID uuid.UUID, qty int) error {
	res := r.conn(ctx).Model(&models.OrderItem{}).
		Where("id = ? AND quantity > ?", itemID, qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return apperr.Persistence(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("order item %s has fewer than %d units left", itemID, qty)
	}
	return nil
}

// AppendStatus records a history entry and moves the order header to the same
// status in one transaction. It is the only writer of orders.status.
func (r *GormRepo) AppendStatus(ctx context.Context, orderID uuid.UUID, status models.OrderStatus, comment string) (*models.StatusHistory, error) {
	entry := &models.StatusHistory{OrderID: orderID, Status: status}
	if comment != "" {
		entry.Comment = &comment
	}

	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Order{}).Where("id = ?", orderID).
			Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("order %s", orderID)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return entry, nil
}

// SetPayment writes the payment outcome. Values are absolute so replays
// converge on the same row.
func (r *GormRepo) SetPayment(ctx context.Context, orderID uuid.UUID, status models.PaymentStatus, transactionID *string) error {
	updates := map[string]any{"payment_status": status, "updated_at": time.Now().UTC()}
	if transactionID != nil {
		updates["gateway_transaction_id"] = *transactionID
	}
	res := r.conn(ctx).Model(&models.Order{}).Where("id = ?", orderID).Updates(updates)
	if res.Error != nil {
		return apperr.Persistence(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("order %s", orderID)
	}
	return nil
}

func (r *GormRepo) SetGatewayOrderID(ctx context.Context, orderID uuid.UUID, gatewayOrderID string) error {
	res := r.conn(ctx).Model(&models.Order{}).Where("id = ?", orderID).
		Updates(map[string]any{"gateway_order_id": gatewayOrderID, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return apperr.Persistence(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("order %s", orderID)
	}
	return nil
}

// ListHistory pages through an order's history, oldest first.
func (r *GormRepo) ListHistory(ctx context.Context, orderID uuid.UUID, from, limit int) ([]models.StatusHistory, error) {
	var out []models.StatusHistory
	err := r.conn(ctx).Where("order_id = ?", orderID).Order("created_at, id").
		Offset(from).Limit(limit).Find(&out).Error
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return out, nil
}

// MerchantIDForGatewayOrder is a read-only lookup used by the browser
// redirect.
func (r *GormRepo) MerchantIDForGatewayOrder(ctx context.Context, gatewayOrderID string) (string, error) {
	o, err := r.FindOrderByGatewayID(ctx, gatewayOrderID, false)
	if err != nil {
		return "", err
	}
	return o.MerchantOrderID, nil
}
