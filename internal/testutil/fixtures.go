package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront-fulfillment/internal/models"
)

func Ptr[T any](v T) *T {
	return &v
}

func SeedProduct(t *testing.T, db *gorm.DB, name string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Stock: stock}
	require.NoError(t, db.Create(p).Error)
	return p
}

func SeedVariant(t *testing.T, db *gorm.DB, productID uuid.UUID, color string, qty int) *models.ProductVariant {
	t.Helper()
	v := &models.ProductVariant{ProductID: productID, Color: color, Quantity: qty}
	require.NoError(t, db.Create(v).Error)
	return v
}

func SeedStorage(t *testing.T, db *gorm.DB, productID uuid.UUID, label string) *models.Storage {
	t.Helper()
	s := &models.Storage{ProductID: productID, Label: label}
	require.NoError(t, db.Create(s).Error)
	return s
}

func SeedUnit(t *testing.T, db *gorm.DB, storageID uuid.UUID, color string, stock, position int) *models.StorageUnit {
	t.Helper()
	u := &models.StorageUnit{StorageID: storageID, Color: color, Stock: stock, Position: position}
	require.NoError(t, db.Create(u).Error)
	return u
}

// SeedOrder stores a pending order owned by userID with the given items.
func SeedOrder(t *testing.T, db *gorm.DB, merchantID string, userID uuid.UUID, items ...models.OrderItem) *models.Order {
	t.Helper()
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	o := &models.Order{
		MerchantOrderID: merchantID,
		UserID:          userID,
		CustomerEmail:   "customer@example.com",
		Status:          models.StatusPending,
		PaymentStatus:   models.PaymentPending,
		Total:           total,
		Currency:        "EGP",
		Items:           items,
	}
	require.NoError(t, db.Create(o).Error)
	return o
}

func Item(productID uuid.UUID, qty int, price string) models.OrderItem {
	return models.OrderItem{ProductID: productID, Quantity: qty, UnitPrice: decimal.RequireFromString(price)}
}

func ReloadProduct(t *testing.T, db *gorm.DB, id uuid.UUID) models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, "id = ?", id).Error)
	return p
}

func ReloadVariant(t *testing.T, db *gorm.DB, id uuid.UUID) models.ProductVariant {
	t.Helper()
	var v models.ProductVariant
	require.NoError(t, db.First(&v, "id = ?", id).Error)
	return v
}

func ReloadUnit(t *testing.T, db *gorm.DB, id uuid.UUID) models.StorageUnit {
	t.Helper()
	var u models.StorageUnit
	require.NoError(t, db.First(&u, "id = ?", id).Error)
	return u
}

func ReloadOrder(t *testing.T, db *gorm.DB, id uuid.UUID) models.Order {
	t.Helper()
	var o models.Order
	require.NoError(t, db.Preload("Items").Preload("History").First(&o, "id = ?", id).Error)
	return o
}
