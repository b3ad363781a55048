package repo

import (
	"context"
	"strings"

	"github.com/Skotchmaster/storefront-fulfillment/internal/apperr"
	"github.com/Skotchmaster/storefront-fulfillment/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (r *GormRepo) FindStorage(ctx context.Context, productID, storageID uuid.UUID) (*models.Storage, error) {
	var s models.Storage
	if err := r.conn(ctx).First(&s, "id = ? AND product_id = ?", storageID, productID).Error; err != nil {
		return nil, notFoundOr(err, "storage %s of product %s", storageID, productID)
	}
	return &s, nil
}

func (r *GormRepo) FindUnit(ctx context.Context, storageID, unitID uuid.UUID) (*models.StorageUnit, error) {
	var u models.StorageUnit
	if err := r.conn(ctx).First(&u, "id = ? AND storage_id = ?", unitID, storageID).Error; err != nil {
		return nil, notFoundOr(err, "unit %s of storage %s", unitID, storageID)
	}
	return &u, nil
}

// FindUnitByColor matches colors case-insensitively after trimming.
func (r *GormRepo) FindUnitByColor(ctx context.Context, storageID uuid.UUID, color string) (*models.StorageUnit, error) {
	var u models.StorageUnit
	err := r.conn(ctx).
		Where("storage_id = ? AND LOWER(TRIM(color)) = ?", storageID, normColor(color)).
		Order("position, id").
		First(&u).Error
	if err != nil {
		return nil, notFoundOr(err, "unit %q of storage %s", color, storageID)
	}
	return &u, nil
}

// FirstUnit is the unit with the lowest position, ties broken by id.
func (r *GormRepo) FirstUnit(ctx context.Context, storageID uuid.UUID) (*models.StorageUnit, error) {
	var u models.StorageUnit
	if err := r.conn(ctx).Where("storage_id = ?", storageID).Order("position, id").First(&u).Error; err != nil {
		return nil, notFoundOr(err, "storage %s has no units", storageID)
	}
	return &u, nil
}

func (r *GormRepo) FindVariantByColor(ctx context.Context, productID uuid.UUID, color string) (*models.ProductVariant, error) {
	var v models.ProductVariant
	err := r.conn(ctx).
		Where("product_id = ? AND LOWER(TRIM(color)) = ?", productID, normColor(color)).
		First(&v).Error
	if err != nil {
		return nil, notFoundOr(err, "variant %q of product %s", color, productID)
	}
	return &v, nil
}

func (r *GormRepo) IncrementProductStock(ctx context.Context, productID uuid.UUID, n int) error {
	return r.increment(ctx, &models.Product{}, "stock", productID, n, "product")
}

func (r *GormRepo) IncrementVariantQuantity(ctx context.Context, variantID uuid.UUID, n int) error {
	return r.increment(ctx, &models.ProductVariant{}, "quantity", variantID, n, "variant")
}

func (r *GormRepo) IncrementUnitStock(ctx context.Context, unitID uuid.UUID, n int) error {
	return r.increment(ctx, &models.StorageUnit{}, "stock", unitID, n, "unit")
}

func (r *GormRepo) increment(ctx context.Context, model any, column string, id uuid.UUID, n int, kind string) error {
	res := r.conn(ctx).Model(model).Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", n))
	if res.Error != nil {
		return apperr.Persistence(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("%s %s", kind, id)
	}
	return nil
}

// StorageAvailability is the sum of unit stock in a storage.
func (r *GormRepo) StorageAvailability(ctx context.Context, storageID uuid.UUID) (int, error) {
	var total int64
	err := r.conn(ctx).Model(&models.StorageUnit{}).
		Where("storage_id = ?", storageID).
		Select("COALESCE(SUM(stock), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, apperr.Persistence(err)
	}
	return int(total), nil
}

func normColor(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}
