// Package inventory returns cancelled quantities to the counter they were
// sold from. Products are stocked in one of three ways: a plain product
// counter, per-color variants mirrored into the product counter, or
// per-color units inside a storage option.
package inventory

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Skotchmaster/storefront-fulfillment/internal/apperr"
	"github.com/Skotchmaster/storefront-fulfillment/internal/logging"
	"github.com/Skotchmaster/storefront-fulfillment/internal/models"
)

type Store interface {
	FindStorage(ctx context.Context, productID, storageID uuid.UUID) (*models.Storage, error)
	FindUnit(ctx context.Context, storageID, unitID uuid.UUID) (*models.StorageUnit, error)
	FindUnitByColor(ctx context.Context, storageID uuid.UUID, color string) (*models.StorageUnit, error)
	FirstUnit(ctx context.Context, storageID uuid.UUID) (*models.StorageUnit, error)
	FindVariantByColor(ctx context.Context, productID uuid.UUID, color string) (*models.ProductVariant, error)

	IncrementProductStock(ctx context.Context, productID uuid.UUID, n int) error
	IncrementVariantQuantity(ctx context.Context, variantID uuid.UUID, n int) error
	IncrementUnitStock(ctx context.Context, unitID uuid.UUID, n int) error
}

type Reference struct {
	ProductID uuid.UUID
	StorageID *uuid.UUID
	UnitID    *uuid.UUID
	Color     *string
}

func ReferenceOf(item models.OrderItem) Reference {
	return Reference{
		ProductID: item.ProductID,
		StorageID: item.StorageID,
		UnitID:    item.UnitID,
		Color:     item.Color,
	}
}

type Counter string

const (
	CounterProduct Counter = "product"
	CounterVariant Counter = "variant"
	CounterUnit    Counter = "unit"
)

// Resolution tells which counter received the quantity. Fallback is set when
// a color could not be matched inside a storage and the first unit was used.
type Resolution struct {
	Counter  Counter
	TargetID uuid.UUID
	Fallback bool
}

type Ledger struct{}

// Restore increments the counter ref points at by qty. It must run inside the
// caller's transaction, store is expected to be bound to it.
func (Ledger) Restore(ctx context.Context, store Store, ref Reference, qty int) (Resolution, error) {
	if qty <= 0 {
		return Resolution{}, apperr.Validation("restore quantity must be > 0, got %d", qty)
	}
	if ref.ProductID == uuid.Nil {
		return Resolution{}, apperr.Validation("product_id required")
	}

	color := ""
	if ref.Color != nil {
		color = strings.TrimSpace(*ref.Color)
	}

	if ref.StorageID != nil {
		return restoreStorage(ctx, store, ref, color, qty)
	}

	if color != "" {
		v, err := store.FindVariantByColor(ctx, ref.ProductID, color)
		if err != nil {
			return Resolution{}, err
		}
		if err := store.IncrementVariantQuantity(ctx, v.ID, qty); err != nil {
			return Resolution{}, err
		}
		if err := store.IncrementProductStock(ctx, ref.ProductID, qty); err != nil {
			return Resolution{}, err
		}
		return Resolution{Counter: CounterVariant, TargetID: v.ID}, nil
	}

	if err := store.IncrementProductStock(ctx, ref.ProductID, qty); err != nil {
		return Resolution{}, err
	}
	return Resolution{Counter: CounterProduct, TargetID: ref.ProductID}, nil
}

func restoreStorage(ctx context.Context, store Store, ref Reference, color string, qty int) (Resolution, error) {
	storage, err := store.FindStorage(ctx, ref.ProductID, *ref.StorageID)
	if err != nil {
		return Resolution{}, err
	}

	var (
		unit     *models.StorageUnit
		fallback bool
	)
	switch {
	case ref.UnitID != nil:
		unit, err = store.FindUnit(ctx, storage.ID, *ref.UnitID)
	case color != "":
		unit, err = store.FindUnitByColor(ctx, storage.ID, color)
		if errors.Is(err, apperr.ErrNotFound) {
			unit, err = store.FirstUnit(ctx, storage.ID)
			fallback = err == nil
		}
	default:
		unit, err = store.FirstUnit(ctx, storage.ID)
	}
	if err != nil {
		return Resolution{}, err
	}

	if fallback {
		logging.FromContext(ctx).Warn("inventory_restore_color_fallback",
			zap.String("product_id", ref.ProductID.String()),
			zap.String("storage_id", storage.ID.String()),
			zap.String("color", color),
			zap.String("unit_id", unit.ID.String()),
		)
	}

	if err := store.IncrementUnitStock(ctx, unit.ID, qty); err != nil {
		return Resolution{}, err
	}
	return Resolution{Counter: CounterUnit, TargetID: unit.ID, Fallback: fallback}, nil
}
