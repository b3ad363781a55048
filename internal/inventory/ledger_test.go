package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront-fulfillment/internal/apperr"
	"github.com/Skotchmaster/storefront-fulfillment/internal/repo"
	"github.com/Skotchmaster/storefront-fulfillment/internal/testutil"
)

func TestRestore_SimpleProduct(t *testing.T) {
	db := testutil.NewDB(t)
	p := testutil.SeedProduct(t, db, "cable", 7)

	res, err := Ledger{}.Restore(context.Background(), repo.New(db), Reference{ProductID: p.ID}, 3)
	require.NoError(t, err)

	assert.Equal(t, CounterProduct, res.Counter)
	assert.Equal(t, 10, testutil.ReloadProduct(t, db, p.ID).Stock)
}

func TestRestore_ColorVariantMovesBothCounters(t *testing.T) {
	db := testutil.NewDB(t)
	p := testutil.SeedProduct(t, db, "shirt", 5)
	red := testutil.SeedVariant(t, db, p.ID, "Red", 2)
	blue := testutil.SeedVariant(t, db, p.ID, "Blue", 3)

	res, err := Ledger{}.Restore(context.Background(), repo.New(db), Reference{ProductID: p.ID, Color: testutil.Ptr(" red ")}, 2)
	require.NoError(t, err)

	assert.Equal(t, CounterVariant, res.Counter)
	assert.Equal(t, red.ID, res.TargetID)
	assert.Equal(t, 4, testutil.ReloadVariant(t, db, red.ID).Quantity)
	assert.Equal(t, 3, testutil.ReloadVariant(t, db, blue.ID).Quantity)
	assert.Equal(t, 7, testutil.ReloadProduct(t, db, p.ID).Stock)
}

func TestRestore_MissingVariant(t *testing.T) {
	db := testutil.NewDB(t)
	p := testutil.SeedProduct(t, db, "shirt", 5)

	_, err := Ledger{}.Restore(context.Background(), repo.New(db), Reference{ProductID: p.ID, Color: testutil.Ptr("Green")}, 1)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 5, testutil.ReloadProduct(t, db, p.ID).Stock)
}

func TestRestore_StorageTopology(t *testing.T) {
	db := testutil.NewDB(t)
	p := testutil.SeedProduct(t, db, "phone", 100)
	s := testutil.SeedStorage(t, db, p.ID, "256GB")
	black := testutil.SeedUnit(t, db, s.ID, "Black", 10, 0)
	white := testutil.SeedUnit(t, db, s.ID, "White", 4, 1)
	r := repo.New(db)
	ctx := context.Background()

	t.Run("explicit unit", func(t *testing.T) {
		res, err := Ledger{}.Restore(ctx, r, Reference{ProductID: p.ID, StorageID: &s.ID, UnitID: &white.ID}, 1)
		require.NoError(t, err)
		assert.Equal(t, white.ID, res.TargetID)
		assert.Equal(t, 5, testutil.ReloadUnit(t, db, white.ID).Stock)
	})

	t.Run("color match", func(t *testing.T) {
		res, err := Ledger{}.Restore(ctx, r, Reference{ProductID: p.ID, StorageID: &s.ID, Color: testutil.Ptr("WHITE")}, 1)
		require.NoError(t, err)
		assert.False(t, res.Fallback)
		assert.Equal(t, 6, testutil.ReloadUnit(t, db, white.ID).Stock)
	})

	t.Run("unknown color falls back to first unit", func(t *testing.T) {
		res, err := Ledger{}.Restore(ctx, r, Reference{ProductID: p.ID, StorageID: &s.ID, Color: testutil.Ptr("Gold")}, 2)
		require.NoError(t, err)
		assert.True(t, res.Fallback)
		assert.Equal(t, black.ID, res.TargetID)
		assert.Equal(t, 12, testutil.ReloadUnit(t, db, black.ID).Stock)
	})

	t.Run("no color uses first unit", func(t *testing.T) {
		res, err := Ledger{}.Restore(ctx, r, Reference{ProductID: p.ID, StorageID: &s.ID}, 1)
		require.NoError(t, err)
		assert.Equal(t, black.ID, res.TargetID)
		assert.Equal(t, 13, testutil.ReloadUnit(t, db, black.ID).Stock)
	})

	assert.Equal(t, 100, testutil.ReloadProduct(t, db, p.ID).Stock)
}

func TestRestore_StorageErrors(t *testing.T) {
	db := testutil.NewDB(t)
	p := testutil.SeedProduct(t, db, "phone", 0)
	empty := testutil.SeedStorage(t, db, p.ID, "64GB")
	other := testutil.SeedProduct(t, db, "other", 0)
	r := repo.New(db)
	ctx := context.Background()

	_, err := Ledger{}.Restore(ctx, r, Reference{ProductID: p.ID, StorageID: &empty.ID}, 1)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = Ledger{}.Restore(ctx, r, Reference{ProductID: other.ID, StorageID: &empty.ID}, 1)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	unknown := uuid.New()
	_, err = Ledger{}.Restore(ctx, r, Reference{ProductID: p.ID, StorageID: &empty.ID, UnitID: &unknown}, 1)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRestore_RejectsNonPositive(t *testing.T) {
	db := testutil.NewDB(t)
	p := testutil.SeedProduct(t, db, "cable", 1)

	for _, qty := range []int{0, -2} {
		_, err := Ledger{}.Restore(context.Background(), repo.New(db), Reference{ProductID: p.ID}, qty)
		require.ErrorIs(t, err, apperr.ErrValidation)
	}
	assert.Equal(t, 1, testutil.ReloadProduct(t, db, p.ID).Stock)
}
