package cancellation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront-fulfillment/internal/apperr"
	"github.com/Skotchmaster/storefront-fulfillment/internal/models"
	"github.com/Skotchmaster/storefront-fulfillment/internal/repo"
	"github.com/Skotchmaster/storefront-fulfillment/internal/testutil"
)

func TestCancelItems_PartialThenRemainder(t *testing.T) {
	db := testutil.NewDB(t)
	phone := testutil.SeedProduct(t, db, "phone", 0)
	storage := testutil.SeedStorage(t, db, phone.ID, "256GB")
	unit := testutil.SeedUnit(t, db, storage.ID, "Blue", 10, 0)

	item := testutil.Item(phone.ID, 5, "700.00")
	item.StorageID = &storage.ID
	item.UnitID = &unit.ID
	o := testutil.SeedOrder(t, db, "ORD-20", uuid.New(), item)
	itemID := o.Items[0].ID
	p := newProcessor(db)

	res, err := p.CancelItems(context.Background(), CancelItemsInput{
		OrderID: o.ID,
		Items:   []ItemCancel{{ItemID: itemID, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ProcessedItems)
	assert.Equal(t, 2, res.TotalCancelledQuantity)

	stored := testutil.ReloadOrder(t, db, o.ID)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 3, stored.Items[0].Quantity)
	assert.Equal(t, 12, testutil.ReloadUnit(t, db, unit.ID).Stock)
	assert.Equal(t, models.StatusPending, stored.Status)
	require.Len(t, stored.History, 1)
	assert.Contains(t, *stored.History[0].Comment, "2 item(s) cancelled")

	res, err = p.CancelItems(context.Background(), CancelItemsInput{
		OrderID: o.ID,
		Items:   []ItemCancel{{ItemID: itemID, Quantity: 0}},
		Comment: "customer called",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalCancelledQuantity)
	assert.True(t, res.Lines[0].Removed)
	assert.Empty(t, res.Order.Items)

	stored = testutil.ReloadOrder(t, db, o.ID)
	assert.Empty(t, stored.Items)
	assert.Equal(t, 15, testutil.ReloadUnit(t, db, unit.ID).Stock)
	assert.Len(t, stored.History, 2)
}

func TestCancelItems_OverCancelChangesNothing(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.SeedProduct(t, db, "a", 1)
	b := testutil.SeedProduct(t, db, "b", 1)
	o := testutil.SeedOrder(t, db, "ORD-21", uuid.New(), testutil.Item(a.ID, 2, "1.00"), testutil.Item(b.ID, 1, "1.00"))

	var aItem, bItem uuid.UUID
	for _, it := range o.Items {
		if it.ProductID == a.ID {
			aItem = it.ID
		} else {
			bItem = it.ID
		}
	}

	_, err := newProcessor(db).CancelItems(context.Background(), CancelItemsInput{
		OrderID: o.ID,
		Items:   []ItemCancel{{ItemID: aItem, Quantity: 1}, {ItemID: bItem, Quantity: 2}},
	})
	require.ErrorIs(t, err, apperr.ErrConflict)

	stored := testutil.ReloadOrder(t, db, o.ID)
	total := 0
	for _, it := range stored.Items {
		total += it.Quantity
	}
	assert.Equal(t, 3, total)
	assert.Equal(t, 1, testutil.ReloadProduct(t, db, a.ID).Stock)
	assert.Equal(t, 1, testutil.ReloadProduct(t, db, b.ID).Stock)
	assert.Empty(t, stored.History)
}

func TestCancelItems_Validation(t *testing.T) {
	db := testutil.NewDB(t)
	prod := testutil.SeedProduct(t, db, "a", 1)
	o := testutil.SeedOrder(t, db, "ORD-22", uuid.New(), testutil.Item(prod.ID, 2, "1.00"))
	itemID := o.Items[0].ID
	bogus := models.OrderStatus("LOST")
	p := newProcessor(db)

	tests := []struct {
		name string
		in   CancelItemsInput
		want error
	}{
		{"empty", CancelItemsInput{OrderID: o.ID}, apperr.ErrValidation},
		{"negative", CancelItemsInput{OrderID: o.ID, Items: []ItemCancel{{ItemID: itemID, Quantity: -1}}}, apperr.ErrValidation},
		{"duplicate", CancelItemsInput{OrderID: o.ID, Items: []ItemCancel{{ItemID: itemID, Quantity: 1}, {ItemID: itemID, Quantity: 1}}}, apperr.ErrValidation},
		{"unknown status", CancelItemsInput{OrderID: o.ID, Items: []ItemCancel{{ItemID: itemID}}, Status: &bogus}, apperr.ErrValidation},
		{"foreign item", CancelItemsInput{OrderID: o.ID, Items: []ItemCancel{{ItemID: uuid.New(), Quantity: 1}}}, apperr.ErrNotFound},
		{"unknown order", CancelItemsInput{OrderID: uuid.New(), Items: []ItemCancel{{ItemID: itemID, Quantity: 1}}}, apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.CancelItems(context.Background(), tt.in)
			require.ErrorIs(t, err, tt.want)
		})
	}

	assert.Equal(t, 2, testutil.ReloadOrder(t, db, o.ID).Items[0].Quantity)
	assert.Equal(t, 1, testutil.ReloadProduct(t, db, prod.ID).Stock)
}

func TestCancelItems_ExplicitStatus(t *testing.T) {
	db := testutil.NewDB(t)
	prod := testutil.SeedProduct(t, db, "a", 0)
	o := testutil.SeedOrder(t, db, "ORD-23", uuid.New(), testutil.Item(prod.ID, 4, "1.00"))
	itemID := o.Items[0].ID
	p := newProcessor(db)

	shipped := models.StatusShipped
	_, err := p.CancelItems(context.Background(), CancelItemsInput{OrderID: o.ID, Items: []ItemCancel{{ItemID: itemID, Quantity: 1}}, Status: &shipped})
	require.ErrorIs(t, err, apperr.ErrConflict)

	processing := models.StatusProcessing
	res, err := p.CancelItems(context.Background(), CancelItemsInput{OrderID: o.ID, Items: []ItemCancel{{ItemID: itemID, Quantity: 1}}, Status: &processing})
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, res.Order.Status)

	stored := testutil.ReloadOrder(t, db, o.ID)
	assert.Equal(t, models.StatusProcessing, stored.Status)
	assert.Equal(t, 3, stored.Items[0].Quantity)
	assert.Equal(t, 1, testutil.ReloadProduct(t, db, prod.ID).Stock)
}

func TestCancelItems_TerminalOrder(t *testing.T) {
	db := testutil.NewDB(t)
	prod := testutil.SeedProduct(t, db, "a", 0)
	o := testutil.SeedOrder(t, db, "ORD-24", uuid.New(), testutil.Item(prod.ID, 4, "1.00"))
	_, err := repo.New(db).AppendStatus(context.Background(), o.ID, models.StatusCancelled, "")
	require.NoError(t, err)

	_, err = newProcessor(db).CancelItems(context.Background(), CancelItemsInput{OrderID: o.ID, Items: []ItemCancel{{ItemID: o.Items[0].ID, Quantity: 1}}})
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, 0, testutil.ReloadProduct(t, db, prod.ID).Stock)
}
