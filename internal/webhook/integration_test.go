//go:build integration

package webhook

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront-fulfillment/internal/db"
	"github.com/Skotchmaster/storefront-fulfillment/internal/inventory"
	"github.com/Skotchmaster/storefront-fulfillment/internal/migrate"
	"github.com/Skotchmaster/storefront-fulfillment/internal/repo"
	"github.com/Skotchmaster/storefront-fulfillment/internal/testutil"
)

func newPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("fulfillment"),
		postgres.WithUsername("fulfillment"),
		postgres.WithPassword("fulfillment"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	gdb, err := db.Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, migrate.Run(ctx, gdb, zap.NewNop(), migrate.DefaultOptions()))
	return gdb
}

func TestPostgres_ConcurrentDeliveriesApplyOnce(t *testing.T) {
	gdb := newPostgres(t)
	prod := testutil.SeedProduct(t, gdb, "phone", 0)
	o := testutil.SeedOrder(t, gdb, "ORD-PG-1", uuid.New(), testutil.Item(prod.ID, 3, "10.00"))
	r := newReconciler(gdb)

	raw := payload{merchantID: "ORD-PG-1", gatewayOrderID: "1", txnID: "900"}.raw()
	sig := sign(t, raw)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.ReconcileProcessed(context.Background(), raw, sig)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.EqualValues(t, 1, historyCount(t, gdb, o.ID))
	assert.Equal(t, 3, testutil.ReloadProduct(t, gdb, prod.ID).Stock)
}

func TestPostgres_ConcurrentRestoresDoNotLoseUpdates(t *testing.T) {
	gdb := newPostgres(t)
	prod := testutil.SeedProduct(t, gdb, "case", 0)
	storage := testutil.SeedStorage(t, gdb, prod.ID, "128GB")
	unit := testutil.SeedUnit(t, gdb, storage.ID, "black", 0, 0)
	store := repo.New(gdb)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.WithTx(context.Background(), func(tx *repo.GormRepo) error {
				_, err := inventory.Ledger{}.Restore(context.Background(), tx, inventory.Reference{
					ProductID: prod.ID,
					StorageID: &storage.ID,
					Color:     testutil.Ptr("black"),
				}, 1)
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, testutil.ReloadUnit(t, gdb, unit.ID).Stock)
}
