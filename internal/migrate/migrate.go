package migrate

import (
	"context"

	"github.com/Skotchmaster/storefront-fulfillment/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Options struct {
	CreateChecks  bool // CHECK constraints on statuses and counters
	CreateIndexes bool
	CreateFKs     bool // order_items and history -> orders
}

func DefaultOptions() Options {
	return Options{
		CreateChecks:  true,
		CreateIndexes: true,
		CreateFKs:     true,
	}
}

type statement struct {
	name string
	sql  string
}

var checks = []statement{
	{"chk_orders_status_allowed", `
ALTER TABLE orders DROP CONSTRAINT IF EXISTS chk_orders_status_allowed;
ALTER TABLE orders ADD CONSTRAINT chk_orders_status_allowed
  CHECK (status IN ('PENDING','PROCESSING','SHIPPED','DELIVERED','CANCELLED'));`},
	{"chk_orders_payment_status_allowed", `
ALTER TABLE orders DROP CONSTRAINT IF EXISTS chk_orders_payment_status_allowed;
ALTER TABLE orders ADD CONSTRAINT chk_orders_payment_status_allowed
  CHECK (payment_status IN ('PENDING','SUCCESS','FAILED','REFUNDED'));`},
	{"chk_orders_total_non_negative", `
ALTER TABLE orders DROP CONSTRAINT IF EXISTS chk_orders_total_non_negative;
ALTER TABLE orders ADD CONSTRAINT chk_orders_total_non_negative CHECK (total >= 0);`},
	{"chk_order_items_unit_price_non_negative", `
ALTER TABLE order_items DROP CONSTRAINT IF EXISTS chk_order_items_unit_price_non_negative;
ALTER TABLE order_items ADD CONSTRAINT chk_order_items_unit_price_non_negative CHECK (unit_price >= 0);`},
	{"chk_products_stock_non_negative", `
ALTER TABLE products DROP CONSTRAINT IF EXISTS chk_products_stock_non_negative;
ALTER TABLE products ADD CONSTRAINT chk_products_stock_non_negative CHECK (stock >= 0);`},
	{"chk_product_variants_quantity_non_negative", `
ALTER TABLE product_variants DROP CONSTRAINT IF EXISTS chk_product_variants_quantity_non_negative;
ALTER TABLE product_variants ADD CONSTRAINT chk_product_variants_quantity_non_negative CHECK (quantity >= 0);`},
	{"chk_storage_units_stock_non_negative", `
ALTER TABLE storage_units DROP CONSTRAINT IF EXISTS chk_storage_units_stock_non_negative;
ALTER TABLE storage_units ADD CONSTRAINT chk_storage_units_stock_non_negative CHECK (stock >= 0);`},
}

var indexes = []statement{
	{"ix_orders_user_created", `CREATE INDEX IF NOT EXISTS ix_orders_user_created ON orders (user_id, created_at DESC);`},
	{"ix_orders_status_created", `CREATE INDEX IF NOT EXISTS ix_orders_status_created ON orders (status, created_at DESC);`},
	{"ix_history_order_created", `CREATE INDEX IF NOT EXISTS ix_history_order_created ON order_status_history (order_id, created_at DESC);`},
	{"ix_storage_units_storage_position", `CREATE INDEX IF NOT EXISTS ix_storage_units_storage_position ON storage_units (storage_id, position, id);`},
}

var fks = []statement{
	{"fk_order_items_order", `
ALTER TABLE order_items
  DROP CONSTRAINT IF EXISTS fk_order_items_order,
  ADD CONSTRAINT fk_order_items_order
    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE;`},
	{"fk_order_status_history_order", `
ALTER TABLE order_status_history
  DROP CONSTRAINT IF EXISTS fk_order_status_history_order,
  ADD CONSTRAINT fk_order_status_history_order
    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE;`},
}

func Models() []any {
	return []any{
		&models.Product{},
		&models.ProductVariant{},
		&models.Storage{},
		&models.StorageUnit{},
		&models.Order{},
		&models.OrderItem{},
		&models.StatusHistory{},
	}
}

// Run creates the schema. The SQL constraint passes only apply to postgres,
// other dialects get the tables from AutoMigrate alone.
func Run(ctx context.Context, db *gorm.DB, log *zap.Logger, opt Options) error {
	db = db.WithContext(ctx)
	log.Info("migration started")

	if err := db.AutoMigrate(Models()...); err != nil {
		log.Error("auto migrate failed", zap.Error(err))
		return err
	}

	if db.Dialector.Name() != "postgres" {
		log.Info("migration finished", zap.String("dialect", db.Dialector.Name()))
		return nil
	}

	passes := []struct {
		enabled bool
		stmts   []statement
	}{
		{opt.CreateChecks, checks},
		{opt.CreateIndexes, indexes},
		{opt.CreateFKs, fks},
	}
	for _, p := range passes {
		if !p.enabled {
			continue
		}
		for _, s := range p.stmts {
			if err := db.Exec(s.sql).Error; err != nil {
				log.Error("migration statement failed", zap.String("name", s.name), zap.Error(err))
				return err
			}
			log.Debug("migration statement applied", zap.String("name", s.name))
		}
	}

	log.Info("migration finished")
	return nil
}
