package migrate

import (
	"context"

	"warehouse-service/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MigrateOptions struct {
	CreateExtensions       bool // pgcrypto, pg_trgm
	CreateChecks           bool // CHECK-constraint'ы
	CreateIndexes          bool // индексы, UNIQUE и частичные UNIQUE
	CreateFKsViaSQL        bool // FK через Exec после AutoMigrate
	CreateUpdatedAtTrigger bool // триггеры updated_at
	CreateSearchIndexes    bool // GIN trgm для поиска по name/sku
}

func DefaultMigrateOptions() MigrateOptions {
	return MigrateOptions{
		CreateExtensions:       true,
		CreateChecks:           true,
		CreateIndexes:          true,
		CreateFKsViaSQL:        true,
		CreateUpdatedAtTrigger: true,
		CreateSearchIndexes:    true,
	}
}

type step struct {
	name string
	sql  string
}

var updatedAtTables = []string{
	"products", "warehouses", "zones", "inventories", "suppliers",
	"product_suppliers", "supplier_orders", "user_profiles",
}

var checkSteps = []step{
	{"chk inventories.quantity", `
ALTER TABLE inventories
	DROP CONSTRAINT IF EXISTS chk_inventories_quantity_non_negative,
	ADD CONSTRAINT chk_inventories_quantity_non_negative
	CHECK (quantity >= 0);`},
	{"chk products.prices", `
ALTER TABLE products
	DROP CONSTRAINT IF EXISTS chk_products_prices_non_negative,
	ADD CONSTRAINT chk_products_prices_non_negative
	CHECK (standard_cost >= 0 AND average_cost >= 0 AND sale_price >= 0 AND unit_conversion > 0);`},
	{"chk products.tax_rate", `
ALTER TABLE products
	DROP CONSTRAINT IF EXISTS chk_products_tax_rate_range,
	ADD CONSTRAINT chk_products_tax_rate_range
	CHECK (tax_rate >= 0 AND tax_rate <= 100);`},
	{"chk products.thresholds", `
ALTER TABLE products
	DROP CONSTRAINT IF EXISTS chk_products_thresholds_non_negative,
	ADD CONSTRAINT chk_products_thresholds_non_negative
	CHECK (min_stock >= 0 AND max_stock >= 0 AND reorder_point >= 0);`},
	{"chk suppliers.status", `
ALTER TABLE suppliers
	DROP CONSTRAINT IF EXISTS chk_suppliers_status_allowed,
	ADD CONSTRAINT chk_suppliers_status_allowed
	CHECK (status IN ('ACTIVE','BLOCKED'));`},
	{"chk product_suppliers.values", `
ALTER TABLE product_suppliers
	DROP CONSTRAINT IF EXISTS chk_product_suppliers_values,
	ADD CONSTRAINT chk_product_suppliers_values
	CHECK (cost >= 0 AND lead_time_days >= 0 AND min_lot >= 0 AND discount_pct >= 0 AND discount_pct <= 100);`},
	{"chk movements.quantity", `
ALTER TABLE movements
	DROP CONSTRAINT IF EXISTS chk_movements_quantity_gt_zero,
	ADD CONSTRAINT chk_movements_quantity_gt_zero
	CHECK (quantity > 0);`},
	{"chk movements.type", `
ALTER TABLE movements
	DROP CONSTRAINT IF EXISTS chk_movements_type_allowed,
	ADD CONSTRAINT chk_movements_type_allowed
	CHECK (type IN ('INCOMING','OUTGOING','ADJUSTMENT','RETURN','TRANSFER'));`},
	{"chk supplier_orders.status", `
ALTER TABLE supplier_orders
	DROP CONSTRAINT IF EXISTS chk_supplier_orders_status_allowed,
	ADD CONSTRAINT chk_supplier_orders_status_allowed
	CHECK (status IN ('PENDING','RECEIVED','CANCELLED'));`},
	{"chk supplier_order_items.quantity", `
ALTER TABLE supplier_order_items
	DROP CONSTRAINT IF EXISTS chk_supplier_order_items_quantity_gt_zero,
	ADD CONSTRAINT chk_supplier_order_items_quantity_gt_zero
	CHECK (quantity > 0 AND unit_price >= 0);`},
	{"chk sale_items.quantity", `
ALTER TABLE sale_items
	DROP CONSTRAINT IF EXISTS chk_sale_items_quantity_gt_zero,
	ADD CONSTRAINT chk_sale_items_quantity_gt_zero
	CHECK (quantity > 0 AND unit_price >= 0);`},
	{"chk user_profiles.role_status", `
ALTER TABLE user_profiles
	DROP CONSTRAINT IF EXISTS chk_user_profiles_role_status,
	ADD CONSTRAINT chk_user_profiles_role_status
	CHECK (role IN ('admin','warehouse','sales','auditor','operator') AND status IN ('ACTIVE','BLOCKED','INACTIVE'));`},
}

var indexSteps = []step{
	// SKU уникален глобально и без учёта регистра
	{"ux products.sku", `CREATE UNIQUE INDEX IF NOT EXISTS ux_products_sku ON products (lower(sku));`},
	{"ux products.barcode", `CREATE UNIQUE INDEX IF NOT EXISTS ux_products_barcode ON products (barcode) WHERE barcode IS NOT NULL;`},
	{"ix products.active_created", `CREATE INDEX IF NOT EXISTS ix_products_active_created ON products (is_active, created_at DESC);`},
	{"ux suppliers.tax_id", `CREATE UNIQUE INDEX IF NOT EXISTS ux_suppliers_tax_id ON suppliers (lower(tax_id));`},
	{"ux clients.tax_id", `CREATE UNIQUE INDEX IF NOT EXISTS ux_clients_tax_id ON clients (tax_id) WHERE tax_id IS NOT NULL;`},
	// не больше одного предпочтительного поставщика на товар
	{"ux product_suppliers.preferred", `
CREATE UNIQUE INDEX IF NOT EXISTS ux_product_suppliers_preferred
ON product_suppliers (product_id) WHERE preferred;`},
	// не больше одной зоны продаж на систему
	{"ux zones.sales_zone", `
CREATE UNIQUE INDEX IF NOT EXISTS ux_zones_sales_zone
ON zones (is_sales_zone) WHERE is_sales_zone;`},
	{"ix zones.active_created", `CREATE INDEX IF NOT EXISTS ix_zones_active_created ON zones (is_active, created_at, id);`},
	{"ix movements.product_created", `CREATE INDEX IF NOT EXISTS ix_movements_product_created ON movements (product_id, created_at DESC);`},
}

var searchSteps = []step{
	{"gin products.name", `CREATE INDEX IF NOT EXISTS gin_products_name_trgm ON products USING gin (name gin_trgm_ops);`},
	{"gin products.sku", `CREATE INDEX IF NOT EXISTS gin_products_sku_trgm ON products USING gin (sku gin_trgm_ops);`},
}

var fkSteps = []step{
	{"fk zones.warehouse_id", `
ALTER TABLE zones
  DROP CONSTRAINT IF EXISTS fk_zones_warehouse,
  ADD CONSTRAINT fk_zones_warehouse
    FOREIGN KEY (warehouse_id) REFERENCES warehouses(id) ON DELETE RESTRICT;`},
	{"fk inventories.product_id", `
ALTER TABLE inventories
  DROP CONSTRAINT IF EXISTS fk_inventories_product,
  ADD CONSTRAINT fk_inventories_product
    FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT;`},
	{"fk inventories.zone_id", `
ALTER TABLE inventories
  DROP CONSTRAINT IF EXISTS fk_inventories_zone,
  ADD CONSTRAINT fk_inventories_zone
    FOREIGN KEY (zone_id) REFERENCES zones(id) ON DELETE RESTRICT;`},
	{"fk product_suppliers.product_id", `
ALTER TABLE product_suppliers
  DROP CONSTRAINT IF EXISTS fk_product_suppliers_product,
  ADD CONSTRAINT fk_product_suppliers_product
    FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE;`},
	{"fk product_suppliers.supplier_id", `
ALTER TABLE product_suppliers
  DROP CONSTRAINT IF EXISTS fk_product_suppliers_supplier,
  ADD CONSTRAINT fk_product_suppliers_supplier
    FOREIGN KEY (supplier_id) REFERENCES suppliers(id) ON DELETE CASCADE;`},
	{"fk movements.product_id", `
ALTER TABLE movements
  DROP CONSTRAINT IF EXISTS fk_movements_product,
  ADD CONSTRAINT fk_movements_product
    FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT;`},
	{"fk supplier_orders.supplier_id", `
ALTER TABLE supplier_orders
  DROP CONSTRAINT IF EXISTS fk_supplier_orders_supplier,
  ADD CONSTRAINT fk_supplier_orders_supplier
    FOREIGN KEY (supplier_id) REFERENCES suppliers(id) ON DELETE RESTRICT;`},
	{"fk supplier_orders.zone_id", `
ALTER TABLE supplier_orders
  DROP CONSTRAINT IF EXISTS fk_supplier_orders_zone,
  ADD CONSTRAINT fk_supplier_orders_zone
    FOREIGN KEY (zone_id) REFERENCES zones(id) ON DELETE RESTRICT;`},
	{"fk supplier_order_items.product_id", `
ALTER TABLE supplier_order_items
  DROP CONSTRAINT IF EXISTS fk_supplier_order_items_product,
  ADD CONSTRAINT fk_supplier_order_items_product
    FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT;`},
	{"fk sales.client_id", `
ALTER TABLE sales
  DROP CONSTRAINT IF EXISTS fk_sales_client,
  ADD CONSTRAINT fk_sales_client
    FOREIGN KEY (client_id) REFERENCES clients(id) ON DELETE SET NULL;`},
	{"fk sale_items.product_id", `
ALTER TABLE sale_items
  DROP CONSTRAINT IF EXISTS fk_sale_items_product,
  ADD CONSTRAINT fk_sale_items_product
    FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT;`},
}

func MigrateWarehouseDB(ctx context.Context, db *gorm.DB, log *zap.Logger, opt MigrateOptions) error {
	log.Info("Начало миграции базы склада")
	db = db.WithContext(ctx)

	// Расширения
	if opt.CreateExtensions {
		log.Info("Создание расширений PostgreSQL")
		if err := runSteps(db, log, []step{
			{"pgcrypto", `CREATE EXTENSION IF NOT EXISTS pgcrypto`},
			{"pg_trgm", `CREATE EXTENSION IF NOT EXISTS pg_trgm`},
		}); err != nil {
			return err
		}
		log.Info("Расширения созданы")
	}

	// Таблицы
	log.Info("Создание таблиц склада")
	if err := db.AutoMigrate(
		&models.Product{},
		&models.Warehouse{},
		&models.Zone{},
		&models.Inventory{},
		&models.Supplier{},
		&models.ProductSupplier{},
		&models.Movement{},
		&models.SupplierOrder{},
		&models.SupplierOrderItem{},
		&models.Client{},
		&models.Sale{},
		&models.SaleItem{},
		&models.UserProfile{},
	); err != nil {
		log.Error("AutoMigrate error", zap.Error(err))
		return err
	}
	log.Info("Таблицы созданы")

	// Триггеры updated_at
	if opt.CreateUpdatedAtTrigger {
		log.Info("Создание триггеров updated_at")
		if err := db.Exec(`
CREATE OR REPLACE FUNCTION set_updated_at() RETURNS trigger AS $$
BEGIN NEW.updated_at = now(); RETURN NEW; END; $$ LANGUAGE plpgsql;
`).Error; err != nil {
			log.Error("set_updated_at error", zap.Error(err))
			return err
		}
		for _, table := range updatedAtTables {
			if err := db.Exec(`DROP TRIGGER IF EXISTS trg_` + table + `_updated ON ` + table).Error; err != nil {
				log.Error("drop trigger error", zap.String("table", table), zap.Error(err))
				return err
			}
			if err := db.Exec(`CREATE TRIGGER trg_` + table + `_updated BEFORE UPDATE ON ` + table +
				` FOR EACH ROW EXECUTE FUNCTION set_updated_at()`).Error; err != nil {
				log.Error("create trigger error", zap.String("table", table), zap.Error(err))
				return err
			}
		}
		log.Info("Триггеры созданы")
	}

	if opt.CreateChecks {
		log.Info("Создание CHECK-ограничений")
		if err := runSteps(db, log, checkSteps); err != nil {
			return err
		}
		log.Info("CHECK-и созданы")
	}

	if opt.CreateIndexes {
		log.Info("Создание индексов и уникальностей")
		if err := runSteps(db, log, indexSteps); err != nil {
			return err
		}
		log.Info("Индексы созданы")
	}

	if opt.CreateSearchIndexes {
		log.Info("Создание GIN(trgm) индексов для поиска")
		if err := runSteps(db, log, searchSteps); err != nil {
			return err
		}
		log.Info("GIN индексы созданы")
	}

	if opt.CreateFKsViaSQL {
		log.Info("Создание внешних ключей")
		if err := runSteps(db, log, fkSteps); err != nil {
			return err
		}
		log.Info("Внешние ключи созданы")
	}

	log.Info("Миграция базы склада успешно завершена")
	return nil
}

func runSteps(db *gorm.DB, log *zap.Logger, steps []step) error {
	for _, s := range steps {
		if err := db.Exec(s.sql).Error; err != nil {
			log.Error(s.name, zap.Error(err))
			return err
		}
	}
	return nil
}
