package repository

import (
	"context"
	"errors"

	"warehouse-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryRepo хранилище остатков по (товар, зона). Меняющие методы вызываются
// только из складского журнала сервиса.
type InventoryRepo interface {
	Get(ctx context.Context, productID, zoneID uuid.UUID) (*models.Inventory, error)
	// GetForUpdate блокирует строку до конца транзакции (SELECT ... FOR UPDATE).
	GetForUpdate(ctx context.Context, productID, zoneID uuid.UUID) (*models.Inventory, error)

	// Add: quantity += qty, строка создаётся при первом поступлении.
	Add(ctx context.Context, productID, zoneID uuid.UUID, qty int64) error
	// TryDeduct: quantity -= qty только если хватает остатка; false — не хватило.
	TryDeduct(ctx context.Context, productID, zoneID uuid.UUID, qty int64) (bool, error)
	// Set абсолютное значение остатка (upsert).
	Set(ctx context.Context, productID, zoneID uuid.UUID, qty int64) error

	SumByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Inventory, error)
	ListByZone(ctx context.Context, zoneID uuid.UUID) ([]models.Inventory, error)
}

type inventoryRepo struct{ db *gorm.DB }

func NewInventoryRepo(db *gorm.DB) InventoryRepo { return &inventoryRepo{db: db} }

func (r *inventoryRepo) Get(ctx context.Context, productID, zoneID uuid.UUID) (*models.Inventory, error) {
	var inv models.Inventory
	err := r.db.WithContext(ctx).First(&inv, "product_id = ? AND zone_id = ?", productID, zoneID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *inventoryRepo) GetForUpdate(ctx context.Context, productID, zoneID uuid.UUID) (*models.Inventory, error) {
	var inv models.Inventory
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&inv, "product_id = ? AND zone_id = ?", productID, zoneID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *inventoryRepo) Add(ctx context.Context, productID, zoneID uuid.UUID, qty int64) error {
	return r.db.WithContext(ctx).Exec(`
INSERT INTO inventories (product_id, zone_id, quantity, updated_at)
VALUES (@pid, @zid, @q, now())
ON CONFLICT (product_id, zone_id) DO UPDATE
SET quantity   = inventories.quantity + EXCLUDED.quantity,
    updated_at = now()
`, map[string]any{
		"pid": productID,
		"zid": zoneID,
		"q":   qty,
	}).Error
}

func (r *inventoryRepo) TryDeduct(ctx context.Context, productID, zoneID uuid.UUID, qty int64) (bool, error) {
	// проверка остатка и списание одним UPDATE, это и есть точка защиты от минуса
	tx := r.db.WithContext(ctx).Exec(`
UPDATE inventories
SET quantity   = quantity - @q,
    updated_at = now()
WHERE product_id = @pid
  AND zone_id = @zid
  AND quantity - @q >= 0
`, map[string]any{
		"pid": productID,
		"zid": zoneID,
		"q":   qty,
	})
	return tx.RowsAffected > 0, tx.Error
}

func (r *inventoryRepo) Set(ctx context.Context, productID, zoneID uuid.UUID, qty int64) error {
	rec := models.Inventory{
		ProductID: productID,
		ZoneID:    zoneID,
		Quantity:  qty,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "zone_id"}},
			DoUpdates: clause.Assignments(map[string]any{"quantity": qty, "updated_at": gorm.Expr("now()")}),
		}).
		Create(&rec).Error
}

func (r *inventoryRepo) SumByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("product_id = ?", productID).
		Scan(&total).Error
	return total, err
}

func (r *inventoryRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Inventory, error) {
	var list []models.Inventory
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("zone_id").
		Find(&list).Error
	return list, err
}

func (r *inventoryRepo) ListByZone(ctx context.Context, zoneID uuid.UUID) ([]models.Inventory, error) {
	var list []models.Inventory
	err := r.db.WithContext(ctx).
		Where("zone_id = ?", zoneID).
		Order("product_id").
		Find(&list).Error
	return list, err
}
