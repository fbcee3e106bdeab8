package repository

import (
	"context"
	"errors"

	"warehouse-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SupplierOrderListFilter struct {
	SupplierID *uuid.UUID
	Status     *models.SupplierOrderStatus
	Limit      int
	Offset     int
}

type SupplierOrderRepo interface {
	Create(ctx context.Context, o *models.SupplierOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error)
	// GetForUpdate блокирует заголовок заказа: параллельная приёмка ждёт и видит итоговый статус.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error)
	List(ctx context.Context, f SupplierOrderListFilter) ([]models.SupplierOrder, int64, error)
	// Transition меняет статус только из ожидаемого from; false — заказ уже в другом статусе.
	Transition(ctx context.Context, id uuid.UUID, from, to models.SupplierOrderStatus, fields map[string]any) (bool, error)
}

type supplierOrderRepo struct{ db *gorm.DB }

func NewSupplierOrderRepo(db *gorm.DB) SupplierOrderRepo { return &supplierOrderRepo{db: db} }

func (r *supplierOrderRepo) Create(ctx context.Context, o *models.SupplierOrder) error {
	return r.db.WithContext(ctx).Omit("Items").Create(o).Error
}

func (r *supplierOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error) {
	var o models.SupplierOrder
	err := r.db.WithContext(ctx).
		Preload("Items", orderItemsOrder).
		First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *supplierOrderRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error) {
	var o models.SupplierOrder
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *supplierOrderRepo) List(ctx context.Context, f SupplierOrderListFilter) ([]models.SupplierOrder, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.SupplierOrder{})

	if f.SupplierID != nil {
		q = q.Where("supplier_id = ?", *f.SupplierID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := normalizePage(f.Limit, f.Offset)

	var list []models.SupplierOrder
	if err := q.Preload("Items", orderItemsOrder).
		Order("ordered_at DESC").Order("id").
		Limit(limit).Offset(offset).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *supplierOrderRepo) Transition(ctx context.Context, id uuid.UUID, from, to models.SupplierOrderStatus, fields map[string]any) (bool, error) {
	upd := map[string]any{"status": to}
	for k, v := range fields {
		upd[k] = v
	}
	tx := r.db.WithContext(ctx).
		Model(&models.SupplierOrder{}).
		Where("id = ? AND status = ?", id, from).
		Updates(upd)
	return tx.RowsAffected > 0, tx.Error
}

func orderItemsOrder(db *gorm.DB) *gorm.DB {
	return db.Order("created_at, id")
}
