package repository

import (
	"context"
	"errors"

	"warehouse-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SupplierOrderItemRepo interface {
	Create(ctx context.Context, it *models.SupplierOrderItem) error
	GetByOrderAndProduct(ctx context.Context, orderID, productID uuid.UUID) (*models.SupplierOrderItem, error)
	// AddQuantity увеличивает количество существующей строки; цена не пересчитывается.
	AddQuantity(ctx context.Context, itemID uuid.UUID, qty int64) error
	Delete(ctx context.Context, orderID, itemID uuid.UUID) (bool, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.SupplierOrderItem, error)
}

type supplierOrderItemRepo struct{ db *gorm.DB }

func NewSupplierOrderItemRepo(db *gorm.DB) SupplierOrderItemRepo {
	return &supplierOrderItemRepo{db: db}
}

func (r *supplierOrderItemRepo) Create(ctx context.Context, it *models.SupplierOrderItem) error {
	return r.db.WithContext(ctx).Create(it).Error
}

func (r *supplierOrderItemRepo) GetByOrderAndProduct(ctx context.Context, orderID, productID uuid.UUID) (*models.SupplierOrderItem, error) {
	var it models.SupplierOrderItem
	err := r.db.WithContext(ctx).First(&it, "order_id = ? AND product_id = ?", orderID, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *supplierOrderItemRepo) AddQuantity(ctx context.Context, itemID uuid.UUID, qty int64) error {
	return r.db.WithContext(ctx).
		Model(&models.SupplierOrderItem{}).
		Where("id = ?", itemID).
		Update("quantity", gorm.Expr("quantity + ?", qty)).Error
}

func (r *supplierOrderItemRepo) Delete(ctx context.Context, orderID, itemID uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Delete(&models.SupplierOrderItem{}, "id = ? AND order_id = ?", itemID, orderID)
	return tx.RowsAffected > 0, tx.Error
}

func (r *supplierOrderItemRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.SupplierOrderItem, error) {
	var list []models.SupplierOrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at, id").
		Find(&list).Error
	return list, err
}
