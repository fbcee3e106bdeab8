package repository

import (
	"context"
	"errors"

	"warehouse-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const PreferredSupplierIndex = "ux_product_suppliers_preferred"

type ProductSupplierRepo interface {
	Get(ctx context.Context, productID, supplierID uuid.UUID) (*models.ProductSupplier, error)
	// Upsert вставляет или обновляет связь по (product_id, supplier_id).
	Upsert(ctx context.Context, link *models.ProductSupplier) error
	// ClearPreferred снимает preferred со всех связей товара, кроме exceptSupplierID.
	ClearPreferred(ctx context.Context, productID, exceptSupplierID uuid.UUID) (int64, error)
	SetPreferred(ctx context.Context, productID, supplierID uuid.UUID) (bool, error)
	CountPreferred(ctx context.Context, productID uuid.UUID) (int64, error)
	GetPreferred(ctx context.Context, productID uuid.UUID) (*models.ProductSupplier, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductSupplier, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.ProductSupplier, error)
	Delete(ctx context.Context, productID, supplierID uuid.UUID) (bool, error)
}

type productSupplierRepo struct{ db *gorm.DB }

func NewProductSupplierRepo(db *gorm.DB) ProductSupplierRepo { return &productSupplierRepo{db: db} }

func (r *productSupplierRepo) Get(ctx context.Context, productID, supplierID uuid.UUID) (*models.ProductSupplier, error) {
	var l models.ProductSupplier
	err := r.db.WithContext(ctx).First(&l, "product_id = ? AND supplier_id = ?", productID, supplierID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *productSupplierRepo) Upsert(ctx context.Context, link *models.ProductSupplier) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "product_id"}, {Name: "supplier_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"cost":           link.Cost,
				"lead_time_days": link.LeadTimeDays,
				"min_lot":        link.MinLot,
				"discount_pct":   link.DiscountPct,
				"preferred":      link.Preferred,
				"updated_at":     gorm.Expr("now()"),
			}),
		}).
		Create(link).Error
}

func (r *productSupplierRepo) ClearPreferred(ctx context.Context, productID, exceptSupplierID uuid.UUID) (int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.ProductSupplier{}).
		Where("product_id = ? AND supplier_id <> ? AND preferred", productID, exceptSupplierID).
		Update("preferred", false)
	return tx.RowsAffected, tx.Error
}

func (r *productSupplierRepo) SetPreferred(ctx context.Context, productID, supplierID uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.ProductSupplier{}).
		Where("product_id = ? AND supplier_id = ?", productID, supplierID).
		Update("preferred", true)
	return tx.RowsAffected > 0, tx.Error
}

func (r *productSupplierRepo) CountPreferred(ctx context.Context, productID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.ProductSupplier{}).
		Where("product_id = ? AND preferred", productID).
		Count(&n).Error
	return n, err
}

func (r *productSupplierRepo) GetPreferred(ctx context.Context, productID uuid.UUID) (*models.ProductSupplier, error) {
	var l models.ProductSupplier
	err := r.db.WithContext(ctx).Where("product_id = ? AND preferred", productID).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *productSupplierRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductSupplier, error) {
	var list []models.ProductSupplier
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("preferred DESC, cost ASC, created_at").
		Find(&list).Error
	return list, err
}

func (r *productSupplierRepo) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.ProductSupplier, error) {
	var list []models.ProductSupplier
	err := r.db.WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Order("created_at, id").
		Find(&list).Error
	return list, err
}

func (r *productSupplierRepo) Delete(ctx context.Context, productID, supplierID uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Delete(&models.ProductSupplier{}, "product_id = ? AND supplier_id = ?", productID, supplierID)
	return tx.RowsAffected > 0, tx.Error
}
