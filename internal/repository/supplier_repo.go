package repository

import (
	"context"
	"errors"
	"strings"

	"warehouse-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SupplierListFilter struct {
	Query  string // по legal/trade name и tax id
	Status *models.SupplierStatus
	Limit  int
	Offset int
}

type SupplierRepo interface {
	Create(ctx context.Context, s *models.Supplier) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	GetByTaxID(ctx context.Context, taxID string) (*models.Supplier, error)
	List(ctx context.Context, f SupplierListFilter) ([]models.Supplier, int64, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.SupplierStatus) (bool, error)
}

type supplierRepo struct{ db *gorm.DB }

func NewSupplierRepo(db *gorm.DB) SupplierRepo { return &supplierRepo{db: db} }

func (r *supplierRepo) Create(ctx context.Context, s *models.Supplier) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *supplierRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	var s models.Supplier
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *supplierRepo) GetByTaxID(ctx context.Context, taxID string) (*models.Supplier, error) {
	var s models.Supplier
	err := r.db.WithContext(ctx).Where("lower(tax_id) = lower(?)", taxID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *supplierRepo) List(ctx context.Context, f SupplierListFilter) ([]models.Supplier, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Supplier{})

	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + s + "%"
		q = q.Where("(legal_name ILIKE ? OR trade_name ILIKE ? OR tax_id ILIKE ?)", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := normalizePage(f.Limit, f.Offset)

	var list []models.Supplier
	if err := q.Order("legal_name").Order("id").Limit(limit).Offset(offset).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *supplierRepo) SetStatus(ctx context.Context, id uuid.UUID, status models.SupplierStatus) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.Supplier{}).Where("id = ?", id).Update("status", status)
	return tx.RowsAffected > 0, tx.Error
}
