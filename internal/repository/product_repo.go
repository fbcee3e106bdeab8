package repository

import (
	"context"
	"errors"
	"strings"

	"warehouse-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductListFilter struct {
	Query      string // по name/sku/barcode
	Category   string
	OnlyActive *bool
	Limit      int
	Offset     int
}

type ProductRepo interface {
	Create(ctx context.Context, p *models.Product) error
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetBySKU(ctx context.Context, sku string) (*models.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*models.Product, error)
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, f ProductListFilter) ([]models.Product, int64, error)
	BatchGetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepo { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(fields).Error
}

func (r *productRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) GetBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).Where("lower(sku) = lower(?)", sku).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).Where("barcode = ?", barcode).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error
	return n, err
}

func (r *productRepo) List(ctx context.Context, f ProductListFilter) ([]models.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})

	if f.OnlyActive != nil {
		q = q.Where("is_active = ?", *f.OnlyActive)
	}

	if c := strings.TrimSpace(f.Category); c != "" {
		q = q.Where("lower(category) = lower(?)", c)
	}

	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + s + "%"
		q = q.Where("(lower(name) LIKE lower(?) OR lower(sku) LIKE lower(?) OR barcode = ?)", like, like, s)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := normalizePage(f.Limit, f.Offset)

	var list []models.Product
	if err := q.Order("created_at DESC").Order("id").Limit(limit).Offset(offset).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *productRepo) BatchGetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	var list []models.Product
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error
	return list, err
}
