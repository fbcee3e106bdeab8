package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"warehouse-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovementListFilter struct {
	Query     string // по названию или SKU товара
	ProductID *uuid.UUID
	ZoneID    *uuid.UUID // origin или destination
	Type      *models.MovementType
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// MovementRepo журнал движений только на добавление: методов изменения и удаления нет.
type MovementRepo interface {
	Create(ctx context.Context, m *models.Movement) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Movement, error)
	List(ctx context.Context, f MovementListFilter) ([]models.Movement, int64, error)
	CountByReference(ctx context.Context, reference string) (int64, error)
}

type movementRepo struct{ db *gorm.DB }

func NewMovementRepo(db *gorm.DB) MovementRepo { return &movementRepo{db: db} }

func (r *movementRepo) Create(ctx context.Context, m *models.Movement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *movementRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Movement, error) {
	var m models.Movement
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *movementRepo) List(ctx context.Context, f MovementListFilter) ([]models.Movement, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Movement{})

	if query := strings.TrimSpace(f.Query); query != "" {
		like := "%" + query + "%"
		q = q.Where("product_id IN (SELECT id FROM products WHERE name ILIKE ? OR sku ILIKE ?)", like, like)
	}
	if f.ProductID != nil {
		q = q.Where("product_id = ?", *f.ProductID)
	}
	if f.ZoneID != nil {
		q = q.Where("(origin_zone_id = ? OR destination_zone_id = ?)", *f.ZoneID, *f.ZoneID)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := normalizePage(f.Limit, f.Offset)

	var list []models.Movement
	if err := q.Order("created_at DESC").Order("id").Limit(limit).Offset(offset).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *movementRepo) CountByReference(ctx context.Context, reference string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Movement{}).Where("reference = ?", reference).Count(&n).Error
	return n, err
}
