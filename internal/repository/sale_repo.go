package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"warehouse-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleListFilter struct {
	Query    string // id продажи, имя клиента или продавца
	ClientID *uuid.UUID
	ActorID  *uuid.UUID
	From     *time.Time
	To       *time.Time
	TotalMin *decimal.Decimal
	TotalMax *decimal.Decimal
	OrderBy  string
	Limit    int
	Offset   int
}

// saleOrders допустимые сортировки; неизвестное значение даёт сортировку по умолчанию.
var saleOrders = map[string]string{
	"-sold_at": "sold_at DESC",
	"sold_at":  "sold_at ASC",
	"-total":   "total DESC",
	"total":    "total ASC",
	"-id":      "id DESC",
	"id":       "id ASC",
}

const defaultSaleOrder = "sold_at DESC"

type SaleRepo interface {
	Create(ctx context.Context, s *models.Sale) error
	CreateItem(ctx context.Context, it *models.SaleItem) error
	UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	List(ctx context.Context, f SaleListFilter) ([]models.Sale, int64, error)
	Count(ctx context.Context) (int64, error)
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepo(db *gorm.DB) SaleRepo { return &saleRepo{db: db} }

func (r *saleRepo) Create(ctx context.Context, s *models.Sale) error {
	return r.db.WithContext(ctx).Omit("Items").Create(s).Error
}

func (r *saleRepo) CreateItem(ctx context.Context, it *models.SaleItem) error {
	return r.db.WithContext(ctx).Create(it).Error
}

func (r *saleRepo) UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&models.Sale{}).Where("id = ?", id).Update("total", total).Error
}

func (r *saleRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var s models.Sale
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *saleRepo) List(ctx context.Context, f SaleListFilter) ([]models.Sale, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Sale{})

	if query := strings.TrimSpace(f.Query); query != "" {
		if id, err := uuid.Parse(query); err == nil {
			q = q.Where("id = ?", id)
		} else {
			like := "%" + query + "%"
			q = q.Where(`(client_id IN (SELECT id FROM clients WHERE name ILIKE @like)
 OR actor_id IN (SELECT id FROM user_profiles WHERE email ILIKE @like OR first_name ILIKE @like OR last_name ILIKE @like))`,
				map[string]any{"like": like})
		}
	}
	if f.ClientID != nil {
		q = q.Where("client_id = ?", *f.ClientID)
	}
	if f.ActorID != nil {
		q = q.Where("actor_id = ?", *f.ActorID)
	}
	if f.From != nil {
		q = q.Where("sold_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("sold_at < ?", *f.To)
	}
	if f.TotalMin != nil {
		q = q.Where("total >= ?", *f.TotalMin)
	}
	if f.TotalMax != nil {
		q = q.Where("total <= ?", *f.TotalMax)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := normalizePage(f.Limit, f.Offset)

	var list []models.Sale
	order, ok := saleOrders[f.OrderBy]
	if !ok {
		order = defaultSaleOrder
	}
	if err := q.Preload("Items").Order(order).Order("id").Limit(limit).Offset(offset).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *saleRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Sale{}).Count(&n).Error
	return n, err
}
