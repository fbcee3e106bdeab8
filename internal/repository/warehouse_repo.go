package repository

import (
	"context"
	"errors"
	"strings"

	"warehouse-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WarehouseRepo interface {
	Create(ctx context.Context, w *models.Warehouse) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Warehouse, error)
	List(ctx context.Context, onlyActive bool) ([]models.Warehouse, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error)
}

type warehouseRepo struct{ db *gorm.DB }

func NewWarehouseRepo(db *gorm.DB) WarehouseRepo { return &warehouseRepo{db: db} }

func (r *warehouseRepo) Create(ctx context.Context, w *models.Warehouse) error {
	return r.db.WithContext(ctx).Omit("Zones").Create(w).Error
}

func (r *warehouseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Warehouse, error) {
	var w models.Warehouse
	err := r.db.WithContext(ctx).
		Preload("Zones", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		First(&w, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *warehouseRepo) List(ctx context.Context, onlyActive bool) ([]models.Warehouse, error) {
	q := r.db.WithContext(ctx).Model(&models.Warehouse{})
	if onlyActive {
		q = q.Where("is_active")
	}
	var list []models.Warehouse
	err := q.Preload("Zones", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		Order("created_at, id").
		Find(&list).Error
	return list, err
}

func (r *warehouseRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.Warehouse{}).Where("id = ?", id).Update("is_active", active)
	return tx.RowsAffected > 0, tx.Error
}

type ZoneRepo interface {
	Create(ctx context.Context, z *models.Zone) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Zone, error)
	List(ctx context.Context, warehouseID *uuid.UUID, onlyActive bool) ([]models.Zone, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error)

	// Поиск зоны продаж
	GetFlaggedSales(ctx context.Context) (*models.Zone, error)
	FirstActiveByName(ctx context.Context, patterns []string) (*models.Zone, error)
	FirstActive(ctx context.Context) (*models.Zone, error)
	ClearSalesFlag(ctx context.Context) error
	SetSalesFlag(ctx context.Context, id uuid.UUID) (bool, error)
}

type zoneRepo struct{ db *gorm.DB }

func NewZoneRepo(db *gorm.DB) ZoneRepo { return &zoneRepo{db: db} }

func (r *zoneRepo) Create(ctx context.Context, z *models.Zone) error {
	return r.db.WithContext(ctx).Create(z).Error
}

func (r *zoneRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Zone, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *zoneRepo) List(ctx context.Context, warehouseID *uuid.UUID, onlyActive bool) ([]models.Zone, error) {
	q := r.db.WithContext(ctx).Model(&models.Zone{})
	if warehouseID != nil {
		q = q.Where("warehouse_id = ?", *warehouseID)
	}
	if onlyActive {
		q = q.Where("is_active")
	}
	var list []models.Zone
	err := q.Order("created_at, id").Find(&list).Error
	return list, err
}

func (r *zoneRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.Zone{}).Where("id = ?", id).Update("is_active", active)
	return tx.RowsAffected > 0, tx.Error
}

func (r *zoneRepo) GetFlaggedSales(ctx context.Context) (*models.Zone, error) {
	return r.first(r.db.WithContext(ctx).Where("is_sales_zone AND is_active"))
}

// FirstActiveByName первая активная зона (по created_at, id), имя которой содержит один из шаблонов.
func (r *zoneRepo) FirstActiveByName(ctx context.Context, patterns []string) (*models.Zone, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	conds := make([]string, 0, len(patterns))
	args := make([]any, 0, len(patterns))
	for _, p := range patterns {
		conds = append(conds, "name ILIKE ?")
		args = append(args, "%"+p+"%")
	}
	q := r.db.WithContext(ctx).
		Where("is_active").
		Where("("+strings.Join(conds, " OR ")+")", args...)
	return r.first(q)
}

func (r *zoneRepo) FirstActive(ctx context.Context) (*models.Zone, error) {
	return r.first(r.db.WithContext(ctx).Where("is_active"))
}

func (r *zoneRepo) ClearSalesFlag(ctx context.Context) error {
	return r.db.WithContext(ctx).Model(&models.Zone{}).Where("is_sales_zone").Update("is_sales_zone", false).Error
}

func (r *zoneRepo) SetSalesFlag(ctx context.Context, id uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.Zone{}).Where("id = ?", id).Update("is_sales_zone", true)
	return tx.RowsAffected > 0, tx.Error
}

func (r *zoneRepo) first(q *gorm.DB) (*models.Zone, error) {
	var z models.Zone
	err := q.Order("created_at, id").First(&z).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &z, nil
}
