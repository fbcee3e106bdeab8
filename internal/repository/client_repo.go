package repository

import (
	"context"
	"errors"

	"warehouse-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClientRepo interface {
	Create(ctx context.Context, c *models.Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	GetByTaxID(ctx context.Context, taxID string) (*models.Client, error)
}

type clientRepo struct{ db *gorm.DB }

func NewClientRepo(db *gorm.DB) ClientRepo { return &clientRepo{db: db} }

func (r *clientRepo) Create(ctx context.Context, c *models.Client) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *clientRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var c models.Client
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clientRepo) GetByTaxID(ctx context.Context, taxID string) (*models.Client, error) {
	var c models.Client
	err := r.db.WithContext(ctx).First(&c, "tax_id = ?", taxID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
