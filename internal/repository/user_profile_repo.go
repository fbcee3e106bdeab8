package repository

import (
	"context"
	"errors"

	"warehouse-service/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserProfileRepo interface {
	// Upsert по external_id: локальная копия профиля внешнего провайдера.
	Upsert(ctx context.Context, p *models.UserProfile) error
	GetByExternalID(ctx context.Context, externalID string) (*models.UserProfile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.UserStatus) (bool, error)
}

type userProfileRepo struct{ db *gorm.DB }

func NewUserProfileRepo(db *gorm.DB) UserProfileRepo { return &userProfileRepo{db: db} }

func (r *userProfileRepo) Upsert(ctx context.Context, p *models.UserProfile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"email":        p.Email,
				"first_name":   p.FirstName,
				"last_name":    p.LastName,
				"role":         p.Role,
				"status":       p.Status,
				"warehouse_id": p.WarehouseID,
				"updated_at":   gorm.Expr("now()"),
			}),
		}).
		Create(p).Error
}

func (r *userProfileRepo) GetByExternalID(ctx context.Context, externalID string) (*models.UserProfile, error) {
	var p models.UserProfile
	err := r.db.WithContext(ctx).First(&p, "external_id = ?", externalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *userProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	var p models.UserProfile
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *userProfileRepo) SetStatus(ctx context.Context, id uuid.UUID, status models.UserStatus) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.UserProfile{}).Where("id = ?", id).Update("status", status)
	return tx.RowsAffected > 0, tx.Error
}
