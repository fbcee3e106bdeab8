package service

import (
	"context"
	"strings"

	"warehouse-service/internal/models"
	"warehouse-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProfileInput struct {
	ExternalID  string
	Email       string
	FirstName   string
	LastName    string
	Role        models.UserRole
	WarehouseID *uuid.UUID
}

type ProfileService interface {
	// Authenticate находит активный профиль по внешнему id; используется HTTP-мидлварью.
	Authenticate(ctx context.Context, externalID string) (*models.UserProfile, error)
	UpsertProfile(ctx context.Context, in ProfileInput) (*models.UserProfile, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.UserStatus) error
}

type profileService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewProfileService(repo *repository.Repository, log *zap.Logger) ProfileService {
	return &profileService{repo: repo, log: log}
}

var knownRoles = map[models.UserRole]struct{}{
	models.UserRoleAdmin:     {},
	models.UserRoleWarehouse: {},
	models.UserRoleSales:     {},
	models.UserRoleAuditor:   {},
	models.UserRoleOperator:  {},
}

func (s *profileService) Authenticate(ctx context.Context, externalID string) (*models.UserProfile, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, ErrUnauthorized
	}
	p, err := s.repo.Users.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrUnauthorized
	}
	if p.Status != models.UserActive {
		return nil, ErrUserBlocked
	}
	return p, nil
}

func (s *profileService) UpsertProfile(ctx context.Context, in ProfileInput) (*models.UserProfile, error) {
	if _, err := requireRole(ctx); err != nil {
		return nil, err
	}
	externalID := strings.TrimSpace(in.ExternalID)
	if externalID == "" {
		return nil, invalid("external_id", "external id is required")
	}
	role := in.Role
	if role == "" {
		role = models.UserRoleOperator
	}
	if _, ok := knownRoles[role]; !ok {
		return nil, invalid("role", "unknown role "+string(role))
	}
	if in.WarehouseID != nil {
		w, err := s.repo.Warehouses.GetByID(ctx, *in.WarehouseID)
		if err != nil {
			return nil, err
		}
		if w == nil {
			return nil, ErrWarehouseNotFound
		}
	}

	p := &models.UserProfile{
		ExternalID:  externalID,
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Role:        role,
		Status:      models.UserActive,
		WarehouseID: in.WarehouseID,
	}
	if err := s.repo.Users.Upsert(ctx, p); err != nil {
		return nil, err
	}

	saved, err := s.repo.Users.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	s.log.Info("profile upserted", zap.String("external_id", externalID), zap.String("role", string(role)))
	return saved, nil
}

func (s *profileService) GetProfile(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	if _, _, err := requireAuth(ctx); err != nil {
		return nil, err
	}
	p, err := s.repo.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

func (s *profileService) SetStatus(ctx context.Context, id uuid.UUID, status models.UserStatus) error {
	actorID, err := requireRole(ctx)
	if err != nil {
		return err
	}
	switch status {
	case models.UserActive, models.UserBlocked, models.UserInactive:
	default:
		return invalid("status", "unknown status "+string(status))
	}
	if actorID == id && status != models.UserActive {
		return invalid("status", "cannot block yourself")
	}
	ok, err := s.repo.Users.SetStatus(ctx, id, status)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProfileNotFound
	}
	return nil
}
