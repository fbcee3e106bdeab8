package service

import (
	"context"
	"errors"

	"warehouse-service/internal/models"
	"warehouse-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type LinkInput struct {
	ProductID    uuid.UUID
	SupplierID   uuid.UUID
	Cost         decimal.Decimal
	LeadTimeDays int
	MinLot       int64
	DiscountPct  decimal.Decimal
	Preferred    bool
}

type SupplierLinkService interface {
	UpsertLink(ctx context.Context, in LinkInput) (*models.ProductSupplier, error)
	SetPreferred(ctx context.Context, productID, supplierID uuid.UUID) (*models.ProductSupplier, error)
	GetLink(ctx context.Context, productID, supplierID uuid.UUID) (*models.ProductSupplier, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductSupplier, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.ProductSupplier, error)
	PreferredFor(ctx context.Context, productID uuid.UUID) (*models.ProductSupplier, error)
	DeleteLink(ctx context.Context, productID, supplierID uuid.UUID) error
}

// Значения по умолчанию для новой связи, если клиент их не передал.
const (
	DefaultLeadTimeDays = 7
	DefaultMinLot       = 1
)

var hundred = decimal.NewFromInt(100)

func validateLink(in LinkInput) error {
	if in.ProductID == uuid.Nil {
		return invalid("product_id", "product is required")
	}
	if in.SupplierID == uuid.Nil {
		return invalid("supplier_id", "supplier is required")
	}
	if in.Cost.IsNegative() {
		return invalid("cost", "cost must be >= 0")
	}
	if in.LeadTimeDays < 0 {
		return invalid("lead_time_days", "lead time must be >= 0")
	}
	if in.MinLot < 0 {
		return invalid("min_lot", "minimum lot must be >= 0")
	}
	if in.DiscountPct.IsNegative() || in.DiscountPct.GreaterThan(hundred) {
		return invalid("discount_pct", "discount must be between 0 and 100")
	}
	return nil
}

type supplierLinkService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewSupplierLinkService(repo *repository.Repository, log *zap.Logger) SupplierLinkService {
	return &supplierLinkService{repo: repo, log: log}
}

func (s *supplierLinkService) UpsertLink(ctx context.Context, in LinkInput) (*models.ProductSupplier, error) {
	if _, err := requireRole(ctx, RoleWarehouse); err != nil {
		return nil, err
	}
	if err := validateLink(in); err != nil {
		return nil, err
	}

	var link *models.ProductSupplier
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if err := ensureProductAndSupplier(ctx, tx, in.ProductID, in.SupplierID); err != nil {
			return err
		}

		// сначала снимаем флаг с остальных, иначе упрёмся в частичный уникальный индекс
		if in.Preferred {
			if _, err := tx.ProductSuppliers.ClearPreferred(ctx, in.ProductID, in.SupplierID); err != nil {
				return err
			}
		}

		rec := &models.ProductSupplier{
			ProductID:    in.ProductID,
			SupplierID:   in.SupplierID,
			Cost:         in.Cost,
			LeadTimeDays: in.LeadTimeDays,
			MinLot:       in.MinLot,
			DiscountPct:  in.DiscountPct,
			Preferred:    in.Preferred,
		}
		if err := tx.ProductSuppliers.Upsert(ctx, rec); err != nil {
			return mapPreferredViolation(err)
		}

		if err := ensureSinglePreferred(ctx, tx, in.ProductID); err != nil {
			return err
		}

		var err error
		link, err = tx.ProductSuppliers.Get(ctx, in.ProductID, in.SupplierID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrDuplicatePreferred) {
			s.log.Warn("preferred supplier race", zap.String("product_id", in.ProductID.String()))
		}
		return nil, err
	}
	return link, nil
}

func (s *supplierLinkService) SetPreferred(ctx context.Context, productID, supplierID uuid.UUID) (*models.ProductSupplier, error) {
	if _, err := requireRole(ctx, RoleWarehouse); err != nil {
		return nil, err
	}

	var link *models.ProductSupplier
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		existing, err := tx.ProductSuppliers.Get(ctx, productID, supplierID)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrLinkNotFound
		}
		if _, err := tx.ProductSuppliers.ClearPreferred(ctx, productID, supplierID); err != nil {
			return err
		}
		if _, err := tx.ProductSuppliers.SetPreferred(ctx, productID, supplierID); err != nil {
			return mapPreferredViolation(err)
		}
		if err := ensureSinglePreferred(ctx, tx, productID); err != nil {
			return err
		}
		link, err = tx.ProductSuppliers.Get(ctx, productID, supplierID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (s *supplierLinkService) GetLink(ctx context.Context, productID, supplierID uuid.UUID) (*models.ProductSupplier, error) {
	if _, _, err := requireAuth(ctx); err != nil {
		return nil, err
	}
	link, err := s.repo.ProductSuppliers.Get(ctx, productID, supplierID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrLinkNotFound
	}
	return link, nil
}

func (s *supplierLinkService) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductSupplier, error) {
	if _, _, err := requireAuth(ctx); err != nil {
		return nil, err
	}
	return s.repo.ProductSuppliers.ListByProduct(ctx, productID)
}

func (s *supplierLinkService) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.ProductSupplier, error) {
	if _, _, err := requireAuth(ctx); err != nil {
		return nil, err
	}
	return s.repo.ProductSuppliers.ListBySupplier(ctx, supplierID)
}

func (s *supplierLinkService) PreferredFor(ctx context.Context, productID uuid.UUID) (*models.ProductSupplier, error) {
	if _, _, err := requireAuth(ctx); err != nil {
		return nil, err
	}
	link, err := s.repo.ProductSuppliers.GetPreferred(ctx, productID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrLinkNotFound
	}
	return link, nil
}

func (s *supplierLinkService) DeleteLink(ctx context.Context, productID, supplierID uuid.UUID) error {
	if _, err := requireRole(ctx, RoleWarehouse); err != nil {
		return err
	}
	ok, err := s.repo.ProductSuppliers.Delete(ctx, productID, supplierID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLinkNotFound
	}
	return nil
}

func ensureProductAndSupplier(ctx context.Context, tx *repository.Repository, productID, supplierID uuid.UUID) error {
	p, err := tx.Products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrProductNotFound
	}
	sup, err := tx.Suppliers.GetByID(ctx, supplierID)
	if err != nil {
		return err
	}
	if sup == nil {
		return ErrSupplierNotFound
	}
	return nil
}

// ensureSinglePreferred повторная проверка перед коммитом.
func ensureSinglePreferred(ctx context.Context, tx *repository.Repository, productID uuid.UUID) error {
	n, err := tx.ProductSuppliers.CountPreferred(ctx, productID)
	if err != nil {
		return err
	}
	if n > 1 {
		return ErrDuplicatePreferred
	}
	return nil
}

func mapPreferredViolation(err error) error {
	if repository.IsUniqueViolation(err, repository.PreferredSupplierIndex) {
		return ErrDuplicatePreferred
	}
	return err
}
