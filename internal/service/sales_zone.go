package service

import (
	"context"
	"sync"

	"warehouse-service/internal/models"
	"warehouse-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Старые инсталляции называли зону продаж "Sala de ventas" и т.п.
var legacySalesZonePatterns = []string{"venta", "sales"}

// SalesZoneResolver определяет зону, из которой продаются товары.
// Порядок: SALES_ZONE_ID из конфига, затем зона с флагом is_sales_zone,
// затем первая активная зона с "venta"/"sales" в имени, затем первая активная зона.
// Успешный результат кэшируется до Refresh или Designate.
type SalesZoneResolver struct {
	repo       *repository.Repository
	configured *uuid.UUID
	log        *zap.Logger

	mu     sync.Mutex
	cached *models.Zone
}

func NewSalesZoneResolver(repo *repository.Repository, configured *uuid.UUID, log *zap.Logger) *SalesZoneResolver {
	return &SalesZoneResolver{repo: repo, configured: configured, log: log}
}

func (r *SalesZoneResolver) Resolve(ctx context.Context) (*models.Zone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != nil {
		z := *r.cached
		return &z, nil
	}

	zone, source, err := r.lookup(ctx)
	if err != nil {
		return nil, err
	}
	if zone == nil {
		return nil, ErrNoSalesZoneConfigured
	}

	r.log.Info("sales zone resolved",
		zap.String("zone_id", zone.ID.String()),
		zap.String("zone", zone.Name),
		zap.String("source", source),
	)
	r.cached = zone
	z := *zone
	return &z, nil
}

func (r *SalesZoneResolver) lookup(ctx context.Context) (*models.Zone, string, error) {
	// явная настройка не подменяется эвристикой
	if r.configured != nil {
		z, err := r.repo.Zones.GetByID(ctx, *r.configured)
		if err != nil {
			return nil, "", err
		}
		if z == nil || !z.IsActive {
			r.log.Error("configured sales zone is missing or inactive", zap.String("zone_id", r.configured.String()))
			return nil, "", nil
		}
		return z, "config", nil
	}

	z, err := r.repo.Zones.GetFlaggedSales(ctx)
	if err != nil || z != nil {
		return z, "flag", err
	}

	z, err = r.repo.Zones.FirstActiveByName(ctx, legacySalesZonePatterns)
	if err != nil || z != nil {
		return z, "name", err
	}

	z, err = r.repo.Zones.FirstActive(ctx)
	return z, "first_active", err
}

// Refresh сбрасывает кэш; следующая продажа определит зону заново.
func (r *SalesZoneResolver) Refresh() {
	r.mu.Lock()
	r.cached = nil
	r.mu.Unlock()
}

// Designate помечает зону как зону продаж, снимая флаг с предыдущей.
func (r *SalesZoneResolver) Designate(ctx context.Context, zoneID uuid.UUID) (*models.Zone, error) {
	if _, err := requireRole(ctx); err != nil {
		return nil, err
	}

	var zone *models.Zone
	err := r.repo.WithTx(ctx, func(tx *repository.Repository) error {
		z, err := tx.Zones.GetByID(ctx, zoneID)
		if err != nil {
			return err
		}
		if z == nil {
			return ErrZoneNotFound
		}
		if !z.IsActive {
			return ErrInactiveZone
		}
		if err := tx.Zones.ClearSalesFlag(ctx); err != nil {
			return err
		}
		if _, err := tx.Zones.SetSalesFlag(ctx, zoneID); err != nil {
			return err
		}
		z.IsSalesZone = true
		zone = z
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.Refresh()
	if r.configured != nil && *r.configured != zoneID {
		r.log.Warn("SALES_ZONE_ID overrides designated sales zone",
			zap.String("configured", r.configured.String()),
			zap.String("designated", zoneID.String()),
		)
	}
	return zone, nil
}
