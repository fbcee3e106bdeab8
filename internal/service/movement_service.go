package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"warehouse-service/internal/models"
	"warehouse-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type MovementRequest struct {
	Type              models.MovementType
	ProductID         uuid.UUID
	Quantity          int64
	OriginZoneID      *uuid.UUID
	DestinationZoneID *uuid.UUID
	SupplierID        *uuid.UUID
	WarehouseID       *uuid.UUID
	Lot               *string
	Serial            *string
	ExpiresAt         *time.Time
	Reference         string
	Reason            string
}

type MovementListFilter struct {
	Query     string
	ProductID *uuid.UUID
	ZoneID    *uuid.UUID
	Type      *models.MovementType
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

type MovementService interface {
	Post(ctx context.Context, req MovementRequest) (*models.Movement, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Movement, error)
	List(ctx context.Context, f MovementListFilter) ([]models.Movement, int64, error)
}

// movementPlan нормализованный запрос: какие зоны затрагиваются и как.
type movementPlan struct {
	origin      *uuid.UUID // зона списания
	destination *uuid.UUID // зона поступления или корректировки
}

// planMovement проверяет запрос без обращения к БД.
func planMovement(req MovementRequest) (movementPlan, error) {
	if req.ProductID == uuid.Nil {
		return movementPlan{}, invalid("product_id", "product is required")
	}
	if req.Quantity <= 0 {
		return movementPlan{}, invalid("quantity", "quantity must be > 0")
	}

	switch req.Type {
	case models.MovementIncoming, models.MovementReturn, models.MovementAdjustment:
		if req.DestinationZoneID == nil {
			return movementPlan{}, invalid("destination_zone_id", "destination zone is required for "+string(req.Type))
		}
		return movementPlan{destination: req.DestinationZoneID}, nil

	case models.MovementOutgoing:
		// списание идёт из одной зоны: origin, а без него из destination
		if req.OriginZoneID != nil && req.DestinationZoneID != nil {
			return movementPlan{}, invalid("destination_zone_id", "OUTGOING takes a single zone: set origin_zone_id or destination_zone_id, not both")
		}
		zone := req.OriginZoneID
		if zone == nil {
			zone = req.DestinationZoneID
		}
		if zone == nil {
			return movementPlan{}, invalid("origin_zone_id", "origin zone is required for OUTGOING")
		}
		return movementPlan{origin: zone}, nil

	case models.MovementTransfer:
		if req.OriginZoneID == nil {
			return movementPlan{}, invalid("origin_zone_id", "origin zone is required for TRANSFER")
		}
		if req.DestinationZoneID == nil {
			return movementPlan{}, invalid("destination_zone_id", "destination zone is required for TRANSFER")
		}
		if *req.OriginZoneID == *req.DestinationZoneID {
			return movementPlan{}, invalid("destination_zone_id", "origin and destination zones must differ")
		}
		return movementPlan{origin: req.OriginZoneID, destination: req.DestinationZoneID}, nil
	}

	return movementPlan{}, invalid("type", "unknown movement type "+string(req.Type))
}

// lockOrder упорядочивает две зоны по байтам id.
func lockOrder(a, b uuid.UUID) [2]uuid.UUID {
	if bytes.Compare(b[:], a[:]) < 0 {
		return [2]uuid.UUID{b, a}
	}
	return [2]uuid.UUID{a, b}
}

// movementProcessor единственная точка, меняющая остатки. Используется и напрямую,
// и из приёмки заказов и продаж внутри их транзакций.
type movementProcessor struct {
	now func() time.Time
}

// apply проверяет и проводит движение в транзакции tx. actor и время ставятся здесь,
// значения из запроса игнорируются.
func (p *movementProcessor) apply(ctx context.Context, tx *repository.Repository, actorID uuid.UUID, req MovementRequest) (*models.Movement, error) {
	plan, err := planMovement(req)
	if err != nil {
		return nil, err
	}

	product, err := tx.Products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if !product.IsActive {
		return nil, ErrInactiveProduct
	}

	warehouseID := req.WarehouseID
	for _, zoneID := range []*uuid.UUID{plan.origin, plan.destination} {
		if zoneID == nil {
			continue
		}
		zone, err := tx.Zones.GetByID(ctx, *zoneID)
		if err != nil {
			return nil, err
		}
		if zone == nil {
			return nil, ErrZoneNotFound
		}
		if !zone.IsActive {
			return nil, ErrInactiveZone
		}
		// для перемещения склад указывает на зону назначения
		if req.Type != models.MovementTransfer || zoneID == plan.destination {
			if warehouseID != nil && *warehouseID != zone.WarehouseID {
				return nil, ErrZoneNotInWarehouse
			}
			wid := zone.WarehouseID
			warehouseID = &wid
		}
	}

	if req.SupplierID != nil {
		sup, err := tx.Suppliers.GetByID(ctx, *req.SupplierID)
		if err != nil {
			return nil, err
		}
		if sup == nil {
			return nil, ErrSupplierNotFound
		}
	}

	ledger := NewStockLedger(tx.Inventories)

	switch req.Type {
	case models.MovementIncoming, models.MovementReturn:
		err = ledger.Adjust(ctx, req.ProductID, *plan.destination, req.Quantity)

	case models.MovementAdjustment:
		err = ledger.Set(ctx, req.ProductID, *plan.destination, req.Quantity)

	case models.MovementOutgoing:
		err = ledger.Adjust(ctx, req.ProductID, *plan.origin, -req.Quantity)

	case models.MovementTransfer:
		// обе строки блокируются в порядке zone_id, поэтому встречные перемещения
		// ждут друг друга, а не взаимоблокируются
		locked := make(map[uuid.UUID]*models.Inventory, 2)
		for _, zoneID := range lockOrder(*plan.origin, *plan.destination) {
			inv, lerr := tx.Inventories.GetForUpdate(ctx, req.ProductID, zoneID)
			if lerr != nil {
				return nil, lerr
			}
			locked[zoneID] = inv
		}
		var available int64
		if inv := locked[*plan.origin]; inv != nil {
			available = inv.Quantity
		}
		if available < req.Quantity {
			return nil, &InsufficientStockError{
				ProductID: req.ProductID,
				ZoneID:    *plan.origin,
				Available: available,
				Requested: req.Quantity,
			}
		}
		if err = ledger.Adjust(ctx, req.ProductID, *plan.origin, -req.Quantity); err == nil {
			err = ledger.Adjust(ctx, req.ProductID, *plan.destination, req.Quantity)
		}
	}
	if err != nil {
		return nil, err
	}

	m := &models.Movement{
		Type:              req.Type,
		ProductID:         req.ProductID,
		Quantity:          req.Quantity,
		SupplierID:        req.SupplierID,
		WarehouseID:       warehouseID,
		OriginZoneID:      plan.origin,
		DestinationZoneID: plan.destination,
		Lot:               trimOptional(req.Lot),
		Serial:            trimOptional(req.Serial),
		ExpiresAt:         req.ExpiresAt,
		Reference:         strings.TrimSpace(req.Reference),
		Reason:            strings.TrimSpace(req.Reason),
		ActorID:           actorID,
		CreatedAt:         p.now().UTC(),
	}
	if err := tx.Movements.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

type movementService struct {
	repo *repository.Repository
	proc *movementProcessor
	pub  publisher
	log  *zap.Logger
	now  func() time.Time
}

func NewMovementService(repo *repository.Repository, events EventBus, log *zap.Logger) MovementService {
	return &movementService{
		repo: repo,
		proc: &movementProcessor{now: time.Now},
		pub:  publisher{bus: events, log: log},
		log:  log,
		now:  time.Now,
	}
}

func (s *movementService) Post(ctx context.Context, req MovementRequest) (*models.Movement, error) {
	actorID, err := requireRole(ctx, RoleWarehouse)
	if err != nil {
		return nil, err
	}

	var m *models.Movement
	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		m, err = s.proc.apply(ctx, tx, actorID, req)
		return err
	})
	if err != nil {
		err = txConflict(s.log, err)
		if !isDomainError(err) {
			s.log.Error("post movement failed", zap.String("type", string(req.Type)),
				zap.String("product_id", req.ProductID.String()), zap.Error(err))
		}
		return nil, err
	}

	s.log.Info("movement posted",
		zap.String("movement_id", m.ID.String()),
		zap.String("type", string(m.Type)),
		zap.String("product_id", m.ProductID.String()),
		zap.Int64("quantity", m.Quantity),
	)

	s.pub.movements(ctx, []models.Movement{*m})
	if m.Type == models.MovementOutgoing || m.Type == models.MovementAdjustment {
		checkLowStock(ctx, s.repo, s.pub, s.now, m.ProductID)
	}
	return m, nil
}

func (s *movementService) Get(ctx context.Context, id uuid.UUID) (*models.Movement, error) {
	if _, _, err := requireAuth(ctx); err != nil {
		return nil, err
	}
	m, err := s.repo.Movements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMovementNotFound
	}
	return m, nil
}

func (s *movementService) List(ctx context.Context, f MovementListFilter) ([]models.Movement, int64, error) {
	if _, _, err := requireAuth(ctx); err != nil {
		return nil, 0, err
	}
	return s.repo.Movements.List(ctx, repository.MovementListFilter{
		Query:     f.Query,
		ProductID: f.ProductID,
		ZoneID:    f.ZoneID,
		Type:      f.Type,
		From:      f.From,
		To:        f.To,
		Limit:     f.Limit,
		Offset:    f.Offset,
	})
}

// checkLowStock публикует stock.low, если суммарный остаток опустился до точки заказа.
func checkLowStock(ctx context.Context, repo *repository.Repository, pub publisher, now func() time.Time, productIDs ...uuid.UUID) {
	if pub.bus == nil {
		return
	}
	for _, id := range productIDs {
		p, err := repo.Products.GetByID(ctx, id)
		if err != nil || p == nil || p.ReorderPoint <= 0 {
			continue
		}
		total, err := repo.Inventories.SumByProduct(ctx, id)
		if err != nil {
			pub.log.Warn("low stock check failed", zap.String("product_id", id.String()), zap.Error(err))
			continue
		}
		if total <= p.ReorderPoint {
			pub.lowStock(ctx, LowStockEvent{
				ProductID:    p.ID,
				SKU:          p.SKU,
				Total:        total,
				ReorderPoint: p.ReorderPoint,
				DetectedAt:   now().UTC(),
			})
		}
	}
}

// isDomainError ожидаемые бизнес-ошибки не логируем как Error.
func isDomainError(err error) bool {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrInsufficientStockBatch),
		errors.Is(err, ErrDuplicatePreferred),
		errors.Is(err, ErrEmptyOrder),
		errors.Is(err, ErrInvalidOrderState),
		errors.Is(err, ErrNoSalesZoneConfigured),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrProductNotFound),
		errors.Is(err, ErrZoneNotFound),
		errors.Is(err, ErrSupplierNotFound),
		errors.Is(err, ErrOrderNotFound),
		errors.Is(err, ErrOrderItemNotFound),
		errors.Is(err, ErrLinkNotFound),
		errors.Is(err, ErrClientNotFound),
		errors.Is(err, ErrWarehouseNotFound),
		errors.Is(err, ErrSaleNotFound),
		errors.Is(err, ErrSupplierBlocked),
		errors.Is(err, ErrInactiveProduct),
		errors.Is(err, ErrInactiveZone),
		errors.Is(err, ErrZoneNotInWarehouse),
		errors.Is(err, ErrProductNotFromSupplier),
		errors.Is(err, ErrResourceBusy):
		return true
	}
	return false
}

// txConflict взаимоблокировку или конфликт сериализации отдаёт как ErrResourceBusy:
// транзакция откатилась целиком, запрос можно повторить.
func txConflict(log *zap.Logger, err error) error {
	if !repository.IsRetryable(err) {
		return err
	}
	log.Warn("transaction aborted by lock conflict", zap.Error(err))
	return ErrResourceBusy
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
