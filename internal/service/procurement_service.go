package service

import (
	"context"
	"strings"
	"time"

	"warehouse-service/internal/models"
	"warehouse-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CreateSupplierOrderInput struct {
	SupplierID  uuid.UUID
	WarehouseID uuid.UUID
	ZoneID      uuid.UUID
	Notes       string
}

type SupplierOrderListFilter struct {
	SupplierID *uuid.UUID
	Status     *models.SupplierOrderStatus
	Limit      int
	Offset     int
}

type ProcurementService interface {
	CreateOrder(ctx context.Context, in CreateSupplierOrderInput) (*models.SupplierOrder, error)
	AddItem(ctx context.Context, orderID, productID uuid.UUID, quantity int64) (*models.SupplierOrderItem, error)
	RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) error
	Receive(ctx context.Context, orderID uuid.UUID) (*models.SupplierOrder, error)
	Cancel(ctx context.Context, orderID uuid.UUID) (*models.SupplierOrder, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.SupplierOrder, error)
	ListOrders(ctx context.Context, f SupplierOrderListFilter) ([]models.SupplierOrder, int64, error)
}

type procurementService struct {
	repo   *repository.Repository
	proc   *movementProcessor
	locker Locker
	pub    publisher
	log    *zap.Logger
	now    func() time.Time
}

// NewProcurementService locker может быть nil.
func NewProcurementService(repo *repository.Repository, events EventBus, locker Locker, log *zap.Logger) ProcurementService {
	return &procurementService{
		repo:   repo,
		proc:   &movementProcessor{now: time.Now},
		locker: locker,
		pub:    publisher{bus: events, log: log},
		log:    log,
		now:    time.Now,
	}
}

func (s *procurementService) CreateOrder(ctx context.Context, in CreateSupplierOrderInput) (*models.SupplierOrder, error) {
	actorID, err := requireRole(ctx, RoleWarehouse)
	if err != nil {
		return nil, err
	}

	sup, err := s.repo.Suppliers.GetByID(ctx, in.SupplierID)
	if err != nil {
		return nil, err
	}
	if sup == nil {
		return nil, ErrSupplierNotFound
	}
	if sup.Status != models.SupplierActive {
		return nil, ErrSupplierBlocked
	}

	wh, err := s.repo.Warehouses.GetByID(ctx, in.WarehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil {
		return nil, ErrWarehouseNotFound
	}

	zone, err := s.repo.Zones.GetByID(ctx, in.ZoneID)
	if err != nil {
		return nil, err
	}
	if zone == nil {
		return nil, ErrZoneNotFound
	}
	if zone.WarehouseID != wh.ID {
		return nil, ErrZoneNotInWarehouse
	}
	if !zone.IsActive {
		return nil, ErrInactiveZone
	}

	now := s.now().UTC()
	o := &models.SupplierOrder{
		SupplierID:  sup.ID,
		WarehouseID: wh.ID,
		ZoneID:      zone.ID,
		Status:      models.SupplierOrderPending,
		RequestedBy: actorID,
		Notes:       strings.TrimSpace(in.Notes),
		OrderedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.SupplierOrders.Create(ctx, o); err != nil {
		return nil, err
	}
	o.Items = []models.SupplierOrderItem{}
	return o, nil
}

func (s *procurementService) AddItem(ctx context.Context, orderID, productID uuid.UUID, quantity int64) (*models.SupplierOrderItem, error) {
	if _, err := requireRole(ctx, RoleWarehouse); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, invalid("quantity", "quantity must be > 0")
	}

	var item *models.SupplierOrderItem
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		o, err := lockPendingOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}

		p, err := tx.Products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrProductNotFound
		}

		link, err := tx.ProductSuppliers.Get(ctx, productID, o.SupplierID)
		if err != nil {
			return err
		}
		if link == nil {
			return ErrProductNotFromSupplier
		}

		existing, err := tx.OrderItems.GetByOrderAndProduct(ctx, orderID, productID)
		if err != nil {
			return err
		}
		if existing != nil {
			// цена строки фиксируется при первом добавлении
			if err := tx.OrderItems.AddQuantity(ctx, existing.ID, quantity); err != nil {
				return err
			}
			existing.Quantity += quantity
			item = existing
			return nil
		}

		item = &models.SupplierOrderItem{
			OrderID:   orderID,
			ProductID: productID,
			Quantity:  quantity,
			UnitPrice: orderItemPrice(link, p),
			CreatedAt: s.now().UTC(),
		}
		return tx.OrderItems.Create(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// orderItemPrice цена из связи с поставщиком, при нулевой стоимости — цена продажи товара.
func orderItemPrice(link *models.ProductSupplier, p *models.Product) decimal.Decimal {
	if link != nil && link.Cost.IsPositive() {
		return link.Cost
	}
	return p.SalePrice
}

func (s *procurementService) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) error {
	if _, err := requireRole(ctx, RoleWarehouse); err != nil {
		return err
	}
	return s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if _, err := lockPendingOrder(ctx, tx, orderID); err != nil {
			return err
		}
		ok, err := tx.OrderItems.Delete(ctx, orderID, itemID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrOrderItemNotFound
		}
		return nil
	})
}

func (s *procurementService) Receive(ctx context.Context, orderID uuid.UUID) (*models.SupplierOrder, error) {
	actorID, err := requireRole(ctx, RoleWarehouse)
	if err != nil {
		return nil, err
	}

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, "supplier-order:"+orderID.String())
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	var (
		posted   []models.Movement
		received *models.SupplierOrder
	)
	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		o, err := lockPendingOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}

		items, err := tx.OrderItems.ListByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyOrder
		}

		ref := "SUPPLIER_ORDER:" + o.ID.String()
		// движения с этой ссылкой значат, что приёмка уже проводилась
		if n, err := tx.Movements.CountByReference(ctx, ref); err != nil {
			return err
		} else if n > 0 {
			return ErrInvalidOrderState
		}
		for _, it := range items {
			if err := updateAverageCost(ctx, tx, it.ProductID, it.Quantity, it.UnitPrice); err != nil {
				return err
			}

			supplierID, warehouseID, zoneID := o.SupplierID, o.WarehouseID, o.ZoneID
			m, err := s.proc.apply(ctx, tx, actorID, MovementRequest{
				Type:              models.MovementIncoming,
				ProductID:         it.ProductID,
				Quantity:          it.Quantity,
				DestinationZoneID: &zoneID,
				SupplierID:        &supplierID,
				WarehouseID:       &warehouseID,
				Reference:         ref,
				Reason:            "supplier order receipt",
			})
			if err != nil {
				return err
			}
			posted = append(posted, *m)
		}

		now := s.now().UTC()
		ok, err := tx.SupplierOrders.Transition(ctx, o.ID, models.SupplierOrderPending, models.SupplierOrderReceived,
			map[string]any{"received_at": now})
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidOrderState
		}

		received, err = tx.SupplierOrders.GetByID(ctx, o.ID)
		return err
	})
	if err != nil {
		err = txConflict(s.log, err)
		if !isDomainError(err) {
			s.log.Error("receive supplier order failed", zap.String("order_id", orderID.String()), zap.Error(err))
		}
		return nil, err
	}

	s.log.Info("supplier order received",
		zap.String("order_id", received.ID.String()),
		zap.Int("items", len(received.Items)),
	)

	s.pub.movements(ctx, posted)
	s.pub.orderReceived(ctx, received)
	return received, nil
}

func (s *procurementService) Cancel(ctx context.Context, orderID uuid.UUID) (*models.SupplierOrder, error) {
	if _, err := requireRole(ctx, RoleWarehouse); err != nil {
		return nil, err
	}

	var cancelled *models.SupplierOrder
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		o, err := lockPendingOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		ok, err := tx.SupplierOrders.Transition(ctx, o.ID, models.SupplierOrderPending, models.SupplierOrderCancelled,
			map[string]any{"cancelled_at": now})
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidOrderState
		}
		cancelled, err = tx.SupplierOrders.GetByID(ctx, o.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (s *procurementService) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.SupplierOrder, error) {
	if _, _, err := requireAuth(ctx); err != nil {
		return nil, err
	}
	o, err := s.repo.SupplierOrders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *procurementService) ListOrders(ctx context.Context, f SupplierOrderListFilter) ([]models.SupplierOrder, int64, error) {
	if _, _, err := requireAuth(ctx); err != nil {
		return nil, 0, err
	}
	return s.repo.SupplierOrders.List(ctx, repository.SupplierOrderListFilter{
		SupplierID: f.SupplierID,
		Status:     f.Status,
		Limit:      f.Limit,
		Offset:     f.Offset,
	})
}

// lockPendingOrder берёт заголовок заказа FOR UPDATE и проверяет, что он ещё PENDING.
func lockPendingOrder(ctx context.Context, tx *repository.Repository, orderID uuid.UUID) (*models.SupplierOrder, error) {
	o, err := tx.SupplierOrders.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	if o.Status != models.SupplierOrderPending {
		return nil, ErrInvalidOrderState
	}
	return o, nil
}

// updateAverageCost скользящая средняя: (остаток*средняя + qty*цена) / (остаток + qty).
func updateAverageCost(ctx context.Context, tx *repository.Repository, productID uuid.UUID, qty int64, unitPrice decimal.Decimal) error {
	p, err := tx.Products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrProductNotFound
	}
	onHand, err := tx.Inventories.SumByProduct(ctx, productID)
	if err != nil {
		return err
	}
	avg := movingAverage(onHand, p.AverageCost, qty, unitPrice)
	return tx.Products.UpdateFields(ctx, productID, map[string]any{"average_cost": avg})
}

func movingAverage(onHand int64, avg decimal.Decimal, qty int64, unitPrice decimal.Decimal) decimal.Decimal {
	if onHand < 0 {
		onHand = 0
	}
	total := onHand + qty
	if total <= 0 {
		return avg
	}
	value := avg.Mul(decimal.NewFromInt(onHand)).Add(unitPrice.Mul(decimal.NewFromInt(qty)))
	return value.DivRound(decimal.NewFromInt(total), 6)
}
