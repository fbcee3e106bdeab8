package service

import (
	"context"
	"time"

	"warehouse-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	EventMovementPosted        = "movement.posted"
	EventLowStock              = "stock.low"
	EventSaleCompleted         = "sale.completed"
	EventSupplierOrderReceived = "supplier_order.received"
)

type MovementPostedEvent struct {
	MovementID        uuid.UUID           `json:"movement_id"`
	Type              models.MovementType `json:"type"`
	ProductID         uuid.UUID           `json:"product_id"`
	Quantity          int64               `json:"quantity"`
	OriginZoneID      *uuid.UUID          `json:"origin_zone_id,omitempty"`
	DestinationZoneID *uuid.UUID          `json:"destination_zone_id,omitempty"`
	Reference         string              `json:"reference,omitempty"`
	ActorID           uuid.UUID           `json:"actor_id"`
	CreatedAt         time.Time           `json:"created_at"`
}

type LowStockEvent struct {
	ProductID    uuid.UUID `json:"product_id"`
	SKU          string    `json:"sku"`
	Total        int64     `json:"total"`
	ReorderPoint int64     `json:"reorder_point"`
	DetectedAt   time.Time `json:"detected_at"`
}

type SaleItemEvent struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type SaleCompletedEvent struct {
	SaleID   uuid.UUID       `json:"sale_id"`
	ClientID *uuid.UUID      `json:"client_id,omitempty"`
	ZoneID   uuid.UUID       `json:"zone_id"`
	ActorID  uuid.UUID       `json:"actor_id"`
	Items    []SaleItemEvent `json:"items"`
	Total    decimal.Decimal `json:"total"`
	SoldAt   time.Time       `json:"sold_at"`
}

type ReceivedItemEvent struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type SupplierOrderReceivedEvent struct {
	OrderID    uuid.UUID           `json:"order_id"`
	SupplierID uuid.UUID           `json:"supplier_id"`
	ZoneID     uuid.UUID           `json:"zone_id"`
	Items      []ReceivedItemEvent `json:"items"`
	ReceivedAt time.Time           `json:"received_at"`
}

// EventBus публикация доменных событий после коммита. nil отключает публикацию.
type EventBus interface {
	PublishMovementPosted(ctx context.Context, e MovementPostedEvent) error
	PublishLowStock(ctx context.Context, e LowStockEvent) error
	PublishSaleCompleted(ctx context.Context, e SaleCompletedEvent) error
	PublishSupplierOrderReceived(ctx context.Context, e SupplierOrderReceivedEvent) error
}

// Locker распределённая блокировка поверх транзакций БД; снижает конкуренцию,
// корректность остатков обеспечивает сама БД.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// publisher обёртка над EventBus: ошибки публикации только логируются,
// откатывать уже закоммиченные изменения нельзя.
type publisher struct {
	bus EventBus
	log *zap.Logger
}

func (p publisher) movements(ctx context.Context, list []models.Movement) {
	if p.bus == nil {
		return
	}
	for _, m := range list {
		err := p.bus.PublishMovementPosted(ctx, MovementPostedEvent{
			MovementID:        m.ID,
			Type:              m.Type,
			ProductID:         m.ProductID,
			Quantity:          m.Quantity,
			OriginZoneID:      m.OriginZoneID,
			DestinationZoneID: m.DestinationZoneID,
			Reference:         m.Reference,
			ActorID:           m.ActorID,
			CreatedAt:         m.CreatedAt,
		})
		if err != nil {
			p.log.Warn("publish movement.posted failed", zap.String("movement_id", m.ID.String()), zap.Error(err))
		}
	}
}

func (p publisher) lowStock(ctx context.Context, e LowStockEvent) {
	if p.bus == nil {
		return
	}
	if err := p.bus.PublishLowStock(ctx, e); err != nil {
		p.log.Warn("publish stock.low failed", zap.String("product_id", e.ProductID.String()), zap.Error(err))
	}
}

func (p publisher) saleCompleted(ctx context.Context, s *models.Sale) {
	if p.bus == nil {
		return
	}
	items := make([]SaleItemEvent, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, SaleItemEvent{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	err := p.bus.PublishSaleCompleted(ctx, SaleCompletedEvent{
		SaleID:   s.ID,
		ClientID: s.ClientID,
		ZoneID:   s.ZoneID,
		ActorID:  s.ActorID,
		Items:    items,
		Total:    s.Total,
		SoldAt:   s.SoldAt,
	})
	if err != nil {
		p.log.Warn("publish sale.completed failed", zap.String("sale_id", s.ID.String()), zap.Error(err))
	}
}

func (p publisher) orderReceived(ctx context.Context, o *models.SupplierOrder) {
	if p.bus == nil {
		return
	}
	items := make([]ReceivedItemEvent, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ReceivedItemEvent{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	var receivedAt time.Time
	if o.ReceivedAt != nil {
		receivedAt = *o.ReceivedAt
	}
	err := p.bus.PublishSupplierOrderReceived(ctx, SupplierOrderReceivedEvent{
		OrderID:    o.ID,
		SupplierID: o.SupplierID,
		ZoneID:     o.ZoneID,
		Items:      items,
		ReceivedAt: receivedAt,
	})
	if err != nil {
		p.log.Warn("publish supplier_order.received failed", zap.String("order_id", o.ID.String()), zap.Error(err))
	}
}
