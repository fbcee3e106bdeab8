package dto

import (
	"time"

	"warehouse-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateSupplierOrderRequest struct {
	SupplierID  uuid.UUID `json:"supplier_id" binding:"required"`
	WarehouseID uuid.UUID `json:"warehouse_id" binding:"required"`
	ZoneID      uuid.UUID `json:"zone_id" binding:"required"`
	Notes       string    `json:"notes" binding:"max=1000"`
}

type AddOrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int64     `json:"quantity" binding:"required,gt=0"`
}

type SupplierOrderItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type SupplierOrderResponse struct {
	ID          uuid.UUID                   `json:"id"`
	SupplierID  uuid.UUID                   `json:"supplier_id"`
	WarehouseID uuid.UUID                   `json:"warehouse_id"`
	ZoneID      uuid.UUID                   `json:"zone_id"`
	Status      string                      `json:"status"`
	RequestedBy uuid.UUID                   `json:"requested_by"`
	Notes       string                      `json:"notes,omitempty"`
	Items       []SupplierOrderItemResponse `json:"items"`
	Total       decimal.Decimal             `json:"total"`
	OrderedAt   time.Time                   `json:"ordered_at"`
	ReceivedAt  *time.Time                  `json:"received_at,omitempty"`
	CancelledAt *time.Time                  `json:"cancelled_at,omitempty"`
}

func FromOrderItem(it *models.SupplierOrderItem) SupplierOrderItemResponse {
	return SupplierOrderItemResponse{
		ID:        it.ID,
		ProductID: it.ProductID,
		Quantity:  it.Quantity,
		UnitPrice: it.UnitPrice,
	}
}

func FromSupplierOrder(o *models.SupplierOrder) SupplierOrderResponse {
	items := make([]SupplierOrderItemResponse, 0, len(o.Items))
	total := decimal.Zero
	for i := range o.Items {
		items = append(items, FromOrderItem(&o.Items[i]))
		total = total.Add(o.Items[i].UnitPrice.Mul(decimal.NewFromInt(o.Items[i].Quantity)))
	}
	return SupplierOrderResponse{
		ID:          o.ID,
		SupplierID:  o.SupplierID,
		WarehouseID: o.WarehouseID,
		ZoneID:      o.ZoneID,
		Status:      string(o.Status),
		RequestedBy: o.RequestedBy,
		Notes:       o.Notes,
		Items:       items,
		Total:       total,
		OrderedAt:   o.OrderedAt,
		ReceivedAt:  o.ReceivedAt,
		CancelledAt: o.CancelledAt,
	}
}

func FromSupplierOrders(list []models.SupplierOrder) []SupplierOrderResponse {
	out := make([]SupplierOrderResponse, 0, len(list))
	for i := range list {
		out = append(out, FromSupplierOrder(&list[i]))
	}
	return out
}
