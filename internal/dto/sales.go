package dto

import (
	"time"

	"warehouse-service/internal/models"
	"warehouse-service/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartLineRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int64     `json:"quantity"`
}

// Количество строк корзины проверяет сервис, чтобы вернуть все ошибки разом.
type CheckoutRequest struct {
	ClientID *uuid.UUID        `json:"client_id"`
	Items    []CartLineRequest `json:"items" binding:"required,min=1,dive"`
}

type SaleItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type SaleResponse struct {
	ID       uuid.UUID          `json:"id"`
	ClientID *uuid.UUID         `json:"client_id,omitempty"`
	ActorID  uuid.UUID          `json:"actor_id"`
	ZoneID   uuid.UUID          `json:"zone_id"`
	Items    []SaleItemResponse `json:"items"`
	Total    decimal.Decimal    `json:"total"`
	SoldAt   time.Time          `json:"sold_at"`
}

func FromSale(s *models.Sale) SaleResponse {
	items := make([]SaleItemResponse, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, SaleItemResponse{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal(),
		})
	}
	return SaleResponse{
		ID:       s.ID,
		ClientID: s.ClientID,
		ActorID:  s.ActorID,
		ZoneID:   s.ZoneID,
		Items:    items,
		Total:    s.Total,
		SoldAt:   s.SoldAt,
	}
}

func FromSales(list []models.Sale) []SaleResponse {
	out := make([]SaleResponse, 0, len(list))
	for i := range list {
		out = append(out, FromSale(&list[i]))
	}
	return out
}

type SaleStockItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Available int64           `json:"available"`
}

type SalesZoneStockResponse struct {
	ZoneID uuid.UUID               `json:"zone_id"`
	Items  []SaleStockItemResponse `json:"items"`
}

func FromSalesZoneStock(st *service.SalesZoneStock) SalesZoneStockResponse {
	items := make([]SaleStockItemResponse, 0, len(st.Items))
	for _, it := range st.Items {
		items = append(items, SaleStockItemResponse{
			ProductID: it.Product.ID,
			SKU:       it.Product.SKU,
			Name:      it.Product.Name,
			Price:     it.Product.SalePrice,
			Available: it.Available,
		})
	}
	return SalesZoneStockResponse{ZoneID: st.ZoneID, Items: items}
}

type CreateClientRequest struct {
	Name  string  `json:"name" binding:"required,max=200"`
	TaxID *string `json:"tax_id" binding:"omitempty,max=32"`
	Email string  `json:"email" binding:"omitempty,email"`
	Phone string  `json:"phone" binding:"max=32"`
}

type ClientResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	TaxID     *string   `json:"tax_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func FromClient(c *models.Client) ClientResponse {
	return ClientResponse{
		ID:        c.ID,
		Name:      c.Name,
		TaxID:     c.TaxID,
		Email:     c.Email,
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt,
	}
}
