package dto

import (
	"time"

	"warehouse-service/internal/models"
	"warehouse-service/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	SKU              string          `json:"sku" binding:"max=64"`
	Barcode          *string         `json:"barcode" binding:"omitempty,max=64"`
	Name             string          `json:"name" binding:"required,max=200"`
	Category         string          `json:"category" binding:"max=100"`
	PurchaseUnit     string          `json:"purchase_unit" binding:"max=16"`
	SaleUnit         string          `json:"sale_unit" binding:"max=16"`
	UnitConversion   decimal.Decimal `json:"unit_conversion"`
	StandardCost     decimal.Decimal `json:"standard_cost"`
	SalePrice        decimal.Decimal `json:"sale_price"`
	TaxRate          decimal.Decimal `json:"tax_rate"`
	MinStock         int64           `json:"min_stock" binding:"gte=0"`
	MaxStock         int64           `json:"max_stock" binding:"gte=0"`
	ReorderPoint     *int64          `json:"reorder_point" binding:"omitempty,gte=0"`
	LotControlled    bool            `json:"lot_controlled"`
	SerialControlled bool            `json:"serial_controlled"`
	Perishable       bool            `json:"perishable"`
}

func (r CreateProductRequest) ToInput() service.ProductInput {
	return service.ProductInput{
		SKU:              r.SKU,
		Barcode:          r.Barcode,
		Name:             r.Name,
		Category:         r.Category,
		PurchaseUnit:     r.PurchaseUnit,
		SaleUnit:         r.SaleUnit,
		UnitConversion:   r.UnitConversion,
		StandardCost:     r.StandardCost,
		SalePrice:        r.SalePrice,
		TaxRate:          r.TaxRate,
		MinStock:         r.MinStock,
		MaxStock:         r.MaxStock,
		ReorderPoint:     r.ReorderPoint,
		LotControlled:    r.LotControlled,
		SerialControlled: r.SerialControlled,
		Perishable:       r.Perishable,
	}
}

type UpdateProductRequest struct {
	Barcode      *string          `json:"barcode" binding:"omitempty,max=64"`
	Name         *string          `json:"name" binding:"omitempty,max=200"`
	Category     *string          `json:"category" binding:"omitempty,max=100"`
	StandardCost *decimal.Decimal `json:"standard_cost"`
	SalePrice    *decimal.Decimal `json:"sale_price"`
	TaxRate      *decimal.Decimal `json:"tax_rate"`
	MinStock     *int64           `json:"min_stock"`
	MaxStock     *int64           `json:"max_stock"`
	ReorderPoint *int64           `json:"reorder_point"`
	IsActive     *bool            `json:"is_active"`
}

func (r UpdateProductRequest) ToPatch() service.ProductPatch {
	return service.ProductPatch{
		Barcode:      r.Barcode,
		Name:         r.Name,
		Category:     r.Category,
		StandardCost: r.StandardCost,
		SalePrice:    r.SalePrice,
		TaxRate:      r.TaxRate,
		MinStock:     r.MinStock,
		MaxStock:     r.MaxStock,
		ReorderPoint: r.ReorderPoint,
		IsActive:     r.IsActive,
	}
}

type ProductResponse struct {
	ID               uuid.UUID       `json:"id"`
	SKU              string          `json:"sku"`
	Barcode          *string         `json:"barcode,omitempty"`
	Name             string          `json:"name"`
	Category         string          `json:"category,omitempty"`
	PurchaseUnit     string          `json:"purchase_unit"`
	SaleUnit         string          `json:"sale_unit"`
	UnitConversion   decimal.Decimal `json:"unit_conversion"`
	StandardCost     decimal.Decimal `json:"standard_cost"`
	AverageCost      decimal.Decimal `json:"average_cost"`
	SalePrice        decimal.Decimal `json:"sale_price"`
	TaxRate          decimal.Decimal `json:"tax_rate"`
	MinStock         int64           `json:"min_stock"`
	MaxStock         int64           `json:"max_stock"`
	ReorderPoint     int64           `json:"reorder_point"`
	LotControlled    bool            `json:"lot_controlled"`
	SerialControlled bool            `json:"serial_controlled"`
	Perishable       bool            `json:"perishable"`
	IsActive         bool            `json:"is_active"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func FromProduct(p *models.Product) ProductResponse {
	return ProductResponse{
		ID:               p.ID,
		SKU:              p.SKU,
		Barcode:          p.Barcode,
		Name:             p.Name,
		Category:         p.Category,
		PurchaseUnit:     p.PurchaseUnit,
		SaleUnit:         p.SaleUnit,
		UnitConversion:   p.UnitConversion,
		StandardCost:     p.StandardCost,
		AverageCost:      p.AverageCost,
		SalePrice:        p.SalePrice,
		TaxRate:          p.TaxRate,
		MinStock:         p.MinStock,
		MaxStock:         p.MaxStock,
		ReorderPoint:     p.ReorderPoint,
		LotControlled:    p.LotControlled,
		SerialControlled: p.SerialControlled,
		Perishable:       p.Perishable,
		IsActive:         p.IsActive,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func FromProducts(list []models.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(list))
	for i := range list {
		out = append(out, FromProduct(&list[i]))
	}
	return out
}

type ZoneStockResponse struct {
	ZoneID   uuid.UUID `json:"zone_id"`
	Quantity int64     `json:"quantity"`
}

type StockResponse struct {
	ProductID uuid.UUID           `json:"product_id"`
	Total     int64               `json:"total"`
	Zones     []ZoneStockResponse `json:"zones"`
}

func FromStock(s *service.StockSummary) StockResponse {
	zones := make([]ZoneStockResponse, 0, len(s.Zones))
	for _, z := range s.Zones {
		zones = append(zones, ZoneStockResponse{ZoneID: z.ZoneID, Quantity: z.Quantity})
	}
	return StockResponse{ProductID: s.ProductID, Total: s.Total, Zones: zones}
}

type CreateWarehouseRequest struct {
	Name    string `json:"name" binding:"required,max=200"`
	Address string `json:"address" binding:"max=500"`
}

type CreateZoneRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type ZoneResponse struct {
	ID          uuid.UUID `json:"id"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	Name        string    `json:"name"`
	IsActive    bool      `json:"is_active"`
	IsSalesZone bool      `json:"is_sales_zone"`
	CreatedAt   time.Time `json:"created_at"`
}

type WarehouseResponse struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Address   string         `json:"address,omitempty"`
	IsActive  bool           `json:"is_active"`
	Zones     []ZoneResponse `json:"zones"`
	CreatedAt time.Time      `json:"created_at"`
}

func FromZone(z *models.Zone) ZoneResponse {
	return ZoneResponse{
		ID:          z.ID,
		WarehouseID: z.WarehouseID,
		Name:        z.Name,
		IsActive:    z.IsActive,
		IsSalesZone: z.IsSalesZone,
		CreatedAt:   z.CreatedAt,
	}
}

func FromZones(list []models.Zone) []ZoneResponse {
	out := make([]ZoneResponse, 0, len(list))
	for i := range list {
		out = append(out, FromZone(&list[i]))
	}
	return out
}

func FromWarehouse(w *models.Warehouse) WarehouseResponse {
	return WarehouseResponse{
		ID:        w.ID,
		Name:      w.Name,
		Address:   w.Address,
		IsActive:  w.IsActive,
		Zones:     FromZones(w.Zones),
		CreatedAt: w.CreatedAt,
	}
}

func FromWarehouses(list []models.Warehouse) []WarehouseResponse {
	out := make([]WarehouseResponse, 0, len(list))
	for i := range list {
		out = append(out, FromWarehouse(&list[i]))
	}
	return out
}

type CreateSupplierRequest struct {
	TaxID        string `json:"tax_id" binding:"required,max=32"`
	LegalName    string `json:"legal_name" binding:"required,max=200"`
	TradeName    string `json:"trade_name" binding:"max=200"`
	Email        string `json:"email" binding:"omitempty,email"`
	Phone        string `json:"phone" binding:"max=32"`
	Address      string `json:"address" binding:"max=500"`
	PaymentTerms string `json:"payment_terms" binding:"max=100"`
	Currency     string `json:"currency" binding:"omitempty,len=3"`
}

func (r CreateSupplierRequest) ToInput() service.SupplierInput {
	return service.SupplierInput{
		TaxID:        r.TaxID,
		LegalName:    r.LegalName,
		TradeName:    r.TradeName,
		Email:        r.Email,
		Phone:        r.Phone,
		Address:      r.Address,
		PaymentTerms: r.PaymentTerms,
		Currency:     r.Currency,
	}
}

type SetSupplierStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE BLOCKED"`
}

type SupplierResponse struct {
	ID           uuid.UUID `json:"id"`
	TaxID        string    `json:"tax_id"`
	LegalName    string    `json:"legal_name"`
	TradeName    string    `json:"trade_name,omitempty"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	PaymentTerms string    `json:"payment_terms,omitempty"`
	Currency     string    `json:"currency"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func FromSupplier(s *models.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:           s.ID,
		TaxID:        s.TaxID,
		LegalName:    s.LegalName,
		TradeName:    s.TradeName,
		Email:        s.Email,
		Phone:        s.Phone,
		Address:      s.Address,
		PaymentTerms: s.PaymentTerms,
		Currency:     s.Currency,
		Status:       string(s.Status),
		CreatedAt:    s.CreatedAt,
	}
}

func FromSuppliers(list []models.Supplier) []SupplierResponse {
	out := make([]SupplierResponse, 0, len(list))
	for i := range list {
		out = append(out, FromSupplier(&list[i]))
	}
	return out
}

type UpsertLinkRequest struct {
	Cost         decimal.Decimal `json:"cost"`
	LeadTimeDays *int            `json:"lead_time_days" binding:"omitempty,gte=0"`
	MinLot       *int64          `json:"min_lot" binding:"omitempty,gte=0"`
	DiscountPct  decimal.Decimal `json:"discount_pct"`
	Preferred    bool            `json:"preferred"`
}

type LinkResponse struct {
	ProductID    uuid.UUID       `json:"product_id"`
	SupplierID   uuid.UUID       `json:"supplier_id"`
	Cost         decimal.Decimal `json:"cost"`
	LeadTimeDays int             `json:"lead_time_days"`
	MinLot       int64           `json:"min_lot"`
	DiscountPct  decimal.Decimal `json:"discount_pct"`
	Preferred    bool            `json:"preferred"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func FromLink(l *models.ProductSupplier) LinkResponse {
	return LinkResponse{
		ProductID:    l.ProductID,
		SupplierID:   l.SupplierID,
		Cost:         l.Cost,
		LeadTimeDays: l.LeadTimeDays,
		MinLot:       l.MinLot,
		DiscountPct:  l.DiscountPct,
		Preferred:    l.Preferred,
		UpdatedAt:    l.UpdatedAt,
	}
}

func FromLinks(list []models.ProductSupplier) []LinkResponse {
	out := make([]LinkResponse, 0, len(list))
	for i := range list {
		out = append(out, FromLink(&list[i]))
	}
	return out
}

type ProfileResponse struct {
	ID          uuid.UUID  `json:"id"`
	ExternalID  string     `json:"external_id"`
	Email       string     `json:"email,omitempty"`
	FirstName   string     `json:"first_name,omitempty"`
	LastName    string     `json:"last_name,omitempty"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	WarehouseID *uuid.UUID `json:"warehouse_id,omitempty"`
}

func FromProfile(p *models.UserProfile) ProfileResponse {
	return ProfileResponse{
		ID:          p.ID,
		ExternalID:  p.ExternalID,
		Email:       p.Email,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Role:        string(p.Role),
		Status:      string(p.Status),
		WarehouseID: p.WarehouseID,
	}
}

type UpsertProfileRequest struct {
	ExternalID  string     `json:"external_id" binding:"required,max=128"`
	Email       string     `json:"email" binding:"omitempty,email"`
	FirstName   string     `json:"first_name" binding:"max=100"`
	LastName    string     `json:"last_name" binding:"max=100"`
	Role        string     `json:"role" binding:"omitempty,oneof=admin warehouse sales auditor operator"`
	WarehouseID *uuid.UUID `json:"warehouse_id"`
}

type SetProfileStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE BLOCKED INACTIVE"`
}
