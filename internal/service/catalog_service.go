package service

import (
	"context"
	"fmt"
	"strings"

	"warehouse-service/internal/models"
	"warehouse-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductInput struct {
	SKU              string
	Barcode          *string
	Name             string
	Category         string
	PurchaseUnit     string
	SaleUnit         string
	UnitConversion   decimal.Decimal
	StandardCost     decimal.Decimal
	SalePrice        decimal.Decimal
	TaxRate          decimal.Decimal
	MinStock         int64
	MaxStock         int64
	ReorderPoint     *int64
	LotControlled    bool
	SerialControlled bool
	Perishable       bool
}

// ProductPatch nil означает "не менять". Средняя себестоимость через patch не меняется.
type ProductPatch struct {
	Barcode      *string
	Name         *string
	Category     *string
	StandardCost *decimal.Decimal
	SalePrice    *decimal.Decimal
	TaxRate      *decimal.Decimal
	MinStock     *int64
	MaxStock     *int64
	ReorderPoint *int64
	IsActive     *bool
}

type ProductListFilter struct {
	Query      string
	Category   string
	OnlyActive *bool
	Limit      int
	Offset     int
}

type ZoneStock struct {
	ZoneID   uuid.UUID
	Quantity int64
}

type StockSummary struct {
	ProductID uuid.UUID
	Total     int64
	Zones     []ZoneStock
}

type SupplierInput struct {
	TaxID        string
	LegalName    string
	TradeName    string
	Email        string
	Phone        string
	Address      string
	PaymentTerms string
	Currency     string
}

type SupplierListFilter struct {
	Query  string
	Status *models.SupplierStatus
	Limit  int
	Offset int
}

type ClientInput struct {
	Name  string
	TaxID *string
	Email string
	Phone string
}

type CatalogService interface {
	CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, patch ProductPatch) (*models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, f ProductListFilter) ([]models.Product, int64, error)
	GetStock(ctx context.Context, productID uuid.UUID) (*StockSummary, error)

	CreateWarehouse(ctx context.Context, name, address string) (*models.Warehouse, error)
	ListWarehouses(ctx context.Context, onlyActive bool) ([]models.Warehouse, error)
	SetWarehouseActive(ctx context.Context, id uuid.UUID, active bool) error
	CreateZone(ctx context.Context, warehouseID uuid.UUID, name string) (*models.Zone, error)
	ListZones(ctx context.Context, warehouseID *uuid.UUID, onlyActive bool) ([]models.Zone, error)
	SetZoneActive(ctx context.Context, id uuid.UUID, active bool) error

	CreateSupplier(ctx context.Context, in SupplierInput) (*models.Supplier, error)
	ListSuppliers(ctx context.Context, f SupplierListFilter) ([]models.Supplier, int64, error)
	SetSupplierStatus(ctx context.Context, id uuid.UUID, status models.SupplierStatus) error

	CreateClient(ctx context.Context, in ClientInput) (*models.Client, error)
	GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error)
}

type catalogService struct {
	repo  *repository.Repository
	zones *SalesZoneResolver
	log   *zap.Logger
}

// NewCatalogService zones нужен, чтобы сбрасывать кэш зоны продаж при (де)активации зон; может быть nil.
func NewCatalogService(repo *repository.Repository, zones *SalesZoneResolver, log *zap.Logger) CatalogService {
	return &catalogService{repo: repo, zones: zones, log: log}
}

func validateProduct(in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "name is required")
	}
	if in.UnitConversion.IsNegative() {
		return invalid("unit_conversion", "unit conversion must be > 0")
	}
	if in.StandardCost.IsNegative() {
		return invalid("standard_cost", "standard cost must be >= 0")
	}
	if in.SalePrice.IsNegative() {
		return invalid("sale_price", "sale price must be >= 0")
	}
	if in.TaxRate.IsNegative() || in.TaxRate.GreaterThan(hundred) {
		return invalid("tax_rate", "tax rate must be between 0 and 100")
	}
	if in.MinStock < 0 {
		return invalid("min_stock", "min stock must be >= 0")
	}
	if in.MaxStock < 0 {
		return invalid("max_stock", "max stock must be >= 0")
	}
	if in.MaxStock > 0 && in.MaxStock < in.MinStock {
		return invalid("max_stock", "max stock must be >= min stock")
	}
	if in.ReorderPoint != nil && *in.ReorderPoint < 0 {
		return invalid("reorder_point", "reorder point must be >= 0")
	}
	return nil
}

func (s *catalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if _, err := requireRole(ctx, RoleWarehouse); err != nil {
		return nil, err
	}
	if err := validateProduct(in); err != nil {
		return nil, err
	}

	p := &models.Product{
		SKU:              strings.TrimSpace(in.SKU),
		Barcode:          trimOptional(in.Barcode),
		Name:             strings.TrimSpace(in.Name),
		Category:         strings.TrimSpace(in.Category),
		PurchaseUnit:     unitOrDefault(in.PurchaseUnit),
		SaleUnit:         unitOrDefault(in.SaleUnit),
		UnitConversion:   in.UnitConversion,
		StandardCost:     in.StandardCost,
		AverageCost:      in.StandardCost,
		SalePrice:        in.SalePrice,
		TaxRate:          in.TaxRate,
		MinStock:         in.MinStock,
		MaxStock:         in.MaxStock,
		ReorderPoint:     in.MinStock,
		LotControlled:    in.LotControlled,
		SerialControlled: in.SerialControlled,
		Perishable:       in.Perishable,
		IsActive:         true,
	}
	if p.UnitConversion.IsZero() {
		p.UnitConversion = decimal.NewFromInt(1)
	}
	if in.ReorderPoint != nil {
		p.ReorderPoint = *in.ReorderPoint
	}

	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if p.SKU == "" {
			sku, err := nextSKU(ctx, tx.Products)
			if err != nil {
				return err
			}
			p.SKU = sku
		} else {
			existing, err := tx.Products.GetBySKU(ctx, p.SKU)
			if err != nil {
				return err
			}
			if existing != nil {
				return ErrSKUAlreadyExists
			}
		}

		if p.Barcode != nil {
			existing, err := tx.Products.GetByBarcode(ctx, *p.Barcode)
			if err != nil {
				return err
			}
			if existing != nil {
				return ErrBarcodeAlreadyExists
			}
		}

		if err := tx.Products.Create(ctx, p); err != nil {
			return mapProductViolation(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("product created", zap.String("product_id", p.ID.String()), zap.String("sku", p.SKU))
	return p, nil
}

// nextSKU SKU-000001, SKU-000002, ... начиная с количества товаров + 1 до первого свободного.
func nextSKU(ctx context.Context, products repository.ProductRepo) (string, error) {
	n, err := products.Count(ctx)
	if err != nil {
		return "", err
	}
	for i := n + 1; ; i++ {
		sku := fmt.Sprintf("SKU-%06d", i)
		existing, err := products.GetBySKU(ctx, sku)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return sku, nil
		}
	}
}

func unitOrDefault(u string) string {
	u = strings.ToUpper(strings.TrimSpace(u))
	if u == "" {
		return "UN"
	}
	return u
}

func mapProductViolation(err error) error {
	switch {
	case repository.IsUniqueViolation(err, "ux_products_sku"):
		return ErrSKUAlreadyExists
	case repository.IsUniqueViolation(err, "ux_products_barcode"):
		return ErrBarcodeAlreadyExists
	}
	return err
}

func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, patch ProductPatch) (*models.Product, error) {
	if _, err := requireRole(ctx, RoleWarehouse); err != nil {
		return nil, err
	}

	var updated *models.Product
	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		p, err := tx.Products.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return ErrProductNotFound
		}

		// проверяем итоговое состояние, а не только изменённые поля
		merged := ProductInput{
			Name:           p.Name,
			UnitConversion: p.UnitConversion,
			StandardCost:   p.StandardCost,
			SalePrice:      p.SalePrice,
			TaxRate:        p.TaxRate,
			MinStock:       p.MinStock,
			MaxStock:       p.MaxStock,
			ReorderPoint:   &p.ReorderPoint,
		}
		fields := map[string]any{}

		if patch.Name != nil {
			merged.Name = *patch.Name
			fields["name"] = strings.TrimSpace(*patch.Name)
		}
		if patch.Category != nil {
			fields["category"] = strings.TrimSpace(*patch.Category)
		}
		if patch.StandardCost != nil {
			merged.StandardCost = *patch.StandardCost
			fields["standard_cost"] = *patch.StandardCost
		}
		if patch.SalePrice != nil {
			merged.SalePrice = *patch.SalePrice
			fields["sale_price"] = *patch.SalePrice
		}
		if patch.TaxRate != nil {
			merged.TaxRate = *patch.TaxRate
			fields["tax_rate"] = *patch.TaxRate
		}
		if patch.MinStock != nil {
			merged.MinStock = *patch.MinStock
			fields["min_stock"] = *patch.MinStock
		}
		if patch.MaxStock != nil {
			merged.MaxStock = *patch.MaxStock
			fields["max_stock"] = *patch.MaxStock
		}
		if patch.ReorderPoint != nil {
			merged.ReorderPoint = patch.ReorderPoint
			fields["reorder_point"] = *patch.ReorderPoint
		}
		if patch.IsActive != nil {
			fields["is_active"] = *patch.IsActive
		}
		if patch.Barcode != nil {
			barcode := trimOptional(patch.Barcode)
			if barcode != nil {
				other, err := tx.Products.GetByBarcode(ctx, *barcode)
				if err != nil {
					return err
				}
				if other != nil && other.ID != p.ID {
					return ErrBarcodeAlreadyExists
				}
			}
			fields["barcode"] = barcode
		}

		if err := validateProduct(merged); err != nil {
			return err
		}
		if err := tx.Products.UpdateFields(ctx, id, fields); err != nil {
			return mapProductViolation(err)
		}
		updated, err = tx.Products.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if _, _, err := requireAuth(ctx); err != nil {
		return nil, err
	}
	p, err := s.repo.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *catalogService) ListProducts(ctx context.Context, f ProductListFilter) ([]models.Product, int64, error) {
	if _, _, err := requireAuth(ctx); err != nil {
		return nil, 0, err
	}
	return s.repo.Products.List(ctx, repository.ProductListFilter{
		Query:      f.Query,
		Category:   f.Category,
		OnlyActive: f.OnlyActive,
		Limit:      f.Limit,
		Offset:     f.Offset,
	})
}

func (s *catalogService) GetStock(ctx context.Context, productID uuid.UUID) (*StockSummary, error) {
	if _, _, err := requireAuth(ctx); err != nil {
		return nil, err
	}
	p, err := s.repo.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}

	rows, err := NewStockLedger(s.repo.Inventories).ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	summary := &StockSummary{ProductID: productID, Zones: make([]ZoneStock, 0, len(rows))}
	for _, r := range rows {
		summary.Total += r.Quantity
		summary.Zones = append(summary.Zones, ZoneStock{ZoneID: r.ZoneID, Quantity: r.Quantity})
	}
	return summary, nil
}

func (s *catalogService) CreateWarehouse(ctx context.Context, name, address string) (*models.Warehouse, error) {
	if _, err := requireRole(ctx); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "name is required")
	}
	w := &models.Warehouse{Name: name, Address: strings.TrimSpace(address), IsActive: true}
	if err := s.repo.Warehouses.Create(ctx, w); err != nil {
		return nil, err
	}
	w.Zones = []models.Zone{}
	return w, nil
}

func (s *catalogService) ListWarehouses(ctx context.Context, onlyActive bool) ([]models.Warehouse, error) {
	if _, _, err := requireAuth(ctx); err != nil {
		return nil, err
	}
	return s.repo.Warehouses.List(ctx, onlyActive)
}

func (s *catalogService) SetWarehouseActive(ctx context.Context, id uuid.UUID, active bool) error {
	if _, err := requireRole(ctx); err != nil {
		return err
	}
	ok, err := s.repo.Warehouses.SetActive(ctx, id, active)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWarehouseNotFound
	}
	return nil
}

func (s *catalogService) CreateZone(ctx context.Context, warehouseID uuid.UUID, name string) (*models.Zone, error) {
	if _, err := requireRole(ctx); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "name is required")
	}
	w, err := s.repo.Warehouses.GetByID(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrWarehouseNotFound
	}
	z := &models.Zone{WarehouseID: w.ID, Name: name, IsActive: true}
	if err := s.repo.Zones.Create(ctx, z); err != nil {
		return nil, err
	}
	s.refreshSalesZone()
	return z, nil
}

func (s *catalogService) ListZones(ctx context.Context, warehouseID *uuid.UUID, onlyActive bool) ([]models.Zone, error) {
	if _, _, err := requireAuth(ctx); err != nil {
		return nil, err
	}
	return s.repo.Zones.List(ctx, warehouseID, onlyActive)
}

func (s *catalogService) SetZoneActive(ctx context.Context, id uuid.UUID, active bool) error {
	if _, err := requireRole(ctx); err != nil {
		return err
	}
	ok, err := s.repo.Zones.SetActive(ctx, id, active)
	if err != nil {
		return err
	}
	if !ok {
		return ErrZoneNotFound
	}
	s.refreshSalesZone()
	return nil
}

func (s *catalogService) refreshSalesZone() {
	if s.zones != nil {
		s.zones.Refresh()
	}
}

func (s *catalogService) CreateSupplier(ctx context.Context, in SupplierInput) (*models.Supplier, error) {
	if _, err := requireRole(ctx, RoleWarehouse); err != nil {
		return nil, err
	}
	taxID := strings.TrimSpace(in.TaxID)
	if taxID == "" {
		return nil, invalid("tax_id", "tax id is required")
	}
	legal := strings.TrimSpace(in.LegalName)
	if legal == "" {
		return nil, invalid("legal_name", "legal name is required")
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "CLP"
	}
	if len(currency) != 3 {
		return nil, invalid("currency", "currency must be a 3-letter code")
	}

	existing, err := s.repo.Suppliers.GetByTaxID(ctx, taxID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrTaxIDAlreadyExists
	}

	sup := &models.Supplier{
		TaxID:        taxID,
		LegalName:    legal,
		TradeName:    strings.TrimSpace(in.TradeName),
		Email:        strings.TrimSpace(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
		PaymentTerms: strings.TrimSpace(in.PaymentTerms),
		Currency:     currency,
		Status:       models.SupplierActive,
	}
	if err := s.repo.Suppliers.Create(ctx, sup); err != nil {
		if repository.IsUniqueViolation(err, "ux_suppliers_tax_id") {
			return nil, ErrTaxIDAlreadyExists
		}
		return nil, err
	}
	return sup, nil
}

func (s *catalogService) ListSuppliers(ctx context.Context, f SupplierListFilter) ([]models.Supplier, int64, error) {
	if _, _, err := requireAuth(ctx); err != nil {
		return nil, 0, err
	}
	return s.repo.Suppliers.List(ctx, repository.SupplierListFilter{
		Query:  f.Query,
		Status: f.Status,
		Limit:  f.Limit,
		Offset: f.Offset,
	})
}

func (s *catalogService) SetSupplierStatus(ctx context.Context, id uuid.UUID, status models.SupplierStatus) error {
	if _, err := requireRole(ctx, RoleWarehouse); err != nil {
		return err
	}
	if status != models.SupplierActive && status != models.SupplierBlocked {
		return invalid("status", "status must be ACTIVE or BLOCKED")
	}
	ok, err := s.repo.Suppliers.SetStatus(ctx, id, status)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSupplierNotFound
	}
	return nil
}

func (s *catalogService) CreateClient(ctx context.Context, in ClientInput) (*models.Client, error) {
	if _, err := requireRole(ctx, RoleSales); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name", "name is required")
	}
	c := &models.Client{
		Name:  name,
		TaxID: trimOptional(in.TaxID),
		Email: strings.TrimSpace(in.Email),
		Phone: strings.TrimSpace(in.Phone),
	}
	if c.TaxID != nil {
		existing, err := s.repo.Clients.GetByTaxID(ctx, *c.TaxID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrTaxIDAlreadyExists
		}
	}
	if err := s.repo.Clients.Create(ctx, c); err != nil {
		if repository.IsUniqueViolation(err, "ux_clients_tax_id") {
			return nil, ErrTaxIDAlreadyExists
		}
		return nil, err
	}
	return c, nil
}

func (s *catalogService) GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	if _, _, err := requireAuth(ctx); err != nil {
		return nil, err
	}
	c, err := s.repo.Clients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrClientNotFound
	}
	return c, nil
}
