package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SKU            string          `gorm:"type:text;not null"`
	Barcode        *string         `gorm:"type:text"`
	Name           string          `gorm:"type:text;not null"`
	Category       string          `gorm:"type:text;not null;default:''"`
	PurchaseUnit   string          `gorm:"type:text;not null;default:'UN'"`
	SaleUnit       string          `gorm:"type:text;not null;default:'UN'"`
	UnitConversion decimal.Decimal `gorm:"type:numeric(12,4);not null;default:1"`
	StandardCost   decimal.Decimal `gorm:"type:numeric(18,6);not null;default:0"`
	// AverageCost пересчитывается только при приёмке заказа поставщику
	AverageCost      decimal.Decimal `gorm:"type:numeric(18,6);not null;default:0"`
	SalePrice        decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0"`
	TaxRate          decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	MinStock         int64           `gorm:"not null;default:0"`
	MaxStock         int64           `gorm:"not null;default:0"`
	ReorderPoint     int64           `gorm:"not null;default:0"`
	LotControlled    bool            `gorm:"not null;default:false"`
	SerialControlled bool            `gorm:"not null;default:false"`
	Perishable       bool            `gorm:"not null;default:false"`
	IsActive         bool            `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Product) TableName() string {
	return "products"
}

type Warehouse struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name     string    `gorm:"type:text;not null"`
	Address  string    `gorm:"type:text;not null;default:''"`
	IsActive bool      `gorm:"not null"`

	Zones []Zone `gorm:"foreignKey:WarehouseID"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Warehouse) TableName() string {
	return "warehouses"
}

type Zone struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	WarehouseID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"type:text;not null"`
	IsActive    bool      `gorm:"not null"`
	IsSalesZone bool      `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Zone) TableName() string {
	return "zones"
}

// Inventory строка складского учёта: остаток товара в конкретной зоне.
type Inventory struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_inventories_product_zone"`
	ZoneID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_inventories_product_zone"`
	Quantity  int64     `gorm:"not null;default:0"`

	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Inventory) TableName() string {
	return "inventories"
}

type SupplierStatus string

const (
	SupplierActive  SupplierStatus = "ACTIVE"
	SupplierBlocked SupplierStatus = "BLOCKED"
)

type Supplier struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	TaxID        string         `gorm:"type:text;not null"`
	LegalName    string         `gorm:"type:text;not null"`
	TradeName    string         `gorm:"type:text;not null;default:''"`
	Email        string         `gorm:"type:text;not null;default:''"`
	Phone        string         `gorm:"type:text;not null;default:''"`
	Address      string         `gorm:"type:text;not null;default:''"`
	PaymentTerms string         `gorm:"type:text;not null;default:''"`
	Currency     string         `gorm:"type:char(3);not null;default:'CLP'"`
	Status       SupplierStatus `gorm:"type:text;not null;default:'ACTIVE';index"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (Supplier) TableName() string {
	return "suppliers"
}

type ProductSupplier struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:ux_product_suppliers_pair"`
	SupplierID   uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:ux_product_suppliers_pair"`
	Cost         decimal.Decimal `gorm:"type:numeric(18,6);not null;default:0"`
	LeadTimeDays int             `gorm:"not null"`
	MinLot       int64           `gorm:"not null"`
	DiscountPct  decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	Preferred    bool            `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (ProductSupplier) TableName() string {
	return "product_suppliers"
}

type MovementType string

const (
	MovementIncoming   MovementType = "INCOMING"
	MovementOutgoing   MovementType = "OUTGOING"
	MovementAdjustment MovementType = "ADJUSTMENT"
	MovementReturn     MovementType = "RETURN"
	MovementTransfer   MovementType = "TRANSFER"
)

// Movement неизменяемая запись журнала движений. Ни update, ни delete.
type Movement struct {
	ID                uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Type              MovementType `gorm:"type:text;not null;index"`
	ProductID         uuid.UUID    `gorm:"type:uuid;not null;index"`
	Quantity          int64        `gorm:"not null"`
	SupplierID        *uuid.UUID   `gorm:"type:uuid"`
	WarehouseID       *uuid.UUID   `gorm:"type:uuid"`
	OriginZoneID      *uuid.UUID   `gorm:"type:uuid;index"`
	DestinationZoneID *uuid.UUID   `gorm:"type:uuid;index"`
	Lot               *string      `gorm:"type:text"`
	Serial            *string      `gorm:"type:text"`
	ExpiresAt         *time.Time
	Reference         string    `gorm:"type:text;not null;default:''"`
	Reason            string    `gorm:"type:text;not null;default:''"`
	ActorID           uuid.UUID `gorm:"type:uuid;not null;index"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
}

func (Movement) TableName() string {
	return "movements"
}

type SupplierOrderStatus string

const (
	SupplierOrderPending   SupplierOrderStatus = "PENDING"
	SupplierOrderReceived  SupplierOrderStatus = "RECEIVED"
	SupplierOrderCancelled SupplierOrderStatus = "CANCELLED"
)

type SupplierOrder struct {
	ID          uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SupplierID  uuid.UUID           `gorm:"type:uuid;not null;index"`
	WarehouseID uuid.UUID           `gorm:"type:uuid;not null"`
	ZoneID      uuid.UUID           `gorm:"type:uuid;not null"`
	Status      SupplierOrderStatus `gorm:"type:text;not null;default:'PENDING';index"`
	RequestedBy uuid.UUID           `gorm:"type:uuid;not null"`
	Notes       string              `gorm:"type:text;not null;default:''"`

	OrderedAt   time.Time `gorm:"not null;default:now();index"`
	ReceivedAt  *time.Time
	CancelledAt *time.Time
	UpdatedAt   time.Time `gorm:"not null;default:now()"`

	Items []SupplierOrderItem `gorm:"foreignKey:OrderID"`
}

func (SupplierOrder) TableName() string {
	return "supplier_orders"
}

type SupplierOrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:ux_supplier_order_items_order_product"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:ux_supplier_order_items_order_product"`
	Quantity  int64           `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(18,6);not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
}

func (SupplierOrderItem) TableName() string {
	return "supplier_order_items"
}

type Client struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name  string    `gorm:"type:text;not null"`
	TaxID *string   `gorm:"type:text"`
	Email string    `gorm:"type:text;not null;default:''"`
	Phone string    `gorm:"type:text;not null;default:''"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
}

func (Client) TableName() string {
	return "clients"
}

type Sale struct {
	ID       uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ClientID *uuid.UUID      `gorm:"type:uuid;index"`
	ActorID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ZoneID   uuid.UUID       `gorm:"type:uuid;not null"`
	Total    decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0"`

	SoldAt time.Time `gorm:"not null;default:now();index"`

	Items []SaleItem `gorm:"foreignKey:SaleID"`
}

func (Sale) TableName() string {
	return "sales"
}

type SaleItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity  int64           `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(18,2);not null"`
}

func (SaleItem) TableName() string {
	return "sale_items"
}

// LineTotal сумма строки продажи.
func (i SaleItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

type UserRole string

const (
	UserRoleAdmin     UserRole = "admin"
	UserRoleWarehouse UserRole = "warehouse"
	UserRoleSales     UserRole = "sales"
	UserRoleAuditor   UserRole = "auditor"
	UserRoleOperator  UserRole = "operator"
)

type UserStatus string

const (
	UserActive   UserStatus = "ACTIVE"
	UserBlocked  UserStatus = "BLOCKED"
	UserInactive UserStatus = "INACTIVE"
)

// UserProfile локальные метаданные пользователя; учётные данные живут у внешнего провайдера.
type UserProfile struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ExternalID  string     `gorm:"type:text;not null;uniqueIndex:ux_user_profiles_external_id"`
	Email       string     `gorm:"type:text;not null;default:''"`
	FirstName   string     `gorm:"type:text;not null;default:''"`
	LastName    string     `gorm:"type:text;not null;default:''"`
	Role        UserRole   `gorm:"type:text;not null;default:'operator'"`
	Status      UserStatus `gorm:"type:text;not null;default:'ACTIVE'"`
	WarehouseID *uuid.UUID `gorm:"type:uuid"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (UserProfile) TableName() string {
	return "user_profiles"
}
