package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrUserBlocked  = errors.New("user is blocked or inactive")

	ErrValidation             = errors.New("validation error")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInsufficientStockBatch = errors.New("insufficient stock for one or more items")
	ErrDuplicatePreferred     = errors.New("product already has a preferred supplier")
	ErrEmptyOrder             = errors.New("supplier order has no items")
	ErrInvalidOrderState      = errors.New("supplier order is not pending")
	ErrNoSalesZoneConfigured  = errors.New("no sales zone configured")

	ErrProductNotFound   = errors.New("product not found")
	ErrWarehouseNotFound = errors.New("warehouse not found")
	ErrZoneNotFound      = errors.New("zone not found")
	ErrSupplierNotFound  = errors.New("supplier not found")
	ErrLinkNotFound      = errors.New("product supplier link not found")
	ErrOrderNotFound     = errors.New("supplier order not found")
	ErrOrderItemNotFound = errors.New("supplier order item not found")
	ErrClientNotFound    = errors.New("client not found")
	ErrSaleNotFound      = errors.New("sale not found")
	ErrProfileNotFound   = errors.New("user profile not found")
	ErrMovementNotFound  = errors.New("movement not found")

	ErrInactiveProduct        = errors.New("product is inactive")
	ErrInactiveZone           = errors.New("zone is inactive")
	ErrZoneNotInWarehouse     = errors.New("zone does not belong to warehouse")
	ErrSKUAlreadyExists       = errors.New("sku already exists")
	ErrBarcodeAlreadyExists   = errors.New("barcode already exists")
	ErrTaxIDAlreadyExists     = errors.New("tax id already exists")
	ErrProductNotFromSupplier = errors.New("product is not supplied by this supplier")
	ErrSupplierBlocked        = errors.New("supplier is blocked")
	ErrResourceBusy           = errors.New("resource is busy, retry later")
)

// ValidationError некорректный ввод; всегда проверяется до обращения к остаткам.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// InsufficientStockError нехватка остатка в одной зоне, обнаруженная при списании.
type InsufficientStockError struct {
	ProductID uuid.UUID
	ZoneID    uuid.UUID
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s in zone %s: available %d, requested %d",
		e.ProductID, e.ZoneID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// InsufficientStockBatchError все проблемы корзины разом, чтобы показать их одним списком.
type InsufficientStockBatchError struct {
	Errors []string
}

func (e *InsufficientStockBatchError) Error() string {
	return ErrInsufficientStockBatch.Error() + ": " + strings.Join(e.Errors, "; ")
}

func (e *InsufficientStockBatchError) Unwrap() error { return ErrInsufficientStockBatch }
