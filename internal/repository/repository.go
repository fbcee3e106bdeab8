package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Repository struct {
	DB               *gorm.DB
	Products         ProductRepo
	Warehouses       WarehouseRepo
	Zones            ZoneRepo
	Inventories      InventoryRepo
	Suppliers        SupplierRepo
	ProductSuppliers ProductSupplierRepo
	Movements        MovementRepo
	SupplierOrders   SupplierOrderRepo
	OrderItems       SupplierOrderItemRepo
	Clients          ClientRepo
	Sales            SaleRepo
	Users            UserProfileRepo
}

func buildRepository(db *gorm.DB) *Repository {
	return &Repository{
		DB:               db,
		Products:         NewProductRepo(db),
		Warehouses:       NewWarehouseRepo(db),
		Zones:            NewZoneRepo(db),
		Inventories:      NewInventoryRepo(db),
		Suppliers:        NewSupplierRepo(db),
		ProductSuppliers: NewProductSupplierRepo(db),
		Movements:        NewMovementRepo(db),
		SupplierOrders:   NewSupplierOrderRepo(db),
		OrderItems:       NewSupplierOrderItemRepo(db),
		Clients:          NewClientRepo(db),
		Sales:            NewSaleRepo(db),
		Users:            NewUserProfileRepo(db),
	}
}

func New(db *gorm.DB) *Repository { return buildRepository(db) }

// Глобальная транзакция на весь набор репо. Ошибка из fn откатывает всё.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(buildRepository(tx))
	})
}

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// IsRetryable транзакция прервана postgres из-за конфликта блокировок и может быть повторена.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgDeadlockDetected || pgErr.Code == pgSerializationFailure
}

// IsUniqueViolation сообщает, нарушен ли уникальный индекс constraint (пустое имя — любой).
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != pgUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
