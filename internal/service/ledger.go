package service

import (
	"context"

	"warehouse-service/internal/models"
	"warehouse-service/internal/repository"

	"github.com/google/uuid"
)

// StockLedger остатки по (товар, зона). Своей транзакции не открывает:
// вызывающий передаёт репозиторий, привязанный к своей транзакции.
type StockLedger struct {
	inv repository.InventoryRepo
}

func NewStockLedger(inv repository.InventoryRepo) StockLedger {
	return StockLedger{inv: inv}
}

// Get возвращает 0, если строки ещё нет.
func (l StockLedger) Get(ctx context.Context, productID, zoneID uuid.UUID) (int64, error) {
	inv, err := l.inv.Get(ctx, productID, zoneID)
	if err != nil {
		return 0, err
	}
	if inv == nil {
		return 0, nil
	}
	return inv.Quantity, nil
}

// Adjust применяет delta. Отрицательная delta списывается условным UPDATE,
// так что проверка остатка происходит в момент записи.
func (l StockLedger) Adjust(ctx context.Context, productID, zoneID uuid.UUID, delta int64) error {
	switch {
	case delta == 0:
		return nil
	case delta > 0:
		return l.inv.Add(ctx, productID, zoneID, delta)
	}

	ok, err := l.inv.TryDeduct(ctx, productID, zoneID, -delta)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	available, err := l.Get(ctx, productID, zoneID)
	if err != nil {
		return err
	}
	return &InsufficientStockError{
		ProductID: productID,
		ZoneID:    zoneID,
		Available: available,
		Requested: -delta,
	}
}

func (l StockLedger) Set(ctx context.Context, productID, zoneID uuid.UUID, quantity int64) error {
	if quantity < 0 {
		return invalid("quantity", "stock quantity cannot be negative")
	}
	return l.inv.Set(ctx, productID, zoneID, quantity)
}

// Total текущий остаток товара: сумма по всем зонам.
func (l StockLedger) Total(ctx context.Context, productID uuid.UUID) (int64, error) {
	return l.inv.SumByProduct(ctx, productID)
}

// ListByProduct строки остатка товара по зонам.
func (l StockLedger) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Inventory, error) {
	return l.inv.ListByProduct(ctx, productID)
}

// ListByZone остаток зоны по товарам в виде product_id -> quantity.
func (l StockLedger) ListByZone(ctx context.Context, zoneID uuid.UUID) (map[uuid.UUID]int64, error) {
	rows, err := l.inv.ListByZone(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		out[r.ProductID] = r.Quantity
	}
	return out, nil
}
