package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"warehouse-service/internal/models"
	"warehouse-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CartLine struct {
	ProductID uuid.UUID
	Quantity  int64
}

type CheckoutInput struct {
	ClientID *uuid.UUID
	Cart     []CartLine
}

type SaleListFilter struct {
	Query    string
	ClientID *uuid.UUID
	ActorID  *uuid.UUID
	From     *time.Time
	To       *time.Time
	TotalMin *decimal.Decimal
	TotalMax *decimal.Decimal

	// OrderBy: sold_at, total, id; префикс "-" для убывания. По умолчанию -sold_at.
	OrderBy string
	Limit   int
	Offset  int
}

// SaleStockItem товар с остатком именно в зоне продаж.
type SaleStockItem struct {
	Product   models.Product
	Available int64
}

type SalesZoneStock struct {
	ZoneID uuid.UUID
	Items  []SaleStockItem
}

const (
	stockSearchMinQuery = 2
	stockSearchLimit    = 10
)

type SalesService interface {
	Checkout(ctx context.Context, in CheckoutInput) (*models.Sale, error)
	GetSale(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	ListSales(ctx context.Context, f SaleListFilter) ([]models.Sale, int64, error)
	// SearchStock ищет активные товары по названию/SKU и отдаёт остаток в зоне продаж.
	SearchStock(ctx context.Context, query string) (*SalesZoneStock, error)
}

type salesService struct {
	repo   *repository.Repository
	zones  *SalesZoneResolver
	proc   *movementProcessor
	locker Locker
	pub    publisher
	log    *zap.Logger
	now    func() time.Time
}

func NewSalesService(repo *repository.Repository, zones *SalesZoneResolver, events EventBus, locker Locker, log *zap.Logger) SalesService {
	return &salesService{
		repo:   repo,
		zones:  zones,
		proc:   &movementProcessor{now: time.Now},
		locker: locker,
		pub:    publisher{bus: events, log: log},
		log:    log,
		now:    time.Now,
	}
}

func (s *salesService) Checkout(ctx context.Context, in CheckoutInput) (*models.Sale, error) {
	actorID, err := requireRole(ctx, RoleSales)
	if err != nil {
		return nil, err
	}
	if len(in.Cart) == 0 {
		return nil, invalid("cart", "cart is empty")
	}

	if in.ClientID != nil {
		c, err := s.repo.Clients.GetByID(ctx, *in.ClientID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, ErrClientNotFound
		}
	}

	zone, err := s.zones.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, "checkout:zone:"+zone.ID.String())
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	// предварительная проверка собирает все проблемы; реальная защита — условное списание ниже
	if problems, err := s.validateCart(ctx, zone.ID, in.Cart); err != nil {
		return nil, err
	} else if len(problems) > 0 {
		return nil, &InsufficientStockBatchError{Errors: problems}
	}

	var (
		sale   *models.Sale
		posted []models.Movement
	)
	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		header := &models.Sale{
			ClientID: in.ClientID,
			ActorID:  actorID,
			ZoneID:   zone.ID,
			Total:    decimal.Zero,
			SoldAt:   s.now().UTC(),
		}
		if err := tx.Sales.Create(ctx, header); err != nil {
			return err
		}

		zoneID := zone.ID
		ref := "SALE:" + header.ID.String()
		total := decimal.Zero
		for _, line := range in.Cart {
			p, err := tx.Products.GetByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if p == nil {
				return &InsufficientStockBatchError{Errors: []string{fmt.Sprintf("product %s not found", line.ProductID)}}
			}

			item := &models.SaleItem{
				SaleID:    header.ID,
				ProductID: p.ID,
				Quantity:  line.Quantity,
				UnitPrice: p.SalePrice,
			}
			if err := tx.Sales.CreateItem(ctx, item); err != nil {
				return err
			}

			m, err := s.proc.apply(ctx, tx, actorID, MovementRequest{
				Type:         models.MovementOutgoing,
				ProductID:    p.ID,
				Quantity:     line.Quantity,
				OriginZoneID: &zoneID,
				Reference:    ref,
				Reason:       "sale",
			})
			if err != nil {
				var short *InsufficientStockError
				if errors.As(err, &short) {
					return &InsufficientStockBatchError{Errors: []string{shortageMessage(p, short.Requested, short.Available)}}
				}
				return err
			}
			posted = append(posted, *m)
			total = total.Add(item.LineTotal())
		}

		if err := tx.Sales.UpdateTotal(ctx, header.ID, total); err != nil {
			return err
		}

		var err error
		sale, err = tx.Sales.GetByID(ctx, header.ID)
		return err
	})
	if err != nil {
		err = txConflict(s.log, err)
		if !isDomainError(err) {
			s.log.Error("checkout failed", zap.String("zone_id", zone.ID.String()), zap.Error(err))
		}
		return nil, err
	}

	s.log.Info("sale completed",
		zap.String("sale_id", sale.ID.String()),
		zap.String("zone_id", zone.ID.String()),
		zap.String("total", sale.Total.String()),
		zap.Int("items", len(sale.Items)),
	)

	s.pub.movements(ctx, posted)
	s.pub.saleCompleted(ctx, sale)
	productIDs := make([]uuid.UUID, 0, len(sale.Items))
	for _, it := range sale.Items {
		productIDs = append(productIDs, it.ProductID)
	}
	checkLowStock(ctx, s.repo, s.pub, s.now, productIDs...)

	return sale, nil
}

// validateCart возвращает человекочитаемый список всех проблем корзины.
// Строки с одним товаром суммируются перед сравнением с остатком.
func (s *salesService) validateCart(ctx context.Context, zoneID uuid.UUID, cart []CartLine) ([]string, error) {
	var problems []string

	requested := make(map[uuid.UUID]int64, len(cart))
	order := make([]uuid.UUID, 0, len(cart))
	for i, line := range cart {
		if line.Quantity <= 0 {
			problems = append(problems, fmt.Sprintf("line %d: quantity must be greater than zero", i+1))
			continue
		}
		if _, seen := requested[line.ProductID]; !seen {
			order = append(order, line.ProductID)
		}
		requested[line.ProductID] += line.Quantity
	}

	found, err := s.repo.Products.BatchGetByIDs(ctx, order)
	if err != nil {
		return nil, err
	}
	products := make(map[uuid.UUID]*models.Product, len(found))
	for i := range found {
		products[found[i].ID] = &found[i]
	}

	ledger := NewStockLedger(s.repo.Inventories)
	for _, productID := range order {
		p := products[productID]
		if p == nil {
			problems = append(problems, fmt.Sprintf("product %s not found", productID))
			continue
		}
		if !p.IsActive {
			problems = append(problems, fmt.Sprintf("product %q (%s) is inactive", p.Name, p.SKU))
			continue
		}
		available, err := ledger.Get(ctx, productID, zoneID)
		if err != nil {
			return nil, err
		}
		if available < requested[productID] {
			problems = append(problems, shortageMessage(p, requested[productID], available))
		}
	}
	return problems, nil
}

func shortageMessage(p *models.Product, requested, available int64) string {
	return fmt.Sprintf("insufficient stock for %q (%s): requested %d, available %d", p.Name, p.SKU, requested, available)
}

func (s *salesService) GetSale(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	uid, role, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	sale, err := s.repo.Sales.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// чужая продажа для продавца не существует, как и в ListSales
	if sale == nil || (role == RoleSales && sale.ActorID != uid) {
		return nil, ErrSaleNotFound
	}
	return sale, nil
}

func (s *salesService) ListSales(ctx context.Context, f SaleListFilter) ([]models.Sale, int64, error) {
	uid, role, err := requireAuth(ctx)
	if err != nil {
		return nil, 0, err
	}
	rf := repository.SaleListFilter{
		Query:    f.Query,
		ClientID: f.ClientID,
		ActorID:  f.ActorID,
		From:     f.From,
		To:       f.To,
		TotalMin: f.TotalMin,
		TotalMax: f.TotalMax,
		OrderBy:  f.OrderBy,
		Limit:    f.Limit,
		Offset:   f.Offset,
	}
	// продавец видит только свои продажи
	if role == RoleSales {
		rf.ActorID = &uid
	}
	return s.repo.Sales.List(ctx, rf)
}

func (s *salesService) SearchStock(ctx context.Context, query string) (*SalesZoneStock, error) {
	if _, _, err := requireAuth(ctx); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if len([]rune(query)) < stockSearchMinQuery {
		return nil, invalid("q", fmt.Sprintf("query must be at least %d characters", stockSearchMinQuery))
	}

	zone, err := s.zones.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	active := true
	products, _, err := s.repo.Products.List(ctx, repository.ProductListFilter{
		Query:      query,
		OnlyActive: &active,
		Limit:      stockSearchLimit,
	})
	if err != nil {
		return nil, err
	}

	// товара без строки остатка в зоне нет в карте, это 0
	stock, err := NewStockLedger(s.repo.Inventories).ListByZone(ctx, zone.ID)
	if err != nil {
		return nil, err
	}

	out := &SalesZoneStock{ZoneID: zone.ID, Items: make([]SaleStockItem, 0, len(products))}
	for _, p := range products {
		out.Items = append(out.Items, SaleStockItem{Product: p, Available: stock[p.ID]})
	}
	return out, nil
}
