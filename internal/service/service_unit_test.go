package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"warehouse-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type invKey struct{ product, zone uuid.UUID }

// fakeInventory остатки в памяти с той же семантикой условного списания.
type fakeInventory struct {
	rows map[invKey]int64
	err  error
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{rows: map[invKey]int64{}}
}

func (f *fakeInventory) row(p, z uuid.UUID) (*models.Inventory, bool) {
	q, ok := f.rows[invKey{p, z}]
	if !ok {
		return nil, false
	}
	return &models.Inventory{ProductID: p, ZoneID: z, Quantity: q}, true
}

func (f *fakeInventory) Get(_ context.Context, p, z uuid.UUID) (*models.Inventory, error) {
	if f.err != nil {
		return nil, f.err
	}
	inv, _ := f.row(p, z)
	return inv, nil
}

func (f *fakeInventory) GetForUpdate(ctx context.Context, p, z uuid.UUID) (*models.Inventory, error) {
	return f.Get(ctx, p, z)
}

func (f *fakeInventory) Add(_ context.Context, p, z uuid.UUID, qty int64) error {
	if f.err != nil {
		return f.err
	}
	f.rows[invKey{p, z}] += qty
	return nil
}

func (f *fakeInventory) TryDeduct(_ context.Context, p, z uuid.UUID, qty int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	q, ok := f.rows[invKey{p, z}]
	if !ok || q < qty {
		return false, nil
	}
	f.rows[invKey{p, z}] = q - qty
	return true, nil
}

func (f *fakeInventory) Set(_ context.Context, p, z uuid.UUID, qty int64) error {
	if f.err != nil {
		return f.err
	}
	f.rows[invKey{p, z}] = qty
	return nil
}

func (f *fakeInventory) SumByProduct(_ context.Context, p uuid.UUID) (int64, error) {
	var total int64
	for k, q := range f.rows {
		if k.product == p {
			total += q
		}
	}
	return total, nil
}

func (f *fakeInventory) ListByProduct(_ context.Context, p uuid.UUID) ([]models.Inventory, error) {
	var out []models.Inventory
	for k, q := range f.rows {
		if k.product == p {
			out = append(out, models.Inventory{ProductID: k.product, ZoneID: k.zone, Quantity: q})
		}
	}
	return out, nil
}

func (f *fakeInventory) ListByZone(_ context.Context, z uuid.UUID) ([]models.Inventory, error) {
	var out []models.Inventory
	for k, q := range f.rows {
		if k.zone == z {
			out = append(out, models.Inventory{ProductID: k.product, ZoneID: k.zone, Quantity: q})
		}
	}
	return out, nil
}

func TestStockLedger_Adjust(t *testing.T) {
	ctx := context.Background()
	inv := newFakeInventory()
	ledger := NewStockLedger(inv)
	p, z := uuid.New(), uuid.New()

	got, err := ledger.Get(ctx, p, z)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got, "missing row reads as zero")

	require.NoError(t, ledger.Adjust(ctx, p, z, 10))
	require.NoError(t, ledger.Adjust(ctx, p, z, 0))
	require.NoError(t, ledger.Adjust(ctx, p, z, -4))

	got, err = ledger.Get(ctx, p, z)
	require.NoError(t, err)
	assert.Equal(t, int64(6), got)

	err = ledger.Adjust(ctx, p, z, -7)
	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, int64(6), short.Available)
	assert.Equal(t, int64(7), short.Requested)
	assert.Equal(t, p, short.ProductID)
	assert.Equal(t, z, short.ZoneID)

	got, _ = ledger.Get(ctx, p, z)
	assert.Equal(t, int64(6), got, "failed deduct must not change stock")
}

func TestStockLedger_SetAndTotal(t *testing.T) {
	ctx := context.Background()
	inv := newFakeInventory()
	ledger := NewStockLedger(inv)
	p, z1, z2 := uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, ledger.Set(ctx, p, z1, 5))
	require.NoError(t, ledger.Set(ctx, p, z2, 0))
	require.NoError(t, ledger.Adjust(ctx, p, z2, 3))

	err := ledger.Set(ctx, p, z1, -1)
	assert.ErrorIs(t, err, ErrValidation)

	total, err := ledger.Total(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, int64(8), total)
}

func TestStockLedger_PropagatesRepoErrors(t *testing.T) {
	boom := errors.New("db down")
	inv := newFakeInventory()
	inv.err = boom
	ledger := NewStockLedger(inv)

	_, err := ledger.Get(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, boom)
	err = ledger.Adjust(context.Background(), uuid.New(), uuid.New(), -1)
	assert.ErrorIs(t, err, boom)
}

func TestPlanMovement(t *testing.T) {
	p := uuid.New()
	z1, z2 := uuid.New(), uuid.New()

	tests := []struct {
		name      string
		req       MovementRequest
		wantField string
		origin    *uuid.UUID
		dest      *uuid.UUID
	}{
		{
			name:      "incoming needs destination",
			req:       MovementRequest{Type: models.MovementIncoming, ProductID: p, Quantity: 1},
			wantField: "destination_zone_id",
		},
		{
			name: "incoming ok",
			req:  MovementRequest{Type: models.MovementIncoming, ProductID: p, Quantity: 1, DestinationZoneID: &z1},
			dest: &z1,
		},
		{
			name: "return behaves like incoming",
			req:  MovementRequest{Type: models.MovementReturn, ProductID: p, Quantity: 2, DestinationZoneID: &z2},
			dest: &z2,
		},
		{
			name: "adjustment ok",
			req:  MovementRequest{Type: models.MovementAdjustment, ProductID: p, Quantity: 3, DestinationZoneID: &z1},
			dest: &z1,
		},
		{
			name:   "outgoing uses origin",
			req:    MovementRequest{Type: models.MovementOutgoing, ProductID: p, Quantity: 1, OriginZoneID: &z1},
			origin: &z1,
		},
		{
			name:      "outgoing with both zones",
			req:       MovementRequest{Type: models.MovementOutgoing, ProductID: p, Quantity: 1, OriginZoneID: &z1, DestinationZoneID: &z2},
			wantField: "destination_zone_id",
		},
		{
			name:   "outgoing falls back to destination",
			req:    MovementRequest{Type: models.MovementOutgoing, ProductID: p, Quantity: 1, DestinationZoneID: &z2},
			origin: &z2,
		},
		{
			name:      "outgoing without zones",
			req:       MovementRequest{Type: models.MovementOutgoing, ProductID: p, Quantity: 1},
			wantField: "origin_zone_id",
		},
		{
			name:   "transfer ok",
			req:    MovementRequest{Type: models.MovementTransfer, ProductID: p, Quantity: 1, OriginZoneID: &z1, DestinationZoneID: &z2},
			origin: &z1,
			dest:   &z2,
		},
		{
			name:      "transfer same zone",
			req:       MovementRequest{Type: models.MovementTransfer, ProductID: p, Quantity: 1, OriginZoneID: &z1, DestinationZoneID: &z1},
			wantField: "destination_zone_id",
		},
		{
			name:      "transfer without origin",
			req:       MovementRequest{Type: models.MovementTransfer, ProductID: p, Quantity: 1, DestinationZoneID: &z1},
			wantField: "origin_zone_id",
		},
		{
			name:      "zero quantity",
			req:       MovementRequest{Type: models.MovementIncoming, ProductID: p, Quantity: 0, DestinationZoneID: &z1},
			wantField: "quantity",
		},
		{
			name:      "negative quantity",
			req:       MovementRequest{Type: models.MovementOutgoing, ProductID: p, Quantity: -5, OriginZoneID: &z1},
			wantField: "quantity",
		},
		{
			name:      "missing product",
			req:       MovementRequest{Type: models.MovementIncoming, Quantity: 1, DestinationZoneID: &z1},
			wantField: "product_id",
		},
		{
			name:      "unknown type",
			req:       MovementRequest{Type: "SCRAP", ProductID: p, Quantity: 1, DestinationZoneID: &z1},
			wantField: "type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := planMovement(tt.req)
			if tt.wantField != "" {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, tt.wantField, ve.Field)
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.origin, plan.origin)
			assert.Equal(t, tt.dest, plan.destination)
		})
	}
}

func TestValidateLink(t *testing.T) {
	base := LinkInput{
		ProductID:    uuid.New(),
		SupplierID:   uuid.New(),
		Cost:         decimal.NewFromInt(10),
		LeadTimeDays: DefaultLeadTimeDays,
		MinLot:       DefaultMinLot,
		DiscountPct:  decimal.NewFromInt(5),
	}
	require.NoError(t, validateLink(base))

	cases := map[string]func(in *LinkInput){
		"product_id":     func(in *LinkInput) { in.ProductID = uuid.Nil },
		"supplier_id":    func(in *LinkInput) { in.SupplierID = uuid.Nil },
		"cost":           func(in *LinkInput) { in.Cost = decimal.NewFromInt(-1) },
		"lead_time_days": func(in *LinkInput) { in.LeadTimeDays = -1 },
		"min_lot":        func(in *LinkInput) { in.MinLot = -1 },
		"discount_pct":   func(in *LinkInput) { in.DiscountPct = decimal.NewFromInt(101) },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			in := base
			mutate(&in)
			var ve *ValidationError
			require.ErrorAs(t, validateLink(in), &ve)
			assert.Equal(t, field, ve.Field)
		})
	}
}

func TestMovingAverage(t *testing.T) {
	d := decimal.RequireFromString

	// 10 шт по 100 + 10 шт по 200 = 150
	got := movingAverage(10, d("100"), 10, d("200"))
	assert.True(t, got.Equal(d("150")), "got %s", got)

	// пустой склад: средняя равна цене прихода
	got = movingAverage(0, d("0"), 5, d("42.5"))
	assert.True(t, got.Equal(d("42.5")), "got %s", got)

	// отрицательный остаток считается нулевым
	got = movingAverage(-3, d("10"), 2, d("20"))
	assert.True(t, got.Equal(d("20")), "got %s", got)

	// округление до 6 знаков
	got = movingAverage(1, d("1"), 2, d("2"))
	assert.True(t, got.Equal(d("1.666667")), "got %s", got)

	got = movingAverage(0, d("7"), 0, d("99"))
	assert.True(t, got.Equal(d("7")), "zero total keeps previous average, got %s", got)
}

func TestOrderItemPrice(t *testing.T) {
	p := &models.Product{SalePrice: decimal.NewFromInt(990)}

	price := orderItemPrice(&models.ProductSupplier{Cost: decimal.NewFromInt(500)}, p)
	assert.True(t, price.Equal(decimal.NewFromInt(500)))

	price = orderItemPrice(&models.ProductSupplier{Cost: decimal.Zero}, p)
	assert.True(t, price.Equal(decimal.NewFromInt(990)))

	price = orderItemPrice(nil, p)
	assert.True(t, price.Equal(decimal.NewFromInt(990)))
}

func TestRequireRole(t *testing.T) {
	uid := uuid.New()

	_, err := requireRole(context.Background(), RoleWarehouse)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = requireRole(WithUserID(context.Background(), uid), RoleWarehouse)
	assert.ErrorIs(t, err, ErrUnauthorized, "role is mandatory")

	_, err = requireRole(WithActor(context.Background(), uuid.Nil, RoleAdmin))
	assert.ErrorIs(t, err, ErrUnauthorized)

	got, err := requireRole(WithActor(context.Background(), uid, RoleAdmin), RoleSales)
	require.NoError(t, err)
	assert.Equal(t, uid, got, "admin passes every check")

	got, err = requireRole(WithActor(context.Background(), uid, RoleWarehouse), RoleWarehouse)
	require.NoError(t, err)
	assert.Equal(t, uid, got)

	_, err = requireRole(WithActor(context.Background(), uid, RoleSales), RoleWarehouse)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = requireRole(WithActor(context.Background(), uid, RoleWarehouse))
	assert.ErrorIs(t, err, ErrForbidden, "no roles listed means admin only")
}

func TestErrorsUnwrap(t *testing.T) {
	ve := invalid("sku", "bad")
	assert.ErrorIs(t, ve, ErrValidation)
	assert.Equal(t, "sku: bad", ve.Error())
	assert.Equal(t, "bad", invalid("", "bad").Error())

	batch := &InsufficientStockBatchError{Errors: []string{"a", "b"}}
	assert.ErrorIs(t, batch, ErrInsufficientStockBatch)
	assert.Contains(t, batch.Error(), "a; b")

	assert.True(t, isDomainError(batch))
	assert.True(t, isDomainError(ve))
	assert.True(t, isDomainError(&InsufficientStockError{}))
	assert.False(t, isDomainError(errors.New("connection reset")))
}

func TestNormalizeHelpers(t *testing.T) {
	assert.Equal(t, "UN", unitOrDefault("  "))
	assert.Equal(t, "KG", unitOrDefault(" kg "))

	blank := "   "
	assert.Nil(t, trimOptional(nil))
	assert.Nil(t, trimOptional(&blank))
	v := " 780123 "
	assert.Equal(t, "780123", *trimOptional(&v))
}

func TestValidateProduct(t *testing.T) {
	ok := ProductInput{Name: "Arroz", SalePrice: decimal.NewFromInt(1000), MinStock: 5, MaxStock: 50}
	require.NoError(t, validateProduct(ok))

	neg := int64(-1)
	cases := map[string]ProductInput{
		"name":          {Name: " "},
		"sale_price":    {Name: "x", SalePrice: decimal.NewFromInt(-1)},
		"tax_rate":      {Name: "x", TaxRate: decimal.NewFromInt(120)},
		"max_stock":     {Name: "x", MinStock: 10, MaxStock: 5},
		"reorder_point": {Name: "x", ReorderPoint: &neg},
	}
	for field, in := range cases {
		t.Run(field, func(t *testing.T) {
			var ve *ValidationError
			require.ErrorAs(t, validateProduct(in), &ve)
			assert.Equal(t, field, ve.Field)
		})
	}
}

func TestStockLedger_Lists(t *testing.T) {
	ctx := context.Background()
	ledger := NewStockLedger(newFakeInventory())
	p1, p2, z1, z2 := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, ledger.Adjust(ctx, p1, z1, 4))
	require.NoError(t, ledger.Adjust(ctx, p1, z2, 1))
	require.NoError(t, ledger.Adjust(ctx, p2, z1, 7))

	rows, err := ledger.ListByProduct(ctx, p1)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	byZone, err := ledger.ListByZone(ctx, z1)
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int64{p1: 4, p2: 7}, byZone)

	empty, err := ledger.ListByZone(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

// Остаток всегда равен сумме принятых изменений и не уходит в минус,
// отклонённое списание ничего не меняет.
func TestStockLedger_RandomSequencesMatchRunningSum(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(20261015, 7))

	for round := 0; round < 200; round++ {
		ledger := NewStockLedger(newFakeInventory())
		p, z := uuid.New(), uuid.New()
		var expected int64

		steps := 1 + rng.IntN(40)
		for step := 0; step < steps; step++ {
			delta := rng.Int64N(21) - 10
			err := ledger.Adjust(ctx, p, z, delta)
			if expected+delta < 0 {
				require.ErrorIs(t, err, ErrInsufficientStock, "round %d step %d", round, step)
			} else {
				require.NoError(t, err, "round %d step %d", round, step)
				expected += delta
			}

			got, err := ledger.Get(ctx, p, z)
			require.NoError(t, err)
			require.Equal(t, expected, got, "round %d step %d", round, step)
			require.GreaterOrEqual(t, got, int64(0))
		}
	}
}

func TestStockLedger_InThenOutRestoresStock(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(42, 42))

	for i := 0; i < 100; i++ {
		ledger := NewStockLedger(newFakeInventory())
		p, z := uuid.New(), uuid.New()
		start := rng.Int64N(50)
		q := 1 + rng.Int64N(50)

		require.NoError(t, ledger.Set(ctx, p, z, start))
		require.NoError(t, ledger.Adjust(ctx, p, z, q))
		require.NoError(t, ledger.Adjust(ctx, p, z, -q))

		got, err := ledger.Get(ctx, p, z)
		require.NoError(t, err)
		require.Equal(t, start, got, "start=%d q=%d", start, q)
	}
}

func TestLockOrder(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	assert.Equal(t, [2]uuid.UUID{a, b}, lockOrder(a, b))
	assert.Equal(t, [2]uuid.UUID{a, b}, lockOrder(b, a), "both directions lock in the same order")
}

func TestTxConflict(t *testing.T) {
	log := zap.NewNop()

	for _, code := range []string{"40P01", "40001"} {
		err := txConflict(log, fmt.Errorf("commit: %w", &pgconn.PgError{Code: code}))
		assert.ErrorIs(t, err, ErrResourceBusy, code)
	}

	unique := &pgconn.PgError{Code: "23505"}
	assert.Same(t, unique, txConflict(log, unique))
	assert.ErrorIs(t, txConflict(log, ErrInsufficientStock), ErrInsufficientStock)
}

func TestIsDomainError(t *testing.T) {
	expected := []error{
		invalid("quantity", "must be > 0"),
		&InsufficientStockError{},
		&InsufficientStockBatchError{},
		ErrClientNotFound,
		ErrWarehouseNotFound,
		ErrLinkNotFound,
		ErrOrderItemNotFound,
		ErrSaleNotFound,
		ErrSupplierBlocked,
		ErrResourceBusy,
		fmt.Errorf("load: %w", ErrZoneNotFound),
	}
	for _, err := range expected {
		assert.True(t, isDomainError(err), err.Error())
	}

	assert.False(t, isDomainError(errors.New("connection reset")))
	assert.False(t, isDomainError(&pgconn.PgError{Code: "40P01"}))
}
