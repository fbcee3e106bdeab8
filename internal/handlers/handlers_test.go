package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"warehouse-service/internal/dto"
	"warehouse-service/internal/models"
	"warehouse-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockMovementService
type MockMovementService struct {
	PostFunc func(ctx context.Context, req service.MovementRequest) (*models.Movement, error)
	GetFunc  func(ctx context.Context, id uuid.UUID) (*models.Movement, error)
	ListFunc func(ctx context.Context, f service.MovementListFilter) ([]models.Movement, int64, error)
}

func (m *MockMovementService) Post(ctx context.Context, req service.MovementRequest) (*models.Movement, error) {
	if m.PostFunc != nil {
		return m.PostFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockMovementService) Get(ctx context.Context, id uuid.UUID) (*models.Movement, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, service.ErrMovementNotFound
}

func (m *MockMovementService) List(ctx context.Context, f service.MovementListFilter) ([]models.Movement, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, f)
	}
	return nil, 0, nil
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &service.ValidationError{Field: "quantity", Message: "quantity must be > 0"}, http.StatusBadRequest, "validation_error"},
		{"batch", &service.InsufficientStockBatchError{Errors: []string{"a"}}, http.StatusConflict, "insufficient_stock"},
		{"single shortage", &service.InsufficientStockError{Available: 1, Requested: 2}, http.StatusConflict, "insufficient_stock"},
		{"unauthorized", service.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"forbidden", service.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"blocked", service.ErrUserBlocked, http.StatusForbidden, "forbidden"},
		{"busy", service.ErrResourceBusy, http.StatusServiceUnavailable, "unavailable"},
		{"not found", service.ErrZoneNotFound, http.StatusNotFound, "not_found"},
		{"wrapped not found", fmt.Errorf("load: %w", service.ErrSaleNotFound), http.StatusNotFound, "not_found"},
		{"conflict", service.ErrDuplicatePreferred, http.StatusConflict, "conflict"},
		{"order state", service.ErrInvalidOrderState, http.StatusConflict, "conflict"},
		{"no sales zone", service.ErrNoSalesZoneConfigured, http.StatusConflict, "conflict"},
		{"internal", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := errorResponse(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.Code)
		})
	}

	_, body := errorResponse(errors.New("secret dsn leaked"))
	assert.NotContains(t, body.Message, "secret")

	_, body = errorResponse(&service.InsufficientStockBatchError{Errors: []string{"x short", "y short"}})
	assert.Equal(t, []string{"x short", "y short"}, body.Errors)

	_, body = errorResponse(&service.ValidationError{Field: "sku", Message: "bad"})
	require.Len(t, body.Fields, 1)
	assert.Equal(t, "sku", body.Fields[0].Field)
}

func newMovementRouter(svc service.MovementService) *gin.Engine {
	h := NewMovementHandler(svc, zap.NewNop())
	r := gin.New()
	r.POST("/movements", h.Post)
	r.GET("/movements", h.List)
	r.GET("/movements/:id", h.Get)
	return r
}

func TestMovementHandler_Post(t *testing.T) {
	zoneID := uuid.New()
	productID := uuid.New()
	var got service.MovementRequest

	svc := &MockMovementService{
		PostFunc: func(_ context.Context, req service.MovementRequest) (*models.Movement, error) {
			got = req
			return &models.Movement{
				ID:                uuid.New(),
				Type:              req.Type,
				ProductID:         req.ProductID,
				Quantity:          req.Quantity,
				DestinationZoneID: req.DestinationZoneID,
				CreatedAt:         time.Now().UTC(),
			}, nil
		},
	}
	r := newMovementRouter(svc)

	body := fmt.Sprintf(`{"type":"INCOMING","product_id":%q,"quantity":5,"destination_zone_id":%q,"reference":"GR-1"}`, productID, zoneID)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/movements", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, models.MovementIncoming, got.Type)
	assert.Equal(t, int64(5), got.Quantity)
	require.NotNil(t, got.DestinationZoneID)
	assert.Equal(t, zoneID, *got.DestinationZoneID)
	assert.Equal(t, "GR-1", got.Reference)

	var resp dto.MovementResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, productID, resp.ProductID)
	assert.Equal(t, "INCOMING", resp.Type)
}

func TestMovementHandler_PostRejectsBadBody(t *testing.T) {
	called := false
	r := newMovementRouter(&MockMovementService{
		PostFunc: func(context.Context, service.MovementRequest) (*models.Movement, error) {
			called = true
			return nil, nil
		},
	})

	for _, body := range []string{
		`{"type":"INCOMING","product_id":"` + uuid.NewString() + `","quantity":0}`,
		`{"type":"SCRAP","product_id":"` + uuid.NewString() + `","quantity":1}`,
		`{"type":"INCOMING","quantity":1}`,
		`not json`,
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/movements", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.False(t, called)
}

func TestMovementHandler_PostInsufficientStock(t *testing.T) {
	r := newMovementRouter(&MockMovementService{
		PostFunc: func(context.Context, service.MovementRequest) (*models.Movement, error) {
			return nil, &service.InsufficientStockError{Available: 2, Requested: 3}
		},
	})

	body := `{"type":"OUTGOING","product_id":"` + uuid.NewString() + `","quantity":3,"origin_zone_id":"` + uuid.NewString() + `"}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/movements", strings.NewReader(body)))

	require.Equal(t, http.StatusConflict, w.Code)
	var resp dto.BaseError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "insufficient_stock", resp.Code)
}

func TestMovementHandler_ListParsesFilters(t *testing.T) {
	productID := uuid.New()
	var got service.MovementListFilter
	r := newMovementRouter(&MockMovementService{
		ListFunc: func(_ context.Context, f service.MovementListFilter) ([]models.Movement, int64, error) {
			got = f
			return []models.Movement{{ID: uuid.New(), Type: models.MovementOutgoing}}, 7, nil
		},
	})

	w := httptest.NewRecorder()
	url := "/movements?q=arroz&product_id=" + productID.String() + "&type=OUTGOING&from=2026-01-01T00:00:00Z&limit=500&offset=5"
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "arroz", got.Query)
	require.NotNil(t, got.ProductID)
	assert.Equal(t, productID, *got.ProductID)
	require.NotNil(t, got.Type)
	assert.Equal(t, models.MovementOutgoing, *got.Type)
	require.NotNil(t, got.From)
	assert.Nil(t, got.To)
	assert.Equal(t, 200, got.Limit, "limit is capped")
	assert.Equal(t, 5, got.Offset)

	var resp dto.ListResponse[dto.MovementResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.Total)
	assert.Len(t, resp.Items, 1)

	for _, bad := range []string{"/movements?product_id=nope", "/movements?from=yesterday"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, bad, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}

func TestMovementHandler_GetNotFound(t *testing.T) {
	r := newMovementRouter(&MockMovementService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/movements/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/movements/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// MockSalesService
type MockSalesService struct {
	ListSalesFunc   func(ctx context.Context, f service.SaleListFilter) ([]models.Sale, int64, error)
	SearchStockFunc func(ctx context.Context, query string) (*service.SalesZoneStock, error)
}

func (m *MockSalesService) Checkout(context.Context, service.CheckoutInput) (*models.Sale, error) {
	return nil, errors.New("not implemented")
}

func (m *MockSalesService) GetSale(context.Context, uuid.UUID) (*models.Sale, error) {
	return nil, service.ErrSaleNotFound
}

func (m *MockSalesService) ListSales(ctx context.Context, f service.SaleListFilter) ([]models.Sale, int64, error) {
	if m.ListSalesFunc != nil {
		return m.ListSalesFunc(ctx, f)
	}
	return nil, 0, nil
}

func (m *MockSalesService) SearchStock(ctx context.Context, query string) (*service.SalesZoneStock, error) {
	if m.SearchStockFunc != nil {
		return m.SearchStockFunc(ctx, query)
	}
	return nil, service.ErrNoSalesZoneConfigured
}

func newSalesRouter(svc service.SalesService) *gin.Engine {
	h := NewSalesHandler(svc, nil, zap.NewNop())
	r := gin.New()
	r.GET("/sales", h.List)
	r.GET("/sales/stock", h.SearchStock)
	r.GET("/sales/:id", h.Get)
	return r
}

func TestSalesHandler_ListParsesFilters(t *testing.T) {
	userID := uuid.New()
	var got service.SaleListFilter
	r := newSalesRouter(&MockSalesService{
		ListSalesFunc: func(_ context.Context, f service.SaleListFilter) ([]models.Sale, int64, error) {
			got = f
			return nil, 0, nil
		},
	})

	w := httptest.NewRecorder()
	url := "/sales?q=perez&user_id=" + userID.String() + "&total_min=150.5&total_max=300&order_by=-total"
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "perez", got.Query)
	require.NotNil(t, got.ActorID)
	assert.Equal(t, userID, *got.ActorID)
	require.NotNil(t, got.TotalMin)
	assert.Equal(t, "150.5", got.TotalMin.String())
	require.NotNil(t, got.TotalMax)
	assert.Equal(t, "300", got.TotalMax.String())
	assert.Equal(t, "-total", got.OrderBy)

	for _, bad := range []string{"/sales?total_min=abc", "/sales?user_id=nope"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, bad, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}

func TestSalesHandler_SearchStock(t *testing.T) {
	zoneID := uuid.New()
	product := models.Product{ID: uuid.New(), SKU: "ARZ-1", Name: "Arroz", SalePrice: decimal.NewFromInt(1200)}
	var gotQuery string
	r := newSalesRouter(&MockSalesService{
		SearchStockFunc: func(_ context.Context, query string) (*service.SalesZoneStock, error) {
			gotQuery = query
			return &service.SalesZoneStock{ZoneID: zoneID, Items: []service.SaleStockItem{{Product: product, Available: 5}}}, nil
		},
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sales/stock?q=arroz", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "arroz", gotQuery)

	var resp dto.SalesZoneStockResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, zoneID, resp.ZoneID)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "ARZ-1", resp.Items[0].SKU)
	assert.Equal(t, int64(5), resp.Items[0].Available)

	r = newSalesRouter(&MockSalesService{})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sales/stock?q=arroz", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSalesHandler_GetNotFound(t *testing.T) {
	r := newSalesRouter(&MockSalesService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sales/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
