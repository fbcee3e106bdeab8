package handlers

import (
	"net/http"

	"warehouse-service/internal/dto"
	"warehouse-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SalesHandler struct {
	sales   service.SalesService
	catalog service.CatalogService
	log     *zap.Logger
}

func NewSalesHandler(sales service.SalesService, catalog service.CatalogService, log *zap.Logger) *SalesHandler {
	return &SalesHandler{sales: sales, catalog: catalog, log: log}
}

// Checkout godoc
// @Summary Продажа из зоны продаж
// @Description Либо проводится вся корзина, либо ничего; при нехватке возвращается список всех проблем
// @Tags sales
// @Accept json
// @Produce json
// @Param sale body dto.CheckoutRequest true "Корзина"
// @Success 201 {object} dto.SaleResponse
// @Failure 409 {object} dto.BaseError "Недостаточно остатка"
// @Router /api/v1/sales [post]
func (h *SalesHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, "checkout", err)
		return
	}
	cart := make([]service.CartLine, 0, len(req.Items))
	for _, it := range req.Items {
		cart = append(cart, service.CartLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	sale, err := h.sales.Checkout(c.Request.Context(), service.CheckoutInput{ClientID: req.ClientID, Cart: cart})
	if err != nil {
		writeError(c, h.log, "checkout", err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromSale(sale))
}

func (h *SalesHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	sale, err := h.sales.GetSale(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, "get sale", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromSale(sale))
}

// List фильтры: q, client_id, user_id, from, to, total_min, total_max, order_by, limit, offset.
func (h *SalesHandler) List(c *gin.Context) {
	clientID, ok := queryUUID(c, "client_id")
	if !ok {
		return
	}
	userID, ok := queryUUID(c, "user_id")
	if !ok {
		return
	}
	totalMin, ok := queryDecimal(c, "total_min")
	if !ok {
		return
	}
	totalMax, ok := queryDecimal(c, "total_max")
	if !ok {
		return
	}
	from, ok := queryTime(c, "from")
	if !ok {
		return
	}
	to, ok := queryTime(c, "to")
	if !ok {
		return
	}
	limit, offset := page(c)

	list, total, err := h.sales.ListSales(c.Request.Context(), service.SaleListFilter{
		Query:    c.Query("q"),
		ClientID: clientID,
		ActorID:  userID,
		From:     from,
		To:       to,
		TotalMin: totalMin,
		TotalMax: totalMax,
		OrderBy:  c.Query("order_by"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeError(c, h.log, "list sales", err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse[dto.SaleResponse]{
		Items:  dto.FromSales(list),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// SearchStock godoc
// @Summary Поиск товаров с остатком в зоне продаж
// @Tags sales
// @Produce json
// @Param q query string true "Название или SKU, минимум 2 символа"
// @Success 200 {object} dto.SalesZoneStockResponse
// @Failure 400 {object} dto.BaseError "Слишком короткий запрос"
// @Failure 409 {object} dto.BaseError "Зона продаж не настроена"
// @Router /api/v1/sales/stock [get]
func (h *SalesHandler) SearchStock(c *gin.Context) {
	st, err := h.sales.SearchStock(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, h.log, "search sales stock", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromSalesZoneStock(st))
}

func (h *SalesHandler) CreateClient(c *gin.Context) {
	var req dto.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, "client", err)
		return
	}
	cl, err := h.catalog.CreateClient(c.Request.Context(), service.ClientInput{
		Name:  req.Name,
		TaxID: req.TaxID,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		writeError(c, h.log, "create client", err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromClient(cl))
}

func (h *SalesHandler) GetClient(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	cl, err := h.catalog.GetClient(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, "get client", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromClient(cl))
}
