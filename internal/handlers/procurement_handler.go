package handlers

import (
	"net/http"

	"warehouse-service/internal/dto"
	"warehouse-service/internal/models"
	"warehouse-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProcurementHandler struct {
	orders service.ProcurementService
	log    *zap.Logger
}

func NewProcurementHandler(orders service.ProcurementService, log *zap.Logger) *ProcurementHandler {
	return &ProcurementHandler{orders: orders, log: log}
}

func (h *ProcurementHandler) Create(c *gin.Context) {
	var req dto.CreateSupplierOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, "supplier order", err)
		return
	}
	o, err := h.orders.CreateOrder(c.Request.Context(), service.CreateSupplierOrderInput{
		SupplierID:  req.SupplierID,
		WarehouseID: req.WarehouseID,
		ZoneID:      req.ZoneID,
		Notes:       req.Notes,
	})
	if err != nil {
		writeError(c, h.log, "create supplier order", err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromSupplierOrder(o))
}

func (h *ProcurementHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, "get supplier order", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromSupplierOrder(o))
}

func (h *ProcurementHandler) List(c *gin.Context) {
	supplierID, ok := queryUUID(c, "supplier_id")
	if !ok {
		return
	}
	var status *models.SupplierOrderStatus
	if raw := c.Query("status"); raw != "" {
		s := models.SupplierOrderStatus(raw)
		status = &s
	}
	limit, offset := page(c)

	list, total, err := h.orders.ListOrders(c.Request.Context(), service.SupplierOrderListFilter{
		SupplierID: supplierID,
		Status:     status,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		writeError(c, h.log, "list supplier orders", err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse[dto.SupplierOrderResponse]{
		Items:  dto.FromSupplierOrders(list),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (h *ProcurementHandler) AddItem(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.AddOrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, "order item", err)
		return
	}
	it, err := h.orders.AddItem(c.Request.Context(), id, req.ProductID, req.Quantity)
	if err != nil {
		writeError(c, h.log, "add order item", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromOrderItem(it))
}

func (h *ProcurementHandler) RemoveItem(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathUUID(c, "itemId")
	if !ok {
		return
	}
	if err := h.orders.RemoveItem(c.Request.Context(), id, itemID); err != nil {
		writeError(c, h.log, "remove order item", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Receive godoc
// @Summary Принять заказ поставщику
// @Description Проводит поступление по каждой строке и пересчитывает среднюю себестоимость
// @Tags supplier-orders
// @Produce json
// @Param id path string true "ID заказа"
// @Success 200 {object} dto.SupplierOrderResponse
// @Failure 404 {object} dto.BaseError "Заказ не найден"
// @Failure 409 {object} dto.BaseError "Заказ не в статусе PENDING или пуст"
// @Router /api/v1/supplier-orders/{id}/receive [post]
func (h *ProcurementHandler) Receive(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.Receive(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, "receive supplier order", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromSupplierOrder(o))
}

func (h *ProcurementHandler) Cancel(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.Cancel(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, "cancel supplier order", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromSupplierOrder(o))
}
