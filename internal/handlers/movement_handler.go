package handlers

import (
	"net/http"

	"warehouse-service/internal/dto"
	"warehouse-service/internal/models"
	"warehouse-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MovementHandler struct {
	movements service.MovementService
	log       *zap.Logger
}

func NewMovementHandler(movements service.MovementService, log *zap.Logger) *MovementHandler {
	return &MovementHandler{movements: movements, log: log}
}

// Post godoc
// @Summary Провести движение товара
// @Tags movements
// @Accept json
// @Produce json
// @Param movement body dto.PostMovementRequest true "Движение"
// @Success 201 {object} dto.MovementResponse
// @Failure 400 {object} dto.BaseError "Неверные данные"
// @Failure 409 {object} dto.BaseError "Недостаточно остатка"
// @Router /api/v1/movements [post]
func (h *MovementHandler) Post(c *gin.Context) {
	var req dto.PostMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, "movement", err)
		return
	}

	m, err := h.movements.Post(c.Request.Context(), service.MovementRequest{
		Type:              models.MovementType(req.Type),
		ProductID:         req.ProductID,
		Quantity:          req.Quantity,
		OriginZoneID:      req.OriginZoneID,
		DestinationZoneID: req.DestinationZoneID,
		SupplierID:        req.SupplierID,
		WarehouseID:       req.WarehouseID,
		Lot:               req.Lot,
		Serial:            req.Serial,
		ExpiresAt:         req.ExpiresAt,
		Reference:         req.Reference,
		Reason:            req.Reason,
	})
	if err != nil {
		writeError(c, h.log, "post movement", err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromMovement(m))
}

func (h *MovementHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	m, err := h.movements.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, "get movement", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromMovement(m))
}

// List фильтры: q, product_id, zone_id, type, from, to, limit, offset.
func (h *MovementHandler) List(c *gin.Context) {
	productID, ok := queryUUID(c, "product_id")
	if !ok {
		return
	}
	zoneID, ok := queryUUID(c, "zone_id")
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
	var typ *models.MovementType
	if raw := c.Query("type"); raw != "" {
		t := models.MovementType(raw)
		typ = &t
	}
	limit, offset := page(c)

	list, total, err := h.movements.List(c.Request.Context(), service.MovementListFilter{
		Query:     c.Query("q"),
		ProductID: productID,
		ZoneID:    zoneID,
		Type:      typ,
		From:      from,
		To:        to,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeError(c, h.log, "list movements", err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse[dto.MovementResponse]{
		Items:  dto.FromMovements(list),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}
