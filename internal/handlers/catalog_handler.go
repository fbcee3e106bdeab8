package handlers

import (
	"net/http"

	"warehouse-service/internal/dto"
	"warehouse-service/internal/models"
	"warehouse-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	catalog service.CatalogService
	links   service.SupplierLinkService
	zones   *service.SalesZoneResolver
	log     *zap.Logger
}

func NewCatalogHandler(catalog service.CatalogService, links service.SupplierLinkService, zones *service.SalesZoneResolver, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, links: links, zones: zones, log: log}
}

// --- products ---

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, "product", err)
		return
	}
	p, err := h.catalog.CreateProduct(c.Request.Context(), req.ToInput())
	if err != nil {
		writeError(c, h.log, "create product", err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromProduct(p))
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, "product", err)
		return
	}
	p, err := h.catalog.UpdateProduct(c.Request.Context(), id, req.ToPatch())
	if err != nil {
		writeError(c, h.log, "update product", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromProduct(p))
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, "get product", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromProduct(p))
}

// ListProducts фильтры: q, category, active, limit, offset.
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	limit, offset := page(c)
	list, total, err := h.catalog.ListProducts(c.Request.Context(), service.ProductListFilter{
		Query:      c.Query("q"),
		Category:   c.Query("category"),
		OnlyActive: queryBool(c, "active"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		writeError(c, h.log, "list products", err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse[dto.ProductResponse]{
		Items:  dto.FromProducts(list),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (h *CatalogHandler) GetStock(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	s, err := h.catalog.GetStock(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, "get stock", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromStock(s))
}

// --- supplier links ---

func (h *CatalogHandler) UpsertLink(c *gin.Context) {
	productID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	supplierID, ok := pathUUID(c, "supplierId")
	if !ok {
		return
	}
	var req dto.UpsertLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, "supplier link", err)
		return
	}

	in := service.LinkInput{
		ProductID:    productID,
		SupplierID:   supplierID,
		Cost:         req.Cost,
		LeadTimeDays: service.DefaultLeadTimeDays,
		MinLot:       service.DefaultMinLot,
		DiscountPct:  req.DiscountPct,
		Preferred:    req.Preferred,
	}
	if req.LeadTimeDays != nil {
		in.LeadTimeDays = *req.LeadTimeDays
	}
	if req.MinLot != nil {
		in.MinLot = *req.MinLot
	}

	link, err := h.links.UpsertLink(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.log, "upsert supplier link", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromLink(link))
}

func (h *CatalogHandler) SetPreferred(c *gin.Context) {
	productID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	supplierID, ok := pathUUID(c, "supplierId")
	if !ok {
		return
	}
	link, err := h.links.SetPreferred(c.Request.Context(), productID, supplierID)
	if err != nil {
		writeError(c, h.log, "set preferred supplier", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromLink(link))
}

func (h *CatalogHandler) ListProductLinks(c *gin.Context) {
	productID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	list, err := h.links.ListByProduct(c.Request.Context(), productID)
	if err != nil {
		writeError(c, h.log, "list supplier links", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromLinks(list))
}

func (h *CatalogHandler) PreferredLink(c *gin.Context) {
	productID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	link, err := h.links.PreferredFor(c.Request.Context(), productID)
	if err != nil {
		writeError(c, h.log, "get preferred supplier", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromLink(link))
}

func (h *CatalogHandler) DeleteLink(c *gin.Context) {
	productID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	supplierID, ok := pathUUID(c, "supplierId")
	if !ok {
		return
	}
	if err := h.links.DeleteLink(c.Request.Context(), productID, supplierID); err != nil {
		writeError(c, h.log, "delete supplier link", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) ListSupplierLinks(c *gin.Context) {
	supplierID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	list, err := h.links.ListBySupplier(c.Request.Context(), supplierID)
	if err != nil {
		writeError(c, h.log, "list supplier links", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromLinks(list))
}

// --- warehouses & zones ---

func (h *CatalogHandler) CreateWarehouse(c *gin.Context) {
	var req dto.CreateWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, "warehouse", err)
		return
	}
	w, err := h.catalog.CreateWarehouse(c.Request.Context(), req.Name, req.Address)
	if err != nil {
		writeError(c, h.log, "create warehouse", err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromWarehouse(w))
}

func (h *CatalogHandler) ListWarehouses(c *gin.Context) {
	onlyActive := false
	if v := queryBool(c, "active"); v != nil {
		onlyActive = *v
	}
	list, err := h.catalog.ListWarehouses(c.Request.Context(), onlyActive)
	if err != nil {
		writeError(c, h.log, "list warehouses", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromWarehouses(list))
}

func (h *CatalogHandler) SetWarehouseActive(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, "warehouse status", err)
		return
	}
	if err := h.catalog.SetWarehouseActive(c.Request.Context(), id, *req.Active); err != nil {
		writeError(c, h.log, "set warehouse active", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) CreateZone(c *gin.Context) {
	warehouseID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.CreateZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, "zone", err)
		return
	}
	z, err := h.catalog.CreateZone(c.Request.Context(), warehouseID, req.Name)
	if err != nil {
		writeError(c, h.log, "create zone", err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromZone(z))
}

func (h *CatalogHandler) ListZones(c *gin.Context) {
	warehouseID, ok := queryUUID(c, "warehouse_id")
	if !ok {
		return
	}
	onlyActive := false
	if v := queryBool(c, "active"); v != nil {
		onlyActive = *v
	}
	list, err := h.catalog.ListZones(c.Request.Context(), warehouseID, onlyActive)
	if err != nil {
		writeError(c, h.log, "list zones", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromZones(list))
}

func (h *CatalogHandler) SetZoneActive(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, "zone status", err)
		return
	}
	if err := h.catalog.SetZoneActive(c.Request.Context(), id, *req.Active); err != nil {
		writeError(c, h.log, "set zone active", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DesignateSalesZone только admin.
func (h *CatalogHandler) DesignateSalesZone(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	z, err := h.zones.Designate(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, "designate sales zone", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromZone(z))
}

func (h *CatalogHandler) CurrentSalesZone(c *gin.Context) {
	z, err := h.zones.Resolve(c.Request.Context())
	if err != nil {
		writeError(c, h.log, "resolve sales zone", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromZone(z))
}

// --- suppliers ---

func (h *CatalogHandler) CreateSupplier(c *gin.Context) {
	var req dto.CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, "supplier", err)
		return
	}
	s, err := h.catalog.CreateSupplier(c.Request.Context(), req.ToInput())
	if err != nil {
		writeError(c, h.log, "create supplier", err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromSupplier(s))
}

func (h *CatalogHandler) ListSuppliers(c *gin.Context) {
	var status *models.SupplierStatus
	if raw := c.Query("status"); raw != "" {
		s := models.SupplierStatus(raw)
		status = &s
	}
	limit, offset := page(c)
	list, total, err := h.catalog.ListSuppliers(c.Request.Context(), service.SupplierListFilter{
		Query:  c.Query("q"),
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(c, h.log, "list suppliers", err)
		return
	}
	c.JSON(http.StatusOK, dto.ListResponse[dto.SupplierResponse]{
		Items:  dto.FromSuppliers(list),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (h *CatalogHandler) SetSupplierStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SetSupplierStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, "supplier status", err)
		return
	}
	if err := h.catalog.SetSupplierStatus(c.Request.Context(), id, models.SupplierStatus(req.Status)); err != nil {
		writeError(c, h.log, "set supplier status", err)
		return
	}
	c.Status(http.StatusNoContent)
}
