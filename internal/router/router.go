package router

import (
	"net/http"

	"warehouse-service/internal/handlers"
	"warehouse-service/internal/middleware"
	"warehouse-service/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Services struct {
	Movements   service.MovementService
	Links       service.SupplierLinkService
	Procurement service.ProcurementService
	Sales       service.SalesService
	Catalog     service.CatalogService
	Profiles    service.ProfileService
	SalesZone   *service.SalesZoneResolver
}

func Router(svc Services, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(log))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.HeaderUserID, middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	movementHandler := handlers.NewMovementHandler(svc.Movements, log)
	procurementHandler := handlers.NewProcurementHandler(svc.Procurement, log)
	salesHandler := handlers.NewSalesHandler(svc.Sales, svc.Catalog, log)
	catalogHandler := handlers.NewCatalogHandler(svc.Catalog, svc.Links, svc.SalesZone, log)
	profileHandler := handlers.NewProfileHandler(svc.Profiles, log)

	api := r.Group("/api/v1")
	api.Use(middleware.ActorRequired(svc.Profiles, log))
	{
		api.GET("/me", profileHandler.Me)
		api.PUT("/profiles", profileHandler.Upsert)
		api.GET("/profiles/:id", profileHandler.Get)
		api.PATCH("/profiles/:id/status", profileHandler.SetStatus)

		api.POST("/movements", movementHandler.Post)
		api.GET("/movements", movementHandler.List)
		api.GET("/movements/:id", movementHandler.Get)

		api.POST("/supplier-orders", procurementHandler.Create)
		api.GET("/supplier-orders", procurementHandler.List)
		api.GET("/supplier-orders/:id", procurementHandler.Get)
		api.POST("/supplier-orders/:id/items", procurementHandler.AddItem)
		api.DELETE("/supplier-orders/:id/items/:itemId", procurementHandler.RemoveItem)
		api.POST("/supplier-orders/:id/receive", procurementHandler.Receive)
		api.POST("/supplier-orders/:id/cancel", procurementHandler.Cancel)

		api.POST("/sales", salesHandler.Checkout)
		api.GET("/sales", salesHandler.List)
		api.GET("/sales/stock", salesHandler.SearchStock)
		api.GET("/sales/:id", salesHandler.Get)
		api.POST("/clients", salesHandler.CreateClient)
		api.GET("/clients/:id", salesHandler.GetClient)

		api.POST("/products", catalogHandler.CreateProduct)
		api.GET("/products", catalogHandler.ListProducts)
		api.GET("/products/:id", catalogHandler.GetProduct)
		api.PATCH("/products/:id", catalogHandler.UpdateProduct)
		api.GET("/products/:id/stock", catalogHandler.GetStock)
		api.GET("/products/:id/suppliers", catalogHandler.ListProductLinks)
		api.GET("/products/:id/preferred-supplier", catalogHandler.PreferredLink)
		api.PUT("/products/:id/suppliers/:supplierId", catalogHandler.UpsertLink)
		api.DELETE("/products/:id/suppliers/:supplierId", catalogHandler.DeleteLink)
		api.POST("/products/:id/suppliers/:supplierId/preferred", catalogHandler.SetPreferred)

		api.POST("/warehouses", catalogHandler.CreateWarehouse)
		api.GET("/warehouses", catalogHandler.ListWarehouses)
		api.PATCH("/warehouses/:id/active", catalogHandler.SetWarehouseActive)
		api.POST("/warehouses/:id/zones", catalogHandler.CreateZone)
		api.GET("/zones", catalogHandler.ListZones)
		api.GET("/zones/sales-zone", catalogHandler.CurrentSalesZone)
		api.PATCH("/zones/:id/active", catalogHandler.SetZoneActive)
		api.POST("/zones/:id/sales-zone", catalogHandler.DesignateSalesZone)

		api.POST("/suppliers", catalogHandler.CreateSupplier)
		api.GET("/suppliers", catalogHandler.ListSuppliers)
		api.PATCH("/suppliers/:id/status", catalogHandler.SetSupplierStatus)
		api.GET("/suppliers/:id/products", catalogHandler.ListSupplierLinks)
	}

	return r
}
