package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"warehouse-service/config"
	"warehouse-service/internal/cache"
	"warehouse-service/internal/producer"
	"warehouse-service/internal/repository"
	"warehouse-service/internal/router"
	"warehouse-service/internal/service"
	gtransport "warehouse-service/internal/transport/grpc"
	"warehouse-service/pkg/database"
	"warehouse-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}

	defer logger.Sync()

	log := logger.L()

	cfg := config.Load(log)

	db := database.ConnectDB(&cfg.DB.Config, log)
	defer database.CloseDB(db, log)

	repos := repository.New(db)

	var locker service.Locker
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			log.Fatal("failed to create redis client", zap.Error(err))
		}
		defer redisClient.Close()
		locker = redisClient.Locker(time.Duration(cfg.LockTTL) * time.Second)
		log.Info("Redis locks enabled")
	} else {
		log.Info("Redis locks disabled")
	}

	var events service.EventBus
	if len(cfg.Kafka.Brokers) > 0 {
		p := producer.NewInventoryProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
		defer p.Close()
		events = p
		log.Info("Kafka events enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.EventsTopic))
	} else {
		log.Info("Kafka events disabled")
	}

	var salesZoneID *uuid.UUID
	if cfg.SalesZoneID != "" {
		id, err := uuid.Parse(cfg.SalesZoneID)
		if err != nil {
			log.Fatal("invalid SALES_ZONE_ID", zap.String("value", cfg.SalesZoneID), zap.Error(err))
		}
		salesZoneID = &id
	}

	zones := service.NewSalesZoneResolver(repos, salesZoneID, log)
	svc := router.Services{
		Movements:   service.NewMovementService(repos, events, log),
		Links:       service.NewSupplierLinkService(repos, log),
		Procurement: service.NewProcurementService(repos, events, locker, log),
		Sales:       service.NewSalesService(repos, zones, events, locker, log),
		Catalog:     service.NewCatalogService(repos, zones, log),
		Profiles:    service.NewProfileService(repos, log),
		SalesZone:   zones,
	}

	httpSrv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router.Router(svc, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("failed to get sql.DB", zap.Error(err))
	}
	grpcServer := gtransport.NewServer(sqlDB, log)
	if err := grpcServer.CheckDB(context.Background()); err != nil {
		log.Warn("database is not ready yet", zap.Error(err))
	}

	lis, err := net.Listen("tcp", cfg.GRPCPort)
	if err != nil {
		log.Fatal("failed to listen", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("Starting gRPC health server", zap.String("addr", cfg.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	go func() {
		log.Info("Starting HTTP server", zap.String("addr", cfg.Port))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-quit
	log.Info("Shutting down warehouse service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Error("HTTP shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
	log.Info("Warehouse service stopped gracefully")
}
