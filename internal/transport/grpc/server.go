package grpc

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// ServiceName имя сервиса для grpc.health.v1; пустое имя отражает состояние всего процесса.
const ServiceName = "warehouse.v1.WarehouseService"

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	srv    *grpc.Server
	health *health.Server
	db     Pinger
	log    *zap.Logger
}

func NewServer(db Pinger, log *zap.Logger) *Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			NewLoggingUnaryInterceptor(log),
			NewErrorUnaryInterceptor(),
		),
	)

	healthSrv := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, healthSrv)

	reflection.Register(srv)

	s := &Server{srv: srv, health: healthSrv, db: db, log: log}
	s.SetServing(false)
	return s
}

// SetServing переключает статус для всего процесса и для ServiceName.
func (s *Server) SetServing(ok bool) {
	st := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if ok {
		st = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// CheckDB пингует БД и выставляет статус по результату.
func (s *Server) CheckDB(ctx context.Context) error {
	if s.db == nil {
		s.SetServing(true)
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		s.log.Warn("database ping failed", zap.Error(err))
		s.SetServing(false)
		return err
	}
	s.SetServing(true)
	return nil
}

func (s *Server) Serve(lis net.Listener) error {
	return s.srv.Serve(lis)
}

func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}

func NewLoggingUnaryInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if info.FullMethod == grpc_health_v1.Health_Check_FullMethodName {
			return resp, err
		}
		log.Info("grpc call",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)),
		)
		return resp, err
	}
}
