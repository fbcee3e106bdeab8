package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"warehouse-service/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakePinger struct{ err error }

func (f *fakePinger) PingContext(context.Context) error { return f.err }

func TestToStatusErr(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
	}{
		{service.ErrUnauthorized, codes.Unauthenticated},
		{service.ErrForbidden, codes.PermissionDenied},
		{&service.ValidationError{Field: "quantity", Message: "must be > 0"}, codes.InvalidArgument},
		{fmt.Errorf("wrap: %w", service.ErrProductNotFound), codes.NotFound},
		{service.ErrSKUAlreadyExists, codes.AlreadyExists},
		{&service.InsufficientStockError{}, codes.FailedPrecondition},
		{&service.InsufficientStockBatchError{Errors: []string{"x"}}, codes.FailedPrecondition},
		{service.ErrInvalidOrderState, codes.FailedPrecondition},
		{service.ErrResourceBusy, codes.Unavailable},
		{errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.code, status.Code(toStatusErr(tt.err)))
		})
	}
	assert.NoError(t, toStatusErr(nil))

	st, _ := status.FromError(toStatusErr(errors.New("password=hunter2")))
	assert.NotContains(t, st.Message(), "hunter2")
}

func TestErrorUnaryInterceptor_KeepsStatusErrors(t *testing.T) {
	ic := NewErrorUnaryInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/test/Method"}

	_, err := ic(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, status.Error(codes.Aborted, "already a status")
	})
	assert.Equal(t, codes.Aborted, status.Code(err))

	_, err = ic(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, service.ErrZoneNotFound
	})
	assert.Equal(t, codes.NotFound, status.Code(err))

	resp, err := ic(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}

func dialBufconn(t *testing.T, s *Server) grpc_health_v1.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.GracefulStop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return grpc_health_v1.NewHealthClient(conn)
}

func TestServer_HealthFollowsDatabase(t *testing.T) {
	db := &fakePinger{}
	s := NewServer(db, zap.NewNop())
	client := dialBufconn(t, s)
	ctx := context.Background()

	resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.GetStatus(), "not serving until the first check")

	require.NoError(t, s.CheckDB(ctx))
	resp, err = client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.GetStatus())

	db.err = errors.New("connection refused")
	assert.Error(t, s.CheckDB(ctx))
	resp, err = client.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}
