package grpc

import (
	"context"
	"errors"

	"warehouse-service/internal/service"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewErrorUnaryInterceptor переводит ошибки сервисного слоя в gRPC-статусы.
func NewErrorUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err == nil {
			return resp, nil
		}
		if _, ok := status.FromError(err); ok {
			return resp, err
		}
		return resp, toStatusErr(err)
	}
}

func toStatusErr(err error) error {
	if err == nil {
		return nil
	}
	var ve *service.ValidationError
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrUserBlocked):
		return status.Error(codes.PermissionDenied, "forbidden")
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrWarehouseNotFound),
		errors.Is(err, service.ErrZoneNotFound),
		errors.Is(err, service.ErrSupplierNotFound),
		errors.Is(err, service.ErrLinkNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrOrderItemNotFound),
		errors.Is(err, service.ErrClientNotFound),
		errors.Is(err, service.ErrSaleNotFound),
		errors.Is(err, service.ErrProfileNotFound),
		errors.Is(err, service.ErrMovementNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrSKUAlreadyExists),
		errors.Is(err, service.ErrBarcodeAlreadyExists),
		errors.Is(err, service.ErrTaxIDAlreadyExists),
		errors.Is(err, service.ErrDuplicatePreferred):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrInsufficientStockBatch),
		errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrInvalidOrderState),
		errors.Is(err, service.ErrNoSalesZoneConfigured),
		errors.Is(err, service.ErrInactiveProduct),
		errors.Is(err, service.ErrInactiveZone),
		errors.Is(err, service.ErrZoneNotInWarehouse),
		errors.Is(err, service.ErrProductNotFromSupplier),
		errors.Is(err, service.ErrSupplierBlocked):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, service.ErrResourceBusy):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
