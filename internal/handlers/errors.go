package handlers

import (
	"errors"
	"net/http"

	"warehouse-service/internal/dto"
	"warehouse-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var notFoundErrors = []error{
	service.ErrProductNotFound,
	service.ErrWarehouseNotFound,
	service.ErrZoneNotFound,
	service.ErrSupplierNotFound,
	service.ErrLinkNotFound,
	service.ErrOrderNotFound,
	service.ErrOrderItemNotFound,
	service.ErrClientNotFound,
	service.ErrSaleNotFound,
	service.ErrProfileNotFound,
	service.ErrMovementNotFound,
}

var conflictErrors = []error{
	service.ErrDuplicatePreferred,
	service.ErrEmptyOrder,
	service.ErrInvalidOrderState,
	service.ErrNoSalesZoneConfigured,
	service.ErrInactiveProduct,
	service.ErrInactiveZone,
	service.ErrZoneNotInWarehouse,
	service.ErrSKUAlreadyExists,
	service.ErrBarcodeAlreadyExists,
	service.ErrTaxIDAlreadyExists,
	service.ErrProductNotFromSupplier,
	service.ErrSupplierBlocked,
}

// errorResponse переводит ошибку сервисного слоя в HTTP-статус и тело.
// Детали внутренних ошибок наружу не отдаются.
func errorResponse(err error) (int, dto.BaseError) {
	var (
		ve    *service.ValidationError
		batch *service.InsufficientStockBatchError
		short *service.InsufficientStockError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, dto.NewValidationError(ve.Error(), []dto.FieldError{{Field: ve.Field, Message: ve.Message}})
	case errors.As(err, &batch):
		return http.StatusConflict, dto.NewInsufficientStockError(service.ErrInsufficientStockBatch.Error(), batch.Errors)
	case errors.As(err, &short):
		return http.StatusConflict, dto.NewInsufficientStockError(short.Error(), nil)
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, dto.NewUnauthorizedError(err.Error())
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrUserBlocked):
		return http.StatusForbidden, dto.NewForbiddenError(err.Error())
	case errors.Is(err, service.ErrResourceBusy):
		return http.StatusServiceUnavailable, dto.NewUnavailableError(err.Error())
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return http.StatusNotFound, dto.NewNotFoundError(err.Error())
		}
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return http.StatusConflict, dto.NewConflictError(err.Error())
		}
	}
	return http.StatusInternalServerError, dto.NewInternalError("")
}

func writeError(c *gin.Context, log *zap.Logger, op string, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		log.Error(op+" failed", zap.Error(err))
	} else {
		log.Debug(op+" rejected", zap.Int("status", status), zap.Error(err))
	}
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func bindError(c *gin.Context, log *zap.Logger, op string, err error) {
	log.Warn("invalid "+op+" request", zap.Error(err))
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewValidationError("invalid request body", []dto.FieldError{}))
}
