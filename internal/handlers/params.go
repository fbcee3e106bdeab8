package handlers

import (
	"net/http"
	"strconv"
	"time"

	"warehouse-service/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxPageSize = 200

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewValidationError("invalid "+name,
			[]dto.FieldError{{Field: name, Message: "must be a UUID", Tag: "uuid"}}))
		return uuid.Nil, false
	}
	return id, true
}

func queryUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewValidationError("invalid "+name,
			[]dto.FieldError{{Field: name, Message: "must be a UUID", Tag: "uuid"}}))
		return nil, false
	}
	return &id, true
}

// queryTime принимает RFC3339.
func queryTime(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewValidationError("invalid "+name,
			[]dto.FieldError{{Field: name, Message: "must be RFC3339", Tag: "datetime"}}))
		return nil, false
	}
	return &t, true
}

func queryDecimal(c *gin.Context, name string) (*decimal.Decimal, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewValidationError("invalid "+name,
			[]dto.FieldError{{Field: name, Message: "must be a number", Tag: "numeric"}}))
		return nil, false
	}
	return &d, true
}

func queryBool(c *gin.Context, name string) *bool {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

// page limit/offset из query; некорректные значения заменяются значениями по умолчанию.
func page(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
