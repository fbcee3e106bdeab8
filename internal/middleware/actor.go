package middleware

import (
	"errors"
	"net/http"

	"warehouse-service/internal/dto"
	"warehouse-service/internal/models"
	"warehouse-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	HeaderUserID = "X-User-ID"

	CtxUserID   = "user_id"
	CtxUserRole = "user_role"
	CtxProfile  = "profile"
)

// ActorRequired загружает локальный профиль пользователя, уже аутентифицированного
// шлюзом, и кладёт id и роль в контекст запроса для сервисного слоя.
func ActorRequired(profiles service.ProfileService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		externalID := c.GetHeader(HeaderUserID)
		if externalID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewUnauthorizedError("missing "+HeaderUserID+" header"))
			return
		}

		p, err := profiles.Authenticate(c.Request.Context(), externalID)
		switch {
		case errors.Is(err, service.ErrUserBlocked):
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewForbiddenError("user is blocked"))
			return
		case errors.Is(err, service.ErrUnauthorized):
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewUnauthorizedError("unknown user"))
			return
		case err != nil:
			log.Error("profile lookup failed", zap.String("external_id", externalID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewInternalError(""))
			return
		}

		c.Set(CtxUserID, p.ID.String())
		c.Set(CtxUserRole, string(p.Role))
		c.Set(CtxProfile, p)
		c.Request = c.Request.WithContext(service.WithActor(c.Request.Context(), p.ID, service.Role(p.Role)))
		c.Next()
	}
}

// ProfileFromContext профиль, загруженный ActorRequired.
func ProfileFromContext(c *gin.Context) (*models.UserProfile, bool) {
	v, ok := c.Get(CtxProfile)
	if !ok {
		return nil, false
	}
	p, ok := v.(*models.UserProfile)
	return p, ok
}
