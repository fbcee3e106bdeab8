package handlers

import (
	"net/http"

	"warehouse-service/internal/dto"
	"warehouse-service/internal/middleware"
	"warehouse-service/internal/models"
	"warehouse-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProfileHandler struct {
	profiles service.ProfileService
	log      *zap.Logger
}

func NewProfileHandler(profiles service.ProfileService, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, log: log}
}

func (h *ProfileHandler) Me(c *gin.Context) {
	p, ok := middleware.ProfileFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewUnauthorizedError("no actor"))
		return
	}
	c.JSON(http.StatusOK, dto.FromProfile(p))
}

func (h *ProfileHandler) Upsert(c *gin.Context) {
	var req dto.UpsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, "profile", err)
		return
	}
	p, err := h.profiles.UpsertProfile(c.Request.Context(), service.ProfileInput{
		ExternalID:  req.ExternalID,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Role:        models.UserRole(req.Role),
		WarehouseID: req.WarehouseID,
	})
	if err != nil {
		writeError(c, h.log, "upsert profile", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromProfile(p))
}

func (h *ProfileHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.profiles.GetProfile(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, "get profile", err)
		return
	}
	c.JSON(http.StatusOK, dto.FromProfile(p))
}

func (h *ProfileHandler) SetStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SetProfileStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.log, "profile status", err)
		return
	}
	if err := h.profiles.SetStatus(c.Request.Context(), id, models.UserStatus(req.Status)); err != nil {
		writeError(c, h.log, "set profile status", err)
		return
	}
	c.Status(http.StatusNoContent)
}
