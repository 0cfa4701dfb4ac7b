// Package handler serves /api/settings. Access is restricted to admins by the router's policy check.
package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"civic-connect/backend/internal/platform/apperr"
	"civic-connect/backend/internal/platform/response"
	"civic-connect/backend/internal/server/middleware"
	"civic-connect/backend/internal/setting/domain"
	"civic-connect/backend/internal/setting/repository"
)

const msgNotFound = "Setting not found"

type Handler struct {
	repo repository.Repository
}

func NewHandler(repo repository.Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("", h.List)
	r.GET("/:key", h.Get)
	r.POST("", h.Upsert)
	r.PUT("/:key", h.Update)
	r.DELETE("/:key", h.Delete)
}

func (h *Handler) List(c *gin.Context) {
	settings, err := h.repo.List(c.Request.Context())
	if err != nil {
		_ = c.Error(apperr.As(err))
		return
	}
	response.OK(c, "", settings)
}

func (h *Handler) Get(c *gin.Context) {
	s, err := h.repo.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		_ = c.Error(apperr.As(err))
		return
	}
	if s == nil {
		_ = c.Error(apperr.NotFound(msgNotFound))
		return
	}
	response.OK(c, "", s)
}

func (h *Handler) Upsert(c *gin.Context) {
	var in domain.UpsertInput
	if err := c.ShouldBindJSON(&in); err != nil {
		_ = c.Error(apperr.Binding(err))
		return
	}
	in.Key = strings.TrimSpace(in.Key)
	if in.Key == "" || in.Value == nil {
		_ = c.Error(apperr.Validation("Key and value are required"))
		return
	}
	s, err := h.repo.Upsert(c.Request.Context(), caller(c), in)
	if err != nil {
		_ = c.Error(apperr.As(err))
		return
	}
	response.Created(c, "Setting created/updated successfully", s)
}

func (h *Handler) Update(c *gin.Context) {
	var in domain.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		_ = c.Error(apperr.Binding(err))
		return
	}
	s, err := h.repo.Update(c.Request.Context(), caller(c), c.Param("key"), in)
	if err != nil {
		_ = c.Error(apperr.As(err))
		return
	}
	if s == nil {
		_ = c.Error(apperr.NotFound(msgNotFound))
		return
	}
	response.OK(c, "Setting updated successfully", s)
}

func (h *Handler) Delete(c *gin.Context) {
	ok, err := h.repo.Delete(c.Request.Context(), c.Param("key"))
	if err != nil {
		_ = c.Error(apperr.As(err))
		return
	}
	if !ok {
		_ = c.Error(apperr.NotFound(msgNotFound))
		return
	}
	response.OK(c, "Setting deleted successfully", nil)
}

func caller(c *gin.Context) string {
	id, _ := middleware.GetUserID(c.Request.Context())
	return id
}
