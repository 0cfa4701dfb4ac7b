// Package handler serves GET /api/dashboard/stats.
package handler

import (
	"github.com/gin-gonic/gin"

	"civic-connect/backend/internal/dashboard/repository"
	"civic-connect/backend/internal/platform/apperr"
	"civic-connect/backend/internal/platform/response"
)

type Handler struct {
	repo repository.Repository
}

func NewHandler(repo repository.Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/stats", h.Stats)
}

func (h *Handler) Stats(c *gin.Context) {
	s, err := h.repo.Stats(c.Request.Context())
	if err != nil {
		_ = c.Error(apperr.As(err))
		return
	}
	response.OK(c, "", s)
}
