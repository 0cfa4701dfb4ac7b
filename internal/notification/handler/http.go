// Package handler serves /api/notifications for the signed-in user.
package handler

import (
	"github.com/gin-gonic/gin"

	"civic-connect/backend/internal/listing"
	"civic-connect/backend/internal/notification/repository"
	"civic-connect/backend/internal/platform/apperr"
	"civic-connect/backend/internal/platform/response"
	"civic-connect/backend/internal/server/middleware"
)

type Handler struct {
	repo repository.Repository
}

func NewHandler(repo repository.Repository) *Handler {
	return &Handler{repo: repo}
}

// Register mounts the notification routes on r. read-all is registered before /:id/read.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("", h.List)
	r.PUT("/read-all", h.MarkAllRead)
	r.PUT("/:id/read", h.MarkRead)
}

func (h *Handler) List(c *gin.Context) {
	params, err := listing.ParseParams(c.Query("page"), c.Query("limit"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	filter, err := repository.ListSpec.ParseFilter(c.Query)
	if err != nil {
		_ = c.Error(err)
		return
	}
	page, err := h.repo.ListForUser(c.Request.Context(), caller(c), filter, params)
	if err != nil {
		_ = c.Error(apperr.As(err))
		return
	}
	response.Paginated(c, page)
}

func (h *Handler) MarkRead(c *gin.Context) {
	n, err := h.repo.MarkRead(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		_ = c.Error(apperr.As(err))
		return
	}
	if n == nil {
		_ = c.Error(apperr.NotFound("Notification not found"))
		return
	}
	response.OK(c, "Notification marked as read", n)
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	updated, err := h.repo.MarkAllRead(c.Request.Context(), caller(c))
	if err != nil {
		_ = c.Error(apperr.As(err))
		return
	}
	response.OK(c, "All notifications marked as read", gin.H{"updated": updated})
}

func caller(c *gin.Context) string {
	id, _ := middleware.GetUserID(c.Request.Context())
	return id
}
