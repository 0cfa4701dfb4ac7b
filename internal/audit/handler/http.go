// Package handler serves the admin audit log listing.
package handler

import (
	"github.com/gin-gonic/gin"

	auditrepo "civic-connect/backend/internal/audit/repository"
	"civic-connect/backend/internal/listing"
	"civic-connect/backend/internal/platform/apperr"
	"civic-connect/backend/internal/platform/response"
)

// Handler lists audit entries.
type Handler struct {
	repo auditrepo.Repository
}

// NewHandler returns an audit handler backed by repo.
func NewHandler(repo auditrepo.Repository) *Handler {
	return &Handler{repo: repo}
}

// Register mounts GET /audit-logs on r. The caller guards r with admin authorization.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/audit-logs", h.List)
}

// List returns a page of audit entries filtered by user_id, action, resource, dateFrom and dateTo.
func (h *Handler) List(c *gin.Context) {
	params, err := listing.ParseParams(c.Query("page"), c.Query("limit"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	filter, err := auditrepo.ListSpec.ParseFilter(c.Query)
	if err != nil {
		_ = c.Error(err)
		return
	}
	page, err := h.repo.List(c.Request.Context(), filter, params)
	if err != nil {
		_ = c.Error(apperr.As(err))
		return
	}
	response.Paginated(c, page)
}
