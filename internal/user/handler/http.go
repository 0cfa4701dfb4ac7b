// Package handler serves /api/users for administrators.
package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"civic-connect/backend/internal/listing"
	"civic-connect/backend/internal/platform/apperr"
	"civic-connect/backend/internal/platform/response"
	"civic-connect/backend/internal/server/middleware"
	"civic-connect/backend/internal/user/domain"
	"civic-connect/backend/internal/user/repository"
	"civic-connect/backend/internal/user/service"
)

// Service is the user management surface the handler needs.
type Service interface {
	List(ctx context.Context, f listing.Filter, p listing.Params) (*listing.Page[domain.User], error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, actorID, id string, in service.UpdateInput) (*domain.User, error)
	Delete(ctx context.Context, actorID, id string) error
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the user routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("", h.List)
	r.GET("/:id", h.Get)
	r.PUT("/:id", h.Update)
	r.DELETE("/:id", h.Delete)
}

type updateRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Role     *string `json:"role"`
	Phone    *string `json:"phone"`
	PhotoURL *string `json:"photo_url"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password"`
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
	page, err := h.svc.List(c.Request.Context(), filter, params)
	if err != nil {
		_ = c.Error(apperr.As(err))
		return
	}
	response.Paginated(c, page)
}

func (h *Handler) Get(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(mapError(err))
		return
	}
	response.OK(c, "", u)
}

func (h *Handler) Update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.Binding(err))
		return
	}
	u, err := h.svc.Update(c.Request.Context(), actor(c), c.Param("id"), service.UpdateInput{
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
		Phone:    req.Phone,
		PhotoURL: req.PhotoURL,
		IsActive: req.IsActive,
		Password: req.Password,
	})
	if err != nil {
		_ = c.Error(mapError(err))
		return
	}
	response.OK(c, "User updated successfully", u)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		_ = c.Error(mapError(err))
		return
	}
	response.OK(c, "User deleted successfully", nil)
}

func actor(c *gin.Context) string {
	id, _ := middleware.GetUserID(c.Request.Context())
	return id
}

func mapError(err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return apperr.NotFound("User not found")
	case errors.Is(err, service.ErrDeleteSelf):
		return apperr.Validation("Cannot delete your own account")
	case errors.Is(err, service.ErrInvalidRole):
		return apperr.Validation("Role must be admin or staff")
	case errors.Is(err, domain.ErrNoFields):
		return apperr.Validation("No fields to update")
	default:
		return apperr.As(err)
	}
}
