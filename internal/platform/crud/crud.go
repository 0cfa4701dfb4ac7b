// Package crud serves list, get, create, update and delete for the civic entities over a typed repository.
package crud

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"civic-connect/backend/internal/db"
	"civic-connect/backend/internal/listing"
	"civic-connect/backend/internal/platform/apperr"
	"civic-connect/backend/internal/platform/response"
	"civic-connect/backend/internal/server/middleware"
)

// Repository persists one entity type. T is the row, C the create input and U the partial update.
type Repository[T, C, U any] interface {
	List(ctx context.Context, f listing.Filter, p listing.Params) (*listing.Page[T], error)
	// Get returns nil when id does not exist.
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, actorID string, in C) (*T, error)
	// Update returns db.ErrNoFields for an empty update and nil when id does not exist.
	Update(ctx context.Context, actorID, id string, in U) (*T, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Validator is implemented by create and update inputs that check themselves after binding.
type Validator interface {
	Validate() error
}

// Handler binds a Repository to HTTP. Noun names the entity in response messages.
type Handler[T, C, U any] struct {
	repo Repository[T, C, U]
	spec listing.Spec
	noun string
}

// NewHandler returns a handler whose list filters are parsed with spec.
func NewHandler[T, C, U any](repo Repository[T, C, U], spec listing.Spec, noun string) *Handler[T, C, U] {
	return &Handler[T, C, U]{repo: repo, spec: spec, noun: noun}
}

// Register mounts the five routes on r.
func (h *Handler[T, C, U]) Register(r gin.IRouter) {
	r.GET("", h.List)
	r.GET("/:id", h.Get)
	r.POST("", h.Create)
	r.PUT("/:id", h.Update)
	r.DELETE("/:id", h.Delete)
}

func (h *Handler[T, C, U]) List(c *gin.Context) {
	params, err := listing.ParseParams(c.Query("page"), c.Query("limit"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	filter, err := h.spec.ParseFilter(c.Query)
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

func (h *Handler[T, C, U]) Get(c *gin.Context) {
	row, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(apperr.As(err))
		return
	}
	if row == nil {
		_ = c.Error(h.notFound())
		return
	}
	response.OK(c, "", row)
}

func (h *Handler[T, C, U]) Create(c *gin.Context) {
	var in C
	if !bind(c, &in) {
		return
	}
	row, err := h.repo.Create(c.Request.Context(), actor(c), in)
	if err != nil {
		_ = c.Error(apperr.As(err))
		return
	}
	response.Created(c, h.noun+" created successfully", row)
}

func (h *Handler[T, C, U]) Update(c *gin.Context) {
	var in U
	if !bind(c, &in) {
		return
	}
	row, err := h.repo.Update(c.Request.Context(), actor(c), c.Param("id"), in)
	if errors.Is(err, db.ErrNoFields) {
		_ = c.Error(apperr.Validation("No fields to update"))
		return
	}
	if err != nil {
		_ = c.Error(apperr.As(err))
		return
	}
	if row == nil {
		_ = c.Error(h.notFound())
		return
	}
	response.OK(c, h.noun+" updated successfully", row)
}

func (h *Handler[T, C, U]) Delete(c *gin.Context) {
	ok, err := h.repo.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(apperr.As(err))
		return
	}
	if !ok {
		_ = c.Error(h.notFound())
		return
	}
	response.OK(c, h.noun+" deleted successfully", nil)
}

func (h *Handler[T, C, U]) notFound() error {
	return apperr.NotFound(h.noun + " not found")
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		_ = c.Error(apperr.Binding(err))
		return false
	}
	if v, ok := dst.(Validator); ok {
		if err := v.Validate(); err != nil {
			_ = c.Error(apperr.As(err))
			return false
		}
	}
	return true
}

func actor(c *gin.Context) string {
	id, _ := middleware.GetUserID(c.Request.Context())
	return id
}
