package repository

import (
	"context"

	"civic-connect/backend/internal/listing"
	"civic-connect/backend/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// Update applies p and returns the updated user, or nil if id does not exist.
	Update(ctx context.Context, id string, p domain.Patch) (*domain.User, error)
	// Delete removes the user. Returns false if id does not exist.
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, f listing.Filter, p listing.Params) (*listing.Page[domain.User], error)
}
