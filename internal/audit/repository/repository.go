package repository

import (
	"context"

	"civic-connect/backend/internal/audit/domain"
	"civic-connect/backend/internal/listing"
)

// Repository defines persistence for audit logs.
type Repository interface {
	Create(ctx context.Context, a *domain.AuditLog) error
	List(ctx context.Context, f listing.Filter, p listing.Params) (*listing.Page[domain.AuditLog], error)
}
