// Package service implements admin user management.
package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"civic-connect/backend/internal/audit"
	auditdomain "civic-connect/backend/internal/audit/domain"
	"civic-connect/backend/internal/listing"
	"civic-connect/backend/internal/logger"
	"civic-connect/backend/internal/security"
	"civic-connect/backend/internal/user/domain"
	"civic-connect/backend/internal/user/repository"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrDeleteSelf  = errors.New("cannot delete your own account")
	ErrInvalidRole = errors.New("role must be admin or staff")
)

const auditResource = "user"

// UpdateInput is an admin edit of another account. Nil fields are left unchanged; empty name, email,
// role and password are ignored as well. Phone and photo_url may be cleared to "".
type UpdateInput struct {
	Name     *string
	Email    *string
	Role     *string
	Phone    *string
	PhotoURL *string
	IsActive *bool
	Password *string
}

// Service lists, reads, edits and deletes users.
type Service struct {
	repo   repository.Repository
	hasher *security.Hasher
	audit  audit.AuditLogger
	log    *zap.Logger
}

// NewService returns a user service. auditLogger and log may be nil.
func NewService(repo repository.Repository, hasher *security.Hasher, auditLogger audit.AuditLogger, log *zap.Logger) *Service {
	return &Service{repo: repo, hasher: hasher, audit: auditLogger, log: logger.OrNop(log)}
}

// List returns a page of users filtered by role and is_active.
func (s *Service) List(ctx context.Context, f listing.Filter, p listing.Params) (*listing.Page[domain.User], error) {
	return s.repo.List(ctx, f, p)
}

// Get returns the user for id or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// Update applies in to the user id on behalf of actorID. A new password is stored as a bcrypt hash.
func (s *Service) Update(ctx context.Context, actorID, id string, in UpdateInput) (*domain.User, error) {
	var p domain.Patch
	if v := trimmed(in.Name); v != nil {
		p.Name = v
	}
	if v := trimmed(in.Email); v != nil {
		p.Email = v
	}
	if v := trimmed(in.Role); v != nil {
		r := domain.Role(strings.ToLower(*v))
		if !r.Valid() {
			return nil, ErrInvalidRole
		}
		p.Role = &r
	}
	p.Phone = in.Phone
	p.PhotoURL = in.PhotoURL
	p.IsActive = in.IsActive
	if in.Password != nil && *in.Password != "" {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		p.PasswordHash = &hash
	}
	if p.Empty() {
		return nil, domain.ErrNoFields
	}

	u, err := s.repo.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	s.logAudit(ctx, actorID, auditdomain.ActionUserUpdated, map[string]string{
		"user_id":          id,
		"password_changed": strconv.FormatBool(p.PasswordHash != nil),
	})
	return u, nil
}

// Delete removes the user id. An actor cannot delete themselves.
func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	if id == actorID {
		return ErrDeleteSelf
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.logAudit(ctx, actorID, auditdomain.ActionUserDeleted, map[string]string{"user_id": id})
	return nil
}

func (s *Service) logAudit(ctx context.Context, userID, action string, meta map[string]string) {
	if s.audit == nil {
		return
	}
	s.audit.LogEvent(ctx, userID, action, auditResource, audit.Metadata(meta))
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

