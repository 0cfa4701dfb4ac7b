package repository

import (
	"context"
	"time"

	"civic-connect/backend/internal/otp/domain"
)

// Repository defines persistence for OTP challenges.
type Repository interface {
	// Create persists c. The challenge must have ID set.
	Create(ctx context.Context, c *domain.Challenge) error
	// DeleteExpiredUnused removes unused challenges for (email, purpose) that expired before now.
	DeleteExpiredUnused(ctx context.Context, email string, purpose domain.Purpose, now time.Time) error
	// HasCreatedSince reports whether any challenge for (email, purpose) was created after since.
	HasCreatedSince(ctx context.Context, email string, purpose domain.Purpose, since time.Time) (bool, error)
	// FindLatestUnused returns the newest unused challenge matching (email, code, purpose), or nil if none.
	FindLatestUnused(ctx context.Context, email, code string, purpose domain.Purpose) (*domain.Challenge, error)
	// Claim marks the challenge used if it is still unused. ok is false when another caller claimed it first.
	Claim(ctx context.Context, id string) (expiresAt time.Time, ok bool, err error)
	// DeleteUsedExcept removes used challenges for (email, purpose) other than keepID.
	DeleteUsedExcept(ctx context.Context, email string, purpose domain.Purpose, keepID string) error
	// Cleanup removes challenges that expired before now, or were used and created before usedBefore.
	Cleanup(ctx context.Context, now, usedBefore time.Time) (int64, error)
}
