package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"civic-connect/backend/internal/db"
	"civic-connect/backend/internal/otp/domain"
)

const (
	insertChallengeSQL = `INSERT INTO otp_challenges (id, email, purpose, otp_code, expires_at, is_used, created_at)
VALUES ($1, $2, $3, $4, $5, false, $6)`
	deleteExpiredUnusedSQL = `DELETE FROM otp_challenges
WHERE email = $1 AND purpose = $2 AND is_used = false AND expires_at < $3`
	recentExistsSQL = `SELECT EXISTS (
SELECT 1 FROM otp_challenges WHERE email = $1 AND purpose = $2 AND created_at > $3)`
	findLatestUnusedSQL = `SELECT id, email, purpose, otp_code, expires_at, is_used, created_at
FROM otp_challenges
WHERE email = $1 AND otp_code = $2 AND purpose = $3 AND is_used = false
ORDER BY created_at DESC, id DESC
LIMIT 1`
	claimSQL            = `UPDATE otp_challenges SET is_used = true WHERE id = $1 AND is_used = false RETURNING expires_at`
	deleteUsedExceptSQL = `DELETE FROM otp_challenges WHERE email = $1 AND purpose = $2 AND is_used = true AND id <> $3`
	cleanupSQL          = `DELETE FROM otp_challenges WHERE expires_at < $1 OR (is_used = true AND created_at < $2)`
)

// PostgresRepository stores challenges in the otp_challenges table.
type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns an OTP challenge repository that uses the given pool.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

func (r *PostgresRepository) Create(ctx context.Context, c *domain.Challenge) error {
	_, err := r.db.Exec(ctx, insertChallengeSQL,
		c.ID, c.Email, string(c.Purpose), c.Code, c.ExpiresAt, c.CreatedAt)
	return err
}

func (r *PostgresRepository) DeleteExpiredUnused(ctx context.Context, email string, purpose domain.Purpose, now time.Time) error {
	_, err := r.db.Exec(ctx, deleteExpiredUnusedSQL, email, string(purpose), now)
	return err
}

func (r *PostgresRepository) HasCreatedSince(ctx context.Context, email string, purpose domain.Purpose, since time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, recentExistsSQL, email, string(purpose), since).Scan(&exists)
	return exists, err
}

func (r *PostgresRepository) FindLatestUnused(ctx context.Context, email, code string, purpose domain.Purpose) (*domain.Challenge, error) {
	var (
		c    domain.Challenge
		purp string
	)
	err := r.db.QueryRow(ctx, findLatestUnusedSQL, email, code, string(purpose)).
		Scan(&c.ID, &c.Email, &purp, &c.Code, &c.ExpiresAt, &c.IsUsed, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.Purpose = domain.Purpose(purp)
	return &c, nil
}

func (r *PostgresRepository) Claim(ctx context.Context, id string) (time.Time, bool, error) {
	var expiresAt time.Time
	err := r.db.QueryRow(ctx, claimSQL, id).Scan(&expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return expiresAt, true, nil
}

func (r *PostgresRepository) DeleteUsedExcept(ctx context.Context, email string, purpose domain.Purpose, keepID string) error {
	_, err := r.db.Exec(ctx, deleteUsedExceptSQL, email, string(purpose), keepID)
	return err
}

func (r *PostgresRepository) Cleanup(ctx context.Context, now, usedBefore time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, cleanupSQL, now, usedBefore)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
