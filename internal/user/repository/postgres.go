package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"civic-connect/backend/internal/db"
	"civic-connect/backend/internal/listing"
	"civic-connect/backend/internal/user/domain"
)

const userColumns = "id, name, email, password_hash, role, phone, photo_url, is_active, created_at, updated_at"

const (
	getUserByIDSQL    = "SELECT " + userColumns + " FROM users WHERE id = $1"
	getUserByEmailSQL = "SELECT " + userColumns + " FROM users WHERE email = $1"
	insertUserSQL     = `INSERT INTO users (id, name, email, password_hash, role, phone, photo_url, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	deleteUserSQL = "DELETE FROM users WHERE id = $1"
)

// ListSpec lists users newest first, filterable by role and is_active.
var ListSpec = listing.Spec{
	Select: userColumns,
	From:   "users",
	Fields: []listing.Field{
		{Param: "role", Column: "role"},
		{Param: "is_active", Column: "is_active", Kind: listing.Bool},
	},
	OrderBy: "created_at DESC, id DESC",
}

// PostgresRepository stores users in the users table.
type PostgresRepository struct {
	db  db.DBTX
	now func() time.Time
}

// NewPostgresRepository returns a user repository that uses the given pool for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn, now: time.Now}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, getUserByIDSQL, id)
}

// GetByEmail returns the user with the given email (case-insensitive), or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, getUserByEmailSQL, strings.ToLower(strings.TrimSpace(email)))
}

func (r *PostgresRepository) getOne(ctx context.Context, q string, arg string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, q, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// Create persists the user. The user must have ID set; timestamps default to now.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	now := r.now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}
	_, err := r.db.Exec(ctx, insertUserSQL,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), u.Phone, u.PhotoURL, u.IsActive, u.CreatedAt, u.UpdatedAt)
	return err
}

// Update applies p. Returns domain.ErrNoFields for an empty patch and nil when id does not exist.
func (r *PostgresRepository) Update(ctx context.Context, id string, p domain.Patch) (*domain.User, error) {
	if p.Empty() {
		return nil, domain.ErrNoFields
	}
	var set db.Patch
	if p.Name != nil {
		set.Set("name", *p.Name)
	}
	if p.Email != nil {
		set.Set("email", strings.ToLower(strings.TrimSpace(*p.Email)))
	}
	if p.Role != nil {
		set.Set("role", string(*p.Role))
	}
	if p.Phone != nil {
		set.Set("phone", *p.Phone)
	}
	if p.PhotoURL != nil {
		set.Set("photo_url", *p.PhotoURL)
	}
	if p.IsActive != nil {
		set.Set("is_active", *p.IsActive)
	}
	if p.PasswordHash != nil {
		set.Set("password_hash", *p.PasswordHash)
	}
	set.Set("updated_at", r.now().UTC())
	q, args := set.Update("users", "id", id, userColumns)
	u, err := scanUser(r.db.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// Delete removes the user by id.
func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, deleteUserSQL, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// List returns one page of users matching f.
func (r *PostgresRepository) List(ctx context.Context, f listing.Filter, p listing.Params) (*listing.Page[domain.User], error) {
	return listing.Fetch(ctx, r.db, ListSpec, f, p, scanUser)
}

func scanUser(row listing.Scanner) (domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.Phone, &u.PhotoURL, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	u.Role = domain.Role(role)
	return u, err
}
