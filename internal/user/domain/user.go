package domain

import (
	"errors"
	"strings"
	"time"
)

// Role is the authorization role of a staff account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r == RoleAdmin || r == RoleStaff }

// ErrNoFields is returned when an update carries nothing to change.
var ErrNoFields = errors.New("no fields to update")

// User is a staff or admin account. PasswordHash never leaves the service.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash *string   `json:"-"`
	Role         Role      `json:"role"`
	Phone        *string   `json:"phone"`
	PhotoURL     *string   `json:"photo_url"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Validate checks fields required for persistence and fills defaults.
func (u *User) Validate() error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Email == "" {
		return errors.New("email is required")
	}
	if strings.TrimSpace(u.Name) == "" {
		return errors.New("name is required")
	}
	if u.Role == "" {
		u.Role = RoleStaff
	}
	if !u.Role.Valid() {
		return errors.New("role must be admin or staff")
	}
	return nil
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Name         *string
	Email        *string
	Role         *Role
	Phone        *string
	PhotoURL     *string
	IsActive     *bool
	PasswordHash *string
}

// Empty reports whether p changes nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Role == nil && p.Phone == nil &&
		p.PhotoURL == nil && p.IsActive == nil && p.PasswordHash == nil
}
