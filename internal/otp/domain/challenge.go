package domain

import (
	"strings"
	"time"
)

// Purpose scopes a challenge. A code issued for one purpose never verifies for another.
type Purpose string

const (
	PurposeLogin         Purpose = "login"
	PurposeRegistration  Purpose = "registration"
	PurposePasswordReset Purpose = "password_reset"
)

// ParsePurpose returns the purpose for s. Empty means login; ok is false for anything unrecognized.
func ParsePurpose(s string) (Purpose, bool) {
	switch p := Purpose(strings.TrimSpace(s)); p {
	case "":
		return PurposeLogin, true
	case PurposeLogin, PurposeRegistration, PurposePasswordReset:
		return p, true
	default:
		return p, false
	}
}

// Challenge is one issued OTP (stored in otp_challenges).
type Challenge struct {
	ID        string
	Email     string
	Purpose   Purpose
	Code      string
	ExpiresAt time.Time
	IsUsed    bool
	CreatedAt time.Time
}

// NormalizeEmail trims and lowercases an address. Every lookup keyed by email goes through it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
