package domain

import "time"

// Actions recorded explicitly by the auth and user code paths. Route-derived actions (create, update,
// delete, ...) come from audit.ParseRoute.
const (
	ActionOTPRequested   = "otp_requested"
	ActionOTPVerified    = "otp_verified"
	ActionLoginSuccess   = "login_success"
	ActionLoginFailure   = "login_failure"
	ActionUserRegistered = "user_registered"
	ActionUserUpdated    = "user_updated"
	ActionUserDeleted    = "user_deleted"
)

// AuditLog represents an audit event. UserID is empty when the actor is unknown (e.g. a failed login).
type AuditLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	IP        string    `json:"ip"`
	Metadata  string    `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}
