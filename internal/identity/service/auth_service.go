// Package service implements the authentication flows: OTP request and verification, OTP login that
// mints a session token, admin registration and self-service profile updates.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"civic-connect/backend/internal/audit"
	auditdomain "civic-connect/backend/internal/audit/domain"
	"civic-connect/backend/internal/logger"
	otpdomain "civic-connect/backend/internal/otp/domain"
	otpservice "civic-connect/backend/internal/otp/service"
	"civic-connect/backend/internal/security"
	userdomain "civic-connect/backend/internal/user/domain"
)

// Sentinel errors for the auth service; the handler maps them to HTTP responses.
var (
	ErrEmailRequired      = errors.New("email is required")
	ErrOTPRequired        = errors.New("otp is required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactive           = errors.New("user account is inactive")
	ErrMissingFields      = errors.New("name, email and password are required")
	ErrInvalidRole        = errors.New("role must be admin or staff")
	ErrUserExists         = errors.New("user already exists with this email")
	ErrUserNotFound       = errors.New("user not found")
)

const auditResource = "auth"

// OTPService is the slice of the OTP service the auth flows need.
type OTPService interface {
	Issue(ctx context.Context, email, purpose string) (*otpservice.Issued, error)
	Verify(ctx context.Context, email, code, purpose string) error
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
	Update(ctx context.Context, id string, p userdomain.Patch) (*userdomain.User, error)
}

// Session is the outcome of a successful login.
type Session struct {
	User      *userdomain.User
	Token     string
	ExpiresAt time.Time
}

// RegisterInput carries an admin-created account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	Phone    string
}

// ProfileInput is a self-service profile update. Nil or empty fields are left unchanged.
type ProfileInput struct {
	Name     *string
	Phone    *string
	PhotoURL *string
}

// AuthService implements OTP-only login and the account endpoints around it.
type AuthService struct {
	otp    OTPService
	users  UserRepo
	hasher *security.Hasher
	tokens *security.TokenProvider
	audit  audit.AuditLogger
	log    *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewAuthService returns an AuthService with the given dependencies. auditLogger and log may be nil.
func NewAuthService(
	otp OTPService,
	users UserRepo,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	auditLogger audit.AuditLogger,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		otp:    otp,
		users:  users,
		hasher: hasher,
		tokens: tokens,
		audit:  auditLogger,
		log:    logger.OrNop(log),
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// RequestOTP issues a challenge for (email, purpose) and delivers it by email.
func (s *AuthService) RequestOTP(ctx context.Context, email, purpose string) (*otpservice.Issued, error) {
	if strings.TrimSpace(email) == "" {
		return nil, ErrEmailRequired
	}
	issued, err := s.otp.Issue(ctx, email, purpose)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "", auditdomain.ActionOTPRequested, map[string]string{
		"email":   issued.Email,
		"purpose": string(issued.Purpose),
	})
	return issued, nil
}

// VerifyOTP consumes a challenge without minting a session (registration and password reset flows).
func (s *AuthService) VerifyOTP(ctx context.Context, email, code, purpose string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(code) == "" {
		return ErrOTPRequired
	}
	if err := s.otp.Verify(ctx, email, code, purpose); err != nil {
		return err
	}
	p, _ := otpdomain.ParsePurpose(purpose)
	s.logAudit(ctx, "", auditdomain.ActionOTPVerified, map[string]string{
		"email":   otpdomain.NormalizeEmail(email),
		"purpose": string(p),
	})
	return nil
}

// Login verifies a login OTP for email and returns the user with a signed session token.
// Checks run in order: email present, user exists, user active, code present, code valid.
func (s *AuthService) Login(ctx context.Context, email, code string) (*Session, error) {
	email = otpdomain.NormalizeEmail(email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		s.loginFailed(ctx, "", email, "unknown_user")
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		s.loginFailed(ctx, u.ID, email, "inactive")
		return nil, ErrInactive
	}
	if strings.TrimSpace(code) == "" {
		return nil, ErrOTPRequired
	}
	if err := s.otp.Verify(ctx, email, strings.TrimSpace(code), string(otpdomain.PurposeLogin)); err != nil {
		s.loginFailed(ctx, u.ID, email, "otp_rejected")
		return nil, err
	}
	token, expiresAt, err := s.tokens.Issue(u.ID, string(u.Role))
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, u.ID, auditdomain.ActionLoginSuccess, map[string]string{"email": email})
	return &Session{User: u, Token: token, ExpiresAt: expiresAt}, nil
}

// Register creates a staff or admin account. actorID is the admin performing the registration.
func (s *AuthService) Register(ctx context.Context, actorID string, in RegisterInput) (*userdomain.User, error) {
	name := strings.TrimSpace(in.Name)
	email := otpdomain.NormalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	role := userdomain.RoleStaff
	if in.Role != "" {
		role = userdomain.Role(strings.ToLower(strings.TrimSpace(in.Role)))
		if !role.Valid() {
			return nil, ErrInvalidRole
		}
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	u := &userdomain.User{
		ID:           s.newID(),
		Name:         name,
		Email:        email,
		PasswordHash: &hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if phone := strings.TrimSpace(in.Phone); phone != "" {
		u.Phone = &phone
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logAudit(ctx, actorID, auditdomain.ActionUserRegistered, map[string]string{
		"user_id": u.ID,
		"email":   u.Email,
		"role":    string(u.Role),
	})
	return u, nil
}

// Me returns the user for id.
func (s *AuthService) Me(ctx context.Context, id string) (*userdomain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// UpdateProfile changes the caller's name, phone or photo. Empty strings count as unset.
// Returns userdomain.ErrNoFields when nothing would change.
func (s *AuthService) UpdateProfile(ctx context.Context, id string, in ProfileInput) (*userdomain.User, error) {
	p := userdomain.Patch{
		Name:     nonEmpty(in.Name),
		Phone:    nonEmpty(in.Phone),
		PhotoURL: nonEmpty(in.PhotoURL),
	}
	if p.Empty() {
		return nil, userdomain.ErrNoFields
	}
	u, err := s.users.Update(ctx, id, p)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *AuthService) loginFailed(ctx context.Context, userID, email, reason string) {
	s.logAudit(ctx, userID, auditdomain.ActionLoginFailure, map[string]string{"email": email, "reason": reason})
}

func (s *AuthService) logAudit(ctx context.Context, userID, action string, meta map[string]string) {
	if s.audit == nil {
		return
	}
	s.audit.LogEvent(ctx, userID, action, auditResource, audit.Metadata(meta))
}

func nonEmpty(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
