// Package handler serves /api/auth: OTP request and verification, login, registration and the caller's profile.
package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	identityservice "civic-connect/backend/internal/identity/service"
	otpservice "civic-connect/backend/internal/otp/service"
	"civic-connect/backend/internal/platform/apperr"
	"civic-connect/backend/internal/platform/response"
	"civic-connect/backend/internal/server/middleware"
	userdomain "civic-connect/backend/internal/user/domain"
)

// AuthService is the set of auth flows the handler exposes.
type AuthService interface {
	RequestOTP(ctx context.Context, email, purpose string) (*otpservice.Issued, error)
	VerifyOTP(ctx context.Context, email, code, purpose string) error
	Login(ctx context.Context, email, code string) (*identityservice.Session, error)
	Register(ctx context.Context, actorID string, in identityservice.RegisterInput) (*userdomain.User, error)
	Me(ctx context.Context, id string) (*userdomain.User, error)
	UpdateProfile(ctx context.Context, id string, in identityservice.ProfileInput) (*userdomain.User, error)
}

// Handler binds AuthService to HTTP.
type Handler struct {
	svc AuthService
}

// NewHandler returns an auth handler.
func NewHandler(svc AuthService) *Handler {
	return &Handler{svc: svc}
}

// RegisterPublic mounts the unauthenticated routes on r.
func (h *Handler) RegisterPublic(r gin.IRouter) {
	r.POST("/send-otp", h.SendOTP)
	r.POST("/verify-otp", h.VerifyOTP)
	r.POST("/login", h.Login)
}

// RegisterProtected mounts the routes that require a session. The caller applies Auth and Authorize.
func (h *Handler) RegisterProtected(r gin.IRouter) {
	r.POST("/register", h.Register)
	r.GET("/me", h.Me)
	r.PUT("/profile", h.UpdateProfile)
}

type otpRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

type verifyRequest struct {
	Email   string `json:"email"`
	OTP     string `json:"otp"`
	Purpose string `json:"purpose"`
}

type loginRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
}

type profileRequest struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	PhotoURL *string `json:"photo_url"`
}

// SendOTP issues a challenge and emails it.
func (h *Handler) SendOTP(c *gin.Context) {
	var req otpRequest
	if !bindJSON(c, &req) {
		return
	}
	issued, err := h.svc.RequestOTP(c.Request.Context(), req.Email, req.Purpose)
	if err != nil {
		_ = c.Error(sendError(err))
		return
	}
	response.OK(c, "OTP sent successfully to your email", gin.H{"expiresIn": issued.ExpiresIn})
}

// VerifyOTP consumes a challenge without logging in.
func (h *Handler) VerifyOTP(c *gin.Context) {
	var req verifyRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.VerifyOTP(c.Request.Context(), req.Email, req.OTP, req.Purpose); err != nil {
		_ = c.Error(verifyError(err))
		return
	}
	response.OK(c, "OTP verified successfully", nil)
}

// Login exchanges a login OTP for a session token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	sess, err := h.svc.Login(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		_ = c.Error(loginError(err))
		return
	}
	response.OK(c, "Login successful", gin.H{
		"user":       sess.User,
		"token":      sess.Token,
		"expires_at": sess.ExpiresAt,
	})
}

// Register creates an account. Admin only.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.svc.Register(c.Request.Context(), callerID(c), identityservice.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Phone:    req.Phone,
	})
	switch {
	case errors.Is(err, identityservice.ErrMissingFields):
		_ = c.Error(apperr.Validation("Please provide name, email, and password"))
		return
	case errors.Is(err, identityservice.ErrInvalidRole):
		_ = c.Error(apperr.Validation("Role must be admin or staff"))
		return
	case errors.Is(err, identityservice.ErrUserExists):
		_ = c.Error(apperr.Validation("User already exists with this email"))
		return
	case err != nil:
		_ = c.Error(apperr.As(err))
		return
	}
	response.Created(c, "User registered successfully", u)
}

// Me returns the authenticated user.
func (h *Handler) Me(c *gin.Context) {
	u, err := h.svc.Me(c.Request.Context(), callerID(c))
	if err != nil {
		_ = c.Error(userError(err))
		return
	}
	response.OK(c, "", u)
}

// UpdateProfile changes the caller's name, phone or photo.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.svc.UpdateProfile(c.Request.Context(), callerID(c), identityservice.ProfileInput{
		Name:     req.Name,
		Phone:    req.Phone,
		PhotoURL: req.PhotoURL,
	})
	if err != nil {
		_ = c.Error(userError(err))
		return
	}
	response.OK(c, "Profile updated successfully", u)
}

func callerID(c *gin.Context) string {
	id, _ := middleware.GetUserID(c.Request.Context())
	return id
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		_ = c.Error(apperr.Binding(err))
		return false
	}
	return true
}

func sendError(err error) error {
	switch {
	case errors.Is(err, identityservice.ErrEmailRequired):
		return apperr.Validation("Email is required")
	case errors.Is(err, otpservice.ErrInvalidPurpose):
		return apperr.Validation("Invalid OTP purpose")
	case errors.Is(err, otpservice.ErrUnknownRecipient):
		return apperr.Validation("User not found with this email")
	case errors.Is(err, otpservice.ErrInactiveRecipient):
		return apperr.Validation("User account is inactive")
	case errors.Is(err, otpservice.ErrRateLimited):
		return apperr.RateLimited("OTP already sent. Please wait 1 minute before requesting another.")
	case errors.Is(err, otpservice.ErrDelivery):
		return apperr.Upstream("Failed to send OTP email", err)
	default:
		return apperr.As(err)
	}
}

func verifyError(err error) error {
	switch {
	case errors.Is(err, identityservice.ErrOTPRequired):
		return apperr.Validation("Email and OTP are required")
	case errors.Is(err, otpservice.ErrInvalidPurpose):
		return apperr.Validation("Invalid OTP purpose")
	case errors.Is(err, otpservice.ErrExpired):
		return apperr.Validation("OTP has expired")
	case errors.Is(err, otpservice.ErrInvalidOrExpired):
		return apperr.Validation("Invalid or expired OTP")
	default:
		return apperr.As(err)
	}
}

func loginError(err error) error {
	switch {
	case errors.Is(err, identityservice.ErrEmailRequired):
		return apperr.Validation("Please provide an email")
	case errors.Is(err, identityservice.ErrOTPRequired):
		return apperr.Validation("OTP is required. Please request OTP first using /api/auth/send-otp")
	case errors.Is(err, identityservice.ErrInvalidCredentials):
		return apperr.Auth("Invalid credentials")
	case errors.Is(err, identityservice.ErrInactive):
		return apperr.Auth("User account is inactive")
	case errors.Is(err, otpservice.ErrExpired):
		return apperr.Auth("OTP has expired")
	case errors.Is(err, otpservice.ErrInvalidOrExpired):
		return apperr.Auth("Invalid or expired OTP")
	default:
		return apperr.As(err)
	}
}

func userError(err error) error {
	switch {
	case errors.Is(err, identityservice.ErrUserNotFound):
		return apperr.NotFound("User not found")
	case errors.Is(err, userdomain.ErrNoFields):
		return apperr.Validation("No fields to update")
	default:
		return apperr.As(err)
	}
}
