// Package handler serves the dev-only OTP lookup at GET /dev/otp.
package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"civic-connect/backend/internal/devotp"
	"civic-connect/backend/internal/platform/apperr"
	"civic-connect/backend/internal/platform/response"
)

const devOTPNote = "DEV MODE ONLY"

// Handler reads codes from the dev store. Only registered when dev OTP is enabled and not production.
type Handler struct {
	store devotp.Store
}

// NewHandler returns a dev OTP handler backed by store.
func NewHandler(store devotp.Store) *Handler {
	return &Handler{store: store}
}

// Register mounts GET /dev/otp on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/dev/otp", h.GetOTP)
}

// GetOTP returns the latest code for ?email=&purpose= (purpose defaults to login).
func (h *Handler) GetOTP(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		_ = c.Error(apperr.Validation("email is required"))
		return
	}
	purpose := strings.TrimSpace(c.DefaultQuery("purpose", "login"))
	otp, expiresAt, ok := h.store.Get(c.Request.Context(), email, purpose)
	if !ok {
		_ = c.Error(apperr.NotFound("OTP not found or expired"))
		return
	}
	response.OK(c, devOTPNote, gin.H{
		"email":      strings.ToLower(email),
		"purpose":    purpose,
		"otp":        otp,
		"expires_at": expiresAt,
	})
}
