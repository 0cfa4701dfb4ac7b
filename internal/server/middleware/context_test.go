package middleware

import (
	"context"
	"testing"
)

func TestWithIdentity_SetsAllValues(t *testing.T) {
	ctx := WithIdentity(context.Background(), "user-1", "admin")

	userID, ok := GetUserID(ctx)
	if !ok || userID != "user-1" {
		t.Errorf("GetUserID = %q, %v; want user-1, true", userID, ok)
	}
	role, ok := GetRole(ctx)
	if !ok || role != "admin" {
		t.Errorf("GetRole = %q, %v; want admin, true", role, ok)
	}
}

func TestGetters_ReturnFalseWhenNotSet(t *testing.T) {
	ctx := context.Background()
	if v, ok := GetUserID(ctx); ok || v != "" {
		t.Errorf("GetUserID = %q, %v; want empty, false", v, ok)
	}
	if v, ok := GetRole(ctx); ok || v != "" {
		t.Errorf("GetRole = %q, %v; want empty, false", v, ok)
	}
}

func TestClientIP(t *testing.T) {
	if got := ClientIP(context.Background()); got != "unknown" {
		t.Errorf("ClientIP(empty) = %q, want unknown", got)
	}
	if got := ClientIP(WithClientIP(context.Background(), "203.0.113.7")); got != "203.0.113.7" {
		t.Errorf("ClientIP = %q", got)
	}
}
