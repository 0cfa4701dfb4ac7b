package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":5000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":5000")
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want development", cfg.Env)
	}
	if cfg.JWTIssuer != "civic-api" {
		t.Errorf("JWTIssuer = %q, want civic-api", cfg.JWTIssuer)
	}
	if cfg.JWTExpire != "7d" {
		t.Errorf("JWTExpire = %q, want 7d", cfg.JWTExpire)
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d, want 10", cfg.BcryptCost)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("SMTPPort = %d, want 587", cfg.SMTPPort)
	}
	if cfg.SMTPFrom != "noreply@mla.gov.in" {
		t.Errorf("SMTPFrom = %q, want fallback sender", cfg.SMTPFrom)
	}
	if cfg.OTPReturnToClient {
		t.Error("OTPReturnToClient should default to false")
	}
	if cfg.RateLimitRequests != 100 {
		t.Errorf("RateLimitRequests = %d, want 100", cfg.RateLimitRequests)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_SECRET", "s3cret")
	os.Setenv("BCRYPT_SALT_ROUNDS", "12")
	os.Setenv("SMTP_USER", "mailer@example.com")
	os.Setenv("JWT_EXPIRE", "30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
	}
	if cfg.JWTSecret != "s3cret" {
		t.Errorf("JWTSecret = %q, want s3cret", cfg.JWTSecret)
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.SMTPFrom != "mailer@example.com" {
		t.Errorf("SMTPFrom = %q, want SMTP_USER fallback", cfg.SMTPFrom)
	}
	if got := cfg.TokenTTL(); got != 30*time.Minute {
		t.Errorf("TokenTTL = %v, want 30m", got)
	}
}

func TestLoad_InvalidBcryptCost(t *testing.T) {
	for _, cost := range []string{"3", "32"} {
		t.Run(cost, func(t *testing.T) {
			os.Clearenv()
			os.Setenv("BCRYPT_SALT_ROUNDS", cost)
			if _, err := Load(); err == nil {
				t.Fatalf("Load with BCRYPT_SALT_ROUNDS=%s should fail", cost)
			}
		})
	}
}

func TestLoad_DevOTPRejectedInProduction(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_ENV", "production")
	os.Setenv("JWT_SECRET", "s3cret")
	os.Setenv("OTP_RETURN_TO_CLIENT", "true")

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject OTP_RETURN_TO_CLIENT in production")
	}
}

func TestLoad_ProductionRequiresSigningKey(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_ENV", "production")

	if _, err := Load(); err == nil {
		t.Fatal("Load should require JWT_SECRET in production")
	}
}

func TestTokenTTL(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"7d", 7 * 24 * time.Hour},
		{"1d", 24 * time.Hour},
		{"168h", 168 * time.Hour},
		{"15m", 15 * time.Minute},
		{"", 7 * 24 * time.Hour},
		{"garbage", 7 * 24 * time.Hour},
		{"-1h", 7 * 24 * time.Hour},
		{"0d", 7 * 24 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c := &Config{JWTExpire: tt.in}
			if got := c.TokenTTL(); got != tt.want {
				t.Errorf("TokenTTL(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanupIntervalAndRateWindow_Fallbacks(t *testing.T) {
	c := &Config{}
	if got := c.CleanupInterval(); got != time.Hour {
		t.Errorf("CleanupInterval = %v, want 1h", got)
	}
	if got := c.RateWindow(); got != 15*time.Minute {
		t.Errorf("RateWindow = %v, want 15m", got)
	}
}

func TestCORSOrigins(t *testing.T) {
	c := &Config{CORSAllowedOrigins: " https://a.example , ,https://b.example"}
	got := c.CORSOrigins()
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", got)
	}
	var nilCfg *Config
	if nilCfg.CORSOrigins() != nil {
		t.Error("nil config should yield nil origins")
	}
}

func TestIsProduction(t *testing.T) {
	if !(&Config{Env: "Production"}).IsProduction() {
		t.Error("IsProduction should be case-insensitive")
	}
	if (&Config{Env: "development"}).IsProduction() {
		t.Error("development is not production")
	}
	if !(&Config{Env: "development"}).IsDevelopment() {
		t.Error("IsDevelopment should be true for development")
	}
}
