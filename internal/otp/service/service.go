// Package service issues and verifies email OTP challenges.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"civic-connect/backend/internal/config"
	"civic-connect/backend/internal/devotp"
	"civic-connect/backend/internal/logger"
	"civic-connect/backend/internal/mailer"
	"civic-connect/backend/internal/otp"
	"civic-connect/backend/internal/otp/domain"
	"civic-connect/backend/internal/otp/repository"
	userdomain "civic-connect/backend/internal/user/domain"
)

// Sentinel errors; the HTTP layer maps them to client messages.
var (
	ErrInvalidPurpose    = errors.New("invalid otp purpose")
	ErrUnknownRecipient  = errors.New("no user with this email")
	ErrInactiveRecipient = errors.New("user account is inactive")
	ErrRateLimited       = errors.New("otp requested too recently")
	ErrDelivery          = errors.New("otp delivery failed")
	ErrInvalidOrExpired  = errors.New("invalid or expired otp")
	ErrExpired           = errors.New("otp has expired")
)

const (
	// RateWindow is the minimum spacing between issuances for one (email, purpose).
	RateWindow = time.Minute
	// UsedRetention is how long used challenges are kept before Cleanup removes them.
	UsedRetention = 24 * time.Hour

	instrumentation = "civic-connect/backend/internal/otp"
)

// UserRepo is the minimal user lookup the issuer needs for login challenges.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
}

// Issued is the outcome of a successful issuance.
type Issued struct {
	Email     string
	Purpose   domain.Purpose
	ExpiresAt time.Time
	// ExpiresIn is the challenge lifetime in seconds.
	ExpiresIn int
}

// Service issues, verifies and purges OTP challenges.
type Service struct {
	repo     repository.Repository
	users    UserRepo
	notifier mailer.Notifier
	dev      devotp.Store
	log      *zap.Logger
	now      func() time.Time
	newID    func() string
	ttl      time.Duration

	tracer   trace.Tracer
	issued   metric.Int64Counter
	verified metric.Int64Counter
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithDevStore records every issued code in store so GET /dev/otp can return it.
func WithDevStore(store devotp.Store) Option { return func(s *Service) { s.dev = store } }

// WithIDGenerator overrides uuid.NewString for challenge ids.
func WithIDGenerator(f func() string) Option { return func(s *Service) { s.newID = f } }

// NewService returns an OTP service. log may be nil.
func NewService(repo repository.Repository, users UserRepo, notifier mailer.Notifier, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		users:    users,
		notifier: notifier,
		log:      logger.OrNop(log),
		now:      time.Now,
		newID:    uuid.NewString,
		ttl:      config.OTPTTL,
		tracer:   otel.Tracer(instrumentation),
	}
	for _, o := range opts {
		o(s)
	}
	meter := otel.Meter(instrumentation)
	var err error
	if s.issued, err = meter.Int64Counter("otp.issued", metric.WithDescription("OTP issuance attempts by outcome")); err != nil {
		s.log.Warn("otp: issued counter", zap.Error(err))
	}
	if s.verified, err = meter.Int64Counter("otp.verified", metric.WithDescription("OTP verification attempts by outcome")); err != nil {
		s.log.Warn("otp: verified counter", zap.Error(err))
	}
	return s
}

// Issue creates a challenge for (email, purpose) and sends the code. An empty purpose means login.
// At most one challenge is created per (email, purpose) per RateWindow; later requests get ErrRateLimited.
// If sending fails the challenge stays persisted and ErrDelivery is returned.
func (s *Service) Issue(ctx context.Context, email, purpose string) (res *Issued, err error) {
	ctx, span := s.tracer.Start(ctx, "otp.Issue")
	defer func() { s.finish(ctx, span, s.issued, purpose, err) }()

	email = domain.NormalizeEmail(email)
	p, ok := domain.ParsePurpose(purpose)
	if !ok {
		return nil, ErrInvalidPurpose
	}
	purpose = string(p)
	span.SetAttributes(attribute.String("otp.purpose", purpose))

	if p == domain.PurposeLogin {
		u, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("lookup user: %w", err)
		}
		if u == nil {
			return nil, ErrUnknownRecipient
		}
		if !u.IsActive {
			return nil, ErrInactiveRecipient
		}
	}

	now := s.now().UTC()
	if err := s.repo.DeleteExpiredUnused(ctx, email, p, now); err != nil {
		return nil, fmt.Errorf("purge expired: %w", err)
	}
	recent, err := s.repo.HasCreatedSince(ctx, email, p, now.Add(-RateWindow))
	if err != nil {
		return nil, fmt.Errorf("rate check: %w", err)
	}
	if recent {
		return nil, ErrRateLimited
	}

	code, err := otp.GenerateCode()
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}
	c := &domain.Challenge{
		ID:        s.newID(),
		Email:     email,
		Purpose:   p,
		Code:      code,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("persist challenge: %w", err)
	}
	if s.dev != nil {
		s.dev.Put(ctx, email, purpose, code, c.ExpiresAt)
	}

	msg, err := mailer.OTPMessage(email, code, purpose, s.ttl, now)
	if err != nil {
		return nil, fmt.Errorf("render email: %w", err)
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.log.Error("otp email delivery failed", zap.String("email", email), zap.String("purpose", purpose), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrDelivery, err)
	}

	return &Issued{
		Email:     email,
		Purpose:   p,
		ExpiresAt: c.ExpiresAt,
		ExpiresIn: int(s.ttl / time.Second),
	}, nil
}

// Verify consumes the newest unused challenge matching (email, code, purpose).
// Exactly one concurrent caller can consume a challenge. An expired match is still consumed and
// yields ErrExpired; no match, or losing the race, yields ErrInvalidOrExpired.
func (s *Service) Verify(ctx context.Context, email, code, purpose string) (err error) {
	ctx, span := s.tracer.Start(ctx, "otp.Verify")
	defer func() { s.finish(ctx, span, s.verified, purpose, err) }()

	email = domain.NormalizeEmail(email)
	p, ok := domain.ParsePurpose(purpose)
	if !ok {
		return ErrInvalidPurpose
	}
	purpose = string(p)
	span.SetAttributes(attribute.String("otp.purpose", purpose))
	if !otp.ValidCode(code) {
		return ErrInvalidOrExpired
	}

	c, err := s.repo.FindLatestUnused(ctx, email, code, p)
	if err != nil {
		return fmt.Errorf("find challenge: %w", err)
	}
	if c == nil {
		return ErrInvalidOrExpired
	}
	expiresAt, claimed, err := s.repo.Claim(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("claim challenge: %w", err)
	}
	if !claimed {
		return ErrInvalidOrExpired
	}
	if expiresAt.Before(s.now()) {
		return ErrExpired
	}
	if err := s.repo.DeleteUsedExcept(ctx, email, p, c.ID); err != nil {
		s.log.Warn("otp: cleanup after verify failed", zap.String("email", email), zap.Error(err))
	}
	return nil
}

// Cleanup deletes expired challenges and used challenges older than UsedRetention.
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "otp.Cleanup")
	defer span.End()
	now := s.now().UTC()
	n, err := s.repo.Cleanup(ctx, now, now.Add(-UsedRetention))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cleanup failed")
		return 0, err
	}
	span.SetAttributes(attribute.Int64("otp.deleted", n))
	return n, nil
}

func (s *Service) finish(ctx context.Context, span trace.Span, counter metric.Int64Counter, purpose string, err error) {
	result := outcome(err)
	span.SetAttributes(attribute.String("otp.outcome", result))
	if err != nil && result == "error" {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if counter != nil {
		counter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("purpose", purpose),
			attribute.String("outcome", result),
		))
	}
	span.End()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrUnknownRecipient), errors.Is(err, ErrInactiveRecipient), errors.Is(err, ErrInvalidPurpose):
		return "rejected"
	case errors.Is(err, ErrInvalidOrExpired), errors.Is(err, ErrExpired):
		return "invalid"
	case errors.Is(err, ErrDelivery):
		return "delivery_failed"
	default:
		return "error"
	}
}
