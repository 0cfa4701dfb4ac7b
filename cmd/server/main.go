// Command server runs the civic engagement HTTP API.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"civic-connect/backend/internal/audit"
	auditrepo "civic-connect/backend/internal/audit/repository"
	complaintrepo "civic-connect/backend/internal/complaint/repository"
	"civic-connect/backend/internal/config"
	connectrepo "civic-connect/backend/internal/connect/repository"
	dashboardrepo "civic-connect/backend/internal/dashboard/repository"
	"civic-connect/backend/internal/db"
	"civic-connect/backend/internal/devotp"
	eventrepo "civic-connect/backend/internal/event/repository"
	healthhandler "civic-connect/backend/internal/health/handler"
	identityservice "civic-connect/backend/internal/identity/service"
	"civic-connect/backend/internal/logger"
	"civic-connect/backend/internal/mailer"
	mediarepo "civic-connect/backend/internal/media/repository"
	notificationrepo "civic-connect/backend/internal/notification/repository"
	otprepo "civic-connect/backend/internal/otp/repository"
	otpservice "civic-connect/backend/internal/otp/service"
	"civic-connect/backend/internal/policy/engine"
	schemerepo "civic-connect/backend/internal/scheme/repository"
	"civic-connect/backend/internal/security"
	"civic-connect/backend/internal/server"
	"civic-connect/backend/internal/server/middleware"
	settingrepo "civic-connect/backend/internal/setting/repository"
	oteltelemetry "civic-connect/backend/internal/telemetry/otel"
	userrepo "civic-connect/backend/internal/user/repository"
	userservice "civic-connect/backend/internal/user/service"
	workrepo "civic-connect/backend/internal/work/repository"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Environment: cfg.Env}); err != nil {
			zl.Warn("sentry init failed", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	providers, err := oteltelemetry.NewProviders(ctx, oteltelemetry.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.OTELServiceName,
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
	}, zl)
	if err != nil {
		return err
	}
	providers.SetGlobal()
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = providers.Shutdown(sctx)
	}()
	emitter := oteltelemetry.NewEventEmitter(providers.LoggerProvider)

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
	}

	tokens, err := security.NewTokenProvider(cfg.JWTSecret, cfg.JWTPrivateKey, cfg.JWTPublicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL())
	if err != nil {
		return err
	}
	authz, err := engine.NewOPAEvaluator(ctx, "")
	if err != nil {
		return err
	}
	hasher := security.NewHasher(cfg.BcryptCost)

	users := userrepo.NewPostgresRepository(pool)
	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(pool), middleware.ClientIP,
		audit.WithEmitter(emitter), audit.WithZap(zl))

	var notifier mailer.Notifier = mailer.NewLogNotifier(zl)
	if cfg.SMTPHost != "" {
		notifier = mailer.NewSMTPNotifier(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Secure:   cfg.SMTPSecure,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	} else if cfg.IsProduction() {
		zl.Warn("SMTP_HOST is not set; OTP emails will only be logged")
	}

	var (
		devStore devotp.Store
		otpOpts  []otpservice.Option
	)
	if cfg.OTPReturnToClient && !cfg.IsProduction() {
		mem := devotp.NewMemoryStore()
		devStore = mem
		otpOpts = append(otpOpts, otpservice.WithDevStore(mem))
		zl.Warn("dev OTP mode enabled; codes are readable at GET /dev/otp")
	}
	otpSvc := otpservice.NewService(otprepo.NewPostgresRepository(pool), users, notifier, zl, otpOpts...)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := server.Deps{
		Log:         zl,
		Debug:       cfg.IsDevelopment(),
		CORSOrigins: cfg.CORSOrigins(),

		Tokens: tokens,
		Users:  users,
		Authz:  authz,
		RateLimiter: middleware.NewRateLimiter(middleware.RateLimitConfig{
			Requests: cfg.RateLimitRequests,
			Window:   cfg.RateWindow(),
			SkipFunc: func(c *gin.Context) bool { return c.Request.URL.Path == "/health" },
		}, rdb, zl),
		Emitter:     emitter,
		AuditLogger: auditLogger,

		Auth:          identityservice.NewAuthService(otpSvc, users, hasher, tokens, auditLogger, zl),
		UserService:   userservice.NewService(users, hasher, auditLogger, zl),
		Complaints:    complaintrepo.NewPostgresRepository(pool),
		Works:         workrepo.NewPostgresRepository(pool),
		Events:        eventrepo.NewPostgresRepository(pool),
		Media:         mediarepo.NewPostgresRepository(pool),
		Schemes:       schemerepo.NewPostgresRepository(pool),
		Queries:       connectrepo.NewPostgresRepository(pool),
		Notifications: notificationrepo.NewPostgresRepository(pool),
		Settings:      settingrepo.NewPostgresRepository(pool),
		Dashboard:     dashboardrepo.NewPostgresRepository(pool),
		AuditRepo:     auditrepo.NewPostgresRepository(pool),

		HealthDB:     pool,
		HealthPolicy: authz,
		DevOTP:       devStore,
	}
	if rdb != nil {
		deps.HealthCache = healthhandler.RedisPinger{Client: rdb}
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		zl.Info("http server listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down http server")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}
