// Worker purges expired and stale OTP challenges every OTP_CLEANUP_INTERVAL.
// Run it alongside the API server; one instance is enough.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"civic-connect/backend/internal/config"
	"civic-connect/backend/internal/db"
	"civic-connect/backend/internal/logger"
	"civic-connect/backend/internal/mailer"
	otprepo "civic-connect/backend/internal/otp/repository"
	otpservice "civic-connect/backend/internal/otp/service"
	oteltelemetry "civic-connect/backend/internal/telemetry/otel"
	userrepo "civic-connect/backend/internal/user/repository"
)

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

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	providers, err := oteltelemetry.NewProviders(ctx, oteltelemetry.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.OTELServiceName + "-worker",
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
	}, zl)
	if err != nil {
		zl.Fatal("worker: otel", zap.Error(err))
	}
	providers.SetGlobal()
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		_ = providers.Shutdown(sctx)
	}()

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		zl.Fatal("worker: db", zap.Error(err))
	}
	defer pool.Close()

	// The notifier is never used by Cleanup.
	svc := otpservice.NewService(otprepo.NewPostgresRepository(pool), userrepo.NewPostgresRepository(pool), mailer.NewLogNotifier(zl), zl)

	interval := cfg.CleanupInterval()
	zl.Info("worker: purging OTP challenges", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		purge(ctx, svc, zl)
		select {
		case <-ctx.Done():
			zl.Info("worker: stopped")
			return
		case <-ticker.C:
		}
	}
}

func purge(ctx context.Context, svc *otpservice.Service, zl *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	n, err := svc.Cleanup(runCtx)
	if err != nil {
		if ctx.Err() == nil {
			zl.Error("worker: otp cleanup failed", zap.Error(err))
		}
		return
	}
	zl.Info("worker: otp cleanup", zap.Int64("deleted", n))
}
