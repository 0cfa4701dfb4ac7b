// Package audit records security-relevant actions to audit_logs and mirrors them as telemetry events.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"civic-connect/backend/internal/audit/domain"
	auditrepo "civic-connect/backend/internal/audit/repository"
	"civic-connect/backend/internal/logger"
	"civic-connect/backend/internal/telemetry"
)

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event with explicit action/resource. Used by auth and user code paths
// and by the route audit middleware.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, userID, action, resource, metadata string)
}

// Logger implements AuditLogger using the audit repository, an optional IP extractor and an optional emitter.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
	emitter     telemetry.EventEmitter
	log         *zap.Logger
	now         func() time.Time
}

// Option configures a Logger.
type Option func(*Logger)

// WithEmitter mirrors every event to em as "audit.<action>".
func WithEmitter(em telemetry.EventEmitter) Option {
	return func(l *Logger) { l.emitter = em }
}

// WithZap sets the logger used for persistence failures.
func WithZap(log *zap.Logger) Option {
	return func(l *Logger) { l.log = logger.OrNop(log) }
}

// WithClock overrides time.Now for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

// NewLogger returns an AuditLogger that persists to repo and uses ipExtractor for client IP.
// ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor, opts ...Option) *Logger {
	l := &Logger{repo: repo, ipExtractor: ipExtractor, log: zap.NewNop(), now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, userID, action, resource, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		if v := l.ipExtractor(ctx); v != "" {
			ip = v
		}
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: l.now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		l.log.Warn("audit: failed to log event",
			zap.String("action", action),
			zap.String("resource", resource),
			zap.Error(err),
		)
	}
	telemetry.EmitAsync(l.emitter, &telemetry.Event{
		UserID:    userID,
		EventType: "audit." + action,
		Source:    resource,
		Metadata:  []byte(metadata),
		CreatedAt: entry.CreatedAt,
	}, l.log)
}

// Metadata encodes kv as a JSON object for LogEvent. Empty values are dropped; returns "" if nothing remains.
func Metadata(kv map[string]string) string {
	clean := make(map[string]string, len(kv))
	for k, v := range kv {
		if v != "" {
			clean[k] = v
		}
	}
	if len(clean) == 0 {
		return ""
	}
	b, err := json.Marshal(clean)
	if err != nil {
		return ""
	}
	return string(b)
}
