package otel

import (
	"context"
	"strings"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"civic-connect/backend/internal/telemetry"
)

const loggerName = "civic-connect/events"

// NewEventEmitter returns an EventEmitter that sends events as OTel log records via the given LoggerProvider.
// If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return NewEventEmitterWithLogger(provider.Logger(loggerName))
}

// NewEventEmitterWithLogger returns an emitter that writes to l. Used by tests to capture records.
func NewEventEmitterWithLogger(l recordEmitter) telemetry.EventEmitter {
	return &otelEmitter{logger: l}
}

type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *telemetry.Event) error { return nil }

type otelEmitter struct {
	logger recordEmitter
}

// Emit writes event as one log record. Metadata is the body; user, type and source are attributes.
func (e *otelEmitter) Emit(ctx context.Context, event *telemetry.Event) error {
	if event == nil {
		return nil
	}
	var rec otellog.Record
	at := event.CreatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	rec.SetTimestamp(at)
	rec.SetObservedTimestamp(time.Now().UTC())
	sev := severityOf(event.EventType)
	rec.SetSeverity(sev)
	rec.SetSeverityText(sev.String())
	if event.EventType != "" {
		rec.SetEventName(event.EventType)
	}
	if len(event.Metadata) > 0 {
		rec.SetBody(otellog.BytesValue(event.Metadata))
	}
	for _, kv := range [][2]string{
		{"event_type", event.EventType},
		{"user_id", event.UserID},
		{"source", event.Source},
	} {
		if kv[1] != "" {
			rec.AddAttributes(otellog.String(kv[0], kv[1]))
		}
	}
	e.logger.Emit(ctx, rec)
	return nil
}

// severityOf marks failed logins as warnings.
func severityOf(eventType string) otellog.Severity {
	if strings.HasSuffix(eventType, "_failure") {
		return otellog.SeverityWarn
	}
	return otellog.SeverityInfo
}
