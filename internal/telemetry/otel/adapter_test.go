package otel

import (
	"context"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"civic-connect/backend/internal/telemetry"
)

type recordCapture struct {
	rec   otellog.Record
	calls int
}

func (r *recordCapture) Emit(_ context.Context, rec otellog.Record) {
	r.rec = rec
	r.calls++
}

func attrs(rec otellog.Record) map[string]string {
	out := map[string]string{}
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		out[kv.Key] = kv.Value.AsString()
		return true
	})
	return out
}

func TestNewEventEmitter_NilProvider_ReturnsNoop(t *testing.T) {
	em := NewEventEmitter(nil)
	if err := em.Emit(context.Background(), &telemetry.Event{EventType: "x"}); err != nil {
		t.Errorf("noop Emit: %v", err)
	}
}

func TestNewEventEmitter_WithProvider(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()
	em := NewEventEmitter(provider)
	if err := em.Emit(context.Background(), &telemetry.Event{EventType: "audit.otp_requested"}); err != nil {
		t.Errorf("Emit: %v", err)
	}
	if err := em.Emit(context.Background(), nil); err != nil {
		t.Errorf("Emit(nil): %v", err)
	}
}

func TestEmit_AttributeAndBodyMapping(t *testing.T) {
	cap := &recordCapture{}
	em := NewEventEmitterWithLogger(cap)
	at := time.Date(2025, 5, 1, 8, 30, 0, 0, time.UTC)
	event := &telemetry.Event{
		UserID:    "user1",
		EventType: "audit.login_success",
		Source:    "api",
		Metadata:  []byte(`{"email":"alice@x.org"}`),
		CreatedAt: at,
	}
	if err := em.Emit(context.Background(), event); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if cap.calls != 1 {
		t.Fatalf("calls = %d", cap.calls)
	}
	if !cap.rec.Timestamp().Equal(at) {
		t.Errorf("timestamp = %v, want %v", cap.rec.Timestamp(), at)
	}
	if got := string(cap.rec.Body().AsBytes()); got != `{"email":"alice@x.org"}` {
		t.Errorf("body = %q", got)
	}
	a := attrs(cap.rec)
	if a["user_id"] != "user1" || a["event_type"] != "audit.login_success" || a["source"] != "api" {
		t.Errorf("attributes = %v", a)
	}
	if cap.rec.EventName() != "audit.login_success" {
		t.Errorf("event name = %q", cap.rec.EventName())
	}
}

func TestEmit_ZeroTimestamp_SetsCurrentTime(t *testing.T) {
	cap := &recordCapture{}
	before := time.Now().UTC()
	if err := NewEventEmitterWithLogger(cap).Emit(context.Background(), &telemetry.Event{EventType: "x"}); err != nil {
		t.Fatal(err)
	}
	if cap.rec.Timestamp().Before(before) {
		t.Errorf("timestamp %v before %v", cap.rec.Timestamp(), before)
	}
}

func TestEmit_EmptyFieldsOmitted(t *testing.T) {
	cap := &recordCapture{}
	if err := NewEventEmitterWithLogger(cap).Emit(context.Background(), &telemetry.Event{}); err != nil {
		t.Fatal(err)
	}
	if n := cap.rec.AttributesLen(); n != 0 {
		t.Errorf("attributes = %d, want 0", n)
	}
	if cap.rec.Body().Kind() != otellog.KindEmpty {
		t.Errorf("body kind = %v, want empty", cap.rec.Body().Kind())
	}
}

func TestEmit_SeverityByEventType(t *testing.T) {
	tests := []struct {
		eventType string
		want      otellog.Severity
	}{
		{"audit.login_failure", otellog.SeverityWarn},
		{"audit.login_success", otellog.SeverityInfo},
		{"http_request", otellog.SeverityInfo},
	}
	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			cap := &recordCapture{}
			if err := NewEventEmitterWithLogger(cap).Emit(context.Background(), &telemetry.Event{EventType: tt.eventType}); err != nil {
				t.Fatal(err)
			}
			if got := cap.rec.Severity(); got != tt.want {
				t.Errorf("severity = %v, want %v", got, tt.want)
			}
		})
	}
}
