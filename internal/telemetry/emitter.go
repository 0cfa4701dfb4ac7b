// Package telemetry defines structured events emitted alongside the request path (audit trail,
// request summaries) and the best-effort async emit helper.
package telemetry

import (
	"context"
	"time"
)

// Event is one telemetry record. Metadata is an optional JSON document.
type Event struct {
	UserID    string
	EventType string
	Source    string
	Metadata  []byte
	CreatedAt time.Time
}

// EventEmitter emits telemetry events (e.g. to OTel Logs). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}
