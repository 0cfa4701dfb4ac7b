package engine

import (
	"context"
	"sync"
	"testing"
)

func newEvaluator(t *testing.T) *OPAEvaluator {
	t.Helper()
	e, err := NewOPAEvaluator(context.Background(), "")
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	return e
}

func TestOPAEvaluator_HealthCheck(t *testing.T) {
	if err := newEvaluator(t).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestOPAEvaluator_DefaultPolicy(t *testing.T) {
	e := newEvaluator(t)
	tests := []struct {
		name  string
		in    Input
		allow bool
	}{
		{"admin deletes complaint", Input{Role: "admin", Action: "delete", Resource: "complaint"}, true},
		{"admin lists users", Input{Role: "admin", Action: "list", Resource: "user"}, true},
		{"admin reads audit log", Input{Role: "admin", Action: "list", Resource: "audit_log"}, true},
		{"staff lists complaints", Input{Role: "staff", Action: "list", Resource: "complaint"}, true},
		{"staff updates event", Input{Role: "staff", Action: "update", Resource: "event"}, true},
		{"staff creates media", Input{Role: "staff", Action: "create", Resource: "media"}, true},
		{"staff marks notification read", Input{Role: "staff", Action: "mark_read", Resource: "notification"}, true},
		{"staff deletes scheme", Input{Role: "staff", Action: "delete", Resource: "scheme"}, false},
		{"staff deletes media", Input{Role: "staff", Action: "delete", Resource: "media"}, false},
		{"staff lists users", Input{Role: "staff", Action: "list", Resource: "user"}, false},
		{"staff upserts setting", Input{Role: "staff", Action: "upsert", Resource: "setting"}, false},
		{"staff reads audit log", Input{Role: "staff", Action: "list", Resource: "audit_log"}, false},
		{"unknown role", Input{Role: "citizen", Action: "list", Resource: "complaint"}, false},
		{"no role", Input{Action: "list", Resource: "complaint"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Allow(context.Background(), tt.in)
			if err != nil {
				t.Fatalf("Allow: %v", err)
			}
			if got != tt.allow {
				t.Errorf("Allow(%+v) = %v, want %v", tt.in, got, tt.allow)
			}
		})
	}
}

func TestOPAEvaluator_CustomPolicy(t *testing.T) {
	policy := `package civic.authz

default allow := false

allow if input.resource == "dashboard"
`
	e, err := NewOPAEvaluator(context.Background(), policy)
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	ok, err := e.Allow(context.Background(), Input{Role: "admin", Action: "list", Resource: "complaint"})
	if err != nil || ok {
		t.Errorf("Allow(complaint) = %v, %v; want false", ok, err)
	}
	ok, err = e.Allow(context.Background(), Input{Role: "staff", Action: "get", Resource: "dashboard"})
	if err != nil || !ok {
		t.Errorf("Allow(dashboard) = %v, %v; want true", ok, err)
	}
	if err := e.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck should fail when admins are denied")
	}
}

func TestNewOPAEvaluator_InvalidPolicy(t *testing.T) {
	if _, err := NewOPAEvaluator(context.Background(), "package civic.authz\n\nallow if {"); err == nil {
		t.Fatal("expected compile error")
	}
}

func TestOPAEvaluator_Concurrent(t *testing.T) {
	e := newEvaluator(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := e.Allow(context.Background(), Input{Role: "admin", Action: "list", Resource: "user"}); err != nil || !ok {
				t.Errorf("Allow = %v, %v", ok, err)
			}
		}()
	}
	wg.Wait()
}
