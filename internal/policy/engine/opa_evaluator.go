package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/rego"
)

const allowQuery = "data.civic.authz.allow"

// DefaultPolicy grants admins everything. Staff may read and write the civic entities,
// their own notifications and the dashboard, but not delete, and not touch users, settings or audit logs.
const DefaultPolicy = `package civic.authz

default allow := false

admin_only_resources := {"user", "setting", "audit_log"}

allow if {
	input.user.role == "admin"
}

allow if {
	input.user.role == "staff"
	not admin_only_resources[input.resource]
	input.action != "delete"
}
`

// OPAEvaluator evaluates the authorization policy using OPA Rego. The query is prepared once and is
// safe for concurrent use.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles policy (DefaultPolicy when empty) and prepares the allow query.
func NewOPAEvaluator(ctx context.Context, policy string) (*OPAEvaluator, error) {
	if policy == "" {
		policy = DefaultPolicy
	}
	pq, err := rego.New(
		rego.Query(allowQuery),
		rego.Module("authz.rego", policy),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare policy: %w", err)
	}
	return &OPAEvaluator{query: pq}, nil
}

// Allow evaluates the policy for in. An undefined result denies.
func (e *OPAEvaluator) Allow(ctx context.Context, in Input) (bool, error) {
	rs, err := e.query.Eval(ctx, rego.EvalInput(buildInput(in)))
	if err != nil {
		return false, fmt.Errorf("eval policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	return ok && allowed, nil
}

// HealthCheck verifies the prepared policy evaluates and still grants admins access.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	ok, err := e.Allow(ctx, Input{Role: "admin", Action: "list", Resource: "complaint"})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("policy denies admin access")
	}
	return nil
}

func buildInput(in Input) map[string]any {
	return map[string]any{
		"user": map[string]any{
			"id":   in.UserID,
			"role": in.Role,
		},
		"action":   in.Action,
		"resource": in.Resource,
	}
}
