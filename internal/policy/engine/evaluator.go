// Package engine makes role-based authorization decisions with an embedded OPA Rego policy.
package engine

import "context"

// Input is the authorization question: may a caller with Role perform Action on Resource.
// Action and Resource use the names produced by audit.ParseRoute (e.g. "delete", "complaint").
type Input struct {
	UserID   string
	Role     string
	Action   string
	Resource string
}

// Authorizer decides whether a request is allowed.
type Authorizer interface {
	// Allow returns true if in is permitted. Errors mean the policy could not be evaluated; callers deny.
	Allow(ctx context.Context, in Input) (bool, error)
}
