// Package apperr is the error taxonomy shared by handlers and the top-level error middleware.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
)

// Kind classifies an error for the HTTP layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
	KindRateLimited
	KindUpstreamDelivery
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindRateLimited:
		return "rate_limited"
	case KindUpstreamDelivery:
		return "upstream_delivery"
	case KindStore:
		return "store"
	default:
		return "internal"
	}
}

// Status maps a Kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindConflict, KindRateLimited:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error with a client-safe message. Err carries the cause for logs and dev responses.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation returns a 400 error with msg.
func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

// Auth returns a 401 error with msg.
func Auth(msg string) *Error { return &Error{Kind: KindAuth, Message: msg} }

// Forbidden returns a 403 error with msg.
func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

// NotFound returns a 404 error with msg.
func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// Conflict returns a uniqueness-violation error with msg.
func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

// RateLimited returns a 400 rate-limit error with msg.
func RateLimited(msg string) *Error { return &Error{Kind: KindRateLimited, Message: msg} }

// Upstream wraps a notifier failure.
func Upstream(msg string, err error) *Error {
	return &Error{Kind: KindUpstreamDelivery, Message: msg, Err: err}
}

// Internal wraps an unexpected failure behind a generic message.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Err: err}
}

// As classifies any error. Already-classified errors pass through; Postgres integrity
// violations, validator failures and context deadlines are translated; anything else is internal.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	if se := FromStore(err); se != nil {
		return se
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return &Error{Kind: KindValidation, Message: validationMessage(ve), Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindStore, Message: "Request timeout", Err: err}
	}
	return Internal(err)
}

// FromStore translates a Postgres error to a classified error, or returns nil if err is not a *pgconn.PgError.
func FromStore(err error) *Error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	switch pgErr.Code {
	case "23505":
		msg := "Duplicate entry"
		if strings.Contains(pgErr.ConstraintName, "email") {
			msg = "Email already exists"
		}
		return &Error{Kind: KindConflict, Message: msg, Err: err}
	case "23503":
		return &Error{Kind: KindNotFound, Message: "Referenced record not found", Err: err}
	case "23502":
		return &Error{Kind: KindValidation, Message: "Required field missing", Err: err}
	case "22P02", "22007", "22008":
		return &Error{Kind: KindValidation, Message: "Invalid input syntax", Err: err}
	default:
		return &Error{Kind: KindStore, Message: "A database error occurred", Err: err}
	}
}

// Binding classifies a gin bind failure: validator errors keep their field messages, anything else
// (malformed JSON, wrong types) is reported as an invalid body.
func Binding(err error) *Error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return &Error{Kind: KindValidation, Message: validationMessage(ve), Err: err}
	}
	return &Error{Kind: KindValidation, Message: "Invalid request body", Err: err}
}

func validationMessage(ve validator.ValidationErrors) string {
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "len", "numeric":
			msgs = append(msgs, field+" is invalid")
		case "oneof":
			msgs = append(msgs, field+" must be one of: "+fe.Param())
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
