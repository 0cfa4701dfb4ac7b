// Package validate holds the field checks shared by the entity create and update inputs.
package validate

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"civic-connect/backend/internal/platform/apperr"
)

var v = validator.New()

// Blank reports whether any of vals is empty after trimming.
func Blank(vals ...string) bool {
	for _, s := range vals {
		if strings.TrimSpace(s) == "" {
			return true
		}
	}
	return false
}

// Required returns "Missing required fields: <names>" when any of vals is blank.
func Required(names string, vals ...string) error {
	if Blank(vals...) {
		return apperr.Validation("Missing required fields: " + names)
	}
	return nil
}

// Email checks an optional address. Nil and empty pass.
func Email(s *string) error {
	if s == nil || *s == "" {
		return nil
	}
	if v.Var(*s, "email") != nil {
		return apperr.Validation("Invalid email format")
	}
	return nil
}

// Phone checks an optional 10-digit phone number. Nil and empty pass.
func Phone(s *string) error {
	if s == nil || *s == "" {
		return nil
	}
	if v.Var(*s, "numeric,len=10") != nil {
		return apperr.Validation("Phone number must be 10 digits")
	}
	return nil
}

// UUID checks an optional user reference such as assigned_to. Nil and empty pass.
func UUID(field string, s *string) error {
	if s == nil || *s == "" {
		return nil
	}
	if v.Var(*s, "uuid") != nil {
		return apperr.Validation(field + " must be a valid id")
	}
	return nil
}

// Date parses an optional YYYY-MM-DD value. Nil and empty yield nil.
func Date(field string, s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(*s))
	if err != nil {
		return nil, apperr.Validation(field + " must be a date (YYYY-MM-DD)")
	}
	return &t, nil
}

// First returns the first non-nil error.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
