// Package domain defines admin-managed key/value settings.
package domain

import "time"

type Setting struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Type        string    `json:"type"`
	Description *string   `json:"description"`
	UpdatedBy   *string   `json:"updated_by"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UpsertInput creates a setting or replaces every field of an existing one.
type UpsertInput struct {
	Key         string  `json:"key"`
	Value       *string `json:"value"`
	Type        string  `json:"type"`
	Description *string `json:"description"`
}

// UpdateInput changes only the fields that are present. A blank Type is ignored.
type UpdateInput struct {
	Value       *string `json:"value"`
	Type        string  `json:"type"`
	Description *string `json:"description"`
}
