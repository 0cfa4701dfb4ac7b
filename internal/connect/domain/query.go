// Package domain defines MLA Connect queries: direct messages from citizens awaiting a staff response.
package domain

import (
	"strings"
	"time"

	"civic-connect/backend/internal/platform/validate"
)

type Query struct {
	ID              string     `json:"id"`
	QueryID         string     `json:"query_id"`
	CitizenName     string     `json:"citizen_name"`
	CitizenPhone    *string    `json:"citizen_phone"`
	CitizenEmail    *string    `json:"citizen_email"`
	Subject         *string    `json:"subject"`
	Message         string     `json:"message"`
	Type            string     `json:"type"`
	Status          string     `json:"status"`
	Priority        string     `json:"priority"`
	Response        *string    `json:"response"`
	AssignedTo      *string    `json:"assigned_to"`
	AssignedToName  *string    `json:"assigned_to_name"`
	RespondedBy     *string    `json:"responded_by"`
	RespondedByName *string    `json:"responded_by_name"`
	RespondedAt     *time.Time `json:"responded_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type CreateInput struct {
	CitizenName  string  `json:"citizen_name"`
	CitizenPhone *string `json:"citizen_phone"`
	CitizenEmail *string `json:"citizen_email"`
	Subject      *string `json:"subject"`
	Message      string  `json:"message"`
	Type         string  `json:"type"`
	Priority     string  `json:"priority"`
}

func (in *CreateInput) Validate() error {
	if err := validate.Required("citizen_name, message", in.CitizenName, in.Message); err != nil {
		return err
	}
	if in.Type = strings.TrimSpace(in.Type); in.Type == "" {
		in.Type = "query"
	}
	if in.Priority = strings.TrimSpace(in.Priority); in.Priority == "" {
		in.Priority = "medium"
	}
	return validate.First(validate.Email(in.CitizenEmail), validate.Phone(in.CitizenPhone))
}

// UpdateInput triages or answers a query. A non-empty Response records the responder and time.
type UpdateInput struct {
	Status     string `json:"status"`
	AssignedTo string `json:"assigned_to"`
	Priority   string `json:"priority"`
	Response   string `json:"response"`
}

func (in *UpdateInput) Validate() error {
	return validate.UUID("assigned_to", &in.AssignedTo)
}
