// Package domain defines citizen complaints.
package domain

import (
	"encoding/json"
	"strings"
	"time"

	"civic-connect/backend/internal/platform/validate"
)

// StatusResolved stamps resolved_at when set.
const StatusResolved = "resolved"

// Complaint is a citizen grievance tracked from intake to resolution.
type Complaint struct {
	ID              string          `json:"id"`
	ComplaintID     string          `json:"complaint_id"`
	CitizenName     string          `json:"citizen_name"`
	CitizenPhone    *string         `json:"citizen_phone"`
	CitizenEmail    *string         `json:"citizen_email"`
	CitizenAddress  *string         `json:"citizen_address"`
	Category        string          `json:"category"`
	Subcategory     *string         `json:"subcategory"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Status          string          `json:"status"`
	Priority        string          `json:"priority"`
	Location        json.RawMessage `json:"location"`
	Images          []string        `json:"images"`
	AssignedTo      *string         `json:"assigned_to"`
	AssignedToName  *string         `json:"assigned_to_name"`
	ResolutionNotes *string         `json:"resolution_notes"`
	ResolvedAt      *time.Time      `json:"resolved_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CreateInput is a new complaint as submitted by staff on a citizen's behalf.
type CreateInput struct {
	CitizenName    string          `json:"citizen_name"`
	CitizenPhone   *string         `json:"citizen_phone"`
	CitizenEmail   *string         `json:"citizen_email"`
	CitizenAddress *string         `json:"citizen_address"`
	Category       string          `json:"category"`
	Subcategory    *string         `json:"subcategory"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Priority       string          `json:"priority"`
	Location       json.RawMessage `json:"location"`
	Images         []string        `json:"images"`
}

func (in *CreateInput) Validate() error {
	if err := validate.Required("citizen_name, category, title, description",
		in.CitizenName, in.Category, in.Title, in.Description); err != nil {
		return err
	}
	if in.Priority = strings.TrimSpace(in.Priority); in.Priority == "" {
		in.Priority = "medium"
	}
	return validate.First(validate.Email(in.CitizenEmail), validate.Phone(in.CitizenPhone))
}

// UpdateInput is the staff workflow update. Empty status, assigned_to and priority are ignored.
type UpdateInput struct {
	Status          string  `json:"status"`
	AssignedTo      string  `json:"assigned_to"`
	Priority        string  `json:"priority"`
	ResolutionNotes *string `json:"resolution_notes"`
}

func (in *UpdateInput) Validate() error {
	return validate.UUID("assigned_to", &in.AssignedTo)
}
