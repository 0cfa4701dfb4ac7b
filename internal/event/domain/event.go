// Package domain defines public events organised by the office.
package domain

import (
	"strings"
	"time"

	"civic-connect/backend/internal/platform/apperr"
	"civic-connect/backend/internal/platform/civil"
	"civic-connect/backend/internal/platform/validate"
)

type Event struct {
	ID                 string      `json:"id"`
	EventID            string      `json:"event_id"`
	Title              string      `json:"title"`
	Description        *string     `json:"description"`
	Category           *string     `json:"category"`
	EventDate          civil.Date  `json:"event_date"`
	EventTime          *string     `json:"event_time"`
	EndDate            *civil.Date `json:"end_date"`
	Location           *string     `json:"location"`
	Status             string      `json:"status"`
	ExpectedAttendance *int        `json:"expected_attendance"`
	OrganizedBy        *string     `json:"organized_by"`
	OrganizedByName    *string     `json:"organized_by_name"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

type CreateInput struct {
	Title              string      `json:"title"`
	Description        *string     `json:"description"`
	Category           *string     `json:"category"`
	EventDate          civil.Date  `json:"event_date"`
	EventTime          *string     `json:"event_time"`
	EndDate            *civil.Date `json:"end_date"`
	Location           *string     `json:"location"`
	Status             string      `json:"status"`
	ExpectedAttendance *int        `json:"expected_attendance" binding:"omitempty,gte=0"`
	// OrganizedBy defaults to the creating user.
	OrganizedBy *string `json:"organized_by"`
}

func (in *CreateInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" || in.EventDate.IsZero() {
		return apperr.Validation("Missing required fields: title, event_date")
	}
	if in.EndDate != nil && !in.EndDate.IsZero() && in.EndDate.Before(in.EventDate.Time) {
		return apperr.Validation("end_date must not be before event_date")
	}
	if in.Status = strings.TrimSpace(in.Status); in.Status == "" {
		in.Status = "upcoming"
	}
	return validate.UUID("organized_by", in.OrganizedBy)
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Title              *string     `json:"title"`
	Description        *string     `json:"description"`
	Category           *string     `json:"category"`
	EventDate          *civil.Date `json:"event_date"`
	EventTime          *string     `json:"event_time"`
	EndDate            *civil.Date `json:"end_date"`
	Location           *string     `json:"location"`
	Status             *string     `json:"status"`
	ExpectedAttendance *int        `json:"expected_attendance" binding:"omitempty,gte=0"`
}

func (in *UpdateInput) Validate() error {
	if in.EventDate != nil && in.EventDate.IsZero() {
		return apperr.Validation("event_date cannot be cleared")
	}
	return nil
}
