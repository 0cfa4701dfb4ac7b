// Package domain defines development works: public projects with budgets, contractors and timelines.
package domain

import (
	"strings"
	"time"

	"civic-connect/backend/internal/platform/civil"
	"civic-connect/backend/internal/platform/validate"
)

type Work struct {
	ID                      string      `json:"id"`
	WorkID                  string      `json:"work_id"`
	Title                   string      `json:"title"`
	Description             string      `json:"description"`
	Category                *string     `json:"category"`
	Status                  string      `json:"status"`
	BudgetAmount            *float64    `json:"budget_amount"`
	AllocatedAmount         *float64    `json:"allocated_amount"`
	Location                *string     `json:"location"`
	StartDate               *civil.Date `json:"start_date"`
	EstimatedCompletionDate *civil.Date `json:"estimated_completion_date"`
	ContractorName          *string     `json:"contractor_name"`
	ContractorContact       *string     `json:"contractor_contact"`
	AssignedTo              *string     `json:"assigned_to"`
	AssignedToName          *string     `json:"assigned_to_name"`
	CreatedAt               time.Time   `json:"created_at"`
	UpdatedAt               time.Time   `json:"updated_at"`
}

type CreateInput struct {
	Title                   string      `json:"title"`
	Description             string      `json:"description"`
	Category                *string     `json:"category"`
	Status                  string      `json:"status"`
	BudgetAmount            *float64    `json:"budget_amount" binding:"omitempty,gte=0"`
	AllocatedAmount         *float64    `json:"allocated_amount" binding:"omitempty,gte=0"`
	Location                *string     `json:"location"`
	StartDate               *civil.Date `json:"start_date"`
	EstimatedCompletionDate *civil.Date `json:"estimated_completion_date"`
	ContractorName          *string     `json:"contractor_name"`
	ContractorContact       *string     `json:"contractor_contact"`
	AssignedTo              *string     `json:"assigned_to"`
}

func (in *CreateInput) Validate() error {
	if err := validate.Required("title, description", in.Title, in.Description); err != nil {
		return err
	}
	if in.Status = strings.TrimSpace(in.Status); in.Status == "" {
		in.Status = "planned"
	}
	return validate.UUID("assigned_to", in.AssignedTo)
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Title                   *string     `json:"title"`
	Description             *string     `json:"description"`
	Category                *string     `json:"category"`
	Status                  *string     `json:"status"`
	BudgetAmount            *float64    `json:"budget_amount" binding:"omitempty,gte=0"`
	AllocatedAmount         *float64    `json:"allocated_amount" binding:"omitempty,gte=0"`
	Location                *string     `json:"location"`
	StartDate               *civil.Date `json:"start_date"`
	EstimatedCompletionDate *civil.Date `json:"estimated_completion_date"`
	ContractorName          *string     `json:"contractor_name"`
	ContractorContact       *string     `json:"contractor_contact"`
	AssignedTo              *string     `json:"assigned_to"`
}

func (in *UpdateInput) Validate() error {
	return validate.UUID("assigned_to", in.AssignedTo)
}
