// Package domain defines government schemes advertised to citizens.
package domain

import (
	"strings"
	"time"

	"civic-connect/backend/internal/platform/civil"
	"civic-connect/backend/internal/platform/validate"
)

type Scheme struct {
	ID                  string      `json:"id"`
	SchemeID            string      `json:"scheme_id"`
	Name                string      `json:"name"`
	Description         *string     `json:"description"`
	Category            *string     `json:"category"`
	Status              string      `json:"status"`
	EligibilityCriteria *string     `json:"eligibility_criteria"`
	Benefits            *string     `json:"benefits"`
	ApplicationProcess  *string     `json:"application_process"`
	OfficialLink        *string     `json:"official_link"`
	StartDate           *civil.Date `json:"start_date"`
	EndDate             *civil.Date `json:"end_date"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

type CreateInput struct {
	Name                string      `json:"name"`
	Description         *string     `json:"description"`
	Category            *string     `json:"category"`
	Status              string      `json:"status"`
	EligibilityCriteria *string     `json:"eligibility_criteria"`
	Benefits            *string     `json:"benefits"`
	ApplicationProcess  *string     `json:"application_process"`
	OfficialLink        *string     `json:"official_link" binding:"omitempty,url"`
	StartDate           *civil.Date `json:"start_date"`
	EndDate             *civil.Date `json:"end_date"`
}

func (in *CreateInput) Validate() error {
	if err := validate.Required("name", in.Name); err != nil {
		return err
	}
	if in.Status = strings.TrimSpace(in.Status); in.Status == "" {
		in.Status = "active"
	}
	return nil
}

type UpdateInput struct {
	Name                *string     `json:"name"`
	Description         *string     `json:"description"`
	Category            *string     `json:"category"`
	Status              *string     `json:"status"`
	EligibilityCriteria *string     `json:"eligibility_criteria"`
	Benefits            *string     `json:"benefits"`
	ApplicationProcess  *string     `json:"application_process"`
	OfficialLink        *string     `json:"official_link" binding:"omitempty,url"`
	StartDate           *civil.Date `json:"start_date"`
	EndDate             *civil.Date `json:"end_date"`
}
