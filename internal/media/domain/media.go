// Package domain defines media items: photos, videos, press clippings and documents published by the office.
package domain

import (
	"strings"
	"time"

	"civic-connect/backend/internal/platform/apperr"
	"civic-connect/backend/internal/platform/civil"
)

type Media struct {
	ID             string      `json:"id"`
	MediaID        string      `json:"media_id"`
	Title          *string     `json:"title"`
	Description    *string     `json:"description"`
	Type           string      `json:"type"`
	FileURL        string      `json:"file_url"`
	ThumbnailURL   *string     `json:"thumbnail_url"`
	Category       *string     `json:"category"`
	Source         *string     `json:"source"`
	PublishedDate  *civil.Date `json:"published_date"`
	IsFeatured     bool        `json:"is_featured"`
	UploadedBy     *string     `json:"uploaded_by"`
	UploadedByName *string     `json:"uploaded_by_name"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

type CreateInput struct {
	Title         *string     `json:"title"`
	Description   *string     `json:"description"`
	Type          string      `json:"type"`
	FileURL       string      `json:"file_url" binding:"omitempty,url"`
	ThumbnailURL  *string     `json:"thumbnail_url" binding:"omitempty,url"`
	Category      *string     `json:"category"`
	Source        *string     `json:"source"`
	PublishedDate *civil.Date `json:"published_date"`
	IsFeatured    bool        `json:"is_featured"`
}

func (in *CreateInput) Validate() error {
	if strings.TrimSpace(in.Type) == "" || strings.TrimSpace(in.FileURL) == "" {
		return apperr.Validation("Type and file_url are required")
	}
	return nil
}

// UpdateInput is a partial update; type is fixed at upload.
type UpdateInput struct {
	Title         *string     `json:"title"`
	Description   *string     `json:"description"`
	FileURL       *string     `json:"file_url" binding:"omitempty,url"`
	ThumbnailURL  *string     `json:"thumbnail_url" binding:"omitempty,url"`
	Category      *string     `json:"category"`
	Source        *string     `json:"source"`
	PublishedDate *civil.Date `json:"published_date"`
	IsFeatured    *bool       `json:"is_featured"`
}
