// Package repository persists media items in Postgres.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"civic-connect/backend/internal/db"
	"civic-connect/backend/internal/listing"
	"civic-connect/backend/internal/media/domain"
	"civic-connect/backend/internal/platform/refcode"
)

const mediaColumns = `m.id, m.media_id, m.title, m.description, m.type, m.file_url, m.thumbnail_url, m.category,
m.source, m.published_date, m.is_featured, m.uploaded_by, u.name, m.created_at, m.updated_at`

const mediaFrom = "media m LEFT JOIN users u ON u.id = m.uploaded_by"

const (
	getMediaSQL    = "SELECT " + mediaColumns + " FROM " + mediaFrom + " WHERE m.id = $1"
	insertMediaSQL = `INSERT INTO media (id, media_id, title, description, type, file_url, thumbnail_url, category,
source, published_date, is_featured, uploaded_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)`
	deleteMediaSQL = "DELETE FROM media WHERE id = $1"
)

// ListSpec lists media newest first, filterable by type and category.
var ListSpec = listing.Spec{
	Select: mediaColumns,
	From:   mediaFrom,
	Fields: []listing.Field{
		{Param: "type", Column: "m.type"},
		{Param: "category", Column: "m.category"},
	},
	OrderBy: "m.created_at DESC, m.id DESC",
}

type PostgresRepository struct {
	db    db.DBTX
	now   func() time.Time
	newID func() string
}

func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn, now: time.Now, newID: func() string { return uuid.New().String() }}
}

func (r *PostgresRepository) List(ctx context.Context, f listing.Filter, p listing.Params) (*listing.Page[domain.Media], error) {
	return listing.Fetch(ctx, r.db, ListSpec, f, p, scanMedia)
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*domain.Media, error) {
	m, err := scanMedia(r.db.QueryRow(ctx, getMediaSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// Create stores the item with the uploader set to actorID.
func (r *PostgresRepository) Create(ctx context.Context, actorID string, in domain.CreateInput) (*domain.Media, error) {
	id := r.newID()
	now := r.now().UTC()
	var uploader *string
	if actorID != "" {
		uploader = &actorID
	}
	_, err := r.db.Exec(ctx, insertMediaSQL,
		id, refcode.New(refcode.Media, now), in.Title, in.Description, in.Type, in.FileURL, in.ThumbnailURL, in.Category,
		in.Source, in.PublishedDate, in.IsFeatured, uploader, now)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *PostgresRepository) Update(ctx context.Context, _ string, id string, in domain.UpdateInput) (*domain.Media, error) {
	var set db.Patch
	db.SetPtr(&set, "title", in.Title)
	db.SetPtr(&set, "description", in.Description)
	db.SetPtr(&set, "file_url", in.FileURL)
	db.SetPtr(&set, "thumbnail_url", in.ThumbnailURL)
	db.SetPtr(&set, "category", in.Category)
	db.SetPtr(&set, "source", in.Source)
	db.SetPtr(&set, "published_date", in.PublishedDate)
	db.SetPtr(&set, "is_featured", in.IsFeatured)
	if set.Empty() {
		return nil, db.ErrNoFields
	}
	set.Set("updated_at", r.now().UTC())
	q, args := set.Update("media", "id", id, "id")
	var got string
	if err := r.db.QueryRow(ctx, q, args...).Scan(&got); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return r.Get(ctx, got)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, deleteMediaSQL, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanMedia(row listing.Scanner) (domain.Media, error) {
	var m domain.Media
	err := row.Scan(&m.ID, &m.MediaID, &m.Title, &m.Description, &m.Type, &m.FileURL, &m.ThumbnailURL, &m.Category,
		&m.Source, &m.PublishedDate, &m.IsFeatured, &m.UploadedBy, &m.UploadedByName, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}
