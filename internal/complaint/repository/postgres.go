// Package repository persists complaints in Postgres.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"civic-connect/backend/internal/complaint/domain"
	"civic-connect/backend/internal/db"
	"civic-connect/backend/internal/listing"
	"civic-connect/backend/internal/platform/refcode"
)

const complaintColumns = `c.id, c.complaint_id, c.citizen_name, c.citizen_phone, c.citizen_email, c.citizen_address,
c.category, c.subcategory, c.title, c.description, c.status, c.priority, c.location, c.images,
c.assigned_to, u.name, c.resolution_notes, c.resolved_at, c.created_at, c.updated_at`

const complaintFrom = "complaints c LEFT JOIN users u ON u.id = c.assigned_to"

const (
	getComplaintSQL    = "SELECT " + complaintColumns + " FROM " + complaintFrom + " WHERE c.id = $1"
	insertComplaintSQL = `INSERT INTO complaints (id, complaint_id, citizen_name, citizen_phone, citizen_email, citizen_address,
category, subcategory, title, description, status, priority, location, images, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'pending', $11, $12, $13, $14, $14)`
	deleteComplaintSQL = "DELETE FROM complaints WHERE id = $1"
)

// ListSpec lists complaints newest first, filterable by status, category and a created_at range.
var ListSpec = listing.Spec{
	Select: complaintColumns,
	From:   complaintFrom,
	Fields: []listing.Field{
		{Param: "status", Column: "c.status"},
		{Param: "category", Column: "c.category"},
		{Param: "dateFrom", Column: "c.created_at", Op: listing.Gte, Kind: listing.Time},
		{Param: "dateTo", Column: "c.created_at", Op: listing.Lte, Kind: listing.Time},
	},
	OrderBy: "c.created_at DESC, c.id DESC",
}

type PostgresRepository struct {
	db    db.DBTX
	now   func() time.Time
	newID func() string
}

func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn, now: time.Now, newID: func() string { return uuid.New().String() }}
}

func (r *PostgresRepository) List(ctx context.Context, f listing.Filter, p listing.Params) (*listing.Page[domain.Complaint], error) {
	return listing.Fetch(ctx, r.db, ListSpec, f, p, scanComplaint)
}

// Get returns the complaint with its assignee's name, or nil if not found.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*domain.Complaint, error) {
	c, err := scanComplaint(r.db.QueryRow(ctx, getComplaintSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// Create stores a pending complaint under a fresh COMP- reference.
func (r *PostgresRepository) Create(ctx context.Context, _ string, in domain.CreateInput) (*domain.Complaint, error) {
	id := r.newID()
	now := r.now().UTC()
	_, err := r.db.Exec(ctx, insertComplaintSQL,
		id, refcode.New(refcode.Complaint, now), in.CitizenName, in.CitizenPhone, in.CitizenEmail, in.CitizenAddress,
		in.Category, in.Subcategory, in.Title, in.Description, in.Priority, nullJSON(in.Location), in.Images, now)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Update applies the workflow fields. Moving to resolved stamps resolved_at.
func (r *PostgresRepository) Update(ctx context.Context, _ string, id string, in domain.UpdateInput) (*domain.Complaint, error) {
	var set db.Patch
	if in.Status != "" {
		set.Set("status", in.Status)
		if in.Status == domain.StatusResolved {
			set.SetExpr("resolved_at", "now()")
		}
	}
	if in.AssignedTo != "" {
		set.Set("assigned_to", in.AssignedTo)
	}
	if in.Priority != "" {
		set.Set("priority", in.Priority)
	}
	if in.ResolutionNotes != nil {
		set.Set("resolution_notes", *in.ResolutionNotes)
	}
	if set.Empty() {
		return nil, db.ErrNoFields
	}
	set.Set("updated_at", r.now().UTC())
	q, args := set.Update("complaints", "id", id, "id")
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
	tag, err := r.db.Exec(ctx, deleteComplaintSQL, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanComplaint(row listing.Scanner) (domain.Complaint, error) {
	var c domain.Complaint
	err := row.Scan(&c.ID, &c.ComplaintID, &c.CitizenName, &c.CitizenPhone, &c.CitizenEmail, &c.CitizenAddress,
		&c.Category, &c.Subcategory, &c.Title, &c.Description, &c.Status, &c.Priority, &c.Location, &c.Images,
		&c.AssignedTo, &c.AssignedToName, &c.ResolutionNotes, &c.ResolvedAt, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func nullJSON(raw []byte) any {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}
