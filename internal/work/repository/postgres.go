// Package repository persists development works in Postgres.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"civic-connect/backend/internal/db"
	"civic-connect/backend/internal/listing"
	"civic-connect/backend/internal/platform/refcode"
	"civic-connect/backend/internal/work/domain"
)

const workColumns = `w.id, w.work_id, w.title, w.description, w.category, w.status, w.budget_amount::float8,
w.allocated_amount::float8, w.location, w.start_date, w.estimated_completion_date, w.contractor_name,
w.contractor_contact, w.assigned_to, u.name, w.created_at, w.updated_at`

const workFrom = "development_works w LEFT JOIN users u ON u.id = w.assigned_to"

const (
	getWorkSQL    = "SELECT " + workColumns + " FROM " + workFrom + " WHERE w.id = $1"
	insertWorkSQL = `INSERT INTO development_works (id, work_id, title, description, category, status, budget_amount,
allocated_amount, location, start_date, estimated_completion_date, contractor_name, contractor_contact, assigned_to,
created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)`
	deleteWorkSQL = "DELETE FROM development_works WHERE id = $1"
)

// ListSpec lists works newest first, filterable by status and category.
var ListSpec = listing.Spec{
	Select: workColumns,
	From:   workFrom,
	Fields: []listing.Field{
		{Param: "status", Column: "w.status"},
		{Param: "category", Column: "w.category"},
	},
	OrderBy: "w.created_at DESC, w.id DESC",
}

type PostgresRepository struct {
	db    db.DBTX
	now   func() time.Time
	newID func() string
}

func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn, now: time.Now, newID: func() string { return uuid.New().String() }}
}

func (r *PostgresRepository) List(ctx context.Context, f listing.Filter, p listing.Params) (*listing.Page[domain.Work], error) {
	return listing.Fetch(ctx, r.db, ListSpec, f, p, scanWork)
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*domain.Work, error) {
	w, err := scanWork(r.db.QueryRow(ctx, getWorkSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func (r *PostgresRepository) Create(ctx context.Context, _ string, in domain.CreateInput) (*domain.Work, error) {
	id := r.newID()
	now := r.now().UTC()
	_, err := r.db.Exec(ctx, insertWorkSQL,
		id, refcode.New(refcode.Work, now), in.Title, in.Description, in.Category, in.Status, in.BudgetAmount,
		in.AllocatedAmount, in.Location, in.StartDate, in.EstimatedCompletionDate, in.ContractorName,
		in.ContractorContact, in.AssignedTo, now)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *PostgresRepository) Update(ctx context.Context, _ string, id string, in domain.UpdateInput) (*domain.Work, error) {
	var set db.Patch
	db.SetPtr(&set, "title", in.Title)
	db.SetPtr(&set, "description", in.Description)
	db.SetPtr(&set, "category", in.Category)
	db.SetPtr(&set, "status", in.Status)
	db.SetPtr(&set, "budget_amount", in.BudgetAmount)
	db.SetPtr(&set, "allocated_amount", in.AllocatedAmount)
	db.SetPtr(&set, "location", in.Location)
	db.SetPtr(&set, "start_date", in.StartDate)
	db.SetPtr(&set, "estimated_completion_date", in.EstimatedCompletionDate)
	db.SetPtr(&set, "contractor_name", in.ContractorName)
	db.SetPtr(&set, "contractor_contact", in.ContractorContact)
	db.SetPtr(&set, "assigned_to", in.AssignedTo)
	if set.Empty() {
		return nil, db.ErrNoFields
	}
	set.Set("updated_at", r.now().UTC())
	q, args := set.Update("development_works", "id", id, "id")
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
	tag, err := r.db.Exec(ctx, deleteWorkSQL, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanWork(row listing.Scanner) (domain.Work, error) {
	var w domain.Work
	err := row.Scan(&w.ID, &w.WorkID, &w.Title, &w.Description, &w.Category, &w.Status, &w.BudgetAmount,
		&w.AllocatedAmount, &w.Location, &w.StartDate, &w.EstimatedCompletionDate, &w.ContractorName,
		&w.ContractorContact, &w.AssignedTo, &w.AssignedToName, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}
