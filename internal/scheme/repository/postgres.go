// Package repository persists schemes in Postgres.
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
	"civic-connect/backend/internal/scheme/domain"
)

const schemeColumns = `id, scheme_id, name, description, category, status, eligibility_criteria, benefits,
application_process, official_link, start_date, end_date, created_at, updated_at`

const (
	getSchemeSQL    = "SELECT " + schemeColumns + " FROM schemes WHERE id = $1"
	insertSchemeSQL = `INSERT INTO schemes (id, scheme_id, name, description, category, status, eligibility_criteria,
benefits, application_process, official_link, start_date, end_date, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
RETURNING ` + schemeColumns
	deleteSchemeSQL = "DELETE FROM schemes WHERE id = $1"
)

// ListSpec lists schemes newest first, filterable by status and category.
var ListSpec = listing.Spec{
	Select: schemeColumns,
	From:   "schemes",
	Fields: []listing.Field{
		{Param: "status", Column: "status"},
		{Param: "category", Column: "category"},
	},
	OrderBy: "created_at DESC, id DESC",
}

type PostgresRepository struct {
	db    db.DBTX
	now   func() time.Time
	newID func() string
}

func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn, now: time.Now, newID: func() string { return uuid.New().String() }}
}

func (r *PostgresRepository) List(ctx context.Context, f listing.Filter, p listing.Params) (*listing.Page[domain.Scheme], error) {
	return listing.Fetch(ctx, r.db, ListSpec, f, p, scanScheme)
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*domain.Scheme, error) {
	return r.one(r.db.QueryRow(ctx, getSchemeSQL, id))
}

func (r *PostgresRepository) Create(ctx context.Context, _ string, in domain.CreateInput) (*domain.Scheme, error) {
	now := r.now().UTC()
	s, err := scanScheme(r.db.QueryRow(ctx, insertSchemeSQL,
		r.newID(), refcode.New(refcode.Scheme, now), in.Name, in.Description, in.Category, in.Status,
		in.EligibilityCriteria, in.Benefits, in.ApplicationProcess, in.OfficialLink, in.StartDate, in.EndDate, now))
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresRepository) Update(ctx context.Context, _ string, id string, in domain.UpdateInput) (*domain.Scheme, error) {
	var set db.Patch
	db.SetPtr(&set, "name", in.Name)
	db.SetPtr(&set, "description", in.Description)
	db.SetPtr(&set, "category", in.Category)
	db.SetPtr(&set, "status", in.Status)
	db.SetPtr(&set, "eligibility_criteria", in.EligibilityCriteria)
	db.SetPtr(&set, "benefits", in.Benefits)
	db.SetPtr(&set, "application_process", in.ApplicationProcess)
	db.SetPtr(&set, "official_link", in.OfficialLink)
	db.SetPtr(&set, "start_date", in.StartDate)
	db.SetPtr(&set, "end_date", in.EndDate)
	if set.Empty() {
		return nil, db.ErrNoFields
	}
	set.Set("updated_at", r.now().UTC())
	q, args := set.Update("schemes", "id", id, schemeColumns)
	return r.one(r.db.QueryRow(ctx, q, args...))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, deleteSchemeSQL, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) one(row listing.Scanner) (*domain.Scheme, error) {
	s, err := scanScheme(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func scanScheme(row listing.Scanner) (domain.Scheme, error) {
	var s domain.Scheme
	err := row.Scan(&s.ID, &s.SchemeID, &s.Name, &s.Description, &s.Category, &s.Status, &s.EligibilityCriteria,
		&s.Benefits, &s.ApplicationProcess, &s.OfficialLink, &s.StartDate, &s.EndDate, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}
