// Package repository persists MLA Connect queries in Postgres.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"civic-connect/backend/internal/connect/domain"
	"civic-connect/backend/internal/db"
	"civic-connect/backend/internal/listing"
	"civic-connect/backend/internal/platform/refcode"
)

const queryColumns = `q.id, q.query_id, q.citizen_name, q.citizen_phone, q.citizen_email, q.subject, q.message, q.type,
q.status, q.priority, q.response, q.assigned_to, a.name, q.responded_by, r.name, q.responded_at, q.created_at, q.updated_at`

const queryFrom = "mla_connect q LEFT JOIN users a ON a.id = q.assigned_to LEFT JOIN users r ON r.id = q.responded_by"

const (
	getQuerySQL    = "SELECT " + queryColumns + " FROM " + queryFrom + " WHERE q.id = $1"
	insertQuerySQL = `INSERT INTO mla_connect (id, query_id, citizen_name, citizen_phone, citizen_email, subject, message,
type, status, priority, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', $9, $10, $10)`
	deleteQuerySQL = "DELETE FROM mla_connect WHERE id = $1"
)

// ListSpec lists queries newest first, filterable by status and type.
var ListSpec = listing.Spec{
	Select: queryColumns,
	From:   queryFrom,
	Fields: []listing.Field{
		{Param: "status", Column: "q.status"},
		{Param: "type", Column: "q.type"},
	},
	OrderBy: "q.created_at DESC, q.id DESC",
}

type PostgresRepository struct {
	db    db.DBTX
	now   func() time.Time
	newID func() string
}

func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn, now: time.Now, newID: func() string { return uuid.New().String() }}
}

func (r *PostgresRepository) List(ctx context.Context, f listing.Filter, p listing.Params) (*listing.Page[domain.Query], error) {
	return listing.Fetch(ctx, r.db, ListSpec, f, p, scanQuery)
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*domain.Query, error) {
	q, err := scanQuery(r.db.QueryRow(ctx, getQuerySQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

func (r *PostgresRepository) Create(ctx context.Context, _ string, in domain.CreateInput) (*domain.Query, error) {
	id := r.newID()
	now := r.now().UTC()
	_, err := r.db.Exec(ctx, insertQuerySQL,
		id, refcode.New(refcode.Query, now), in.CitizenName, in.CitizenPhone, in.CitizenEmail, in.Subject, in.Message,
		in.Type, in.Priority, now)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Update triages the query. A response stamps responded_at and records actorID as the responder.
func (r *PostgresRepository) Update(ctx context.Context, actorID, id string, in domain.UpdateInput) (*domain.Query, error) {
	var set db.Patch
	if in.Status != "" {
		set.Set("status", in.Status)
	}
	if in.AssignedTo != "" {
		set.Set("assigned_to", in.AssignedTo)
	}
	if in.Priority != "" {
		set.Set("priority", in.Priority)
	}
	if in.Response != "" {
		set.Set("response", in.Response)
		set.Set("responded_by", actorID)
		set.SetExpr("responded_at", "now()")
	}
	if set.Empty() {
		return nil, db.ErrNoFields
	}
	set.Set("updated_at", r.now().UTC())
	q, args := set.Update("mla_connect", "id", id, "id")
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
	tag, err := r.db.Exec(ctx, deleteQuerySQL, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanQuery(row listing.Scanner) (domain.Query, error) {
	var q domain.Query
	err := row.Scan(&q.ID, &q.QueryID, &q.CitizenName, &q.CitizenPhone, &q.CitizenEmail, &q.Subject, &q.Message, &q.Type,
		&q.Status, &q.Priority, &q.Response, &q.AssignedTo, &q.AssignedToName, &q.RespondedBy, &q.RespondedByName,
		&q.RespondedAt, &q.CreatedAt, &q.UpdatedAt)
	return q, err
}
