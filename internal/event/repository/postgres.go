// Package repository persists events in Postgres.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"civic-connect/backend/internal/db"
	"civic-connect/backend/internal/event/domain"
	"civic-connect/backend/internal/listing"
	"civic-connect/backend/internal/platform/refcode"
)

const eventColumns = `e.id, e.event_id, e.title, e.description, e.category, e.event_date, e.event_time, e.end_date,
e.location, e.status, e.expected_attendance, e.organized_by, u.name, e.created_at, e.updated_at`

const eventFrom = "events e LEFT JOIN users u ON u.id = e.organized_by"

const (
	getEventSQL    = "SELECT " + eventColumns + " FROM " + eventFrom + " WHERE e.id = $1"
	insertEventSQL = `INSERT INTO events (id, event_id, title, description, category, event_date, event_time, end_date,
location, status, expected_attendance, organized_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)`
	deleteEventSQL = "DELETE FROM events WHERE id = $1"
)

// ListSpec lists events soonest first, filterable by status and category.
var ListSpec = listing.Spec{
	Select: eventColumns,
	From:   eventFrom,
	Fields: []listing.Field{
		{Param: "status", Column: "e.status"},
		{Param: "category", Column: "e.category"},
	},
	OrderBy: "e.event_date ASC, e.id ASC",
}

type PostgresRepository struct {
	db    db.DBTX
	now   func() time.Time
	newID func() string
}

func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn, now: time.Now, newID: func() string { return uuid.New().String() }}
}

func (r *PostgresRepository) List(ctx context.Context, f listing.Filter, p listing.Params) (*listing.Page[domain.Event], error) {
	return listing.Fetch(ctx, r.db, ListSpec, f, p, scanEvent)
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*domain.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx, getEventSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// Create stores the event; organized_by falls back to actorID.
func (r *PostgresRepository) Create(ctx context.Context, actorID string, in domain.CreateInput) (*domain.Event, error) {
	id := r.newID()
	now := r.now().UTC()
	organizer := in.OrganizedBy
	if (organizer == nil || *organizer == "") && actorID != "" {
		organizer = &actorID
	}
	_, err := r.db.Exec(ctx, insertEventSQL,
		id, refcode.New(refcode.Event, now), in.Title, in.Description, in.Category, in.EventDate, in.EventTime, in.EndDate,
		in.Location, in.Status, in.ExpectedAttendance, organizer, now)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *PostgresRepository) Update(ctx context.Context, _ string, id string, in domain.UpdateInput) (*domain.Event, error) {
	var set db.Patch
	db.SetPtr(&set, "title", in.Title)
	db.SetPtr(&set, "description", in.Description)
	db.SetPtr(&set, "category", in.Category)
	db.SetPtr(&set, "event_date", in.EventDate)
	db.SetPtr(&set, "event_time", in.EventTime)
	db.SetPtr(&set, "end_date", in.EndDate)
	db.SetPtr(&set, "location", in.Location)
	db.SetPtr(&set, "status", in.Status)
	db.SetPtr(&set, "expected_attendance", in.ExpectedAttendance)
	if set.Empty() {
		return nil, db.ErrNoFields
	}
	set.Set("updated_at", r.now().UTC())
	q, args := set.Update("events", "id", id, "id")
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
	tag, err := r.db.Exec(ctx, deleteEventSQL, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanEvent(row listing.Scanner) (domain.Event, error) {
	var e domain.Event
	err := row.Scan(&e.ID, &e.EventID, &e.Title, &e.Description, &e.Category, &e.EventDate, &e.EventTime, &e.EndDate,
		&e.Location, &e.Status, &e.ExpectedAttendance, &e.OrganizedBy, &e.OrganizedByName, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

