// Package repository persists notifications in Postgres. Every read and write is scoped to one user.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"civic-connect/backend/internal/db"
	"civic-connect/backend/internal/listing"
	"civic-connect/backend/internal/notification/domain"
)

const notificationColumns = "id, user_id, title, message, type, is_read, created_at"

const (
	insertNotificationSQL = `INSERT INTO notifications (id, user_id, title, message, type, is_read, created_at)
VALUES ($1, $2, $3, $4, $5, false, $6)`
	markReadSQL    = "UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2 RETURNING " + notificationColumns
	markAllReadSQL = "UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false"
)

// ListSpec lists a user's notifications newest first. user_id is always set by the caller, never by the client.
var ListSpec = listing.Spec{
	Select: notificationColumns,
	From:   "notifications",
	Fields: []listing.Field{
		{Param: "user_id", Column: "user_id"},
		{Param: "is_read", Column: "is_read", Kind: listing.Bool},
	},
	OrderBy: "created_at DESC, id DESC",
}

// Repository defines persistence for notifications.
type Repository interface {
	Create(ctx context.Context, n *domain.Notification) error
	// ListForUser pages userID's notifications; f may carry is_read.
	ListForUser(ctx context.Context, userID string, f listing.Filter, p listing.Params) (*listing.Page[domain.Notification], error)
	// MarkRead returns nil when id does not exist or belongs to another user.
	MarkRead(ctx context.Context, userID, id string) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type PostgresRepository struct {
	db    db.DBTX
	now   func() time.Time
	newID func() string
}

func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn, now: time.Now, newID: func() string { return uuid.New().String() }}
}

// Create stores n unread. ID, Type and CreatedAt are filled when empty.
func (r *PostgresRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = r.newID()
	}
	if n.Type == "" {
		n.Type = "info"
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.now().UTC()
	}
	n.IsRead = false
	_, err := r.db.Exec(ctx, insertNotificationSQL, n.ID, n.UserID, n.Title, n.Message, n.Type, n.CreatedAt)
	return err
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string, f listing.Filter, p listing.Params) (*listing.Page[domain.Notification], error) {
	scoped := listing.Filter{"user_id": userID}
	if v, ok := f["is_read"]; ok {
		scoped["is_read"] = v
	}
	return listing.Fetch(ctx, r.db, ListSpec, scoped, p, scanNotification)
}

func (r *PostgresRepository) MarkRead(ctx context.Context, userID, id string) (*domain.Notification, error) {
	n, err := scanNotification(r.db.QueryRow(ctx, markReadSQL, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *PostgresRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tag, err := r.db.Exec(ctx, markAllReadSQL, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanNotification(row listing.Scanner) (domain.Notification, error) {
	var n domain.Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt)
	return n, err
}
