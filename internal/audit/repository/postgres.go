package repository

import (
	"context"

	"civic-connect/backend/internal/audit/domain"
	"civic-connect/backend/internal/db"
	"civic-connect/backend/internal/listing"
)

const auditColumns = "id, user_id, action, resource, ip, metadata, created_at"

const insertAuditLogSQL = `INSERT INTO audit_logs (id, user_id, action, resource, ip, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

// ListSpec lists audit entries newest first.
var ListSpec = listing.Spec{
	Select: auditColumns,
	From:   "audit_logs",
	Fields: []listing.Field{
		{Param: "user_id", Column: "user_id"},
		{Param: "action", Column: "action"},
		{Param: "resource", Column: "resource"},
		{Param: "dateFrom", Column: "created_at", Op: listing.Gte, Kind: listing.Time},
		{Param: "dateTo", Column: "created_at", Op: listing.Lte, Kind: listing.Time},
	},
	OrderBy: "created_at DESC, id DESC",
}

// PostgresRepository implements Repository on the audit_logs table.
type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a new PostgresRepository that uses conn for persistence.
func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Create persists the audit log. The entry must have ID and CreatedAt set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	_, err := r.db.Exec(ctx, insertAuditLogSQL, a.ID, a.UserID, a.Action, a.Resource, a.IP, a.Metadata, a.CreatedAt)
	return err
}

// List returns one page of audit entries matching f.
func (r *PostgresRepository) List(ctx context.Context, f listing.Filter, p listing.Params) (*listing.Page[domain.AuditLog], error) {
	return listing.Fetch(ctx, r.db, ListSpec, f, p, scanAuditLog)
}

func scanAuditLog(row listing.Scanner) (domain.AuditLog, error) {
	var a domain.AuditLog
	err := row.Scan(&a.ID, &a.UserID, &a.Action, &a.Resource, &a.IP, &a.Metadata, &a.CreatedAt)
	return a, err
}
