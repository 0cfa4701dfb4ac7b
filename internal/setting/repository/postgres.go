// Package repository persists settings in Postgres keyed by their name.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"civic-connect/backend/internal/db"
	"civic-connect/backend/internal/setting/domain"
)

const settingColumns = "key, value, type, description, updated_by, updated_at"

const (
	listSettingsSQL  = "SELECT " + settingColumns + " FROM settings ORDER BY key ASC"
	getSettingSQL    = "SELECT " + settingColumns + " FROM settings WHERE key = $1"
	deleteSettingSQL = "DELETE FROM settings WHERE key = $1"
	upsertSettingSQL = `INSERT INTO settings (key, value, type, description, updated_by, updated_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (key) DO UPDATE SET
    value = EXCLUDED.value,
    type = EXCLUDED.type,
    description = EXCLUDED.description,
    updated_by = EXCLUDED.updated_by,
    updated_at = now()
RETURNING ` + settingColumns
)

// Repository defines persistence for settings.
type Repository interface {
	List(ctx context.Context) ([]domain.Setting, error)
	// Get returns nil when key does not exist.
	Get(ctx context.Context, key string) (*domain.Setting, error)
	Upsert(ctx context.Context, actorID string, in domain.UpsertInput) (*domain.Setting, error)
	// Update returns nil when key does not exist.
	Update(ctx context.Context, actorID, key string, in domain.UpdateInput) (*domain.Setting, error)
	Delete(ctx context.Context, key string) (bool, error)
}

type PostgresRepository struct {
	db db.DBTX
}

func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

func (r *PostgresRepository) List(ctx context.Context) ([]domain.Setting, error) {
	rows, err := r.db.Query(ctx, listSettingsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Setting{}
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Get(ctx context.Context, key string) (*domain.Setting, error) {
	return one(r.db.QueryRow(ctx, getSettingSQL, key))
}

// Upsert stores in under in.Key. Type defaults to "string".
func (r *PostgresRepository) Upsert(ctx context.Context, actorID string, in domain.UpsertInput) (*domain.Setting, error) {
	typ := in.Type
	if typ == "" {
		typ = "string"
	}
	var value string
	if in.Value != nil {
		value = *in.Value
	}
	return one(r.db.QueryRow(ctx, upsertSettingSQL, in.Key, value, typ, in.Description, nullable(actorID)))
}

// Update always records actorID as the last editor, so it never reports db.ErrNoFields.
func (r *PostgresRepository) Update(ctx context.Context, actorID, key string, in domain.UpdateInput) (*domain.Setting, error) {
	var p db.Patch
	db.SetPtr(&p, "value", in.Value)
	if in.Type != "" {
		p.Set("type", in.Type)
	}
	db.SetPtr(&p, "description", in.Description)
	p.Set("updated_by", nullable(actorID))
	p.SetExpr("updated_at", "now()")
	q, args := p.Update("settings", "key", key, settingColumns)
	return one(r.db.QueryRow(ctx, q, args...))
}

func (r *PostgresRepository) Delete(ctx context.Context, key string) (bool, error) {
	tag, err := r.db.Exec(ctx, deleteSettingSQL, key)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func one(row pgx.Row) (*domain.Setting, error) {
	s, err := scanSetting(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func scanSetting(row pgx.Row) (domain.Setting, error) {
	var s domain.Setting
	err := row.Scan(&s.Key, &s.Value, &s.Type, &s.Description, &s.UpdatedBy, &s.UpdatedAt)
	return s, err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
