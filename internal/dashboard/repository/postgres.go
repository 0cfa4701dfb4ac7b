// Package repository computes dashboard statistics with read-only aggregate queries.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"civic-connect/backend/internal/dashboard/domain"
	"civic-connect/backend/internal/db"
)

const (
	summarySQL = `SELECT
    (SELECT COUNT(*) FROM complaints),
    (SELECT COUNT(*) FROM complaints WHERE status = 'resolved'),
    (SELECT COUNT(*) FROM complaints WHERE status = 'pending'),
    (SELECT COUNT(*) FROM development_works WHERE status IN ('planned', 'in_progress')),
    (SELECT COUNT(*) FROM events WHERE event_date >= CURRENT_DATE AND status = 'upcoming')`
	byStatusSQL = "SELECT status, COUNT(*) FROM complaints GROUP BY status ORDER BY status"
	trendSQL    = `SELECT date_trunc('month', created_at) AS month, COUNT(*)
FROM complaints
WHERE created_at >= CURRENT_DATE - INTERVAL '12 months'
GROUP BY month
ORDER BY month ASC`
	recentComplaintsSQL = `SELECT complaint_id, citizen_name, category, status, created_at
FROM complaints
ORDER BY created_at DESC
LIMIT 5`
	upcomingEventsSQL = `SELECT event_id, title, event_date, status
FROM events
WHERE event_date >= CURRENT_DATE
ORDER BY event_date ASC, id ASC
LIMIT 5`
)

type Repository interface {
	Stats(ctx context.Context) (*domain.Stats, error)
}

type PostgresRepository struct {
	db db.DBTX
}

func NewPostgresRepository(conn db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Stats runs each aggregate in turn. The numbers are not a single snapshot.
func (r *PostgresRepository) Stats(ctx context.Context) (*domain.Stats, error) {
	var s domain.Stats
	sum := &s.Summary
	if err := r.db.QueryRow(ctx, summarySQL).Scan(
		&sum.TotalComplaints, &sum.ResolvedComplaints, &sum.PendingComplaints, &sum.ActiveWorks, &sum.UpcomingEvents,
	); err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}

	var err error
	if s.ComplaintsByStatus, err = collect(ctx, r.db, byStatusSQL, func(row pgx.Rows) (domain.StatusCount, error) {
		var v domain.StatusCount
		return v, row.Scan(&v.Status, &v.Count)
	}); err != nil {
		return nil, fmt.Errorf("by status: %w", err)
	}
	if s.MonthlyTrend, err = collect(ctx, r.db, trendSQL, func(row pgx.Rows) (domain.MonthCount, error) {
		var v domain.MonthCount
		return v, row.Scan(&v.Month, &v.Count)
	}); err != nil {
		return nil, fmt.Errorf("trend: %w", err)
	}
	if s.RecentComplaints, err = collect(ctx, r.db, recentComplaintsSQL, func(row pgx.Rows) (domain.RecentComplaint, error) {
		var v domain.RecentComplaint
		return v, row.Scan(&v.ComplaintID, &v.CitizenName, &v.Category, &v.Status, &v.CreatedAt)
	}); err != nil {
		return nil, fmt.Errorf("recent complaints: %w", err)
	}
	if s.RecentEvents, err = collect(ctx, r.db, upcomingEventsSQL, func(row pgx.Rows) (domain.UpcomingEvent, error) {
		var v domain.UpcomingEvent
		return v, row.Scan(&v.EventID, &v.Title, &v.EventDate, &v.Status)
	}); err != nil {
		return nil, fmt.Errorf("upcoming events: %w", err)
	}
	return &s, nil
}

func collect[T any](ctx context.Context, q db.DBTX, sql string, scan func(pgx.Rows) (T, error)) ([]T, error) {
	rows, err := q.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
