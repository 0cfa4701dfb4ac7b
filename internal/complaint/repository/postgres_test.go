package repository

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic-connect/backend/internal/complaint/domain"
	"civic-connect/backend/internal/db"
	"civic-connect/backend/internal/listing"
)

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

var complaintCols = []string{"id", "complaint_id", "citizen_name", "citizen_phone", "citizen_email", "citizen_address",
	"category", "subcategory", "title", "description", "status", "priority", "location", "images",
	"assigned_to", "name", "resolution_notes", "resolved_at", "created_at", "updated_at"}

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *PostgresRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	repo := NewPostgresRepository(mock)
	repo.now = func() time.Time { return fixedNow }
	repo.newID = func() string { return "c1" }
	return mock, repo
}

func complaintRow(id, status string) []any {
	assignee, name := "u1", "Alice"
	return []any{id, "COMP-X-ABCD", "Ravi", (*string)(nil), (*string)(nil), (*string)(nil),
		"roads", (*string)(nil), "Pothole", "Deep pothole on MG Road", status, "medium",
		json.RawMessage(nil), []string(nil),
		&assignee, &name, (*string)(nil), (*time.Time)(nil), fixedNow, fixedNow}
}

func TestCreate(t *testing.T) {
	mock, repo := newMock(t)
	in := domain.CreateInput{CitizenName: "Ravi", Category: "roads", Title: "Pothole", Description: "Deep pothole on MG Road", Priority: "medium"}
	mock.ExpectExec(regexp.QuoteMeta(insertComplaintSQL)).
		WithArgs("c1", pgxmock.AnyArg(), "Ravi", (*string)(nil), (*string)(nil), (*string)(nil),
			"roads", (*string)(nil), "Pothole", "Deep pothole on MG Road", "medium", nil, []string(nil), fixedNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(regexp.QuoteMeta(getComplaintSQL)).
		WithArgs("c1").
		WillReturnRows(pgxmock.NewRows(complaintCols).AddRow(complaintRow("c1", "pending")...))

	c, err := repo.Create(context.Background(), "u-staff", in)
	require.NoError(t, err)
	assert.Equal(t, "pending", c.Status)
	require.NotNil(t, c.AssignedToName)
	assert.Equal(t, "Alice", *c.AssignedToName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_ResolvedStampsResolvedAt(t *testing.T) {
	mock, repo := newMock(t)
	notes := "Patched"
	want := "UPDATE complaints SET status = $1, resolution_notes = $2, updated_at = $3, resolved_at = now() WHERE id = $4 RETURNING id"
	mock.ExpectQuery(regexp.QuoteMeta(want)).
		WithArgs("resolved", "Patched", fixedNow, "c1").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("c1"))
	mock.ExpectQuery(regexp.QuoteMeta(getComplaintSQL)).
		WithArgs("c1").
		WillReturnRows(pgxmock.NewRows(complaintCols).AddRow(complaintRow("c1", "resolved")...))

	c, err := repo.Update(context.Background(), "u1", "c1", domain.UpdateInput{Status: "resolved", ResolutionNotes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "resolved", c.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_EmptyAndMissing(t *testing.T) {
	mock, repo := newMock(t)
	_, err := repo.Update(context.Background(), "u1", "c1", domain.UpdateInput{})
	assert.True(t, errors.Is(err, db.ErrNoFields))

	mock.ExpectQuery("UPDATE complaints").
		WithArgs("high", fixedNow, "missing").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	c, err := repo.Update(context.Background(), "u1", "missing", domain.UpdateInput{Priority: "high"})
	assert.NoError(t, err)
	assert.Nil(t, c)
}

// 25 resolved complaints, page 2 of 10: rows 11..20 and pages = 3.
func TestList_PaginationScenario(t *testing.T) {
	mock, repo := newMock(t)
	f := listing.Filter{"status": "resolved"}
	p := listing.Params{Page: 2, Limit: 10}
	countSQL, _ := ListSpec.CountQuery(f)
	listSQL, _ := ListSpec.ListQuery(f, p)
	assert.True(t, strings.Contains(listSQL, "LEFT JOIN users u ON u.id = c.assigned_to WHERE c.status = $1 ORDER BY c.created_at DESC, c.id DESC LIMIT $2 OFFSET $3"))

	rows := pgxmock.NewRows(complaintCols)
	for i := 0; i < 10; i++ {
		rows.AddRow(complaintRow("c", "resolved")...)
	}
	mock.ExpectQuery(regexp.QuoteMeta(countSQL)).WithArgs("resolved").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(25)))
	mock.ExpectQuery(regexp.QuoteMeta(listSQL)).WithArgs("resolved", 10, 10).
		WillReturnRows(rows)

	page, err := repo.List(context.Background(), f, p)
	require.NoError(t, err)
	assert.Len(t, page.Rows, 10)
	assert.Equal(t, listing.Pagination{Page: 2, Limit: 10, Total: 25, Pages: 3}, page.Pagination)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	mock, repo := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(deleteComplaintSQL)).WithArgs("c1").WillReturnResult(pgxmock.NewResult("DELETE", 0))
	ok, err := repo.Delete(context.Background(), "c1")
	assert.NoError(t, err)
	assert.False(t, ok)
}
