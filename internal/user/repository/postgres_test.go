package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"

	"civic-connect/backend/internal/listing"
	"civic-connect/backend/internal/user/domain"
)

var userCols = []string{"id", "name", "email", "password_hash", "role", "phone", "photo_url", "is_active", "created_at", "updated_at"}

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *PostgresRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	repo := NewPostgresRepository(mock)
	repo.now = func() time.Time { return fixedNow }
	return mock, repo
}

func aliceRow() []any {
	return []any{"u1", "Alice", "alice@x.org", (*string)(nil), "staff", (*string)(nil), (*string)(nil), true, fixedNow, fixedNow}
}

func TestGetByEmail_NormalizesAndScans(t *testing.T) {
	mock, repo := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(getUserByEmailSQL)).
		WithArgs("alice@x.org").
		WillReturnRows(pgxmock.NewRows(userCols).AddRow(aliceRow()...))

	u, err := repo.GetByEmail(context.Background(), "  Alice@X.org ")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u == nil || u.ID != "u1" || u.Role != domain.RoleStaff || !u.IsActive {
		t.Fatalf("GetByEmail = %+v", u)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	mock, repo := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(getUserByIDSQL)).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	u, err := repo.GetByID(context.Background(), "missing")
	if err != nil || u != nil {
		t.Fatalf("GetByID = %v, %v; want nil, nil", u, err)
	}
}

func TestCreate(t *testing.T) {
	mock, repo := newMock(t)
	hash := "$2a$10$hash"
	u := &domain.User{ID: "u2", Name: "Bob", Email: "BOB@x.org", PasswordHash: &hash, IsActive: true}
	mock.ExpectExec(regexp.QuoteMeta(insertUserSQL)).
		WithArgs("u2", "Bob", "bob@x.org", &hash, "staff", (*string)(nil), (*string)(nil), true, fixedNow, fixedNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Role != domain.RoleStaff {
		t.Errorf("Role defaulted to %q, want staff", u.Role)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestUpdate_EmptyPatch(t *testing.T) {
	_, repo := newMock(t)
	if _, err := repo.Update(context.Background(), "u1", domain.Patch{}); !errors.Is(err, domain.ErrNoFields) {
		t.Fatalf("Update empty: got %v, want ErrNoFields", err)
	}
}

func TestUpdate_BuildsAssignments(t *testing.T) {
	mock, repo := newMock(t)
	name := "Alice B"
	active := false
	want := "UPDATE users SET name = $1, is_active = $2, updated_at = $3 WHERE id = $4 RETURNING " + userColumns
	mock.ExpectQuery(regexp.QuoteMeta(want)).
		WithArgs("Alice B", false, fixedNow, "u1").
		WillReturnRows(pgxmock.NewRows(userCols).AddRow(aliceRow()...))

	u, err := repo.Update(context.Background(), "u1", domain.Patch{Name: &name, IsActive: &active})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if u == nil {
		t.Fatal("Update returned nil user")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDelete(t *testing.T) {
	mock, repo := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(deleteUserSQL)).WithArgs("u1").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteUserSQL)).WithArgs("u1").WillReturnResult(pgxmock.NewResult("DELETE", 0))

	ok, err := repo.Delete(context.Background(), "u1")
	if err != nil || !ok {
		t.Fatalf("first Delete = %v, %v", ok, err)
	}
	ok, err = repo.Delete(context.Background(), "u1")
	if err != nil || ok {
		t.Fatalf("second Delete = %v, %v; want false", ok, err)
	}
}

func TestList_FiltersByRole(t *testing.T) {
	mock, repo := newMock(t)
	f := listing.Filter{"role": "staff"}
	p := listing.Params{Page: 1, Limit: 20}
	countSQL, _ := ListSpec.CountQuery(f)
	listSQL, _ := ListSpec.ListQuery(f, p)
	mock.ExpectQuery(regexp.QuoteMeta(countSQL)).
		WithArgs("staff").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta(listSQL)).
		WithArgs("staff", 20, 0).
		WillReturnRows(pgxmock.NewRows(userCols).AddRow(aliceRow()...))

	page, err := repo.List(context.Background(), f, p)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Rows) != 1 || page.Pagination.Total != 1 || page.Pagination.Pages != 1 {
		t.Fatalf("List = %+v", page)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
