package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"

	"civic-connect/backend/internal/otp/domain"
)

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *PostgresRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock, NewPostgresRepository(mock)
}

func TestCreate(t *testing.T) {
	mock, repo := newMock(t)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := &domain.Challenge{
		ID: "c1", Email: "alice@x.org", Purpose: domain.PurposeLogin, Code: "123456",
		ExpiresAt: now.Add(10 * time.Minute), CreatedAt: now,
	}
	mock.ExpectExec(regexp.QuoteMeta(insertChallengeSQL)).
		WithArgs("c1", "alice@x.org", "login", "123456", c.ExpiresAt, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestHasCreatedSince(t *testing.T) {
	mock, repo := newMock(t)
	since := time.Date(2025, 1, 1, 11, 59, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(recentExistsSQL)).
		WithArgs("alice@x.org", "login", since).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.HasCreatedSince(context.Background(), "alice@x.org", domain.PurposeLogin, since)
	if err != nil {
		t.Fatalf("HasCreatedSince: %v", err)
	}
	if !ok {
		t.Fatal("HasCreatedSince = false, want true")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestFindLatestUnused_Found(t *testing.T) {
	mock, repo := newMock(t)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(findLatestUnusedSQL)).
		WithArgs("alice@x.org", "123456", "login").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "purpose", "otp_code", "expires_at", "is_used", "created_at"}).
			AddRow("c1", "alice@x.org", "login", "123456", now.Add(10*time.Minute), false, now))

	c, err := repo.FindLatestUnused(context.Background(), "alice@x.org", "123456", domain.PurposeLogin)
	if err != nil {
		t.Fatalf("FindLatestUnused: %v", err)
	}
	if c == nil || c.ID != "c1" || c.Purpose != domain.PurposeLogin {
		t.Fatalf("FindLatestUnused = %+v", c)
	}
}

func TestFindLatestUnused_NotFound(t *testing.T) {
	mock, repo := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(findLatestUnusedSQL)).
		WithArgs("alice@x.org", "000000", "login").
		WillReturnError(pgx.ErrNoRows)

	c, err := repo.FindLatestUnused(context.Background(), "alice@x.org", "000000", domain.PurposeLogin)
	if err != nil {
		t.Fatalf("FindLatestUnused: %v", err)
	}
	if c != nil {
		t.Fatalf("FindLatestUnused = %+v, want nil", c)
	}
}

func TestClaim(t *testing.T) {
	mock, repo := newMock(t)
	exp := time.Date(2025, 1, 1, 12, 10, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(claimSQL)).
		WithArgs("c1").
		WillReturnRows(pgxmock.NewRows([]string{"expires_at"}).AddRow(exp))
	mock.ExpectQuery(regexp.QuoteMeta(claimSQL)).
		WithArgs("c1").
		WillReturnError(pgx.ErrNoRows)

	got, ok, err := repo.Claim(context.Background(), "c1")
	if err != nil || !ok || !got.Equal(exp) {
		t.Fatalf("first Claim = %v, %v, %v", got, ok, err)
	}
	_, ok, err = repo.Claim(context.Background(), "c1")
	if err != nil || ok {
		t.Fatalf("second Claim ok = %v, err = %v; want false, nil", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestClaim_StoreError(t *testing.T) {
	mock, repo := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(claimSQL)).
		WithArgs("c1").
		WillReturnError(errors.New("connection reset"))

	if _, _, err := repo.Claim(context.Background(), "c1"); err == nil {
		t.Fatal("Claim should surface store errors")
	}
}

func TestDeleteExpiredUnusedAndDeleteUsedExcept(t *testing.T) {
	mock, repo := newMock(t)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(deleteExpiredUnusedSQL)).
		WithArgs("alice@x.org", "login", now).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(regexp.QuoteMeta(deleteUsedExceptSQL)).
		WithArgs("alice@x.org", "login", "c1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	ctx := context.Background()
	if err := repo.DeleteExpiredUnused(ctx, "alice@x.org", domain.PurposeLogin, now); err != nil {
		t.Fatalf("DeleteExpiredUnused: %v", err)
	}
	if err := repo.DeleteUsedExcept(ctx, "alice@x.org", domain.PurposeLogin, "c1"); err != nil {
		t.Fatalf("DeleteUsedExcept: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCleanup(t *testing.T) {
	mock, repo := newMock(t)
	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	dayAgo := now.Add(-24 * time.Hour)
	mock.ExpectExec(regexp.QuoteMeta(cleanupSQL)).
		WithArgs(now, dayAgo).
		WillReturnResult(pgxmock.NewResult("DELETE", 7))

	n, err := repo.Cleanup(context.Background(), now, dayAgo)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if n != 7 {
		t.Fatalf("Cleanup removed %d, want 7", n)
	}
}
