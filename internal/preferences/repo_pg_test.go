package preferences

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoSetUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("INSERT INTO user_preferences").
		WithArgs("user-1", "pref-style", "dark").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Set(context.Background(), "user-1", "pref-style", "dark"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectQuery("SELECT value").
		WithArgs("user-1", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	if _, err := repo.Get(context.Background(), "user-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	rows := sqlmock.NewRows([]string{"key", "value"}).
		AddRow("pref-style", "dark").
		AddRow("language", "en")
	mock.ExpectQuery("SELECT key, value").
		WithArgs("user-1").
		WillReturnRows(rows)

	all, err := repo.GetAll(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 2 || all["pref-style"] != "dark" || all["language"] != "en" {
		t.Fatalf("unexpected preferences: %v", all)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDeleteMissingRowIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("DELETE FROM user_preferences").
		WithArgs("user-1", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "user-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoApplyRunsInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectBegin()
	// Upserts run in sorted key order.
	mock.ExpectExec("INSERT INTO user_preferences").
		WithArgs("user-1", "language", "en").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO user_preferences").
		WithArgs("user-1", "pref-style", "dark").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM user_preferences").
		WithArgs("user-1", "old").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sets := map[string]string{"pref-style": "dark", "language": "en"}
	if err := repo.Apply(context.Background(), "user-1", sets, []string{"old"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoApplyRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO user_preferences").
		WithArgs("user-1", "pref-style", "dark").
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err = repo.Apply(context.Background(), "user-1", map[string]string{"pref-style": "dark"}, nil)
	if err == nil {
		t.Fatalf("expected error from Apply")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoOrgTagRoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("INSERT INTO user_org_tags").
		WithArgs("user-1", "acme", "email-optin", "true").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT value").
		WithArgs("user-1", "acme", "email-optin").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("true"))

	if err := repo.SetOrgTag(context.Background(), "user-1", "acme", "email-optin", "true"); err != nil {
		t.Fatalf("SetOrgTag: %v", err)
	}
	value, err := repo.GetOrgTag(context.Background(), "user-1", "acme", "email-optin")
	if err != nil {
		t.Fatalf("GetOrgTag: %v", err)
	}
	if value != "true" {
		t.Fatalf("expected true, got %q", value)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
