package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"bkp-platform/internal/auth"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPGRepository_CreateMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

	r := NewPGRepository(db)
	err = r.Create(context.Background(), &User{Name: "A", Username: "alice", PasswordHash: "h", Role: auth.RoleUser})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestPGRepository_FindByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	cols := []string{"id", "name", "username", "password_hash", "role", "created_at", "updated_at"}
	mock.ExpectQuery("SELECT id, name, username, password_hash, role").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("u1", "Alice", "alice", "hash", "ADMIN", now, now))

	r := NewPGRepository(db)
	u, err := r.FindByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if u.ID != "u1" || u.Role != auth.RoleAdmin {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestPGRepository_FindByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	cols := []string{"id", "name", "username", "password_hash", "role", "created_at", "updated_at"}
	mock.ExpectQuery("SELECT id, name, username, password_hash, role").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(cols))

	r := NewPGRepository(db)
	if _, err := r.FindByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepository_UpdatePasswordUnknownUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE users").
		WithArgs("missing", "newhash", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	r := NewPGRepository(db)
	if err := r.UpdatePassword(context.Background(), "missing", "newhash"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
