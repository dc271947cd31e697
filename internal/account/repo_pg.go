package account

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is the Postgres error code for unique constraint breaks.
const pgUniqueViolation = "23505"

// PGRepository implements Repository on Postgres.
//
// Assumes a users table:
//
//	id uuid primary key, name text not null, username text not null unique,
//	password_hash text not null, role text not null,
//	created_at timestamptz not null, updated_at timestamptz not null
type PGRepository struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPGRepository(db *sql.DB) *PGRepository {
	return &PGRepository{db: db, clock: time.Now}
}

func (r *PGRepository) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := r.clock().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	const q = `
INSERT INTO users (id, name, username, password_hash, role, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err := r.db.ExecContext(ctx, q, u.ID, u.Name, u.Username, u.PasswordHash, string(u.Role), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*User, error) {
	const q = `
SELECT id, name, username, password_hash, role, created_at, updated_at
FROM users
WHERE id = $1
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	const q = `
SELECT id, name, username, password_hash, role, created_at, updated_at
FROM users
WHERE username = $1
`
	return r.scanOne(r.db.QueryRowContext(ctx, q, username))
}

func (r *PGRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const q = `
UPDATE users
SET password_hash = $2, updated_at = $3
WHERE id = $1
`
	res, err := r.db.ExecContext(ctx, q, id, passwordHash, r.clock().UTC())
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) scanOne(row *sql.Row) (*User, error) {
	var (
		u    User
		role string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Username, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Role = authRole(role)
	return &u, nil
}
