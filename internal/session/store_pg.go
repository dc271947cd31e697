package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bkp-platform/pkg/utils"

	"github.com/google/uuid"
)

// PGStore implements Store on Postgres.
//
// Assumes a refresh_tokens table:
//
//	id uuid primary key, user_id uuid not null references users(id),
//	revoked boolean not null default false, created_at timestamptz not null
type PGStore struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db, clock: time.Now}
}

func (s *PGStore) Create(ctx context.Context, userID string) (Record, error) {
	rec := Record{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: s.clock().UTC(),
	}
	const q = `
INSERT INTO refresh_tokens (id, user_id, revoked, created_at)
VALUES ($1, $2, false, $3)
`
	if _, err := s.db.ExecContext(ctx, q, rec.ID, rec.UserID, rec.CreatedAt); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *PGStore) Find(ctx context.Context, id string) (Record, error) {
	const q = `
SELECT id, user_id, revoked, created_at
FROM refresh_tokens
WHERE id = $1
`
	var rec Record
	err := s.db.QueryRowContext(ctx, q, id).Scan(&rec.ID, &rec.UserID, &rec.Revoked, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

func (s *PGStore) Revoke(ctx context.Context, id string) error {
	const q = `
UPDATE refresh_tokens
SET revoked = true
WHERE id = $1
`
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) Rotate(ctx context.Context, oldID, userID string) (Record, error) {
	rec := Record{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: s.clock().UTC(),
	}
	err := utils.WithTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = true WHERE id = $1`, oldID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO refresh_tokens (id, user_id, revoked, created_at) VALUES ($1, $2, false, $3)`,
			rec.ID, rec.UserID, rec.CreatedAt)
		return err
	})
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}
