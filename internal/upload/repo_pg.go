package upload

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepository persists file records in the files table.
type PGRepository struct {
	db *sql.DB
}

func NewPGRepository(db *sql.DB) *PGRepository {
	return &PGRepository{db: db}
}

func (r *PGRepository) Create(ctx context.Context, f *File) error {
	const q = `
		INSERT INTO files (id, user_id, key, filename, original_filename, content_type, size, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, q,
		f.ID, f.UserID, f.Key, f.Filename, f.OriginalFilename,
		f.ContentType, f.Size, string(f.Status), f.CreatedAt, f.UpdatedAt)
	return err
}

func (r *PGRepository) FindByKeyForUser(ctx context.Context, key, userID string) (File, error) {
	const q = `
		SELECT id, user_id, key, filename, original_filename, content_type, size, status, created_at, updated_at
		FROM files
		WHERE key = $1 AND user_id = $2`
	row := r.db.QueryRowContext(ctx, q, key, userID)

	var f File
	var status string
	err := row.Scan(&f.ID, &f.UserID, &f.Key, &f.Filename, &f.OriginalFilename,
		&f.ContentType, &f.Size, &status, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return File{}, ErrNotFound
	}
	if err != nil {
		return File{}, err
	}
	f.Status = Status(status)
	return f, nil
}

func (r *PGRepository) MarkUploaded(ctx context.Context, id string, size int64) error {
	const q = `
		UPDATE files
		SET status = $2, size = $3, updated_at = $4
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, string(StatusUploaded), size, time.Now().UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
