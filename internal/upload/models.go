package upload

import (
	"context"
	"errors"
	"time"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusUploaded Status = "UPLOADED"
)

var (
	ErrNotFound = errors.New("upload: file not found")

	// ErrNotUploaded means the object is missing from storage at confirm time.
	ErrNotUploaded = errors.New("upload: object not present in storage")
)

// File tracks one client upload from presign to confirmation.
type File struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Key              string    `json:"key"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	ContentType      string    `json:"content_type"`
	Size             int64     `json:"size"`
	Status           Status    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Repository is the persistence contract for file records. Lookups are
// identity-scoped: a record is only reachable through its owning user.
type Repository interface {
	Create(ctx context.Context, f *File) error
	FindByKeyForUser(ctx context.Context, key, userID string) (File, error)
	MarkUploaded(ctx context.Context, id string, size int64) error
}
