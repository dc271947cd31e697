// Package session persists refresh-token records. The token string handed to
// clients is a signature over the record id; these records are the source of
// truth for revocation.
package session

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("session: record not found")

// Record backs one issued refresh token.
//
// Lifecycle: created on login/register/SSO/refresh, looked up by id on
// refresh, never mutated except revocation.
type Record struct {
	ID        string
	UserID    string
	Revoked   bool
	CreatedAt time.Time
}

// Store is the persistence contract for refresh-token records.
type Store interface {
	Create(ctx context.Context, userID string) (Record, error)
	Find(ctx context.Context, id string) (Record, error)
	Revoke(ctx context.Context, id string) error

	// Rotate revokes the old record and creates a replacement for userID.
	// Implementations make this atomic so a crash cannot leave both the old
	// and new records live.
	Rotate(ctx context.Context, oldID, userID string) (Record, error)
}
