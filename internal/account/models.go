package account

import (
	"context"
	"errors"
	"time"

	"bkp-platform/internal/auth"
)

// User is the account row. PasswordHash is a bcrypt digest; plaintext
// passwords are never persisted or logged.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         auth.Role `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity projects the user into its token payload form.
func (u User) Identity() auth.Identity {
	return auth.Identity{ID: u.ID, Username: u.Username, Role: u.Role}
}

var (
	ErrNotFound      = errors.New("account: user not found")
	ErrAlreadyExists = errors.New("account: username already exists")
)

// authRole maps a stored role value, downgrading anything unknown to USER
// (least privilege on schema drift).
func authRole(v string) auth.Role {
	role, err := auth.ParseRole(v)
	if err != nil {
		return auth.RoleUser
	}
	return role
}

// Repository is the persistence contract for users. Row-level ownership and
// role filtering beyond these operations is the storage layer's concern; the
// auth core only guarantees the correct identity is attached to each call.
type Repository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
