package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bkp-platform/internal/audit"
	"bkp-platform/internal/auth"
	"bkp-platform/internal/session"
)

var (
	// ErrInvalidCredentials covers unknown username, wrong password, and the
	// wrong old password during a change. Callers must not be able to tell
	// which one happened.
	ErrInvalidCredentials = errors.New("account: invalid credentials")

	// ErrPasswordUnchanged rejects a password change where new == old.
	ErrPasswordUnchanged = errors.New("account: new password must differ from the old password")
)

// TokenPair is what every successful authentication returns.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Service implements the authentication procedures. It holds no per-request
// state; identity always arrives as an explicit argument resolved by the
// request-context layer.
type Service struct {
	users    Repository
	sessions session.Store
	tokens   *auth.Manager
	audit    *audit.Service

	// clock is injectable for deterministic expiry tests.
	clock func() time.Time
}

func NewService(users Repository, sessions session.Store, tokens *auth.Manager, auditSvc *audit.Service) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		audit:    auditSvc,
		clock:    time.Now,
	}
}

type RegisterInput struct {
	Name     string
	Username string
	Password string
}

// Register creates a USER-role account and signs it in. Fails with
// ErrAlreadyExists when the username is taken; no tokens are issued then.
func (s *Service) Register(ctx context.Context, in RegisterInput) (TokenPair, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return TokenPair{}, err
	}

	u := &User{
		Name:         in.Name,
		Username:     in.Username,
		PasswordHash: hash,
		Role:         auth.RoleUser,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return TokenPair{}, err
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return TokenPair{}, err
	}
	s.audit.Record(ctx, "auth.register", map[string]any{"user_id": u.ID, "username": u.Username})
	return pair, nil
}

type LoginInput struct {
	Username string
	Password string
}

// Login authenticates by username and password. Unknown user and wrong
// password both fail with the same ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, in LoginInput) (TokenPair, error) {
	u, err := s.users.FindByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}
	if !auth.VerifyPassword(u.PasswordHash, in.Password) {
		return TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return TokenPair{}, err
	}
	s.audit.Record(ctx, "auth.login", map[string]any{"user_id": u.ID, "username": u.Username})
	return pair, nil
}

type SSOInput struct {
	Provider string
	Email    string
	Name     string
}

// SSOLogin signs in a user asserted by an external identity provider. The
// username is derived deterministically from provider and email; the account
// is auto-created on first sight with a random password digest so it can
// never authenticate via the password path.
func (s *Service) SSOLogin(ctx context.Context, in SSOInput) (TokenPair, error) {
	username := fmt.Sprintf("%s:%s", in.Provider, in.Email)

	u, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		hash, hashErr := auth.RandomPasswordDigest()
		if hashErr != nil {
			return TokenPair{}, hashErr
		}
		u = &User{
			Name:         in.Name,
			Username:     username,
			PasswordHash: hash,
			Role:         auth.RoleUser,
		}
		if createErr := s.users.Create(ctx, u); createErr != nil {
			return TokenPair{}, createErr
		}
		s.audit.Record(ctx, "auth.sso.created", map[string]any{"user_id": u.ID, "provider": in.Provider})
	} else if err != nil {
		return TokenPair{}, err
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return TokenPair{}, err
	}
	s.audit.Record(ctx, "auth.sso", map[string]any{"user_id": u.ID, "provider": in.Provider})
	return pair, nil
}

// Refresh exchanges a valid refresh token for a fresh pair. The presented
// token's backing record is revoked as part of rotation, so each refresh
// token is good for at most one exchange. The revoke and the replacement
// record are written atomically by the store.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	recID, err := s.tokens.VerifyRefresh(refreshToken, s.clock())
	if err != nil {
		return TokenPair{}, auth.ErrInvalidToken
	}

	rec, err := s.sessions.Find(ctx, recID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return TokenPair{}, auth.ErrInvalidToken
		}
		return TokenPair{}, err
	}
	if rec.Revoked {
		return TokenPair{}, auth.ErrInvalidToken
	}

	u, err := s.users.FindByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, auth.ErrInvalidToken
		}
		return TokenPair{}, err
	}

	now := s.clock()
	access, err := s.tokens.IssueAccess(now, u.Identity())
	if err != nil {
		return TokenPair{}, err
	}
	next, err := s.sessions.Rotate(ctx, rec.ID, u.ID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return TokenPair{}, auth.ErrInvalidToken
		}
		return TokenPair{}, err
	}
	refresh, err := s.tokens.IssueRefresh(now, next.ID)
	if err != nil {
		return TokenPair{}, err
	}

	s.audit.Record(ctx, "auth.refresh", map[string]any{"user_id": u.ID, "rotated_from": rec.ID})
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

type ChangePasswordInput struct {
	OldPassword string
	NewPassword string
}

// ChangePassword re-verifies the old password before persisting the new hash.
// A new password equal to the old one is rejected before any write.
func (s *Service) ChangePassword(ctx context.Context, identity auth.Identity, in ChangePasswordInput) error {
	u, err := s.users.FindByID(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}

	if !auth.VerifyPassword(u.PasswordHash, in.OldPassword) {
		return ErrInvalidCredentials
	}
	if auth.VerifyPassword(u.PasswordHash, in.NewPassword) {
		return ErrPasswordUnchanged
	}

	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return err
	}

	s.audit.Record(ctx, "auth.change-password", map[string]any{"user_id": u.ID})
	return nil
}

// Profile returns the resolved identity's public fields and audits the read.
// The payload is the token projection; it can be stale relative to the user
// row for up to one access-token lifetime.
func (s *Service) Profile(ctx context.Context, identity auth.Identity) auth.Identity {
	s.audit.Record(ctx, "auth.me", map[string]any{"user_id": identity.ID})
	return identity
}

func (s *Service) issuePair(ctx context.Context, u *User) (TokenPair, error) {
	now := s.clock()

	access, err := s.tokens.IssueAccess(now, u.Identity())
	if err != nil {
		return TokenPair{}, err
	}

	rec, err := s.sessions.Create(ctx, u.ID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.tokens.IssueRefresh(now, rec.ID)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
