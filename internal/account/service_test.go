package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"bkp-platform/internal/audit"
	"bkp-platform/internal/auth"
	"bkp-platform/internal/config"
	"bkp-platform/internal/session"
)

type fixture struct {
	svc      *Service
	users    *MemoryRepository
	sessions *session.MemoryStore
	tokens   *auth.Manager
	audit    *audit.Service
	events   *audit.MemoryRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tokens, err := auth.NewManager(config.AuthConfig{
		AccessSecret:    strings.Repeat("a", 32),
		RefreshSecret:   strings.Repeat("b", 32),
		Issuer:          "bkp-platform",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 30 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	users := NewMemoryRepository()
	sessions := session.NewMemoryStore()
	events := audit.NewMemoryRepo()
	auditSvc := audit.NewService(events, slog.Default())

	return &fixture{
		svc:      NewService(users, sessions, tokens, auditSvc),
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		audit:    auditSvc,
		events:   events,
	}
}

func register(t *testing.T, f *fixture, username, password string) TokenPair {
	t.Helper()
	pair, err := f.svc.Register(context.Background(), RegisterInput{
		Name:     "Test User",
		Username: username,
		Password: password,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return pair
}

func TestRegisterThenLogin(t *testing.T) {
	f := newFixture(t)
	register(t, f, "alice", "Secret123!")

	pair, err := f.svc.Login(context.Background(), LoginInput{Username: "alice", Password: "Secret123!"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	id, err := f.tokens.VerifyAccess(pair.AccessToken, time.Now())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.Username != "alice" || id.Role != auth.RoleUser {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(t)
	register(t, f, "alice", "Secret123!")

	_, err := f.svc.Login(context.Background(), LoginInput{Username: "alice", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownUserIsSameError(t *testing.T) {
	f := newFixture(t)
	register(t, f, "alice", "Secret123!")

	badPassErr := func() error {
		_, err := f.svc.Login(context.Background(), LoginInput{Username: "alice", Password: "wrong"})
		return err
	}()
	noUserErr := func() error {
		_, err := f.svc.Login(context.Background(), LoginInput{Username: "nobody", Password: "x"})
		return err
	}()
	if !errors.Is(badPassErr, ErrInvalidCredentials) || !errors.Is(noUserErr, ErrInvalidCredentials) {
		t.Fatalf("both failures must be ErrInvalidCredentials, got %v / %v", badPassErr, noUserErr)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	f := newFixture(t)
	register(t, f, "alice", "Secret123!")

	_, err := f.svc.Register(context.Background(), RegisterInput{Name: "x", Username: "alice", Password: "Other456!"})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestRefresh_RotatesAndRevokesOld(t *testing.T) {
	f := newFixture(t)
	pair := register(t, f, "alice", "Secret123!")

	rotated, err := f.svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatalf("rotation must return a distinct refresh token")
	}

	id, err := f.tokens.VerifyAccess(rotated.AccessToken, time.Now())
	if err != nil {
		t.Fatalf("verify rotated access: %v", err)
	}
	if id.Username != "alice" {
		t.Fatalf("rotated identity mismatch: %+v", id)
	}

	// The exchanged token is now burned.
	if _, err := f.svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected reused refresh token rejected, got %v", err)
	}

	// The rotated token still works.
	if _, err := f.svc.Refresh(context.Background(), rotated.RefreshToken); err != nil {
		t.Fatalf("rotated token must be usable: %v", err)
	}
}

func TestRefresh_DeletedRecord(t *testing.T) {
	f := newFixture(t)
	pair := register(t, f, "alice", "Secret123!")

	recID, err := f.tokens.VerifyRefresh(pair.RefreshToken, time.Now())
	if err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
	f.sessions.Delete(recID)

	if _, err := f.svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for deleted record, got %v", err)
	}
}

func TestRefresh_GarbageToken(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Refresh(context.Background(), "garbage"); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRefresh_AccessTokenRejected(t *testing.T) {
	f := newFixture(t)
	pair := register(t, f, "alice", "Secret123!")

	if _, err := f.svc.Refresh(context.Background(), pair.AccessToken); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("access token must not pass the refresh path, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	register(t, f, "alice", "Secret123!")
	u, err := f.users.FindByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	identity := u.Identity()
	ctx := context.Background()

	// Wrong old password.
	err = f.svc.ChangePassword(ctx, identity, ChangePasswordInput{OldPassword: "wrong", NewPassword: "Next456!"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	// New equal to old.
	err = f.svc.ChangePassword(ctx, identity, ChangePasswordInput{OldPassword: "Secret123!", NewPassword: "Secret123!"})
	if !errors.Is(err, ErrPasswordUnchanged) {
		t.Fatalf("expected ErrPasswordUnchanged, got %v", err)
	}

	// Valid change.
	if err := f.svc.ChangePassword(ctx, identity, ChangePasswordInput{OldPassword: "Secret123!", NewPassword: "Next456!"}); err != nil {
		t.Fatalf("change: %v", err)
	}

	if _, err := f.svc.Login(ctx, LoginInput{Username: "alice", Password: "Secret123!"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if _, err := f.svc.Login(ctx, LoginInput{Username: "alice", Password: "Next456!"}); err != nil {
		t.Fatalf("new password must work: %v", err)
	}
}

func TestSSOLogin_AutoCreatesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := SSOInput{Provider: "google", Email: "alice@example.com", Name: "Alice"}
	pair, err := f.svc.SSOLogin(ctx, in)
	if err != nil {
		t.Fatalf("sso login: %v", err)
	}

	id, err := f.tokens.VerifyAccess(pair.AccessToken, time.Now())
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.Username != "google:alice@example.com" {
		t.Fatalf("expected derived username, got %q", id.Username)
	}

	// Second sign-in reuses the account.
	pair2, err := f.svc.SSOLogin(ctx, in)
	if err != nil {
		t.Fatalf("second sso login: %v", err)
	}
	id2, _ := f.tokens.VerifyAccess(pair2.AccessToken, time.Now())
	if id2.ID != id.ID {
		t.Fatalf("expected same account, got %q vs %q", id2.ID, id.ID)
	}

	// SSO accounts cannot log in via password.
	if _, err := f.svc.Login(ctx, LoginInput{Username: id.Username, Password: ""}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected password login blocked, got %v", err)
	}
}

func TestAccessTokenExpiryFlow(t *testing.T) {
	f := newFixture(t)
	base := time.Unix(1700000000, 0).UTC()
	f.svc.clock = func() time.Time { return base }

	pair := register(t, f, "alice", "Secret123!")

	if _, err := f.tokens.VerifyAccess(pair.AccessToken, base.Add(time.Minute)); err != nil {
		t.Fatalf("fresh access token must verify: %v", err)
	}
	// Past 15m TTL plus leeway: rejected.
	if _, err := f.tokens.VerifyAccess(pair.AccessToken, base.Add(16*time.Minute)); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected expiry rejection, got %v", err)
	}

	// The refresh token still works well past access expiry.
	f.svc.clock = func() time.Time { return base.Add(time.Hour) }
	rotated, err := f.svc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh after access expiry: %v", err)
	}
	if _, err := f.tokens.VerifyAccess(rotated.AccessToken, base.Add(time.Hour+time.Minute)); err != nil {
		t.Fatalf("rotated access token must verify: %v", err)
	}
}

func TestAuditTrail(t *testing.T) {
	f := newFixture(t)
	register(t, f, "alice", "Secret123!")
	if _, err := f.svc.Login(context.Background(), LoginInput{Username: "alice", Password: "Secret123!"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	f.audit.Wait()

	actions := map[string]bool{}
	for _, e := range f.events.Events() {
		actions[e.Action] = true
		if strings.Contains(e.Metadata, "Secret123!") {
			t.Fatalf("plaintext password leaked into audit metadata")
		}
	}
	if !actions["auth.register"] || !actions["auth.login"] {
		t.Fatalf("expected register and login audited, got %v", actions)
	}
}
