package auth

import (
	"strings"
	"testing"
	"time"

	"bkp-platform/internal/config"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		AccessSecret:    strings.Repeat("a", 32),
		RefreshSecret:   strings.Repeat("b", 32),
		Issuer:          "bkp-platform",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 30 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}

func TestNewManager_EnforcesSecretLength(t *testing.T) {
	_, err := NewManager(config.AuthConfig{
		AccessSecret:    "short",
		RefreshSecret:   strings.Repeat("b", 32),
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	})
	if err == nil {
		t.Fatalf("expected error for short access secret")
	}

	_, err = NewManager(config.AuthConfig{
		AccessSecret:    strings.Repeat("a", 32),
		RefreshSecret:   strings.Repeat("a", 32),
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	})
	if err == nil {
		t.Fatalf("expected error for equal secrets")
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := testManager(t)
	now := time.Unix(1700000000, 0).UTC()

	id := Identity{ID: "user-1", Username: "alice", Role: RoleUser}
	tok, err := m.IssueAccess(now, id)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := m.VerifyAccess(tok, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != id {
		t.Fatalf("identity mismatch: got %+v want %+v", got, id)
	}
}

func TestVerifyAccess_RejectsExpired(t *testing.T) {
	m := testManager(t)
	now := time.Unix(1700000000, 0).UTC()

	tok, err := m.IssueAccess(now, Identity{ID: "u", Username: "alice", Role: RoleUser})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Past expiry plus the 30s leeway.
	if _, err := m.VerifyAccess(tok, now.Add(16*time.Minute)); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyAccess_FailuresAreUniform(t *testing.T) {
	m := testManager(t)
	now := time.Unix(1700000000, 0).UTC()

	expired, _ := m.IssueAccess(now.Add(-time.Hour), Identity{ID: "u", Username: "a", Role: RoleUser})

	other := testManagerWithSecrets(t, strings.Repeat("c", 32), strings.Repeat("d", 32))
	badSig, _ := other.IssueAccess(now, Identity{ID: "u", Username: "a", Role: RoleUser})

	for name, tok := range map[string]string{
		"expired":       expired,
		"bad signature": badSig,
		"malformed":     "not.a.jwt",
		"empty":         "",
	} {
		if _, err := m.VerifyAccess(tok, now); err != ErrInvalidToken {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestVerifyAccess_RejectsRefreshToken(t *testing.T) {
	m := testManager(t)
	now := time.Now()

	refresh, err := m.IssueRefresh(now, "rec-1")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	if _, err := m.VerifyAccess(refresh, now); err != ErrInvalidToken {
		t.Fatalf("expected refresh token rejected as access, got %v", err)
	}
}

func TestVerifyAccess_RejectsUnknownRole(t *testing.T) {
	m := testManager(t)
	now := time.Now()

	tok, err := m.IssueAccess(now, Identity{ID: "u", Username: "a", Role: Role("INTRUDER")})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.VerifyAccess(tok, now); err != ErrInvalidToken {
		t.Fatalf("expected schema mismatch to be invalid, got %v", err)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	m := testManager(t)
	now := time.Unix(1700000000, 0).UTC()

	tok, err := m.IssueRefresh(now, "rec-42")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	recID, err := m.VerifyRefresh(tok, now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if recID != "rec-42" {
		t.Fatalf("expected record id rec-42, got %q", recID)
	}

	// Access secret must not verify refresh tokens.
	if _, err := m.VerifyAccess(tok, now); err != ErrInvalidToken {
		t.Fatalf("expected cross-secret verification to fail")
	}
}

func TestVerifyRefresh_RejectsExpired(t *testing.T) {
	m := testManager(t)
	now := time.Unix(1700000000, 0).UTC()

	tok, _ := m.IssueRefresh(now, "rec-1")
	if _, err := m.VerifyRefresh(tok, now.Add(31*24*time.Hour)); err != ErrInvalidToken {
		t.Fatalf("expected expired refresh token rejected, got %v", err)
	}
}

func testManagerWithSecrets(t *testing.T, access, refresh string) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		AccessSecret:    access,
		RefreshSecret:   refresh,
		Issuer:          "bkp-platform",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 30 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return m
}
