package auth

import (
	"errors"
	"fmt"
	"time"

	"bkp-platform/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is the single verification failure surfaced to callers.
// Expired, malformed, wrong-type and bad-signature tokens are deliberately
// indistinguishable so the API cannot be used as an oracle.
var ErrInvalidToken = errors.New("invalid token")

// Manager signs and verifies the two bearer token classes. Access and refresh
// tokens use independent secrets and lifetimes.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if len(cfg.AccessSecret) < config.MinSecretLen {
		return nil, fmt.Errorf("access secret must be at least %d bytes", config.MinSecretLen)
	}
	if len(cfg.RefreshSecret) < config.MinSecretLen {
		return nil, fmt.Errorf("refresh secret must be at least %d bytes", config.MinSecretLen)
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}

	return &Manager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		issuer:        cfg.Issuer,
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
	}, nil
}

// AccessTTL reports the configured access-token lifetime. Exposed so callers
// can document the identity staleness window (token payloads are frozen at
// issuance; there is no server-side revocation list for access tokens).
func (m *Manager) AccessTTL() time.Duration { return m.accessTTL }

/* ===================== ACCESS TOKENS ===================== */

func (m *Manager) IssueAccess(now time.Time, id Identity) (string, error) {
	claims := accessClaims{
		RegisteredClaims: m.registered(now, m.accessTTL),
		UserID:           id.ID,
		Username:         id.Username,
		Role:             string(id.Role),
		TokenType:        TokenTypeAccess,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.accessSecret)
}

// VerifyAccess checks signature, expiry and payload schema. Every failure maps
// to ErrInvalidToken.
func (m *Manager) VerifyAccess(tokenString string, now time.Time) (Identity, error) {
	var claims accessClaims
	if err := m.parse(tokenString, m.accessSecret, now, &claims); err != nil {
		return Identity{}, ErrInvalidToken
	}
	if claims.TokenType != TokenTypeAccess {
		return Identity{}, ErrInvalidToken
	}
	if claims.UserID == "" || claims.Username == "" {
		return Identity{}, ErrInvalidToken
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	return Identity{ID: claims.UserID, Username: claims.Username, Role: role}, nil
}

/* ===================== REFRESH TOKENS ===================== */

// IssueRefresh signs the backing record id with the refresh secret. The
// record, not the token string, is the source of truth for revocation.
func (m *Manager) IssueRefresh(now time.Time, recordID string) (string, error) {
	if recordID == "" {
		return "", errors.New("record id required")
	}
	claims := refreshClaims{
		RegisteredClaims: m.registered(now, m.refreshTTL),
		RecordID:         recordID,
		TokenType:        TokenTypeRefresh,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.refreshSecret)
}

// VerifyRefresh checks signature and expiry only and returns the record id.
// Revocation lookup belongs to the refresh procedure, not here.
func (m *Manager) VerifyRefresh(tokenString string, now time.Time) (string, error) {
	var claims refreshClaims
	if err := m.parse(tokenString, m.refreshSecret, now, &claims); err != nil {
		return "", ErrInvalidToken
	}
	if claims.TokenType != TokenTypeRefresh || claims.RecordID == "" {
		return "", ErrInvalidToken
	}
	return claims.RecordID, nil
}

/* ===================== INTERNAL ===================== */

func (m *Manager) registered(now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
}

func (m *Manager) parse(tokenString string, secret []byte, now time.Time, claims jwt.Claims) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30*time.Second), // clock skew tolerance
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	_, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return err
	}

	if m.issuer != "" {
		validator := jwt.NewValidator(
			jwt.WithTimeFunc(func() time.Time { return now }),
			jwt.WithIssuer(m.issuer),
		)
		if err := validator.Validate(claims); err != nil {
			return err
		}
	}
	return nil
}
