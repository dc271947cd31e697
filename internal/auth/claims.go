package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// accessClaims is the only supported access-token claims shape.
// The payload is self-contained: verification never touches storage.
type accessClaims struct {
	jwt.RegisteredClaims

	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
}

// refreshClaims carries only the backing record id. Revocation state lives in
// the session store, not in the token.
type refreshClaims struct {
	jwt.RegisteredClaims

	RecordID  string    `json:"record_id"`
	TokenType TokenType `json:"token_type"`
}
