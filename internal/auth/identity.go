package auth

import "fmt"

// Role is the closed set of authorization levels. Checks are exact-match or
// predicate based; there is no hierarchy (SUPERADMIN does not imply ADMIN).
type Role string

const (
	RoleSuperAdmin Role = "SUPERADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleUser       Role = "USER"
)

// ParseRole validates a wire/database role value.
func ParseRole(v string) (Role, error) {
	switch Role(v) {
	case RoleSuperAdmin, RoleAdmin, RoleUser:
		return Role(v), nil
	default:
		return "", fmt.Errorf("unknown role %q", v)
	}
}

// Identity is the authenticated principal derived from a verified access
// token. It is a projection of the user row at token-issue time: role or
// username changes only take effect once the current access token expires.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}
