package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

// ResolveIdentity verifies the bearer access token, if present, and injects
// the resolved identity into the request context. It never aborts: absent or
// invalid credentials leave the request anonymous so public procedures stay
// reachable. Guards that need authentication come later in the chain.
func ResolveIdentity(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
		if raw == "" || !strings.HasPrefix(raw, bearerPrefix) {
			c.Next()
			return
		}
		tok := strings.TrimPrefix(raw, bearerPrefix)

		id, err := m.VerifyAccess(tok, time.Now())
		if err != nil {
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// RequireAuthenticated aborts with 401 before the handler runs when no
// identity was resolved. It does not perform role checks; those belong to
// internal/rbac.
func RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := IdentityFromContext(c.Request.Context()); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "you are not authorized"},
			})
			return
		}
		c.Next()
	}
}
