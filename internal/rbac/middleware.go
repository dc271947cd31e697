// Package rbac provides composable authorization guards on top of the
// identity resolved by internal/auth. All guards short-circuit and return the
// same forbidden body regardless of which check failed.
package rbac

import (
	"net/http"

	"bkp-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

// Predicate is an arbitrary identity-based check.
type Predicate func(auth.Identity) bool

// RequireRole allows only callers whose role matches exactly. There is no
// hierarchy: SUPERADMIN does not pass an ADMIN check.
func RequireRole(role auth.Role) gin.HandlerFunc {
	return RequirePredicate(func(id auth.Identity) bool {
		return id.Role == role
	})
}

// RequirePredicate generalizes role checks. Anonymous callers get 401;
// authenticated callers failing the predicate get 403 with a generic body.
func RequirePredicate(fn Predicate) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auth.IdentityFromContext(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "you are not authorized"},
			})
			return
		}
		if !fn(id) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{"message": "access forbidden"},
			})
			return
		}
		c.Next()
	}
}
