package httpapi

import (
	"log/slog"

	"bkp-platform/internal/auth"
	"bkp-platform/internal/rbac"
	"bkp-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// NewRouter assembles the Gin engine: recovery, request logging, the audit
// snapshot, identity resolution, then the route table.
func NewRouter(log *slog.Logger, tokens *auth.Manager, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(RequestContext())
	r.Use(auth.ResolveIdentity(tokens))

	r.GET("/healthz", h.Healthz)

	v1 := r.Group("/v1")
	{
		v1.GET("/hello", h.Hello)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.POST("/sso", h.SSOLogin)
			authGroup.POST("/refresh", h.Refresh)
			authGroup.POST("/change-password", auth.RequireAuthenticated(), h.ChangePassword)
		}

		v1.GET("/me", auth.RequireAuthenticated(), h.Me)

		uploads := v1.Group("/uploads")
		uploads.Use(auth.RequireAuthenticated())
		{
			uploads.POST("/presign", h.PresignUpload)
			uploads.POST("/confirm", h.ConfirmUpload)
		}

		// Explicit role set, not a hierarchy: ADMIN and SUPERADMIN are each
		// named, nothing is implied by rank.
		admin := v1.Group("/admin")
		admin.Use(rbac.RequirePredicate(func(id auth.Identity) bool {
			return id.Role == auth.RoleAdmin || id.Role == auth.RoleSuperAdmin
		}))
		{
			admin.GET("/audit", h.ListAuditEvents)
		}
	}

	return r
}
