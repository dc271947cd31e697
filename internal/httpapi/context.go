package httpapi

import (
	"bkp-platform/internal/audit"
	"bkp-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RequestContext snapshots the request metadata audit events are stamped
// with and attaches it to the request context. Runs after logger.Middleware
// so the request id is already assigned.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := audit.Snapshot{
			RequestID: logger.RequestID(c),
			Method:    c.Request.Method,
			Path:      c.Request.URL.Path,
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		c.Request = c.Request.WithContext(audit.WithSnapshot(c.Request.Context(), snap))
		c.Next()
	}
}
