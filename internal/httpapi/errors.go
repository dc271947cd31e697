package httpapi

import (
	"errors"
	"net/http"

	"bkp-platform/internal/account"
	"bkp-platform/internal/auth"
	"bkp-platform/internal/sso"
	"bkp-platform/internal/upload"

	"github.com/gin-gonic/gin"
)

// respondError writes the wire error envelope: {"error": {"message": ...}}.
func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"message": message}})
}

// respondServiceError maps service sentinels to HTTP statuses. Unknown errors
// become a 500 with a generic message; the underlying detail is attached only
// outside production.
func respondServiceError(c *gin.Context, prod bool, err error) {
	switch {
	case errors.Is(err, account.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "invalid username or password")
	case errors.Is(err, account.ErrAlreadyExists):
		respondError(c, http.StatusConflict, "username is already taken")
	case errors.Is(err, account.ErrPasswordUnchanged):
		respondError(c, http.StatusBadRequest, "new password must differ from the old password")
	case errors.Is(err, account.ErrNotFound):
		respondError(c, http.StatusNotFound, "user not found")
	case errors.Is(err, auth.ErrInvalidToken):
		respondError(c, http.StatusUnauthorized, "invalid or expired token")
	case errors.Is(err, sso.ErrUnknownProvider):
		respondError(c, http.StatusBadRequest, "unknown sso provider")
	case errors.Is(err, sso.ErrInvalidAssertion):
		respondError(c, http.StatusUnauthorized, "sso assertion could not be verified")
	case errors.Is(err, upload.ErrInvalidInput):
		respondError(c, http.StatusBadRequest, "invalid upload request")
	case errors.Is(err, upload.ErrNotFound):
		respondError(c, http.StatusNotFound, "file not found")
	case errors.Is(err, upload.ErrNotUploaded):
		respondError(c, http.StatusBadRequest, "object has not been uploaded yet")
	default:
		body := gin.H{"message": "internal server error"}
		if !prod {
			body["details"] = err.Error()
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": body})
	}
}
