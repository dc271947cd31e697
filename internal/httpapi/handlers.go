package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"bkp-platform/internal/account"
	"bkp-platform/internal/audit"
	"bkp-platform/internal/auth"
	"bkp-platform/internal/ratelimit"
	"bkp-platform/internal/sso"
	"bkp-platform/internal/upload"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Accounts *account.Service
	Uploads  *upload.Service
	Audit    *audit.Service
	Limiter  *ratelimit.LoginLimiter
	SSO      sso.Verifier
	Prod     bool
}

// --- Health ---

func (h Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Hello greets the caller. Works for anonymous callers too; the greeting is
// personalized when a valid access token was presented.
func (h Handlers) Hello(c *gin.Context) {
	if id, ok := auth.IdentityFromContext(c.Request.Context()); ok {
		c.JSON(http.StatusOK, gin.H{"greeting": "hello, " + id.Username})
		return
	}
	c.JSON(http.StatusOK, gin.H{"greeting": "hello, stranger"})
}

// --- Auth ---

type registerRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h Handlers) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Name == "" || req.Username == "" || len(req.Password) < 8 {
		respondError(c, http.StatusBadRequest, "name, username and a password of at least 8 characters are required")
		return
	}

	pair, err := h.Accounts.Register(c.Request.Context(), account.RegisterInput{
		Name:     req.Name,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respondServiceError(c, h.Prod, err)
		return
	}
	c.JSON(http.StatusCreated, pair)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, "username and password are required")
		return
	}

	ip := c.ClientIP()
	if h.Limiter != nil && !h.Limiter.Allow(c.Request.Context(), req.Username, ip) {
		respondError(c, http.StatusTooManyRequests, "too many login attempts, try again later")
		return
	}

	pair, err := h.Accounts.Login(c.Request.Context(), account.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		respondServiceError(c, h.Prod, err)
		return
	}
	if h.Limiter != nil {
		h.Limiter.Reset(c.Request.Context(), req.Username, ip)
	}
	c.JSON(http.StatusOK, pair)
}

type ssoRequest struct {
	Provider string `json:"provider"`
	IDToken  string `json:"id_token"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

func (h Handlers) SSOLogin(c *gin.Context) {
	var req ssoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if !sso.ValidProvider(req.Provider) {
		respondError(c, http.StatusBadRequest, "unknown sso provider")
		return
	}

	profile, err := h.SSO.Verify(c.Request.Context(), sso.Credential{
		Provider: req.Provider,
		IDToken:  req.IDToken,
		Email:    req.Email,
		Name:     req.Name,
	})
	if err != nil {
		respondServiceError(c, h.Prod, err)
		return
	}

	pair, err := h.Accounts.SSOLogin(c.Request.Context(), account.SSOInput{
		Provider: req.Provider,
		Email:    profile.Email,
		Name:     profile.Name,
	})
	if err != nil {
		respondServiceError(c, h.Prod, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.RefreshToken == "" {
		respondError(c, http.StatusBadRequest, "refresh_token is required")
		return
	}

	pair, err := h.Accounts.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, h.Prod, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (h Handlers) ChangePassword(c *gin.Context) {
	id, ok := auth.IdentityFromContext(c.Request.Context())
	if !ok {
		respondError(c, http.StatusUnauthorized, "you are not authorized")
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.OldPassword == "" || len(req.NewPassword) < 8 {
		respondError(c, http.StatusBadRequest, "old password and a new password of at least 8 characters are required")
		return
	}

	if err := h.Accounts.ChangePassword(c.Request.Context(), id, account.ChangePasswordInput{
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	}); err != nil {
		respondServiceError(c, h.Prod, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) Me(c *gin.Context) {
	id, ok := auth.IdentityFromContext(c.Request.Context())
	if !ok {
		respondError(c, http.StatusUnauthorized, "you are not authorized")
		return
	}
	c.JSON(http.StatusOK, h.Accounts.Profile(c.Request.Context(), id))
}

// --- Uploads ---

type presignRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Prefix      string `json:"prefix"`
	ExpiresIn   int    `json:"expires_in"` // seconds
}

func (h Handlers) PresignUpload(c *gin.Context) {
	id, ok := auth.IdentityFromContext(c.Request.Context())
	if !ok {
		respondError(c, http.StatusUnauthorized, "you are not authorized")
		return
	}

	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}

	res, err := h.Uploads.Presign(c.Request.Context(), id, upload.PresignInput{
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Prefix:      req.Prefix,
		ExpiresIn:   time.Duration(req.ExpiresIn) * time.Second,
	})
	if err != nil {
		respondServiceError(c, h.Prod, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type confirmUploadRequest struct {
	Key string `json:"key"`
}

func (h Handlers) ConfirmUpload(c *gin.Context) {
	id, ok := auth.IdentityFromContext(c.Request.Context())
	if !ok {
		respondError(c, http.StatusUnauthorized, "you are not authorized")
		return
	}

	var req confirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Key == "" {
		respondError(c, http.StatusBadRequest, "key is required")
		return
	}

	res, err := h.Uploads.Confirm(c.Request.Context(), id, req.Key)
	if err != nil {
		respondServiceError(c, h.Prod, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// --- Admin ---

func (h Handlers) ListAuditEvents(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	events, err := h.Audit.List(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, h.Prod, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
